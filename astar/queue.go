package astar

import (
	"github.com/domino14/rushhour/puzzle"
)

// item is the search record kept for every distinct state seen: the best
// node found for it so far and its costs. index is the item's position in
// the open queue, or -1 once it has been popped.
type item struct {
	node   *puzzle.Node
	g      int
	h      int
	f      int
	seq    uint64
	index  int
	closed bool
}

// openQueue implements heap.Interface. Items are ordered by f, then by
// deeper g first, then by insertion order.
type openQueue []*item

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g > q[j].g
	}
	return q[i].seq < q[j].seq
}

func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *openQueue) Push(x any) {
	it := x.(*item)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}
