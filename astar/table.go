package astar

import (
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rushhour/puzzle"
)

// stateTable maps every state seen during a search to its item. It serves
// both as the index of the open queue and as the closed set. States are
// bucketed by zobrist hash and compared in full, so hash collisions cost a
// little time but never a wrong answer.
type stateTable struct {
	buckets    map[uint64][]*item
	created    uint64
	lookups    uint64
	hits       uint64
	collisions uint64
}

func newStateTable() *stateTable {
	return &stateTable{buckets: make(map[uint64][]*item)}
}

func (t *stateTable) lookup(s *puzzle.State) *item {
	t.lookups++
	bucket := t.buckets[s.Hash()]
	for _, it := range bucket {
		if it.node.State().Equal(s) {
			t.hits++
			return it
		}
	}
	if len(bucket) > 0 {
		t.collisions++
	}
	return nil
}

func (t *stateTable) store(it *item) {
	k := it.node.State().Hash()
	t.buckets[k] = append(t.buckets[k], it)
	t.created++
}

func (t *stateTable) size() int {
	return int(t.created)
}

// Rough per-state footprint: the item, its node and state, the position
// slice and the table slot.
const baseNodeBytes = 200

// NodeBudget converts a fraction of the machine's memory into a node
// limit for puzzles like p. It returns 0, meaning no limit, if the total
// memory cannot be determined or fraction is not positive.
func NodeBudget(fraction float64, p *puzzle.Puzzle) int {
	totalMem := memory.TotalMemory()
	if totalMem == 0 || fraction <= 0 {
		return 0
	}
	perNode := baseNodeBytes + 8*p.NumCars()
	budget := int(fraction * float64(totalMem) / float64(perNode))
	log.Debug().Uint64("total-system-memory-bytes", totalMem).
		Float64("fraction", fraction).
		Int("bytes-per-node", perNode).
		Int("node-budget", budget).
		Msg("node-budget")
	return budget
}
