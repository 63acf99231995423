package heuristic

import (
	"github.com/domino14/rushhour/puzzle"
)

// Advanced estimates the moves needed by recursively working out what it
// takes to clear the goal car's path: every car crossing the path must be
// moved out of it, which in turn may require moving the cars in its way,
// and so on up to a fixed depth. A car parallel to a mover on the same line
// has to be pushed ahead of it.
//
// Advanced dominates Blocking but is not guaranteed admissible, so A*
// driven by it may return non-optimal solutions.
type Advanced struct {
	p        *puzzle.Puzzle
	maxDepth int
}

func NewAdvanced(p *puzzle.Puzzle, maxDepth int) *Advanced {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Advanced{p: p, maxDepth: maxDepth}
}

func (a *Advanced) Value(s *puzzle.State) int {
	if s.IsGoal() {
		return 0
	}
	e := &evaluation{
		p:        a.p,
		s:        s,
		grid:     s.Grid(),
		onPath:   make([]bool, a.p.NumCars()),
		maxDepth: a.maxDepth,
	}
	e.onPath[puzzle.GoalCar] = true
	pos := s.VariablePosition(puzzle.GoalCar)
	return add(1, e.slideCost(puzzle.GoalCar, pos, a.p.GoalPosition(), 1))
}

// evaluation is the scratch space of a single Value call. onPath marks the
// cars on the current chain of dependencies.
type evaluation struct {
	p        *puzzle.Puzzle
	s        *puzzle.State
	grid     puzzle.Grid
	onPath   []bool
	maxDepth int
}

// vacate returns the estimated number of moves, including the move of v
// itself, for car v to stop covering variable coordinates lo..hi.
func (e *evaluation) vacate(v, lo, hi, depth int) int {
	if e.onPath[v] || depth > e.maxDepth {
		return 1
	}
	e.onPath[v] = true
	defer func() { e.onPath[v] = false }()

	pos := e.s.VariablePosition(v)
	size := e.p.CarSize(v)
	best := Infinity
	if back := lo - size; back >= 0 {
		best = min(best, e.slideCost(v, pos, back, depth))
	}
	if fwd := hi + 1; fwd+size <= e.p.GridSize() {
		best = min(best, e.slideCost(v, pos, fwd, depth))
	}
	return add(1, best)
}

// slideCost returns the estimated number of moves of other cars needed
// before v can slide from variable position from to position to.
func (e *evaluation) slideCost(v, from, to, depth int) int {
	n := e.p.GridSize()
	o := e.p.Orientation(v)
	line := e.p.FixedPosition(v)
	size := e.p.CarSize(v)

	forward := to > from
	first, last, step := from-1, to, -1
	if forward {
		first, last, step = from+size, to+size-1, 1
	}

	cost := 0
	for c := first; (forward && c <= last) || (!forward && c >= last); c += step {
		if c >= n {
			break
		}
		d := e.grid.Along(o, line, c)
		if d == puzzle.Empty || d == v {
			continue
		}
		if e.p.Orientation(d) != o {
			cost = add(cost, e.vacate(d, line, line, depth+1))
			if cost >= Infinity {
				return Infinity
			}
			continue
		}
		// d shares the line with v and must be pushed clear of v's
		// destination. Its own slide covers the rest of v's sweep.
		return add(cost, e.push(d, v, to, forward, depth+1))
	}
	return cost
}

func (e *evaluation) push(d, pusher, to int, forward bool, depth int) int {
	dsize := e.p.CarSize(d)
	target := to - dsize
	if forward {
		target = to + e.p.CarSize(pusher)
	}
	hi := e.p.GridSize() - dsize
	if d == puzzle.GoalCar {
		hi = e.p.GoalPosition()
	}
	if target < 0 || target > hi {
		return Infinity
	}
	if e.onPath[d] || depth > e.maxDepth {
		return 1
	}
	e.onPath[d] = true
	defer func() { e.onPath[d] = false }()
	return add(1, e.slideCost(d, e.s.VariablePosition(d), target, depth))
}

// add is saturating addition at Infinity.
func add(a, b int) int {
	if a+b >= Infinity {
		return Infinity
	}
	return a + b
}
