package astar

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/rushhour/heuristic"
	"github.com/domino14/rushhour/puzzle"
)

func mustPuzzle(t *testing.T, name string, n int, cars []puzzle.Car) *puzzle.Puzzle {
	t.Helper()
	p, err := puzzle.New(name, n, cars)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

var (
	H = puzzle.Horizontal
	V = puzzle.Vertical
)

func trivialPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "trivial", 3, []puzzle.Car{{X: 2, Y: 1, Orientation: H, Size: 1}})
}

func blockerPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "blocker", 6, []puzzle.Car{
		{X: 0, Y: 2, Orientation: H, Size: 2},
		{X: 3, Y: 1, Orientation: V, Size: 2},
	})
}

func boxedPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "boxed", 3, []puzzle.Car{
		{X: 0, Y: 1, Orientation: H, Size: 2},
		{X: 2, Y: 1, Orientation: H, Size: 1},
	})
}

func chainPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "chain", 6, []puzzle.Car{
		{X: 0, Y: 2, Orientation: H, Size: 2},
		{X: 3, Y: 1, Orientation: V, Size: 2},
		{X: 2, Y: 0, Orientation: H, Size: 2},
		{X: 3, Y: 3, Orientation: H, Size: 3},
	})
}

// A crowded 6x6 layout.
func jamPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "jam", 6, []puzzle.Car{
		{X: 1, Y: 2, Orientation: H, Size: 2},
		{X: 0, Y: 0, Orientation: H, Size: 2},
		{X: 0, Y: 1, Orientation: V, Size: 3},
		{X: 0, Y: 4, Orientation: V, Size: 2},
		{X: 3, Y: 1, Orientation: V, Size: 2},
		{X: 5, Y: 0, Orientation: V, Size: 3},
		{X: 4, Y: 4, Orientation: H, Size: 2},
		{X: 2, Y: 5, Orientation: H, Size: 3},
	})
}

// bfsDepth returns the length of a shortest solution, or -1.
func bfsDepth(p *puzzle.Puzzle) int {
	type entry struct {
		s     *puzzle.State
		depth int
	}
	seen := map[uint64][]*puzzle.State{}
	visited := func(s *puzzle.State) bool {
		for _, o := range seen[s.Hash()] {
			if o.Equal(s) {
				return true
			}
		}
		seen[s.Hash()] = append(seen[s.Hash()], s)
		return false
	}
	init := p.InitialState()
	visited(init)
	queue := []entry{{init, 0}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.s.IsGoal() {
			return e.depth
		}
		for _, n := range e.s.Expand() {
			if !visited(n) {
				queue = append(queue, entry{n, e.depth + 1})
			}
		}
	}
	return -1
}

func assertValidPath(t *testing.T, p *puzzle.Puzzle, res *Result) {
	t.Helper()
	is := is.NewRelaxed(t)
	is.True(res.Found)
	is.Equal(len(res.Path), res.Depth()+1)
	is.True(res.Path[0].Equal(p.InitialState()))
	is.True(res.Path[len(res.Path)-1].IsGoal())
	for i := 0; i+1 < len(res.Path); i++ {
		reachable := false
		for _, n := range res.Path[i].Expand() {
			if n.Equal(res.Path[i+1]) {
				reachable = true
				break
			}
		}
		is.True(reachable)
	}
}

func TestTrivial(t *testing.T) {
	is := is.New(t)
	p := trivialPuzzle(t)
	res, err := Search(p, heuristic.NewZero(p))
	is.NoErr(err)
	is.True(res.Found)
	is.Equal(res.Depth(), 1)
	is.Equal(len(res.Path), 2)
	is.Equal(res.Path[1].VariablePosition(0), 3)
	is.Equal(res.Generated, p.SearchCount())
	assertValidPath(t, p, res)
}

func TestFullRowGoalCar(t *testing.T) {
	is := is.New(t)
	// A goal car filling its row still needs one move to leave.
	q := mustPuzzle(t, "full", 3, []puzzle.Car{{X: 0, Y: 1, Orientation: H, Size: 3}})
	is.True(!q.InitialState().IsGoal())
	res, err := Search(q, heuristic.NewBlocking(q))
	is.NoErr(err)
	is.Equal(res.Depth(), 1)
}

func TestBlocker(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	for _, name := range heuristic.Names() {
		hr, err := heuristic.New(name, p)
		is.NoErr(err)
		res, err := Search(p, hr)
		is.NoErr(err)
		is.Equal(res.Depth(), 2)
		assertValidPath(t, p, res)
	}
}

func TestNoSolution(t *testing.T) {
	is := is.New(t)
	p := boxedPuzzle(t)
	res, err := Search(p, heuristic.NewZero(p))
	is.NoErr(err)
	is.True(!res.Found)
	is.True(res.Path == nil)
	is.Equal(res.Depth(), -1)
	// boxed has a finite state space: the lone small car has nowhere to go.
	is.Equal(res.Expanded, 1)
	is.Equal(res.Generated, 1)
}

func TestOptimalAgainstBFS(t *testing.T) {
	is := is.New(t)
	puzzles := []func(*testing.T) *puzzle.Puzzle{
		trivialPuzzle, blockerPuzzle, chainPuzzle, jamPuzzle,
	}
	for _, mk := range puzzles {
		want := bfsDepth(mk(t))
		is.True(want > 0)
		for _, name := range []string{heuristic.ZeroName, heuristic.BlockingName} {
			p := mk(t)
			hr, err := heuristic.New(name, p)
			is.NoErr(err)
			res, err := Search(p, hr, WithHeuristicChecks())
			is.NoErr(err)
			is.Equal(res.Depth(), want)
			assertValidPath(t, p, res)
		}
	}
}

func TestInformedExpandsLess(t *testing.T) {
	is := is.New(t)
	p := jamPuzzle(t)
	zero, err := Search(p, heuristic.NewZero(p))
	is.NoErr(err)
	blocking, err := Search(p, heuristic.NewBlocking(p))
	is.NoErr(err)
	is.Equal(zero.Depth(), blocking.Depth())
	is.True(blocking.Expanded <= zero.Expanded)
}

func TestAdvancedFindsSolution(t *testing.T) {
	is := is.New(t)
	for _, mk := range []func(*testing.T) *puzzle.Puzzle{chainPuzzle, jamPuzzle} {
		p := mk(t)
		res, err := Search(p, heuristic.NewAdvanced(p, heuristic.DefaultMaxDepth),
			WithReopenClosed(), WithHeuristicChecks())
		is.NoErr(err)
		assertValidPath(t, p, res)
		is.True(res.Depth() >= bfsDepth(mk(t)))
	}
}

func TestSearchCountReset(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	p.IncrementSearchCount(1000)
	first, err := Search(p, heuristic.NewZero(p))
	is.NoErr(err)
	second, err := Search(p, heuristic.NewZero(p))
	is.NoErr(err)
	is.Equal(first.Generated, second.Generated)
	is.True(first.Generated < 1000)
}

func TestNodeLimit(t *testing.T) {
	is := is.New(t)
	p := chainPuzzle(t)
	res, err := Search(p, heuristic.NewZero(p), WithNodeLimit(1))
	is.True(errors.Is(err, ErrNodeLimit))
	is.True(res == nil)

	// A generous limit changes nothing.
	res, err = Search(p, heuristic.NewZero(p), WithNodeLimit(1_000_000))
	is.NoErr(err)
	is.Equal(res.Depth(), 3)
}

func TestContextCancelled(t *testing.T) {
	is := is.New(t)
	p := chainPuzzle(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := SearchContext(ctx, p, heuristic.NewZero(p))
	is.True(errors.Is(err, context.Canceled))
	is.True(res == nil)
}

func TestNodeBudget(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	is.Equal(NodeBudget(0, p), 0)
	is.True(NodeBudget(0.01, p) >= 0)
}

// gatesPuzzle has the goal car in the top row of a 5x5 grid, held back by
// four tall vertical cars. Each one has two resting places and clears the
// top row in the lower one, so a solution takes five moves.
func gatesPuzzle(t *testing.T) *puzzle.Puzzle {
	cars := []puzzle.Car{{X: 0, Y: 0, Orientation: H, Size: 1}}
	for x := 1; x <= 4; x++ {
		cars = append(cars, puzzle.Car{X: x, Y: 0, Orientation: V, Size: 4})
	}
	return mustPuzzle(t, "gates", 5, cars)
}

// lureHeuristic is 3 on the two states where only the first or only the
// second gate is open, and 0 everywhere else. It never overestimates on
// gatesPuzzle, but it jumps by 3 across a single move from the start.
type lureHeuristic struct{}

func (lureHeuristic) Value(s *puzzle.State) int {
	pos := s.Positions()
	if slices.Equal(pos, []int{0, 1, 0, 0, 0}) || slices.Equal(pos, []int{0, 0, 1, 0, 0}) {
		return 3
	}
	return 0
}

func TestReopenClosed(t *testing.T) {
	is := is.New(t)
	want := bfsDepth(gatesPuzzle(t))
	is.Equal(want, 5)

	// Both first moves that lead to {1,1,0,0} are deferred, so that state
	// is first expanded four moves deep and must be re-opened once they
	// come off OPEN.
	p := gatesPuzzle(t)
	res, err := Search(p, lureHeuristic{}, WithReopenClosed(), WithHeuristicChecks())
	is.NoErr(err)
	is.True(res.Reopened > 0)
	is.Equal(res.Depth(), want)
	assertValidPath(t, p, res)

	p = gatesPuzzle(t)
	res, err = Search(p, lureHeuristic{})
	is.NoErr(err)
	is.Equal(res.Reopened, 0)
	is.True(res.Depth() >= want)
	assertValidPath(t, p, res)

	// Ties on f put deeper nodes first, so repeated runs agree.
	first, err := Search(gatesPuzzle(t), lureHeuristic{}, WithReopenClosed())
	is.NoErr(err)
	second, err := Search(gatesPuzzle(t), lureHeuristic{}, WithReopenClosed())
	is.NoErr(err)
	is.Equal(first.Expanded, second.Expanded)
	is.Equal(first.Reopened, second.Reopened)
}
