package heuristic

import (
	"errors"
	"testing"

	"github.com/matryer/is"

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

// One vertical car crossing the goal row.
func blockerPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "blocker", 6, []puzzle.Car{
		{X: 0, Y: 2, Orientation: puzzle.Horizontal, Size: 2},
		{X: 3, Y: 1, Orientation: puzzle.Vertical, Size: 2},
	})
}

// The blocker is itself blocked both ways, each by one car.
func chainPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "chain", 6, []puzzle.Car{
		{X: 0, Y: 2, Orientation: puzzle.Horizontal, Size: 2},
		{X: 3, Y: 1, Orientation: puzzle.Vertical, Size: 2},
		{X: 2, Y: 0, Orientation: puzzle.Horizontal, Size: 2},
		{X: 3, Y: 3, Orientation: puzzle.Horizontal, Size: 3},
	})
}

// The goal car can never get past the car in front of it.
func boxedPuzzle(t *testing.T) *puzzle.Puzzle {
	return mustPuzzle(t, "boxed", 3, []puzzle.Car{
		{X: 0, Y: 1, Orientation: puzzle.Horizontal, Size: 2},
		{X: 2, Y: 1, Orientation: puzzle.Horizontal, Size: 1},
	})
}

func goalState(t *testing.T, p *puzzle.Puzzle) *puzzle.State {
	t.Helper()
	pos := p.InitialState().Positions()
	pos[puzzle.GoalCar] = p.GoalPosition()
	s, err := puzzle.NewState(p, pos)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRegistry(t *testing.T) {
	is := is.New(t)
	is.Equal(Names(), []string{"advanced", "blocking", "zero"})

	p := blockerPuzzle(t)
	for _, n := range Names() {
		h, err := New(n, p)
		is.NoErr(err)
		is.True(h != nil)
	}
	_, err := New("manhattan", p)
	is.True(errors.Is(err, ErrUnknownHeuristic))

	h, err := New(AdvancedName, p, WithMaxDepth(7))
	is.NoErr(err)
	is.Equal(h.(*Advanced).maxDepth, 7)
}

func TestZero(t *testing.T) {
	is := is.New(t)
	p := chainPuzzle(t)
	h := NewZero(p)
	is.Equal(h.Value(p.InitialState()), 0)
	is.Equal(h.Value(goalState(t, p)), 0)
}

func TestBlocking(t *testing.T) {
	is := is.New(t)

	p := blockerPuzzle(t)
	h := NewBlocking(p)
	is.Equal(h.Value(p.InitialState()), 2)
	is.Equal(crossingBlockers(p, p.InitialState()), []int{1})
	is.Equal(h.Value(goalState(t, p)), 0)

	// Blocker moved out of the way.
	s, err := puzzle.NewState(p, []int{0, 3})
	is.NoErr(err)
	is.Equal(h.Value(s), 1)
	is.Equal(len(crossingBlockers(p, s)), 0)

	// Cars behind the goal car do not count.
	behind := mustPuzzle(t, "behind", 6, []puzzle.Car{
		{X: 2, Y: 2, Orientation: puzzle.Horizontal, Size: 2},
		{X: 1, Y: 1, Orientation: puzzle.Vertical, Size: 3},
	})
	is.Equal(NewBlocking(behind).Value(behind.InitialState()), 1)

	is.Equal(NewBlocking(chainPuzzle(t)).Value(chainPuzzle(t).InitialState()), 2)
}

func TestAdvanced(t *testing.T) {
	is := is.New(t)

	p := blockerPuzzle(t)
	h := NewAdvanced(p, DefaultMaxDepth)
	is.Equal(h.Value(p.InitialState()), 2)
	is.Equal(h.Value(goalState(t, p)), 0)

	c := chainPuzzle(t)
	ha := NewAdvanced(c, DefaultMaxDepth)
	is.Equal(ha.Value(c.InitialState()), 3)
	// Calls do not leak state into each other.
	is.Equal(ha.Value(c.InitialState()), 3)
	is.True(ha.Value(c.InitialState()) >= NewBlocking(c).Value(c.InitialState()))

	b := boxedPuzzle(t)
	is.Equal(NewAdvanced(b, DefaultMaxDepth).Value(b.InitialState()), Infinity)
}

func TestAdvancedDepthCap(t *testing.T) {
	is := is.New(t)
	c := chainPuzzle(t)
	// With depth 1 the blocker's own blockers are not examined.
	h := NewAdvanced(c, 1)
	is.Equal(h.Value(c.InitialState()), 2)
}

func TestAdvancedPushesParallelCar(t *testing.T) {
	is := is.New(t)
	// A vertical goal car with a vertical car below it in the same column
	// can only leave if that car could leave too, which it cannot.
	p := mustPuzzle(t, "stacked", 4, []puzzle.Car{
		{X: 1, Y: 0, Orientation: puzzle.Vertical, Size: 2},
		{X: 1, Y: 2, Orientation: puzzle.Vertical, Size: 2},
	})
	is.Equal(NewAdvanced(p, DefaultMaxDepth).Value(p.InitialState()), Infinity)

	// The blocker cannot go up past car 3, which sits against the wall, but
	// it can push car 2 down to the last row.
	q := mustPuzzle(t, "push", 6, []puzzle.Car{
		{X: 0, Y: 2, Orientation: puzzle.Horizontal, Size: 2},
		{X: 3, Y: 1, Orientation: puzzle.Vertical, Size: 2},
		{X: 3, Y: 3, Orientation: puzzle.Vertical, Size: 1},
		{X: 3, Y: 0, Orientation: puzzle.Vertical, Size: 1},
	})
	is.Equal(NewAdvanced(q, DefaultMaxDepth).Value(q.InitialState()), 3)
}

func TestChecked(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	h := Checked(NewBlocking(p))
	is.Equal(h.Value(p.InitialState()), 2)
	is.Equal(h.Value(goalState(t, p)), 0)
	is.True(Checked(h) == h)

	defer func() {
		is.True(recover() != nil)
	}()
	Checked(constant(3)).Value(goalState(t, p))
	t.Fatal("expected panic")
}

func TestCheckedNegative(t *testing.T) {
	is := is.New(t)
	p := blockerPuzzle(t)
	defer func() {
		is.True(recover() != nil)
	}()
	Checked(constant(-1)).Value(p.InitialState())
	t.Fatal("expected panic")
}

type constant int

func (c constant) Value(*puzzle.State) int {
	return int(c)
}
