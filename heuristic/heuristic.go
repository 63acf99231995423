// Package heuristic contains the estimates used to guide the A* search. A
// heuristic maps a state to a non-negative estimate of the number of moves
// still needed, and must return 0 on goal states.
package heuristic

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/domino14/rushhour/puzzle"
)

// Infinity is returned for states from which the goal car can never leave.
// It is large enough to push such states behind every live state without
// overflowing f = g + h.
const Infinity = 1_000_000

const (
	ZeroName     = "zero"
	BlockingName = "blocking"
	AdvancedName = "advanced"
)

// DefaultMaxDepth bounds the recursion of the advanced heuristic.
const DefaultMaxDepth = 4

var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Heuristic is implemented by every estimate. Implementations are bound to
// one puzzle at construction and may be called many times; no state carries
// over between calls.
type Heuristic interface {
	Value(s *puzzle.State) int
}

type options struct {
	maxDepth int
}

type Option func(*options)

// WithMaxDepth sets the recursion cap of the advanced heuristic.
func WithMaxDepth(d int) Option {
	return func(o *options) { o.maxDepth = d }
}

type factory func(p *puzzle.Puzzle, o *options) Heuristic

var registry = map[string]factory{
	ZeroName: func(p *puzzle.Puzzle, _ *options) Heuristic {
		return NewZero(p)
	},
	BlockingName: func(p *puzzle.Puzzle, _ *options) Heuristic {
		return NewBlocking(p)
	},
	AdvancedName: func(p *puzzle.Puzzle, o *options) Heuristic {
		return NewAdvanced(p, o.maxDepth)
	},
}

// Names lists the registered heuristics in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the named heuristic for a puzzle.
func New(name string, p *puzzle.Puzzle, opts ...Option) (Heuristic, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
	}
	o := &options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	return f(p, o), nil
}

type checked struct {
	h Heuristic
}

// Checked wraps h with assertions of the heuristic contract. The returned
// heuristic panics if h returns a negative value, or a non-zero value at a
// goal state. Meant for debugging; a violating heuristic otherwise yields
// wrong solutions silently.
func Checked(h Heuristic) Heuristic {
	if _, ok := h.(*checked); ok {
		return h
	}
	return &checked{h: h}
}

func (c *checked) Value(s *puzzle.State) int {
	v := c.h.Value(s)
	if v < 0 {
		panic(fmt.Sprintf("heuristic %T returned negative value %d at %v", c.h, v, s))
	}
	if v != 0 && s.IsGoal() {
		panic(fmt.Sprintf("heuristic %T returned %d at goal state %v", c.h, v, s))
	}
	return v
}

// Zero always returns 0, turning A* into uniform-cost search.
type Zero struct{}

func NewZero(*puzzle.Puzzle) *Zero {
	return &Zero{}
}

func (z *Zero) Value(*puzzle.State) int {
	return 0
}

// Blocking returns 0 at goal states and otherwise one plus the number of
// cars crossing the goal car's path to the exit.
type Blocking struct {
	p *puzzle.Puzzle
}

func NewBlocking(p *puzzle.Puzzle) *Blocking {
	return &Blocking{p: p}
}

func (b *Blocking) Value(s *puzzle.State) int {
	if s.IsGoal() {
		return 0
	}
	return 1 + len(crossingBlockers(b.p, s))
}

// crossingBlockers returns the cars perpendicular to the goal car that
// cover a cell of its line ahead of it.
func crossingBlockers(p *puzzle.Puzzle, s *puzzle.State) []int {
	orient := p.Orientation(puzzle.GoalCar)
	line := p.FixedPosition(puzzle.GoalCar)
	front := s.VariablePosition(puzzle.GoalCar) + p.CarSize(puzzle.GoalCar)

	return lo.Filter(lo.RangeFrom(1, p.NumCars()-1), func(v int, _ int) bool {
		if p.Orientation(v) == orient || p.FixedPosition(v) < front {
			return false
		}
		pos := s.VariablePosition(v)
		return line >= pos && line < pos+p.CarSize(v)
	})
}
