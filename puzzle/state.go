package puzzle

import (
	"errors"
	"fmt"
	"slices"
)

// Empty marks an unoccupied cell in a Grid.
const Empty = -1

var ErrBadPositions = errors.New("invalid car positions")

// State is one configuration of a puzzle: the variable position of every
// car. States are immutable; two states are equal if they belong to the
// same puzzle and place every car identically.
type State struct {
	puzzle *Puzzle
	pos    []int
	hash   uint64
}

// NewState builds a state from a position vector, which is copied. The
// vector must have one entry per car, keep every car on the board (the
// goal car may also sit at the exit position) and must not overlap cars.
func NewState(p *Puzzle, positions []int) (*State, error) {
	if len(positions) != p.NumCars() {
		return nil, fmt.Errorf("%w: want %d positions, got %d", ErrBadPositions,
			p.NumCars(), len(positions))
	}
	for v, pos := range positions {
		hi := p.gridSize - p.size[v]
		if v == GoalCar {
			hi = p.GoalPosition()
		}
		if pos < 0 || pos > hi {
			return nil, fmt.Errorf("%w: car %d at %d", ErrBadPositions, v, pos)
		}
	}
	pos := slices.Clone(positions)
	s := newState(p, pos, p.zobrist.Hash(pos))
	seen := 0
	for _, row := range s.Grid() {
		for _, c := range row {
			if c != Empty {
				seen++
			}
		}
	}
	want := 0
	for v := range pos {
		want += s.visibleSize(v)
	}
	if seen != want {
		return nil, fmt.Errorf("%w: %v", ErrBadPositions, ErrOverlap)
	}
	return s, nil
}

func newState(p *Puzzle, pos []int, hash uint64) *State {
	return &State{puzzle: p, pos: pos, hash: hash}
}

// IsGoal returns true if and only if the goal car has driven off the board.
func (s *State) IsGoal() bool {
	return s.pos[GoalCar] == s.puzzle.GoalPosition()
}

// VariablePosition returns the variable position of car v.
func (s *State) VariablePosition(v int) int {
	return s.pos[v]
}

// Positions returns a copy of the position vector.
func (s *State) Positions() []int {
	return slices.Clone(s.pos)
}

func (s *State) Puzzle() *Puzzle {
	return s.puzzle
}

// Hash returns the zobrist hash of the state. Equal states hash equally.
func (s *State) Hash() uint64 {
	return s.hash
}

func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if o == nil || s.puzzle != o.puzzle || s.hash != o.hash {
		return false
	}
	return slices.Equal(s.pos, o.pos)
}

func (s *State) String() string {
	return fmt.Sprintf("%s%v", s.puzzle.name, s.pos)
}

// visibleSize is the number of on-board cells covered by car v; only a goal
// car that is leaving the board covers fewer cells than its size.
func (s *State) visibleSize(v int) int {
	size := s.puzzle.size[v]
	if over := s.pos[v] + size - s.puzzle.gridSize; over > 0 {
		size -= over
	}
	return size
}

// Grid is an occupancy view of a state, indexed Grid[y][x]. Each cell holds
// the index of the car covering it, or Empty.
type Grid [][]int

// Cell returns the occupant of column x, row y.
func (g Grid) Cell(x, y int) int {
	return g[y][x]
}

// Along returns the occupant of the cell at offset along on the line a car
// with orientation o and fixed coordinate fixed moves on.
func (g Grid) Along(o Orientation, fixed, along int) int {
	if o == Vertical {
		return g[along][fixed]
	}
	return g[fixed][along]
}

// Grid computes the occupancy grid of the state. It is recomputed on every
// call.
func (s *State) Grid() Grid {
	n := s.puzzle.gridSize
	grid := make(Grid, n)
	for y := range grid {
		grid[y] = make([]int, n)
		for x := range grid[y] {
			grid[y][x] = Empty
		}
	}
	for v := range s.pos {
		fp := s.puzzle.fixed[v]
		for d := 0; d < s.visibleSize(v); d++ {
			if s.puzzle.orient[v] == Vertical {
				grid[s.pos[v]+d][fp] = v
			} else {
				grid[fp][s.pos[v]+d] = v
			}
		}
	}
	return grid
}

// Expand computes every state reachable by sliding one car to a new resting
// cell. A car that can slide k cells in one direction yields k successors.
// The goal car may additionally stop at the exit position. The puzzle's
// search counter is incremented by the number of successors.
func (s *State) Expand() []*State {
	p := s.puzzle
	n := p.gridSize
	grid := s.Grid()
	var next []*State

	for v, pos := range s.pos {
		fp := p.fixed[v]
		o := p.orient[v]
		size := p.size[v]
		for np := pos - 1; np >= 0 && grid.Along(o, fp, np) == Empty; np-- {
			next = append(next, s.slide(v, np))
		}
		for lead := pos + size; (lead < n && grid.Along(o, fp, lead) == Empty) ||
			(v == GoalCar && lead == n); lead++ {
			next = append(next, s.slide(v, lead-size+1))
		}
	}

	p.IncrementSearchCount(len(next))
	return next
}

func (s *State) slide(v, to int) *State {
	pos := slices.Clone(s.pos)
	pos[v] = to
	return newState(s.puzzle, pos, s.puzzle.zobrist.Slide(s.hash, v, s.pos[v], to))
}
