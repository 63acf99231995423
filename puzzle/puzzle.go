// Package puzzle models a Rush Hour puzzle: the static geometry of its cars,
// the configurations (states) they can be in, and the search nodes built on
// top of those states.
//
// Every car is constrained to move either horizontally or vertically, so
// each car has one fixed coordinate, stored on the Puzzle, and one variable
// coordinate, stored on the State. The goal car is always car 0.
package puzzle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/domino14/rushhour/zobrist"
)

// GoalCar is the index of the car that must drive off the board.
const GoalCar = 0

var (
	ErrNoCars      = errors.New("each puzzle must have a positive number of cars")
	ErrBadGridSize = errors.New("grid size must be positive")
	ErrBadCarSize  = errors.New("cars must have positive size")
	ErrOutOfBounds = errors.New("cars must be within bounds of grid")
	ErrOverlap     = errors.New("cars cannot overlap")
)

// Orientation is the axis a car slides along.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "v"
	}
	return "h"
}

// Car describes one car as it appears in a puzzle description: the
// coordinates of its top-left cell, its orientation, and its length.
type Car struct {
	X           int
	Y           int
	Orientation Orientation
	Size        int
}

// Puzzle is a single Rush Hour puzzle. It is immutable after construction,
// except for the search counter, which records how many states have been
// generated during the current search.
type Puzzle struct {
	name     string
	gridSize int

	orient []Orientation
	size   []int
	fixed  []int

	initNode    *Node
	searchCount int

	zobrist     *zobrist.Zobrist
	fingerprint uint64
}

// New validates the car layout and builds a puzzle. Cars must have positive
// size, fit within the grid and not overlap. Car 0 is the goal car.
func New(name string, gridSize int, cars []Car) (*Puzzle, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadGridSize, gridSize)
	}
	if len(cars) == 0 {
		return nil, ErrNoCars
	}
	p := &Puzzle{
		name:     name,
		gridSize: gridSize,
		orient:   make([]Orientation, len(cars)),
		size:     make([]int, len(cars)),
		fixed:    make([]int, len(cars)),
	}
	varPos := make([]int, len(cars))

	occupied := make([][]bool, gridSize)
	for i := range occupied {
		occupied[i] = make([]bool, gridSize)
	}

	for v, c := range cars {
		if c.Size <= 0 {
			return nil, fmt.Errorf("car %d: %w", v, ErrBadCarSize)
		}
		if c.X < 0 || c.Y < 0 ||
			(c.Orientation == Vertical && (c.X >= gridSize || c.Y+c.Size > gridSize)) ||
			(c.Orientation == Horizontal && (c.Y >= gridSize || c.X+c.Size > gridSize)) {
			return nil, fmt.Errorf("car %d at (%d,%d): %w", v, c.X, c.Y, ErrOutOfBounds)
		}
		for d := 0; d < c.Size; d++ {
			x, y := c.X, c.Y
			if c.Orientation == Vertical {
				y += d
			} else {
				x += d
			}
			if occupied[y][x] {
				return nil, fmt.Errorf("car %d at (%d,%d): %w", v, x, y, ErrOverlap)
			}
			occupied[y][x] = true
		}

		p.orient[v] = c.Orientation
		p.size[v] = c.Size
		if c.Orientation == Vertical {
			p.fixed[v] = c.X
			varPos[v] = c.Y
		} else {
			p.fixed[v] = c.Y
			varPos[v] = c.X
		}
	}

	p.zobrist = &zobrist.Zobrist{}
	p.zobrist.Initialize(len(cars), gridSize)
	p.fingerprint = fingerprint(name, gridSize, cars)

	p.initNode = NewNode(newState(p, varPos, p.zobrist.Hash(varPos)), 0, nil)
	p.ResetSearchCount()
	return p, nil
}

func fingerprint(name string, gridSize int, cars []Car) uint64 {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d", name, gridSize)
	for _, c := range cars {
		fmt.Fprintf(&sb, "|%d,%d,%s,%d", c.X, c.Y, c.Orientation, c.Size)
	}
	return xxhash.Sum64String(sb.String())
}

// Name returns the name of this puzzle.
func (p *Puzzle) Name() string {
	return p.name
}

// GridSize returns the length of one side of the (square) grid.
func (p *Puzzle) GridSize() int {
	return p.gridSize
}

func (p *Puzzle) NumCars() int {
	return len(p.size)
}

// FixedPosition returns the coordinate car v cannot move along: its column
// for a vertical car, its row for a horizontal car.
func (p *Puzzle) FixedPosition(v int) int {
	return p.fixed[v]
}

func (p *Puzzle) CarSize(v int) int {
	return p.size[v]
}

func (p *Puzzle) Orientation(v int) Orientation {
	return p.orient[v]
}

// GoalPosition is the variable position of the goal car once it has driven
// off the board: its leading edge sits on the exit boundary.
func (p *Puzzle) GoalPosition() int {
	return p.gridSize - p.size[GoalCar] + 1
}

// Cars reconstructs the car descriptions the puzzle was built from.
func (p *Puzzle) Cars() []Car {
	init := p.initNode.State()
	cars := make([]Car, p.NumCars())
	for v := range cars {
		c := Car{Orientation: p.orient[v], Size: p.size[v]}
		if p.orient[v] == Vertical {
			c.X, c.Y = p.fixed[v], init.pos[v]
		} else {
			c.X, c.Y = init.pos[v], p.fixed[v]
		}
		cars[v] = c
	}
	return cars
}

// InitialNode returns the root search node of this puzzle.
func (p *Puzzle) InitialNode() *Node {
	return p.initNode
}

func (p *Puzzle) InitialState() *State {
	return p.initNode.State()
}

// Fingerprint is a stable digest of the puzzle's name and geometry. Unlike
// state hashes it does not change between program runs.
func (p *Puzzle) Fingerprint() uint64 {
	return p.fingerprint
}

// IncrementSearchCount adds d to the number of generated states.
func (p *Puzzle) IncrementSearchCount(d int) {
	p.searchCount += d
}

// SearchCount returns the number of states generated on the current search,
// counting the initial state.
func (p *Puzzle) SearchCount() int {
	return p.searchCount
}

// ResetSearchCount resets the counter to 1, for the initial node. It must be
// called before each search; a puzzle must not be searched by two
// goroutines at once.
func (p *Puzzle) ResetSearchCount() {
	p.searchCount = 1
}
