// Package astar implements best-first A* search over puzzle states.
//
// OPEN is a binary heap ordered by f = g + h, breaking ties in favor of the
// deeper node and then of the node inserted first. Every state seen is
// recorded in a table that doubles as the CLOSED set, so each distinct
// state is expanded at most once unless re-opening is enabled.
package astar

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/rushhour/heuristic"
	"github.com/domino14/rushhour/puzzle"
)

// How many expansions go by between checks of the context.
const ctxCheckInterval = 1024

var ErrNodeLimit = errors.New("node limit reached before a solution was found")

// Result is the outcome of a search. If Found is false the puzzle has no
// solution and Path is nil.
type Result struct {
	// Path holds the states from the initial state to a goal state.
	Path  []*puzzle.State
	Found bool
	// Expanded counts the states removed from OPEN and expanded.
	Expanded int
	// Generated is the puzzle's search counter after the search: the
	// initial state plus every successor generated, duplicates included.
	Generated int
	// Reopened counts CLOSED states put back on OPEN.
	Reopened int
	// Stored counts the distinct states seen.
	Stored  int
	Elapsed time.Duration
}

// Depth returns the number of moves in the solution, or -1 if there is none.
func (r *Result) Depth() int {
	if !r.Found {
		return -1
	}
	return len(r.Path) - 1
}

type Solver struct {
	reopenClosed    bool
	nodeLimit       int
	checkHeuristics bool
}

type Option func(*Solver)

// WithReopenClosed makes the search re-open a CLOSED state when a strictly
// shorter path to it is found. This only matters for heuristics that are
// not consistent.
func WithReopenClosed() Option {
	return func(s *Solver) { s.reopenClosed = true }
}

// WithNodeLimit aborts the search with ErrNodeLimit after n expansions. A
// non-positive n means no limit.
func WithNodeLimit(n int) Option {
	return func(s *Solver) { s.nodeLimit = n }
}

// WithHeuristicChecks wraps the heuristic with heuristic.Checked.
func WithHeuristicChecks() Option {
	return func(s *Solver) { s.checkHeuristics = true }
}

func NewSolver(opts ...Option) *Solver {
	s := &Solver{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search solves p with a solver built from opts.
func Search(p *puzzle.Puzzle, h heuristic.Heuristic, opts ...Option) (*Result, error) {
	return NewSolver(opts...).Search(context.Background(), p, h)
}

// SearchContext is like Search, but gives up with ctx.Err() once ctx is
// done.
func SearchContext(ctx context.Context, p *puzzle.Puzzle, h heuristic.Heuristic,
	opts ...Option) (*Result, error) {

	return NewSolver(opts...).Search(ctx, p, h)
}

// Search runs A* from the initial node of p. The puzzle's search counter is
// reset first; a puzzle must not be searched by two goroutines at once.
func (s *Solver) Search(ctx context.Context, p *puzzle.Puzzle, h heuristic.Heuristic) (*Result, error) {
	if s.checkHeuristics {
		h = heuristic.Checked(h)
	}
	start := time.Now()
	p.ResetSearchCount()

	open := &openQueue{}
	table := newStateTable()
	var seq uint64
	res := &Result{}

	push := func(n *puzzle.Node) {
		hv := h.Value(n.State())
		it := &item{node: n, g: n.Depth(), h: hv, f: n.Depth() + hv, seq: seq}
		seq++
		table.store(it)
		heap.Push(open, it)
	}

	finish := func() {
		res.Generated = p.SearchCount()
		res.Stored = table.size()
		res.Elapsed = time.Since(start)
		log.Debug().Str("puzzle", p.Name()).
			Bool("found", res.Found).
			Int("depth", res.Depth()).
			Int("expanded", res.Expanded).
			Int("generated", res.Generated).
			Int("reopened", res.Reopened).
			Uint64("table-lookups", table.lookups).
			Uint64("table-hits", table.hits).
			Uint64("table-collisions", table.collisions).
			Dur("elapsed", res.Elapsed).
			Msg("astar-finished")
	}

	log.Debug().Str("puzzle", p.Name()).
		Bool("reopen-closed", s.reopenClosed).
		Int("node-limit", s.nodeLimit).
		Msg("astar-starting")

	push(p.InitialNode())

	for open.Len() > 0 {
		if res.Expanded%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				finish()
				return nil, err
			}
		}
		cur := heap.Pop(open).(*item)
		cur.closed = true

		if cur.node.State().IsGoal() {
			res.Found = true
			res.Path = cur.node.Path()
			break
		}
		if s.nodeLimit > 0 && res.Expanded >= s.nodeLimit {
			finish()
			return nil, ErrNodeLimit
		}
		res.Expanded++

		for _, child := range cur.node.Expand() {
			prev := table.lookup(child.State())
			if prev == nil {
				push(child)
				continue
			}
			s.improve(open, prev, child, &seq, res)
		}
	}

	finish()
	return res, nil
}

// improve points prev at child if child reaches the same state by a strictly
// shorter path. A CLOSED prev goes back on OPEN only when re-opening is
// enabled. It reports whether prev changed.
func (s *Solver) improve(open *openQueue, prev *item, child *puzzle.Node, seq *uint64, res *Result) bool {
	g := child.Depth()
	if g >= prev.g {
		return false
	}
	if prev.closed {
		if !s.reopenClosed {
			return false
		}
		prev.closed = false
		prev.node, prev.g, prev.f = child, g, g+prev.h
		prev.seq = *seq
		*seq++
		heap.Push(open, prev)
		res.Reopened++
		return true
	}
	prev.node, prev.g, prev.f = child, g, g+prev.h
	heap.Fix(open, prev.index)
	return true
}
