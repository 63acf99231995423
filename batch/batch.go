// Package batch runs every configured heuristic on every puzzle of a set and
// collects the outcomes, solving several puzzles at once.
package batch

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/rushhour/astar"
	"github.com/domino14/rushhour/config"
	"github.com/domino14/rushhour/heuristic"
	"github.com/domino14/rushhour/puzzle"
	"github.com/domino14/rushhour/stats"
)

var (
	SearchesRun *expvar.Int
	IsSearching *expvar.Int
)

func init() {
	SearchesRun = expvar.NewInt("searchesRun")
	IsSearching = expvar.NewInt("isSearching")
}

var ErrBatchRunning = errors.New("a batch is already running, please wait till complete")

// LogHeader is the first line of the CSV log.
const LogHeader = "puzzle,heuristic,found,depth,generated,expanded,reopened,branchingFactor,durationMs,error\n"

// Outcome is the result of one heuristic on one puzzle. Err is set when
// the search was abandoned (timeout, node limit); an unsolvable puzzle is
// not an error.
type Outcome struct {
	Puzzle          string
	Fingerprint     uint64
	Heuristic       string
	Found           bool
	Depth           int
	Generated       int
	Expanded        int
	Reopened        int
	BranchingFactor float64
	Duration        time.Duration
	Path            []*puzzle.State
	Err             error
}

// Failed is true if no solution path is available.
func (o *Outcome) Failed() bool {
	return o.Err != nil || !o.Found
}

func (o *Outcome) csv() string {
	errString := ""
	if o.Err != nil {
		errString = o.Err.Error()
	}
	return fmt.Sprintf("%s,%s,%v,%d,%d,%d,%d,%.3f,%d,%q\n",
		o.Puzzle, o.Heuristic, o.Found, o.Depth, o.Generated, o.Expanded,
		o.Reopened, o.BranchingFactor, o.Duration.Milliseconds(), errString)
}

// Runner holds the search settings shared by every search of a batch.
type Runner struct {
	heuristics      []string
	threads         int
	timeout         time.Duration
	memFraction     float64
	reopenClosed    bool
	checkHeuristics bool
	maxDepth        int

	logWriter io.Writer
}

// NewRunner builds a runner from the search settings in cfg.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		heuristics:      cfg.Heuristics(),
		threads:         cfg.GetInt(config.ConfigThreads),
		timeout:         cfg.GetDuration(config.ConfigSearchTimeout),
		memFraction:     cfg.GetFloat64(config.ConfigMaxMemoryFraction),
		reopenClosed:    cfg.GetBool(config.ConfigReopenClosed),
		checkHeuristics: cfg.GetBool(config.ConfigCheckHeuristics),
		maxDepth:        cfg.GetInt(config.ConfigAdvancedMaxDepth),
	}
}

func (r *Runner) SetHeuristics(names []string) {
	r.heuristics = names
}

func (r *Runner) Heuristics() []string {
	return r.heuristics
}

func (r *Runner) SetThreads(n int) {
	r.threads = n
}

func (r *Runner) SetReopenClosed(b bool) {
	r.reopenClosed = b
}

// LogTo makes Run write one CSV line per outcome to w.
func (r *Runner) LogTo(w io.Writer) {
	r.logWriter = w
}

func (r *Runner) validate() error {
	if len(r.heuristics) == 0 {
		return errors.New("no heuristics to run")
	}
	if bad, ok := lo.Find(r.heuristics, func(n string) bool {
		return !lo.Contains(heuristic.Names(), n)
	}); ok {
		return fmt.Errorf("%w: %q", heuristic.ErrUnknownHeuristic, bad)
	}
	return nil
}

func (r *Runner) searchOptions(p *puzzle.Puzzle) []astar.Option {
	var opts []astar.Option
	if r.reopenClosed {
		opts = append(opts, astar.WithReopenClosed())
	}
	if r.checkHeuristics {
		opts = append(opts, astar.WithHeuristicChecks())
	}
	if r.memFraction > 0 {
		if limit := astar.NodeBudget(r.memFraction, p); limit > 0 {
			opts = append(opts, astar.WithNodeLimit(limit))
		}
	}
	return opts
}

// Solve runs one heuristic on one puzzle. A non-nil error means ctx was
// done; the per-search timeout and node limit are reported in the outcome.
func (r *Runner) Solve(ctx context.Context, p *puzzle.Puzzle, name string) (*Outcome, error) {
	o := &Outcome{
		Puzzle:      p.Name(),
		Fingerprint: p.Fingerprint(),
		Heuristic:   name,
		Depth:       -1,
	}
	h, err := heuristic.New(name, p, heuristic.WithMaxDepth(r.maxDepth))
	if err != nil {
		return nil, err
	}

	sctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	IsSearching.Add(1)
	start := time.Now()
	res, err := astar.NewSolver(r.searchOptions(p)...).Search(sctx, p, h)
	o.Duration = time.Since(start)
	IsSearching.Add(-1)
	SearchesRun.Add(1)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.Err = err
		o.Generated = p.SearchCount()
		log.Info().Str("puzzle", o.Puzzle).Str("heuristic", name).Err(err).Msg("search-abandoned")
		return o, nil
	}

	o.Found = res.Found
	o.Depth = res.Depth()
	o.Generated = res.Generated
	o.Expanded = res.Expanded
	o.Reopened = res.Reopened
	o.Path = res.Path
	if res.Found {
		o.BranchingFactor, err = stats.BranchingFactor(res.Generated, o.Depth)
		if err != nil {
			log.Err(err).Str("puzzle", o.Puzzle).Msg("branching-factor")
		}
	}
	log.Debug().Str("puzzle", o.Puzzle).Str("heuristic", name).
		Bool("found", o.Found).Int("depth", o.Depth).Int("generated", o.Generated).
		Dur("duration", o.Duration).Msg("search-done")
	return o, nil
}

// Run solves every puzzle with every heuristic. Outcomes are ordered by
// puzzle, then by heuristic in the runner's order. Each worker owns one
// puzzle at a time and runs the heuristics on it one after the other.
func (r *Runner) Run(ctx context.Context, puzzles []*puzzle.Puzzle) ([]*Outcome, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if IsSearching.Value() > 0 {
		return nil, ErrBatchRunning
	}
	threads := max(1, r.threads)
	log.Info().Int("puzzles", len(puzzles)).Strs("heuristics", r.heuristics).
		Int("threads", threads).Msg("starting-batch")

	var logChan chan string
	var logWG sync.WaitGroup
	if r.logWriter != nil {
		logChan = make(chan string, 100)
		logWG.Add(1)
		go func() {
			defer logWG.Done()
			io.WriteString(r.logWriter, LogHeader)
			for msg := range logChan {
				io.WriteString(r.logWriter, msg)
			}
		}()
	}

	nh := len(r.heuristics)
	outcomes := make([]*Outcome, len(puzzles)*nh)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i, p := range puzzles {
		i, p := i, p
		g.Go(func() error {
			for j, name := range r.heuristics {
				o, err := r.Solve(gctx, p, name)
				if err != nil {
					return err
				}
				outcomes[i*nh+j] = o
				if logChan != nil {
					logChan <- o.csv()
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if logChan != nil {
		close(logChan)
		logWG.Wait()
	}
	if err != nil {
		log.Info().Err(err).Msg("batch-stopped")
		return nil, err
	}
	log.Info().Int("searches", len(outcomes)).Msg("batch-finished")
	return outcomes, nil
}
