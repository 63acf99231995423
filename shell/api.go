package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/rushhour/batch"
	"github.com/domino14/rushhour/cache"
	"github.com/domino14/rushhour/config"
	"github.com/domino14/rushhour/heuristic"
	"github.com/domino14/rushhour/puzzle"
	"github.com/domino14/rushhour/puzzleio"
	"github.com/domino14/rushhour/report"
	"github.com/domino14/rushhour/store"
)

const histogramBins = 10

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for load")
	}
	if batch.IsSearching.Value() > 0 {
		return nil, batch.ErrBatchRunning
	}
	filename := cmd.args[0]
	loader := cache.LoadPuzzles
	if cmd.options.Bool("reload") {
		loader = cache.ReloadPuzzles
	}
	puzzles, err := loader(sc.config, filename)
	if err != nil {
		return nil, err
	}
	sc.puzzleFile = filename
	sc.puzzles = puzzles
	log.Debug().Str("file", filename).Int("puzzles", len(puzzles)).Msg("loaded-puzzles")
	return msg(fmt.Sprintf("loaded %d puzzles from %s", len(puzzles), filename)), nil
}

// read replaces the loaded set with the puzzles in text. The set is not
// cached.
func (sc *ShellController) read(name, text string) (*Response, error) {
	if batch.IsSearching.Value() > 0 {
		return nil, batch.ErrBatchRunning
	}
	puzzles, err := puzzleio.Read(strings.NewReader(text), name)
	if err != nil {
		return nil, err
	}
	sc.puzzleFile = name
	sc.puzzles = puzzles
	return msg(fmt.Sprintf("read %d puzzles from %s", len(puzzles), name)), nil
}

func (sc *ShellController) list(cmd *shellcmd) (*Response, error) {
	if len(sc.puzzles) == 0 {
		return nil, errNoPuzzles
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", sc.puzzleFile)
	for i, p := range sc.puzzles {
		fmt.Fprintf(&sb, "%3d. %-20s %dx%d %3d cars\n", i+1, p.Name(), p.GridSize(),
			p.GridSize(), p.NumCars())
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// findPuzzle looks a puzzle up by name or by its 1-based number in the
// loaded set.
func (sc *ShellController) findPuzzle(ref string) (*puzzle.Puzzle, error) {
	if len(sc.puzzles) == 0 {
		return nil, errNoPuzzles
	}
	if p, ok := lo.Find(sc.puzzles, func(p *puzzle.Puzzle) bool {
		return p.Name() == ref
	}); ok {
		return p, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sc.puzzles) {
		return sc.puzzles[n-1], nil
	}
	return nil, fmt.Errorf("puzzle %q not found in %s", ref, sc.puzzleFile)
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need a puzzle name or number")
	}
	p, err := sc.findPuzzle(cmd.args[0])
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%dx%d, %d cars, fingerprint %016x)\n", p.Name(),
		p.GridSize(), p.GridSize(), p.NumCars(), p.Fingerprint())
	sb.WriteString(p.InitialState().ToDisplayText())
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) newRunner() *batch.Runner {
	return batch.NewRunner(sc.config)
}

// solveOutcome runs the solve command and returns its raw outcome.
func (sc *ShellController) solveOutcome(cmd *shellcmd) (*batch.Outcome, error) {
	if cmd.args == nil {
		return nil, errors.New("need a puzzle name or number")
	}
	p, err := sc.findPuzzle(cmd.args[0])
	if err != nil {
		return nil, err
	}
	name := cmd.options.String("heuristic")
	if name == "" {
		name = heuristic.BlockingName
		if hs := sc.config.Heuristics(); len(hs) > 0 {
			name = hs[0]
		}
	}
	r := sc.newRunner()
	if _, ok := cmd.options["reopen"]; ok {
		r.SetReopenClosed(cmd.options.Bool("reopen"))
	}
	return r.Solve(context.Background(), p, name)
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	o, err := sc.solveOutcome(cmd)
	if err != nil {
		return nil, err
	}
	return msg(outcomeText(o, cmd.options.Bool("path"))), nil
}

func outcomeText(o *batch.Outcome, withPath bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s with %s: ", o.Puzzle, o.Heuristic)
	switch {
	case o.Err != nil:
		fmt.Fprintf(&sb, "search abandoned after %d nodes (%v)", o.Generated, o.Err)
	case !o.Found:
		fmt.Fprintf(&sb, "no solution; %d nodes generated", o.Generated)
	default:
		fmt.Fprintf(&sb, "%d moves, %d nodes generated, %d expanded, branching factor %.3f",
			o.Depth, o.Generated, o.Expanded, o.BranchingFactor)
	}
	fmt.Fprintf(&sb, " in %v", o.Duration.Round(time.Microsecond))
	if withPath && len(o.Path) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimRight(report.PathText(o.Path), "\n"))
	}
	return sb.String()
}

func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if len(sc.puzzles) == 0 {
		return nil, errNoPuzzles
	}
	r := sc.newRunner()
	if hs := cmd.options.StringArray("heuristics"); len(hs) > 0 {
		names := lo.Compact(lo.FlatMap(hs, func(s string, _ int) []string {
			return strings.Split(s, ",")
		}))
		r.SetHeuristics(names)
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	r.SetThreads(threads)
	if _, ok := cmd.options["reopen"]; ok {
		r.SetReopenClosed(cmd.options.Bool("reopen"))
	}

	if logFile := cmd.options.String("log"); logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r.LogTo(f)
	}

	outcomes, err := r.Run(context.Background(), sc.puzzles)
	if err != nil {
		return nil, err
	}

	dbFile := cmd.options.String("db")
	if dbFile == "" {
		dbFile = sc.config.GetString(config.ConfigResultsDB)
	}
	if dbFile != "" {
		if err := saveOutcomes(dbFile, outcomes); err != nil {
			return nil, err
		}
		log.Info().Str("db", dbFile).Int("rows", len(outcomes)).Msg("saved-outcomes")
	}

	solutionLog := cmd.options.String("solutions")
	if solutionLog == "" {
		solutionLog = sc.config.GetString(config.ConfigSolutionLog)
	}
	if solutionLog != "" {
		f, err := os.Create(solutionLog)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := report.WriteSolutionLog(f, outcomes); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	if err := report.SummaryTable(&sb, outcomes, r.Heuristics()); err != nil {
		return nil, err
	}
	sb.WriteString("\n")
	if err := report.WriteHeuristicStats(&sb, report.HeuristicStats(outcomes, r.Heuristics())); err != nil {
		return nil, err
	}
	if cmd.options.Bool("histogram") {
		for _, h := range r.Heuristics() {
			fmt.Fprintf(&sb, "\nnodes generated, %s:\n", h)
			if err := report.NodesHistogram(&sb, outcomes, h, histogramBins); err != nil {
				return nil, err
			}
		}
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func saveOutcomes(dbFile string, outcomes []*batch.Outcome) error {
	ctx := context.Background()
	s, err := store.Open(ctx, dbFile)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveOutcomes(ctx, outcomes)
}

func (sc *ShellController) runs(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need a puzzle name or number")
	}
	p, err := sc.findPuzzle(cmd.args[0])
	if err != nil {
		return nil, err
	}
	dbFile := cmd.options.String("db")
	if dbFile == "" {
		dbFile = sc.config.GetString(config.ConfigResultsDB)
	}
	if dbFile == "" {
		return nil, errors.New("no results database; use -db or set results-db")
	}
	ctx := context.Background()
	s, err := store.Open(ctx, dbFile)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	runs, err := s.Runs(ctx, p.Fingerprint())
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return msg("no stored runs for " + p.Name()), nil
	}
	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s %-12s found=%-5v depth=%-4d nodes=%-9d br.fac=%.3f %v %s\n",
			r.CreatedAt.Format(time.DateTime), r.Heuristic, r.Found, r.Depth,
			r.Generated, r.BranchingFactor, r.Duration, r.Error)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) heuristics(cmd *shellcmd) (*Response, error) {
	configured := sc.config.Heuristics()
	lines := lo.Map(heuristic.Names(), func(n string, _ int) string {
		if lo.Contains(configured, n) {
			return "* " + n
		}
		return "  " + n
	})
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		settings := sc.config.SanitizedSettings()
		keys := lo.Keys(settings)
		slices.Sort(keys)
		lines := lo.Map(keys, func(k string, _ int) string {
			return fmt.Sprintf("%s: %v", k, settings[k])
		})
		return msg(strings.Join(lines, "\n")), nil
	}
	key := cmd.args[0]
	if !slices.Contains(sc.config.AllKeys(), key) {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	value := strings.Join(cmd.args[1:], " ")
	if key == config.ConfigHeuristics {
		bad, found := lo.Find(strings.Split(value, ","), func(n string) bool {
			return !lo.Contains(heuristic.Names(), strings.TrimSpace(n))
		})
		if found {
			return nil, fmt.Errorf("%w: %q", heuristic.ErrUnknownHeuristic, bad)
		}
	}
	sc.config.Set(key, value)
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		r, err := usage("standard")
		if err != nil {
			return nil, err
		}
		if sc.gitVersion != "" {
			r.message = "rushhour " + sc.gitVersion + "\n\n" + r.message
		}
		return r, nil
	}
	return usageTopic(cmd.args[0])
}
