// Package report turns batch outcomes into text: the per-puzzle summary
// table, per-heuristic statistics, histograms and a YAML log of solutions.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/rushhour/batch"
	"github.com/domino14/rushhour/puzzle"
	"github.com/domino14/rushhour/stats"
)

const (
	nameWidth      = 10
	heuristicWidth = 24
	confidence     = 95
)

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(" ", n-len(s)) + s
}

// rightPad pads or truncates s to exactly n bytes.
func rightPad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// SummaryTable writes one row per puzzle and, for each heuristic, the
// number of generated nodes, the solution depth, the branching factor and
// the duration in milliseconds.
func SummaryTable(w io.Writer, outcomes []*batch.Outcome, heuristics []string) error {
	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", nameWidth))
	for _, h := range heuristics {
		sb.WriteString(" |    " + rightPad(h, heuristicWidth))
	}
	sb.WriteString("\n")

	sb.WriteString(rightPad("name", nameWidth))
	for range heuristics {
		sb.WriteString(" |    nodes dpth  br.fac  dur.")
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", nameWidth))
	for range heuristics {
		sb.WriteString("-+----------------------------")
	}
	sb.WriteString("\n")

	type key struct{ puzzle, heuristic string }
	byKey := lo.KeyBy(outcomes, func(o *batch.Outcome) key {
		return key{o.Puzzle, o.Heuristic}
	})
	names := lo.Uniq(lo.Map(outcomes, func(o *batch.Outcome, _ int) string {
		return o.Puzzle
	}))

	for _, name := range names {
		sb.WriteString(rightPad(name, nameWidth))
		for _, h := range heuristics {
			o, ok := byKey[key{name, h}]
			if !ok || o.Failed() {
				sb.WriteString(" |  ** search failed ** ")
				continue
			}
			fmt.Fprintf(&sb, " | %s %s %s%s",
				leftPad(fmt.Sprint(o.Generated), 8),
				leftPad(fmt.Sprint(o.Depth), 4),
				leftPad(fmt.Sprintf("%.3f", o.BranchingFactor), 7),
				leftPad(fmt.Sprint(o.Duration.Milliseconds()), 6))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// HeuristicSummary aggregates the outcomes of one heuristic. Statistics
// cover solved searches only.
type HeuristicSummary struct {
	Heuristic string
	Solved    int
	Failed    int
	Generated stats.Statistic
	Depth     stats.Statistic
	Branching stats.Statistic
	Duration  stats.Statistic
}

// HeuristicStats summarizes outcomes per heuristic, in the given order.
func HeuristicStats(outcomes []*batch.Outcome, heuristics []string) []*HeuristicSummary {
	byHeuristic := lo.GroupBy(outcomes, func(o *batch.Outcome) string {
		return o.Heuristic
	})
	summaries := make([]*HeuristicSummary, 0, len(heuristics))
	for _, h := range heuristics {
		s := &HeuristicSummary{Heuristic: h}
		for _, o := range byHeuristic[h] {
			if o.Failed() {
				s.Failed++
				continue
			}
			s.Solved++
			s.Generated.Push(float64(o.Generated))
			s.Depth.Push(float64(o.Depth))
			s.Branching.Push(o.BranchingFactor)
			s.Duration.Push(float64(o.Duration) / float64(time.Millisecond))
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// WriteHeuristicStats writes the mean of each measurement with its 95%
// confidence interval.
func WriteHeuristicStats(w io.Writer, summaries []*HeuristicSummary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s %6s %6s %22s %16s %16s\n", heuristicWidth,
		"heuristic", "solved", "failed", "nodes", "depth", "br.fac")
	for _, s := range summaries {
		fmt.Fprintf(&sb, "%-*s %6d %6d %12.1f ± %-7.1f %8.2f ± %-5.2f %8.3f ± %-5.3f\n",
			heuristicWidth, s.Heuristic, s.Solved, s.Failed,
			s.Generated.Mean(), s.Generated.ConfidenceInterval(confidence),
			s.Depth.Mean(), s.Depth.ConfidenceInterval(confidence),
			s.Branching.Mean(), s.Branching.ConfidenceInterval(confidence))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// NodesHistogram plots the distribution of log10 of the nodes generated
// by the solved searches of one heuristic.
func NodesHistogram(w io.Writer, outcomes []*batch.Outcome, heuristic string, bins int) error {
	vals := lo.FilterMap(outcomes, func(o *batch.Outcome, _ int) (float64, bool) {
		return math.Log10(float64(o.Generated)), o.Heuristic == heuristic && !o.Failed()
	})
	if len(vals) == 0 {
		_, err := fmt.Fprintf(w, "no solved searches for %s\n", heuristic)
		return err
	}
	hist := histogram.Hist(bins, vals)
	return histogram.Fprintf(w, hist, histogram.Linear(30), func(v float64) string {
		return fmt.Sprintf("%.0f", math.Pow(10, v))
	})
}

// LogSolution is one solved search in the solution log.
type LogSolution struct {
	Puzzle    string    `yaml:"puzzle"`
	Heuristic string    `yaml:"heuristic"`
	Depth     int       `yaml:"depth"`
	Generated int       `yaml:"generated"`
	Steps     []LogStep `yaml:"steps"`
}

// LogStep holds the variable position of every car after a move.
type LogStep struct {
	Step      int   `yaml:"step"`
	Positions []int `yaml:"positions,flow"`
}

func logSolution(o *batch.Outcome) LogSolution {
	return LogSolution{
		Puzzle:    o.Puzzle,
		Heuristic: o.Heuristic,
		Depth:     o.Depth,
		Generated: o.Generated,
		Steps: lo.Map(o.Path, func(s *puzzle.State, i int) LogStep {
			return LogStep{Step: i, Positions: s.Positions()}
		}),
	}
}

// WriteSolutionLog writes every solved outcome as a YAML sequence.
func WriteSolutionLog(w io.Writer, outcomes []*batch.Outcome) error {
	solved := lo.FilterMap(outcomes, func(o *batch.Outcome, _ int) (LogSolution, bool) {
		if o.Failed() {
			return LogSolution{}, false
		}
		return logSolution(o), true
	})
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(solved); err != nil {
		return err
	}
	return enc.Close()
}

// ReadSolutionLog parses a log written by WriteSolutionLog.
func ReadSolutionLog(r io.Reader) ([]LogSolution, error) {
	var solutions []LogSolution
	if err := yaml.NewDecoder(r).Decode(&solutions); err != nil && err != io.EOF {
		return nil, err
	}
	return solutions, nil
}

// PathText renders every state of a solution path, separated by blank
// lines.
func PathText(path []*puzzle.State) string {
	var sb strings.Builder
	for i, s := range path {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.ToDisplayText())
	}
	return sb.String()
}
