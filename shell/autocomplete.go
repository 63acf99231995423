package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/rushhour/heuristic"
	"github.com/domino14/rushhour/puzzle"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
	// TakesPuzzle is set for commands whose first argument is a puzzle.
	TakesPuzzle bool
}

var commandMetadata = map[string]CommandMetadata{
	"load": {
		Options: []string{"-reload"},
	},
	"show": {
		TakesPuzzle: true,
	},
	"solve": {
		Options:     []string{"-heuristic", "-reopen", "-path"},
		TakesPuzzle: true,
	},
	"batch": {
		Options: []string{"-heuristics", "-threads", "-reopen", "-db", "-log",
			"-solutions", "-histogram"},
	},
	"runs": {
		Options:     []string{"-db"},
		TakesPuzzle: true,
	},
	"help": {
		Args: []string{"solve", "batch", "set", "script"},
	},
}

var commandNames = []string{
	"help", "load", "list", "show", "solve", "batch", "runs", "heuristics",
	"set", "script", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// If we can't parse, fall back to simple space splitting
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "heuristic", "heuristics":
				completions = heuristic.Names()
			case "reopen", "path", "reload", "histogram":
				completions = boolValues
			}
		}

		if completions == nil {
			metadata := commandMetadata[cmdName]
			// Only the first argument names a puzzle.
			firstArg := len(fields) == 1 || (len(fields) == 2 && !endsWithSpace)
			switch {
			case strings.HasPrefix(prefix, "-"):
				completions = metadata.Options
			case metadata.TakesPuzzle && firstArg:
				completions = lo.Map(c.sc.puzzles, func(p *puzzle.Puzzle, _ int) string {
					return p.Name()
				})
			case cmdName == "set" && firstArg:
				completions = c.sc.config.AllKeys()
			case len(metadata.Args) > 0:
				completions = metadata.Args
			default:
				completions = metadata.Options
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
