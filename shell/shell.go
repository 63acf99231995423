package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/rushhour/batch"
	"github.com/domino14/rushhour/config"
	"github.com/domino14/rushhour/puzzle"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("sending quit signal")
	errNoPuzzles         = errors.New("no puzzles loaded; use load <file>")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config
	writer io.Writer

	gitVersion string
	puzzleFile string
	puzzles    []*puzzle.Puzzle
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writePrompt() string {
	return "\033[33mrushhour>\033[0m "
}

// NewShellController sets up a readline-backed shell. The puzzle file named
// in cfg is loaded up front; a failure there is logged and the shell starts
// with no puzzles.
func NewShellController(cfg *config.Config, gitVersion string) *ShellController {
	sc := newController(cfg, gitVersion, os.Stdout)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          writePrompt(),
		HistoryFile:     filepath.Join(os.TempDir(), "rushhour_readline.tmp"),
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.writer = l.Stdout()

	if f := cfg.GetString(config.ConfigPuzzleFile); f != "" {
		if _, err := sc.load(&shellcmd{cmd: "load", args: []string{f}, options: CmdOptions{}}); err != nil {
			log.Warn().Err(err).Str("file", f).Msg("could not load startup puzzles")
		}
	}
	return sc
}

func newController(cfg *config.Config, gitVersion string, w io.Writer) *ShellController {
	return &ShellController{
		config:     cfg,
		writer:     w,
		gitVersion: gitVersion,
	}
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.writer, msg)
	io.WriteString(sc.writer, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for _, f := range fields[1:] {
		if !lastWasOption && strings.HasPrefix(f, "-") && len(f) > 1 {
			lastWasOption = true
			lastOption = f[1:]
			continue
		}
		if lastWasOption {
			lastWasOption = false
			options[lastOption] = append(options[lastOption], f)
		} else {
			args = append(args, f)
		}
	}
	if lastWasOption {
		// all options are non-boolean, cannot have a naked option.
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) dispatch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit":
		if sig != nil {
			sig <- syscall.SIGINT
		}
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "load":
		return sc.load(cmd)
	case "list":
		return sc.list(cmd)
	case "show":
		return sc.show(cmd)
	case "solve":
		return sc.solve(cmd)
	case "batch":
		return sc.batch(cmd)
	case "runs":
		return sc.runs(cmd)
	case "heuristics":
		return sc.heuristics(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, as given on the command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.dispatch(line, sig)
	if errors.Is(err, errQuit) {
		return
	}
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.dispatch(line, sig)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup is called once the shell is done.
func (sc *ShellController) Cleanup() {
	log.Debug().Int64("searches", batch.SearchesRun.Value()).Msg("shell-cleanup")
}
