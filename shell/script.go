package shell

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

const (
	luaShellGlobal = "rushhour_shell"
	scriptTimeout  = 30 * time.Second
)

type scriptOutcome struct {
	Puzzle          string  `json:"puzzle"`
	Heuristic       string  `json:"heuristic"`
	Found           bool    `json:"found"`
	Depth           int     `json:"depth"`
	Generated       int     `json:"generated"`
	Expanded        int     `json:"expanded"`
	BranchingFactor float64 `json:"branching_factor"`
	DurationMs      int64   `json:"duration_ms"`
	Error           string  `json:"error,omitempty"`
}

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal(luaShellGlobal)
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func pushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func Load(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	r, err := sc.load(&shellcmd{
		cmd:     "load",
		args:    strings.Fields(lv),
		options: CmdOptions{},
	})
	if err != nil {
		log.Err(err).Msg("error-executing-load")
		return pushError(L, err)
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

// Read parses puzzle text, such as a body fetched with the http module, and
// makes it the loaded set.
func Read(L *lua.LState) int {
	text := L.ToString(1)
	name := L.OptString(2, "script")
	sc := getShell(L)
	r, err := sc.read(name, text)
	if err != nil {
		log.Err(err).Msg("error-executing-read")
		return pushError(L, err)
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Set(L *lua.LState) int {
	key := L.ToString(1)
	value := L.ToString(2)
	sc := getShell(L)
	r, err := sc.set(&shellcmd{
		cmd:  "set",
		args: []string{key, value},
	})
	if err != nil {
		log.Err(err).Msg("error-executing-set")
		return pushError(L, err)
	}
	L.Push(lua.LString(r.message))
	return 1
}

// Solve returns the outcome as a Lua table.
func Solve(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("solve " + lv)
	if err != nil {
		return pushError(L, err)
	}
	o, err := sc.solveOutcome(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-solve")
		return pushError(L, err)
	}
	so := scriptOutcome{
		Puzzle:          o.Puzzle,
		Heuristic:       o.Heuristic,
		Found:           o.Found,
		Depth:           o.Depth,
		Generated:       o.Generated,
		Expanded:        o.Expanded,
		BranchingFactor: o.BranchingFactor,
		DurationMs:      o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		so.Error = o.Err.Error()
	}
	bts, err := json.Marshal(so)
	if err != nil {
		return pushError(L, err)
	}
	lv2, err := luajson.Decode(L, bts)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lv2)
	return 1
}

func Batch(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("batch " + lv)
	if err != nil {
		return pushError(L, err)
	}
	r, err := sc.batch(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-batch")
		return pushError(L, err)
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{Timeout: scriptTimeout}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal(luaShellGlobal, lsc)
	L.SetGlobal("rushhour_load", L.NewFunction(Load))
	L.SetGlobal("rushhour_read", L.NewFunction(Read))
	L.SetGlobal("rushhour_set", L.NewFunction(Set))
	L.SetGlobal("rushhour_solve", L.NewFunction(Solve))
	L.SetGlobal("rushhour_batch", L.NewFunction(Batch))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
