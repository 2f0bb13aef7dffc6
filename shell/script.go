package shell

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("gsearch_shell")
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

// luaCommand wraps a shell command so a script can call it with a single
// string argument, the rest of the command line.
func luaCommand(name string, force map[string]string) lua.LGFunction {
	return func(L *lua.LState) int {
		lv := L.OptString(1, "")
		sc := getShell(L)
		cmd, err := extractFields(strings.TrimSpace(name + " " + lv))
		if err != nil {
			log.Err(err).Str("cmd", name).Msg("error-parsing-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		for k, v := range force {
			cmd.options[k] = []string{v}
		}
		r, err := sc.dispatch(cmd)
		if err != nil {
			log.Err(err).Str("cmd", name).Msg("error-executing-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			L.Push(lua.LString(""))
			return 1
		}
		L.Push(lua.LString(r.message))
		// return number of results pushed to stack.
		return 1
	}
}

// Best returns the move found by the last finished search, and its value.
func Best(L *lua.LState) int {
	sc := getShell(L)
	sc.Lock()
	best := sc.lastBest
	sc.Unlock()
	if best == nil {
		L.Push(lua.LNil)
		L.Push(lua.LNil)
		return 2
	}
	L.Push(lua.LString(best.ShortDescription()))
	L.Push(lua.LNumber(best.InheritedValue()))
	return 2
}

// Board returns the current position as nine characters.
func Board(L *lua.LState) int {
	sc := getShell(L)
	L.Push(lua.LString(sc.game.Squares()))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("gsearch_shell", lsc)
	L.SetGlobal("gsearch_new", L.NewFunction(luaCommand("new", nil)))
	L.SetGlobal("gsearch_play", L.NewFunction(luaCommand("play", nil)))
	L.SetGlobal("gsearch_undo", L.NewFunction(luaCommand("undo", nil)))
	L.SetGlobal("gsearch_gen", L.NewFunction(luaCommand("gen", nil)))
	L.SetGlobal("gsearch_set", L.NewFunction(luaCommand("set", nil)))
	L.SetGlobal("gsearch_show", L.NewFunction(luaCommand("show", nil)))
	L.SetGlobal("gsearch_search", L.NewFunction(luaCommand("search", map[string]string{"wait": "true"})))
	L.SetGlobal("gsearch_compare", L.NewFunction(luaCommand("compare", nil)))
	L.SetGlobal("gsearch_best", L.NewFunction(Best))
	L.SetGlobal("gsearch_board", L.NewFunction(Board))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
