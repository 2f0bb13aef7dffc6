// Package shell is an interactive front end for playing with the search
// engine on tic-tac-toe.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/gamesearch/config"
	"github.com/domino14/gamesearch/games/tictactoe"
	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
	"github.com/domino14/gamesearch/tree"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errSearching         = errors.New("a search is running; stop it first")
	errNotSearching      = errors.New("no search is running")
	errExit              = errors.New("exit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l        *readline.Instance
	out      io.Writer
	config   *config.Config
	execPath string

	options search.Options
	weights search.Weights
	game    *tictactoe.Game

	// guards the fields below, which the search goroutine writes
	sync.Mutex
	runner   *search.Runner
	lastTree *tree.Node
	lastBest *move.Move
	logFile  *os.File
	treePath string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func newController(cfg *config.Config, execPath string, out io.Writer) *ShellController {
	opts, err := search.OptionsFromConfig(cfg)
	if err != nil {
		log.Err(err).Msg("bad-search-options-using-defaults")
		opts = search.DefaultOptions()
	}
	sc := &ShellController{
		out:      out,
		config:   cfg,
		execPath: execPath,
		options:  opts,
		weights:  append(search.Weights(nil), tictactoe.DefaultWeights...),
	}
	sc.game = tictactoe.New(&sc.options)
	return sc
}

// NewShellController sets up a readline-driven shell.
func NewShellController(cfg *config.Config, execPath string) *ShellController {
	prompt := "\033[32mgsearch>\033[0m "
	sc := newController(cfg, execPath, os.Stdout)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.GetString(config.ConfigHistoryFile),
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
	sc.out = l.Stdout()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
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
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[idx][1:]
			options[key] = append(options[key], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "show":
		return sc.show(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "gen":
		return sc.generate(cmd)
	case "search":
		return sc.search(cmd)
	case "pause":
		return sc.pause(cmd)
	case "continue":
		return sc.cont(cmd)
	case "stop":
		return sc.stop(cmd)
	case "progress":
		return sc.progress(cmd)
	case "tree":
		return sc.exportTree(cmd)
	case "compare":
		return sc.compare(cmd)
	case "set":
		return sc.set(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	}
	return nil, fmt.Errorf("unrecognized command %q; try help", cmd.cmd)
}

// Execute runs a single command line and waits for any search it starts.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	cmd, err := extractFields(line)
	if err != nil {
		sc.showError(err)
		return
	}
	if cmd.cmd == "search" {
		cmd.options["wait"] = []string{"true"}
	}
	resp, err := sc.dispatch(cmd)
	if err != nil && !errors.Is(err, errExit) {
		sc.showError(err)
		return
	}
	if resp != nil && resp.message != "" {
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
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := extractFields(line)
		if err != nil {
			sc.showError(err)
			continue
		}
		resp, err := sc.dispatch(cmd)
		if errors.Is(err, errExit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}

// Cleanup stops any running search and waits for it.
func (sc *ShellController) Cleanup() {
	sc.Lock()
	r := sc.runner
	sc.Unlock()
	if r != nil && r.IsSearching() {
		r.Stop()
		r.Wait()
	}
}
