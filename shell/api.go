package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/gamesearch/bench"
	"github.com/domino14/gamesearch/config"
	"github.com/domino14/gamesearch/games/tictactoe"
	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
	"github.com/domino14/gamesearch/tree"
	"github.com/domino14/gamesearch/treestore"
)

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

// BoolDefault is like Bool, but returns defaultB if the option is absent.
func (c CmdOptions) BoolDefault(key string, defaultB bool) bool {
	if _, ok := c[key]; !ok {
		return defaultB
	}
	return c.Bool(key)
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) searching() bool {
	sc.Lock()
	defer sc.Unlock()
	return sc.runner != nil && sc.runner.IsSearching()
}

func (sc *ShellController) currentRunner() (*search.Runner, error) {
	sc.Lock()
	defer sc.Unlock()
	if sc.runner == nil || !sc.runner.IsSearching() {
		return nil, errNotSearching
	}
	return sc.runner, nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if sc.searching() {
		return nil, errSearching
	}
	if len(cmd.args) == 0 {
		sc.game = tictactoe.New(&sc.options)
		return msg(sc.game.String()), nil
	}
	g, err := tictactoe.FromSquares(strings.Join(cmd.args, ""), &sc.options)
	if err != nil {
		return nil, err
	}
	sc.game = g
	return msg(sc.game.String()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	s := sc.game.String()
	sc.Lock()
	best := sc.lastBest
	sc.Unlock()
	if best != nil {
		s += fmt.Sprintf("last search: %v (%v)\n", best.ShortDescription(), best.InheritedValue())
	}
	return msg(s), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.searching() {
		return nil, errSearching
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <square>, for example play b2")
	}
	sq, err := tictactoe.ParseSquare(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := sc.game.Play(sq); err != nil {
		return nil, err
	}
	return msg(sc.game.String()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.searching() {
		return nil, errSearching
	}
	if err := sc.game.Undo(); err != nil {
		return nil, err
	}
	return msg(sc.game.String()), nil
}

func moveTableHeader() string {
	return fmt.Sprintf("%-4s%-8s%8s", "#", "Move", "Value")
}

func moveTableRow(idx int, m *move.Move) string {
	return fmt.Sprintf("%-4d%-8s%8.1f", idx+1, m.ShortDescription(), m.Value())
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	moves := sc.game.GenerateMoves(sc.game.LastMove(), sc.weights, true)
	if len(moves) == 0 {
		return nil, tictactoe.ErrGameOver
	}
	rows := lo.Map(moves, func(m *move.Move, i int) string { return moveTableRow(i, m) })
	return msg(moveTableHeader() + "\n" + strings.Join(rows, "\n")), nil
}

// searchOptions applies the command's overrides to a copy of the shell's
// options.
func (sc *ShellController) searchOptions(cmd *shellcmd) (search.Options, error) {
	opts := sc.options
	if s := cmd.options.String("strategy"); s != "" {
		k, err := search.ParseKind(s)
		if err != nil {
			return opts, err
		}
		opts.Strategy = k
	}
	var err error
	opts.LookAhead, err = cmd.options.IntDefault("lookahead", opts.LookAhead)
	if err != nil {
		return opts, err
	}
	opts.AlphaBeta = cmd.options.BoolDefault("alphabeta", opts.AlphaBeta)
	opts.Quiescence = cmd.options.BoolDefault("quiescence", opts.Quiescence)
	opts.TranspositionTable = cmd.options.BoolDefault("tt", opts.TranspositionTable)
	return opts, opts.Validate()
}

func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	if sc.searching() {
		return nil, errSearching
	}
	if sc.game.Over() {
		return nil, tictactoe.ErrGameOver
	}
	opts, err := sc.searchOptions(cmd)
	if err != nil {
		return nil, err
	}
	// The search gets its own copy of the board, so the shell can keep
	// showing it.
	g := sc.game.Copy()
	g.SetOptions(&opts)
	root := g.LastMove()

	treePath := cmd.options.String("tree")
	var parent *tree.Node
	if treePath != "" || cmd.options.Bool("record") {
		parent = tree.NewRoot(root)
	}
	strategy := search.NewStrategy(opts, g)

	var logFile *os.File
	if logPath := cmd.options.String("log"); logPath != "" {
		logFile, err = os.Create(logPath)
		if err != nil {
			return nil, err
		}
		strategy.SetLogStream(logFile)
	}

	interval := time.Duration(sc.config.GetInt(config.ConfigProgressLogIntervalMS)) * time.Millisecond
	runner := search.NewRunner(strategy, interval)
	if err := runner.Start(context.Background(), root, sc.weights, opts.LookAhead, parent); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	sc.Lock()
	sc.runner = runner
	sc.logFile = logFile
	sc.treePath = treePath
	sc.Unlock()
	log.Info().Str("strategy", opts.Strategy.String()).Int("lookahead", opts.LookAhead).
		Bool("alpha-beta", opts.AlphaBeta).Bool("quiescence", opts.Quiescence).
		Msg("search-started")

	if cmd.options.Bool("wait") {
		return msg(sc.finishSearch(runner, root, parent)), nil
	}
	go func() {
		sc.showMessage(sc.finishSearch(runner, root, parent))
	}()
	return msg("searching... (pause, continue, stop, progress)"), nil
}

func (sc *ShellController) finishSearch(runner *search.Runner, root *move.Move, parent *tree.Node) string {
	best, err := runner.Wait()

	sc.Lock()
	logFile, treePath := sc.logFile, sc.treePath
	sc.logFile = nil
	sc.lastTree = parent
	if best != nil && best != root {
		sc.lastBest = best
	}
	sc.Unlock()
	if logFile != nil {
		logFile.Close()
	}

	var sb strings.Builder
	s := runner.Strategy()
	switch {
	case errors.Is(err, search.ErrNoContinuation):
		fmt.Fprintf(&sb, "no legal move; value %v\n", root.InheritedValue())
	case errors.Is(err, search.ErrInterrupted):
		sb.WriteString("search stopped before it finished\n")
	case err != nil:
		fmt.Fprintf(&sb, "search failed: %v\n", err)
	default:
		fmt.Fprintf(&sb, "best: %v value: %v\n", best.ShortDescription(), root.InheritedValue())
	}
	fmt.Fprintf(&sb, "%v considered %d moves in %.3fs", s.Kind(), s.MovesConsidered(), runner.Elapsed().Seconds())
	if mem, ok := s.(*search.NegaScoutMemory); ok {
		bc := mem.BoundCounts()
		fmt.Fprintf(&sb, "\nbounds: %v", bc)
		if mem.Table() != nil {
			fmt.Fprintf(&sb, " table hits: %d", mem.TableHits())
		}
	}
	if parent != nil {
		fmt.Fprintf(&sb, "\ntree: %d nodes, %d pruned", parent.Len(), parent.PrunedCount())
		if treePath != "" {
			if err := sc.writeTree(treePath, parent); err != nil {
				fmt.Fprintf(&sb, "\ncould not write tree: %v", err)
			} else {
				fmt.Fprintf(&sb, "\nwrote tree to %v", sc.treeFile(treePath))
			}
		}
	}
	return sb.String()
}

func (sc *ShellController) pause(cmd *shellcmd) (*Response, error) {
	r, err := sc.currentRunner()
	if err != nil {
		return nil, err
	}
	r.Pause()
	return msg("paused"), nil
}

func (sc *ShellController) cont(cmd *shellcmd) (*Response, error) {
	r, err := sc.currentRunner()
	if err != nil {
		return nil, err
	}
	r.Continue()
	return msg("continuing"), nil
}

func (sc *ShellController) stop(cmd *shellcmd) (*Response, error) {
	r, err := sc.currentRunner()
	if err != nil {
		return nil, err
	}
	if err := r.Stop(); err != nil {
		return nil, err
	}
	return msg("stopping"), nil
}

func (sc *ShellController) progress(cmd *shellcmd) (*Response, error) {
	sc.Lock()
	r := sc.runner
	sc.Unlock()
	if r == nil {
		return nil, errNotSearching
	}
	s := r.Strategy()
	return msg(fmt.Sprintf("%v: %d%% done, %d moves considered, paused: %v, searching: %v",
		s.Kind(), s.PercentDone(), s.MovesConsidered(), s.IsPaused(), r.IsSearching())), nil
}

// treeFile resolves a relative tree path against the configured tree
// directory.
func (sc *ShellController) treeFile(path string) string {
	if filepath.IsAbs(path) || filepath.Dir(path) != "." {
		return path
	}
	return filepath.Join(sc.config.GetString(config.ConfigTreeDir), path)
}

func (sc *ShellController) writeTree(path string, root *tree.Node) error {
	path = sc.treeFile(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite":
		ctx := context.Background()
		st, err := treestore.Open(ctx, path)
		if err != nil {
			return err
		}
		defer st.Close()
		_, err = st.Save(ctx, sc.game.Squares(), root)
		return err
	case ".dot", ".gv", ".yaml", ".yml":
	default:
		return fmt.Errorf("unknown tree format %q; use .dot, .yaml or .db", filepath.Ext(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return root.WriteDot(f)
	default:
		return root.WriteYAML(f)
	}
}

func (sc *ShellController) exportTree(cmd *shellcmd) (*Response, error) {
	sc.Lock()
	root := sc.lastTree
	sc.Unlock()
	if root == nil {
		return nil, errors.New("no recorded tree; search with -record true or -tree <path>")
	}
	if len(cmd.args) == 0 {
		return msg(root.Text()), nil
	}
	if err := sc.writeTree(cmd.args[0], root); err != nil {
		return nil, err
	}
	return msg("wrote tree to " + sc.treeFile(cmd.args[0])), nil
}

func (sc *ShellController) compare(cmd *shellcmd) (*Response, error) {
	n, err := cmd.options.IntDefault("positions", 8)
	if err != nil {
		return nil, err
	}
	plies, err := cmd.options.IntDefault("plies", 2)
	if err != nil {
		return nil, err
	}
	opts, err := sc.searchOptions(cmd)
	if err != nil {
		return nil, err
	}
	setups := bench.RandomTicTacToeOpenings(n, plies)
	if !sc.game.Over() {
		setups = append([]bench.Setup{bench.TicTacToe(sc.game.Squares())}, setups...)
	}
	report, err := bench.Compare(context.Background(), setups, search.AllKinds, opts)
	if report == nil {
		return nil, err
	}
	var buf bytes.Buffer
	if perr := report.Fprint(&buf); perr != nil {
		return nil, perr
	}
	if yamlPath := cmd.options.String("yaml"); yamlPath != "" {
		f, ferr := os.Create(yamlPath)
		if ferr != nil {
			return nil, ferr
		}
		defer f.Close()
		if ferr := report.WriteYAML(f); ferr != nil {
			return nil, ferr
		}
	}
	if err != nil {
		buf.WriteString("\n" + err.Error())
	}
	return msg(buf.String()), nil
}

func (sc *ShellController) showOptions() string {
	return sc.options.String() + fmt.Sprintf("weights:               %v\n", sc.weights)
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.showOptions()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		for _, line := range strings.Split(sc.showOptions(), "\n") {
			if strings.HasPrefix(line, strings.ToLower(opt)+":") {
				return msg(line), nil
			}
		}
		return nil, fmt.Errorf("unknown option %q", opt)
	}
	if sc.searching() {
		return nil, errSearching
	}
	ret, err := sc.setOption(strings.ToLower(opt), cmd.args[1:])
	if err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) setOption(opt string, values []string) (string, error) {
	o := sc.options
	val := values[0]
	var err error
	switch opt {
	case "strategy":
		o.Strategy, err = search.ParseKind(val)
	case "lookahead":
		o.LookAhead, err = strconv.Atoi(val)
	case "alphabeta":
		o.AlphaBeta, err = strconv.ParseBool(val)
	case "quiescence":
		o.Quiescence, err = strconv.ParseBool(val)
	case "maxquiescentdepth":
		o.MaxQuiescentDepth, err = strconv.Atoi(val)
	case "percentagebestmoves":
		o.PercentageBestMoves, err = strconv.Atoi(val)
	case "minbestmoves":
		o.MinBestMoves, err = strconv.Atoi(val)
	case "transpositiontable", "tt":
		o.TranspositionTable, err = strconv.ParseBool(val)
	case "checksymmetry":
		o.CheckSymmetry, err = strconv.ParseBool(val)
	case "weights":
		w := make(search.Weights, len(values))
		for i, v := range values {
			if w[i], err = strconv.ParseFloat(v, 64); err != nil {
				return "", err
			}
		}
		if len(w) != len(tictactoe.DefaultWeights) {
			return "", fmt.Errorf("need %d weights", len(tictactoe.DefaultWeights))
		}
		sc.weights = w
		return fmt.Sprint(w), nil
	default:
		return "", fmt.Errorf("unknown option %q", opt)
	}
	if err != nil {
		return "", err
	}
	if err := o.Validate(); err != nil {
		return "", err
	}
	// The game keeps a pointer to the options.
	sc.options = o
	return val, nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	key := cmd.args[0]
	value := cmd.args[1]
	sc.config.Set(key, value)
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set config %s to %s and saved to file", key, value)), nil
}
