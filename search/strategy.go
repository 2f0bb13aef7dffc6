package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/tree"
)

const (
	// WinningValue is the value backed up to a move that leaves the
	// opponent without a legal reply.
	WinningValue = 1000.0
	// Infinity bounds the initial search window.
	Infinity = 1e7

	DefaultMaxQuiescentDepth = 8
	// MaxQuiescentDepth is the hard cap on quiescent extensions, whatever
	// the options ask for.
	MaxQuiescentDepth   = 12
	DefaultPollInterval = 100 * time.Millisecond
)

var ErrAsymmetricUndo = errors.New("undo does not match the most recent move")

// Strategy is a game-tree search algorithm bound to one Searchable.
//
// Search explores the game from the position reached by lastMove to the
// given depth and returns the best reply, or nil if the side to move has
// no legal reply. alpha and beta bound the search window from player 1's
// point of view. If parent is not nil, every node explored or pruned is
// recorded beneath it.
//
// Search blocks; Pause, Continue and Interrupt may be called from other
// goroutines while it runs, as may MovesConsidered and PercentDone.
type Strategy interface {
	Search(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
		alpha, beta float64, parent *tree.Node) *move.Move
	Kind() Kind
	MovesConsidered() int
	PercentDone() int
	Pause()
	Continue()
	IsPaused() bool
	Interrupt()
	Interrupted() bool
	SetLogStream(w io.Writer)
}

// NewStrategy returns a fresh strategy of the kind named in opts. Unknown
// kinds fall back to MiniMax. Strategies keep per-search state, so build a
// new one for each search.
func NewStrategy(opts Options, s Searchable) Strategy {
	switch opts.Strategy {
	case KindNegaMax:
		return NewNegaMax(opts, s)
	case KindNegaScout:
		return NewNegaScout(opts, s)
	case KindNegaScoutMemory:
		return NewNegaScoutMemory(opts, s, nil)
	case KindMiniMax:
	default:
		log.Warn().Int("kind", int(opts.Strategy)).Msg("unknown-strategy-using-minimax")
	}
	return NewMiniMax(opts, s)
}

type baseStrategy struct {
	kind       Kind
	searchable Searchable
	opts       Options

	// Read from the Searchable once per search.
	lookAhead         int
	alphaBeta         bool
	quiescence        bool
	maxQuiescentDepth int

	rootMove  *move.Move
	rootDepth int
	ply       int
	startTime time.Time

	movesConsidered atomic.Int64
	percentDone     atomic.Int64

	paused        atomic.Bool
	interrupted   atomic.Bool
	interruptCh   chan struct{}
	interruptOnce sync.Once
	pollInterval  time.Duration

	applied   []*move.Move
	logStream io.Writer
}

func newBaseStrategy(kind Kind, opts Options, s Searchable) baseStrategy {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return baseStrategy{
		kind:         kind,
		searchable:   s,
		opts:         opts,
		interruptCh:  make(chan struct{}),
		pollInterval: poll,
	}
}

func (b *baseStrategy) Kind() Kind {
	return b.kind
}

func (b *baseStrategy) MovesConsidered() int {
	return int(b.movesConsidered.Load())
}

func (b *baseStrategy) PercentDone() int {
	return int(b.percentDone.Load())
}

func (b *baseStrategy) Pause() {
	b.paused.Store(true)
}

func (b *baseStrategy) Continue() {
	b.paused.Store(false)
}

func (b *baseStrategy) IsPaused() bool {
	return b.paused.Load()
}

// Interrupt stops the search. It cannot be undone; the search unwinds,
// restoring the board, and returns a best-effort move.
func (b *baseStrategy) Interrupt() {
	b.interrupted.Store(true)
	b.interruptOnce.Do(func() { close(b.interruptCh) })
}

func (b *baseStrategy) Interrupted() bool {
	return b.interrupted.Load()
}

func (b *baseStrategy) SetLogStream(w io.Writer) {
	b.logStream = w
}

// begin prepares the per-search state. It is called by every public
// Search before recursing.
func (b *baseStrategy) begin(lastMove *move.Move, depth int) {
	b.lookAhead = b.searchable.LookAhead()
	b.alphaBeta = b.searchable.AlphaBeta()
	b.quiescence = b.searchable.Quiescence()
	b.maxQuiescentDepth = min(b.opts.MaxQuiescentDepth, MaxQuiescentDepth)
	b.rootMove = lastMove
	b.rootDepth = depth
	b.ply = 0
	b.applied = b.applied[:0]
	b.percentDone.Store(0)
	b.startTime = time.Now()
	log.Debug().
		Str("strategy", b.kind.String()).
		Int("depth", depth).
		Int("lookahead", b.lookAhead).
		Bool("alpha-beta", b.alphaBeta).
		Bool("quiescence", b.quiescence).
		Msg("search-start")
}

func (b *baseStrategy) end(best *move.Move) {
	if b.opts.CheckSymmetry && len(b.applied) != 0 {
		panic(fmt.Errorf("%w: %d moves left applied", ErrAsymmetricUndo, len(b.applied)))
	}
	if !b.Interrupted() {
		b.percentDone.Store(100)
	}
	ev := log.Debug().
		Str("strategy", b.kind.String()).
		Int("moves-considered", b.MovesConsidered()).
		Bool("interrupted", b.Interrupted()).
		Dur("elapsed", time.Since(b.startTime))
	if best != nil {
		ev = ev.Str("best", best.ShortDescription()).Float64("value", best.InheritedValue())
	}
	ev.Msg("search-returning")
}

// checkPause blocks while the search is paused, waking every poll
// interval. Cancelling ctx or calling Interrupt marks the search as
// interrupted and returns at once.
func (b *baseStrategy) checkPause(ctx context.Context) {
	if b.interrupted.Load() {
		return
	}
	if ctx.Err() != nil {
		b.Interrupt()
		return
	}
	if !b.paused.Load() {
		return
	}
	log.Debug().Msg("search-paused")
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for b.paused.Load() {
		select {
		case <-ctx.Done():
			b.Interrupt()
			return
		case <-b.interruptCh:
			return
		case <-ticker.C:
		}
	}
	log.Debug().Msg("search-continuing")
}

func (b *baseStrategy) makeMove(m *move.Move) {
	b.searchable.MakeInternalMove(m)
	if b.opts.CheckSymmetry {
		b.applied = append(b.applied, m)
	}
	b.ply++
}

func (b *baseStrategy) undoMove(m *move.Move) {
	if b.opts.CheckSymmetry {
		n := len(b.applied)
		if n == 0 || b.applied[n-1] != m {
			panic(fmt.Errorf("%w: %v", ErrAsymmetricUndo, m.ShortDescription()))
		}
		b.applied = b.applied[:n-1]
	}
	b.searchable.UndoInternalMove(m)
	b.ply--
}

// emptyMoveList handles a position with no legal reply: the player who
// made lastMove has won.
func (b *baseStrategy) emptyMoveList(moves []*move.Move, lastMove *move.Move) bool {
	if len(moves) != 0 {
		return false
	}
	if lastMove.Player1() {
		lastMove.SetInheritedValue(WinningValue)
	} else {
		lastMove.SetInheritedValue(-WinningValue)
	}
	return true
}

func (b *baseStrategy) updatePercentDone(lastMove *move.Move, i, n int) {
	if lastMove == b.rootMove && n > 0 {
		b.percentDone.Store(int64(100 * i / n))
	}
}

// addNodeToTree records m beneath parent. It does nothing when tree
// recording is off.
func (b *baseStrategy) addNodeToTree(parent *tree.Node, m *move.Move, alpha, beta float64, idx int) *tree.Node {
	if parent == nil {
		return nil
	}
	n := tree.New(m, alpha, beta)
	parent.InsertChild(idx, n)
	return n
}

// showPrunedNodesInTree records the moves that were cut off. It does not
// affect the search.
func (b *baseStrategy) showPrunedNodesInTree(remaining []*move.Move, parent *tree.Node, start int,
	value, threshold float64, kind tree.PruneKind) {

	if parent == nil {
		return
	}
	cmp := ">="
	if kind == tree.PruneAlpha {
		cmp = "<="
	}
	for i, m := range remaining {
		n := tree.New(m, parent.Alpha, parent.Beta)
		n.Pruned = true
		n.Comment = fmt.Sprintf("pruned by %v: %v %s %v", kind, value, cmp, threshold)
		parent.InsertChild(start+i, n)
	}
}

func (b *baseStrategy) indent() string {
	return strings.Repeat(" ", 2*b.ply)
}

func (b *baseStrategy) tracePlay(m *move.Move) {
	if b.logStream != nil {
		fmt.Fprintf(b.logStream, "%v- play: %v\n", b.indent(), m.ShortDescription())
	}
}

func (b *baseStrategy) traceValue(value, alpha, beta float64) {
	if b.logStream != nil {
		ind := b.indent()
		fmt.Fprintf(b.logStream, "%v  value: %v\n", ind, value)
		fmt.Fprintf(b.logStream, "%v  α: %v\n", ind, alpha)
		fmt.Fprintf(b.logStream, "%v  β: %v\n", ind, beta)
	}
}

// moverSign is +1 when player 1 moves next after lastMove and -1
// otherwise. Multiplying a player-1 value by it gives the value for the
// side to move.
func moverSign(lastMove *move.Move) float64 {
	if lastMove.Player1() {
		return -1
	}
	return 1
}

// windowForPlayer1 converts a side-to-move window into player 1's
// perspective. The conversion is its own inverse.
func windowForPlayer1(sign, alpha, beta float64) (float64, float64) {
	if sign > 0 {
		return alpha, beta
	}
	return -beta, -alpha
}
