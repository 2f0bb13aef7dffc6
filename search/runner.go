package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/tree"
)

var (
	ErrNoContinuation   = errors.New("side to move has no legal reply")
	ErrInterrupted      = errors.New("search was interrupted")
	ErrAlreadySearching = errors.New("a search is already running")
	ErrNotSearching     = errors.New("no search is running")
)

// Runner runs a search on its own goroutine so that it can be paused,
// resumed and stopped from the caller's goroutine. The Searchable belongs
// to the search until Wait returns.
type Runner struct {
	sync.Mutex
	strategy    Strategy
	logInterval time.Duration

	searching atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	best      *move.Move
	err       error
	elapsed   time.Duration
}

// NewRunner returns a runner for the strategy. logInterval is how often
// progress is logged; zero uses one second.
func NewRunner(s Strategy, logInterval time.Duration) *Runner {
	if logInterval <= 0 {
		logInterval = time.Second
	}
	return &Runner{strategy: s, logInterval: logInterval}
}

func (r *Runner) Strategy() Strategy {
	return r.strategy
}

// Start begins searching the position after lastMove to the given depth
// with a full window.
func (r *Runner) Start(ctx context.Context, lastMove *move.Move, w Weights, depth int, parent *tree.Node) error {
	r.Lock()
	defer r.Unlock()
	if !r.searching.CompareAndSwap(false, true) {
		return ErrAlreadySearching
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.best, r.err = nil, nil
	go r.run(ctx, r.done, lastMove, w, depth, parent)
	return nil
}

func (r *Runner) run(ctx context.Context, done chan struct{}, lastMove *move.Move, w Weights, depth int, parent *tree.Node) {
	tstart := time.Now()
	g := &errgroup.Group{}
	finished := make(chan struct{})

	g.Go(func() error {
		ticker := time.NewTicker(r.logInterval)
		defer ticker.Stop()
		var lastMoves int
		for {
			select {
			case <-finished:
				return nil
			case <-ticker.C:
				moves := r.strategy.MovesConsidered()
				log.Debug().
					Int("moves-per-interval", moves-lastMoves).
					Int("percent-done", r.strategy.PercentDone()).
					Bool("paused", r.strategy.IsPaused()).
					Msg("search-progress")
				lastMoves = moves
			}
		}
	})

	var best *move.Move
	g.Go(func() error {
		defer close(finished)
		best = r.strategy.Search(ctx, lastMove, w, depth, 0, -Infinity, Infinity, parent)
		if r.strategy.Interrupted() {
			return ErrInterrupted
		}
		if best == nil {
			return ErrNoContinuation
		}
		return nil
	})

	err := g.Wait()
	r.Lock()
	r.best, r.err = best, err
	r.elapsed = time.Since(tstart)
	r.cancel()
	r.Unlock()
	log.Info().
		Str("strategy", r.strategy.Kind().String()).
		Int("moves-considered", r.strategy.MovesConsidered()).
		Float64("time-elapsed-sec", r.elapsed.Seconds()).
		Err(err).
		Msg("search-finished")
	r.searching.Store(false)
	close(done)
}

// Wait blocks until the search finishes and returns its best move. An
// interrupted search returns its best-effort move along with
// ErrInterrupted.
func (r *Runner) Wait() (*move.Move, error) {
	r.Lock()
	done := r.done
	r.Unlock()
	if done == nil {
		return nil, ErrNotSearching
	}
	<-done
	r.Lock()
	defer r.Unlock()
	return r.best, r.err
}

// Run is Start followed by Wait.
func (r *Runner) Run(ctx context.Context, lastMove *move.Move, w Weights, depth int, parent *tree.Node) (*move.Move, error) {
	if err := r.Start(ctx, lastMove, w, depth, parent); err != nil {
		return nil, err
	}
	return r.Wait()
}

func (r *Runner) IsSearching() bool {
	return r.searching.Load()
}

func (r *Runner) Pause() {
	r.strategy.Pause()
}

func (r *Runner) Continue() {
	r.strategy.Continue()
}

// Stop interrupts the search. It does not wait for it to unwind.
func (r *Runner) Stop() error {
	if !r.searching.Load() {
		return ErrNotSearching
	}
	r.strategy.Interrupt()
	r.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.Unlock()
	return nil
}

// Elapsed returns how long the last finished search took.
func (r *Runner) Elapsed() time.Duration {
	r.Lock()
	defer r.Unlock()
	return r.elapsed
}
