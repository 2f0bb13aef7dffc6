// Package search implements adversarial game-tree search for two-player,
// zero-sum games with perfect information. The strategies know nothing
// about any particular game; they drive a Searchable, which owns the board
// and the evaluation function.
package search

import (
	"github.com/domino14/gamesearch/move"
)

// Weights are the coefficients of a game's evaluation function. The search
// passes them through to the Searchable without looking at them.
type Weights []float64

// Searchable is the contract a game controller implements to be searched.
//
// MakeInternalMove and UndoInternalMove mutate the live board in place. For
// every move the search makes, it undoes exactly that move before the
// enclosing call returns, on every path, so the pair must be exactly
// reversible.
type Searchable interface {
	// LookAhead, AlphaBeta and Quiescence are read once per search.
	LookAhead() int
	AlphaBeta() bool
	Quiescence() bool

	MakeInternalMove(m *move.Move)
	UndoInternalMove(m *move.Move)

	// Done returns true if m ended the game. The search always passes
	// recordWin=false; a controller must not persist an outcome then.
	Done(m *move.Move, recordWin bool) bool

	// GenerateMoves returns the candidate replies to lastMove with their
	// static values filled in. An empty list means there is no legal reply.
	GenerateMoves(lastMove *move.Move, w Weights, player1sPerspective bool) []*move.Move
	// GenerateUrgentMoves returns only the tactically critical replies,
	// most urgent first. It is used during quiescence search and may
	// return nil.
	GenerateUrgentMoves(lastMove *move.Move, w Weights, player1sPerspective bool) []*move.Move
	// InJeopardy returns true if the position after lastMove is unstable
	// and worth extending past the horizon.
	InJeopardy(lastMove *move.Move, w Weights, player1sPerspective bool) bool
}

// PositionKeyer is implemented by games that can produce a hash key for
// the current position. It enables the transposition table of the
// NegaScoutMemory strategy. The key must distinguish the side to move.
type PositionKeyer interface {
	PositionKey() uint64
}
