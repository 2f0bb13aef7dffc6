package search

import (
	"context"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/tree"
)

// MiniMax searches without negation: player 1 maximizes and player 2
// minimizes the same player-1 value.
type MiniMax struct {
	baseStrategy
}

func NewMiniMax(opts Options, s Searchable) *MiniMax {
	return &MiniMax{baseStrategy: newBaseStrategy(KindMiniMax, opts, s)}
}

func (s *MiniMax) Search(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	s.begin(lastMove, depth)
	best := s.search(ctx, lastMove, w, depth, quiescentDepth, alpha, beta, parent)
	s.end(best)
	return best
}

func better(maximize bool, a, b float64) bool {
	if maximize {
		return a > b
	}
	return a < b
}

// cutoff reports whether the window is exhausted after best was found,
// and otherwise narrows it.
func (s *MiniMax) cutoff(maximize bool, best float64, alpha, beta *float64) bool {
	if maximize {
		if best >= *beta {
			return true
		}
		*alpha = max(*alpha, best)
		return false
	}
	if best <= *alpha {
		return true
	}
	*beta = min(*beta, best)
	return false
}

func pruneKind(maximize bool) tree.PruneKind {
	if maximize {
		return tree.PruneBeta
	}
	return tree.PruneAlpha
}

func (s *MiniMax) search(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	if depth <= 0 || s.searchable.Done(lastMove, false) {
		if s.quiescence && depth <= 0 {
			return s.quiescentSearch(ctx, lastMove, w, quiescentDepth, alpha, beta, parent)
		}
		lastMove.SetInheritedValue(lastMove.Value())
		return lastMove
	}

	moves := s.searchable.GenerateMoves(lastMove, w, true)
	if s.emptyMoveList(moves, lastMove) {
		return nil
	}
	s.movesConsidered.Add(int64(len(moves)))

	maximize := !lastMove.Player1()
	var bestMove *move.Move
	var bestValue float64

	for i, m := range moves {
		s.checkPause(ctx)
		if s.Interrupted() {
			return lastMove
		}
		s.updatePercentDone(lastMove, i, len(moves))
		s.tracePlay(m)
		s.makeMove(m)
		child := s.addNodeToTree(parent, m, alpha, beta, i)
		s.search(ctx, m, w, depth-1, quiescentDepth, alpha, beta, child)
		s.undoMove(m)
		if s.Interrupted() {
			return lastMove
		}
		val := m.InheritedValue()
		s.traceValue(val, alpha, beta)
		if bestMove == nil || better(maximize, val, bestValue) {
			bestMove, bestValue = m, val
		}
		if s.alphaBeta && s.cutoff(maximize, bestValue, &alpha, &beta) {
			threshold := beta
			if !maximize {
				threshold = alpha
			}
			s.showPrunedNodesInTree(moves[i+1:], parent, i+1, bestValue, threshold, pruneKind(maximize))
			break
		}
	}

	bestMove.SetSelected(true)
	lastMove.SetInheritedValue(bestValue)
	return bestMove
}

// quiescentSearch extends the search past the horizon through the urgent
// moves only, until the position is quiet.
func (s *MiniMax) quiescentSearch(ctx context.Context, lastMove *move.Move, w Weights, depth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	standPat := lastMove.Value()
	lastMove.SetInheritedValue(standPat)
	if depth >= s.maxQuiescentDepth || s.searchable.Done(lastMove, false) {
		return lastMove
	}
	if s.searchable.InJeopardy(lastMove, w, true) {
		return s.search(ctx, lastMove, w, 1, depth+1, alpha, beta, parent)
	}

	maximize := !lastMove.Player1()
	if s.alphaBeta && s.cutoff(maximize, standPat, &alpha, &beta) {
		return lastMove
	}
	moves := s.searchable.GenerateUrgentMoves(lastMove, w, true)
	if len(moves) == 0 {
		return lastMove
	}
	s.movesConsidered.Add(int64(len(moves)))

	var bestMove *move.Move
	bestValue := standPat
	for i, m := range moves {
		s.checkPause(ctx)
		if s.Interrupted() {
			return lastMove
		}
		s.tracePlay(m)
		s.makeMove(m)
		child := s.addNodeToTree(parent, m, alpha, beta, i)
		s.quiescentSearch(ctx, m, w, depth+1, alpha, beta, child)
		s.undoMove(m)
		if s.Interrupted() {
			return lastMove
		}
		val := m.InheritedValue()
		s.traceValue(val, alpha, beta)
		if better(maximize, val, bestValue) {
			bestMove, bestValue = m, val
		}
		if s.alphaBeta && s.cutoff(maximize, bestValue, &alpha, &beta) {
			threshold := beta
			if !maximize {
				threshold = alpha
			}
			s.showPrunedNodesInTree(moves[i+1:], parent, i+1, bestValue, threshold, pruneKind(maximize))
			break
		}
	}

	lastMove.SetInheritedValue(bestValue)
	if bestMove == nil {
		return lastMove
	}
	bestMove.SetSelected(true)
	return bestMove
}
