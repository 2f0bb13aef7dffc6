package search

import (
	"context"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/tree"
)

type expandFunc func(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move

// negaCore holds what NegaMax and its NegaScout variants share. Inside the
// recursion alpha and beta are from the point of view of the side to move;
// values stored on moves stay in player 1's point of view.
type negaCore struct {
	baseStrategy
	expand expandFunc
}

func (s *negaCore) Search(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	s.begin(lastMove, depth)
	a, b := windowForPlayer1(moverSign(lastMove), alpha, beta)
	best := s.expand(ctx, lastMove, w, depth, quiescentDepth, a, b, parent)
	s.end(best)
	return best
}

// horizon handles the leaves of the main search. ok is false when the
// node must be expanded instead.
func (s *negaCore) horizon(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) (*move.Move, bool) {

	if depth > 0 && !s.searchable.Done(lastMove, false) {
		return nil, false
	}
	if s.quiescence && depth <= 0 {
		return s.quiescentSearch(ctx, lastMove, w, quiescentDepth, alpha, beta, parent), true
	}
	lastMove.SetInheritedValue(lastMove.Value())
	return lastMove, true
}

func (s *negaCore) quiescentSearch(ctx context.Context, lastMove *move.Move, w Weights, depth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	lastMove.SetInheritedValue(lastMove.Value())
	if depth >= s.maxQuiescentDepth || s.searchable.Done(lastMove, false) {
		return lastMove
	}
	if s.searchable.InJeopardy(lastMove, w, true) {
		return s.expand(ctx, lastMove, w, 1, depth+1, alpha, beta, parent)
	}

	sign := moverSign(lastMove)
	standPat := sign * lastMove.Value()
	if s.alphaBeta {
		if standPat >= beta {
			return lastMove
		}
		alpha = max(alpha, standPat)
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
		a1, b1 := windowForPlayer1(sign, alpha, beta)
		child := s.addNodeToTree(parent, m, a1, b1, i)
		s.quiescentSearch(ctx, m, w, depth+1, -beta, -alpha, child)
		s.undoMove(m)
		if s.Interrupted() {
			return lastMove
		}
		val := sign * m.InheritedValue()
		s.traceValue(val, alpha, beta)
		if val > bestValue {
			bestMove, bestValue = m, val
		}
		if s.alphaBeta {
			if bestValue >= beta {
				s.showPrunedNodesInTree(moves[i+1:], parent, i+1, bestValue, beta, tree.PruneBeta)
				break
			}
			alpha = max(alpha, bestValue)
		}
	}

	lastMove.SetInheritedValue(sign * bestValue)
	if bestMove == nil {
		return lastMove
	}
	bestMove.SetSelected(true)
	return bestMove
}

// NegaMax is minimax in negated form: every ply maximizes the value for
// the side to move.
type NegaMax struct {
	negaCore
}

func NewNegaMax(opts Options, s Searchable) *NegaMax {
	n := &NegaMax{negaCore: negaCore{baseStrategy: newBaseStrategy(KindNegaMax, opts, s)}}
	n.expand = n.negamax
	return n
}

func (s *NegaMax) negamax(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	if m, ok := s.horizon(ctx, lastMove, w, depth, quiescentDepth, alpha, beta, parent); ok {
		return m
	}
	moves := s.searchable.GenerateMoves(lastMove, w, true)
	if s.emptyMoveList(moves, lastMove) {
		return nil
	}
	s.movesConsidered.Add(int64(len(moves)))

	sign := moverSign(lastMove)
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
		a1, b1 := windowForPlayer1(sign, alpha, beta)
		child := s.addNodeToTree(parent, m, a1, b1, i)
		s.negamax(ctx, m, w, depth-1, quiescentDepth, -beta, -alpha, child)
		s.undoMove(m)
		if s.Interrupted() {
			return lastMove
		}
		val := sign * m.InheritedValue()
		s.traceValue(val, alpha, beta)
		if bestMove == nil || val > bestValue {
			bestMove, bestValue = m, val
		}
		if s.alphaBeta {
			if bestValue >= beta {
				s.showPrunedNodesInTree(moves[i+1:], parent, i+1, bestValue, beta, tree.PruneBeta)
				break
			}
			alpha = max(alpha, bestValue)
		}
	}

	bestMove.SetSelected(true)
	lastMove.SetInheritedValue(sign * bestValue)
	return bestMove
}
