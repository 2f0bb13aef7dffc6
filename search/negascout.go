package search

import (
	"context"
	"sync/atomic"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/tree"
)

// NegaScout searches the first reply with the full window and the rest
// with a null window around alpha, searching again with the full window
// only when a reply turns out to be better. It returns the same values as
// NegaMax.
type NegaScout struct {
	negaCore
	researches atomic.Int64
	// visit, when set, wraps each interior node. NegaScoutMemory uses it.
	visit func(lastMove *move.Move, depth, quiescentDepth int, alpha, beta float64, parent *tree.Node,
		search func(alpha, beta float64) (*move.Move, float64)) *move.Move
}

func NewNegaScout(opts Options, s Searchable) *NegaScout {
	n := &NegaScout{negaCore: negaCore{baseStrategy: newBaseStrategy(KindNegaScout, opts, s)}}
	n.expand = n.negascout
	return n
}

// Researches returns how many replies had to be searched a second time
// with the full window.
func (s *NegaScout) Researches() int {
	return int(s.researches.Load())
}

func (s *NegaScout) negascout(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) *move.Move {

	if m, ok := s.horizon(ctx, lastMove, w, depth, quiescentDepth, alpha, beta, parent); ok {
		return m
	}
	search := func(alpha, beta float64) (*move.Move, float64) {
		return s.expandNode(ctx, lastMove, w, depth, quiescentDepth, alpha, beta, parent)
	}
	if s.visit != nil {
		return s.visit(lastMove, depth, quiescentDepth, alpha, beta, parent, search)
	}
	best, _ := search(alpha, beta)
	return best
}

// expandNode searches the replies to lastMove. It returns the best reply
// and its value for the side to move.
func (s *NegaScout) expandNode(ctx context.Context, lastMove *move.Move, w Weights, depth, quiescentDepth int,
	alpha, beta float64, parent *tree.Node) (*move.Move, float64) {

	moves := s.searchable.GenerateMoves(lastMove, w, true)
	sign := moverSign(lastMove)
	if s.emptyMoveList(moves, lastMove) {
		return nil, sign * lastMove.InheritedValue()
	}
	s.movesConsidered.Add(int64(len(moves)))

	var bestMove *move.Move
	var bestValue float64
	// Each re-search adds a node to the tree, shifting later siblings.
	shift := 0
	for i, m := range moves {
		s.checkPause(ctx)
		if s.Interrupted() {
			return lastMove, 0
		}
		s.updatePercentDone(lastMove, i, len(moves))
		s.tracePlay(m)
		s.makeMove(m)
		var val float64
		if i == 0 || !s.alphaBeta {
			a1, b1 := windowForPlayer1(sign, alpha, beta)
			child := s.addNodeToTree(parent, m, a1, b1, i+shift)
			s.negascout(ctx, m, w, depth-1, quiescentDepth, -beta, -alpha, child)
			val = sign * m.InheritedValue()
		} else {
			a1, b1 := windowForPlayer1(sign, alpha, alpha+1)
			child := s.addNodeToTree(parent, m, a1, b1, i+shift)
			s.negascout(ctx, m, w, depth-1, quiescentDepth, -(alpha + 1), -alpha, child)
			val = sign * m.InheritedValue()
			if !s.Interrupted() && val > alpha && val < beta {
				s.researches.Add(1)
				// The null-window pass stays in the tree next to the full-window search.
				if child != nil {
					child.Comment = "null-window pass"
					shift++
					a1, b1 = windowForPlayer1(sign, alpha, beta)
					child = s.addNodeToTree(parent, m, a1, b1, i+shift)
					child.Comment = "re-searched"
				}
				s.negascout(ctx, m, w, depth-1, quiescentDepth, -beta, -alpha, child)
				val = sign * m.InheritedValue()
			}
		}
		s.undoMove(m)
		if s.Interrupted() {
			return lastMove, 0
		}
		s.traceValue(val, alpha, beta)
		if bestMove == nil || val > bestValue {
			bestMove, bestValue = m, val
		}
		if s.alphaBeta {
			if bestValue >= beta {
				s.showPrunedNodesInTree(moves[i+1:], parent, i+1+shift, bestValue, beta, tree.PruneBeta)
				break
			}
			alpha = max(alpha, bestValue)
		}
	}

	bestMove.SetSelected(true)
	lastMove.SetInheritedValue(sign * bestValue)
	return bestMove, bestValue
}
