package search

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/transposition"
	"github.com/domino14/gamesearch/tree"
)

// NegaScoutMemory is NegaScout that classifies the result of every
// interior node as exact, a lower bound or an upper bound. With a
// transposition table and a game that implements PositionKeyer, it also
// remembers those results by position and reuses them.
type NegaScoutMemory struct {
	NegaScout
	table  *transposition.Table
	keyer  PositionKeyer
	bounds [4]atomic.Int64
	ttHits atomic.Int64
}

// NewNegaScoutMemory returns the strategy. If table is nil and
// opts.TranspositionTable is set, a table is sized from
// opts.TTableMemoryFraction.
func NewNegaScoutMemory(opts Options, s Searchable, table *transposition.Table) *NegaScoutMemory {
	n := &NegaScoutMemory{}
	n.negaCore = negaCore{baseStrategy: newBaseStrategy(KindNegaScoutMemory, opts, s)}
	n.expand = n.negascout
	n.visit = n.remember
	if !opts.TranspositionTable && table == nil {
		return n
	}
	keyer, ok := s.(PositionKeyer)
	if !ok {
		log.Warn().Msg("transposition-table-requires-position-keys")
		return n
	}
	if table == nil {
		table = transposition.NewTable(transposition.MinSizePowerOf2)
		if opts.TTableMemoryFraction > 0 {
			table.Reset(opts.TTableMemoryFraction)
		}
	}
	n.keyer = keyer
	n.table = table
	return n
}

// BoundCounts returns how many interior nodes ended with each kind of
// bound.
func (s *NegaScoutMemory) BoundCounts() map[transposition.Bound]int {
	return map[transposition.Bound]int{
		transposition.Exact: int(s.bounds[transposition.Exact].Load()),
		transposition.Lower: int(s.bounds[transposition.Lower].Load()),
		transposition.Upper: int(s.bounds[transposition.Upper].Load()),
	}
}

// TableHits returns how many nodes were answered by the transposition
// table without being searched.
func (s *NegaScoutMemory) TableHits() int {
	return int(s.ttHits.Load())
}

// Table returns the transposition table, or nil if there is none.
func (s *NegaScoutMemory) Table() *transposition.Table {
	return s.table
}

func (s *NegaScoutMemory) remember(lastMove *move.Move, depth, quiescentDepth int, alpha, beta float64,
	parent *tree.Node, search func(alpha, beta float64) (*move.Move, float64)) *move.Move {

	alphaOrig := alpha
	// Entries are only shared among nodes of the main search, which all
	// have the same quiescence budget.
	useTable := s.table != nil && quiescentDepth == 0 && lastMove != s.rootMove
	var key uint64
	if useTable {
		key = s.keyer.PositionKey()
		if e, ok := s.table.Lookup(key); ok && e.Depth() >= depth {
			score := e.Score()
			switch e.Bound() {
			case transposition.Lower:
				alpha = max(alpha, score)
			case transposition.Upper:
				beta = min(beta, score)
			}
			if e.Bound() == transposition.Exact || alpha >= beta {
				s.ttHits.Add(1)
				lastMove.SetInheritedValue(moverSign(lastMove) * score)
				if parent != nil {
					parent.Comment = fmt.Sprintf("transposition %v: %v", e.Bound(), score)
				}
				return lastMove
			}
		}
	}

	best, value := search(alpha, beta)
	if best == nil || s.Interrupted() {
		return best
	}
	bound := transposition.Classify(value, alphaOrig, beta)
	s.bounds[bound].Add(1)
	if useTable {
		s.table.Store(key, depth, bound, value)
	}
	return best
}
