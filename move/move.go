package move

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// Move is a move in a two-player game. The search engine only cares about
// its static value, the value backed up to it from its subtree, and which
// player made it. Everything else about the move is owned by the game that
// generated it.
type Move struct {
	// value is the static evaluation of the position after this move.
	// It is from player 1's point of view unless the generator was asked
	// for the mover's perspective.
	value float64
	// inheritedValue is the value propagated back up during a search.
	inheritedValue float64
	player1        bool
	// selected marks the child chosen along the principal variation.
	selected bool

	code int
	desc string
}

// New creates a move. The code is an opaque encoding owned by the game
// (a square index, a from/to pair, etc).
func New(code int, desc string, value float64, player1 bool) *Move {
	return &Move{
		code:    code,
		desc:    desc,
		value:   value,
		player1: player1,
	}
}

// NewRoot creates the sentinel "last move" that leads to the starting
// position. If player 1 is to move, the sentinel belongs to player 2.
func NewRoot(player1ToMove bool) *Move {
	return &Move{
		code:    -1,
		desc:    "(root)",
		player1: !player1ToMove,
	}
}

// String provides a string just for debugging purposes.
func (m *Move) String() string {
	return fmt.Sprintf("<%p move: %v p1: %v val: %.3f inh: %.3f sel: %v>",
		m, m.desc, m.player1, m.value, m.inheritedValue, m.selected)
}

// ShortDescription provides a short description, useful for logging or
// user display.
func (m *Move) ShortDescription() string {
	return m.desc
}

func (m *Move) Code() int {
	return m.code
}

func (m *Move) Value() float64 {
	return m.value
}

func (m *Move) SetValue(v float64) {
	m.value = v
}

func (m *Move) InheritedValue() float64 {
	return m.inheritedValue
}

func (m *Move) SetInheritedValue(v float64) {
	m.inheritedValue = v
}

// Player1 returns true if player 1 made this move.
func (m *Move) Player1() bool {
	return m.player1
}

func (m *Move) Selected() bool {
	return m.selected
}

func (m *Move) SetSelected(s bool) {
	m.selected = s
}

// Reset clears the search results stored on the move.
func (m *Move) Reset() {
	m.inheritedValue = 0
	m.selected = false
}

// CopyFrom performs a copy of other into m.
func (m *Move) CopyFrom(other *Move) {
	m.value = other.value
	m.inheritedValue = other.inheritedValue
	m.player1 = other.player1
	m.selected = other.selected
	m.code = other.code
	m.desc = other.desc
}

// Copy returns a new copy of m.
func (m *Move) Copy() *Move {
	c := &Move{}
	c.CopyFrom(m)
	return c
}

// Equals compares the game-defined identity of two moves, not their
// search state.
func (m *Move) Equals(other *Move) bool {
	if other == nil {
		return false
	}
	return m.code == other.code && m.player1 == other.player1
}

// SortByValue sorts moves so the best move for the mover comes first:
// descending value for player 1's moves, ascending for player 2's. Moves
// are ordered by static value only; the inherited value is unknown until
// the move is searched.
func SortByValue(moves []*Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].player1 {
			return moves[i].value > moves[j].value
		}
		return moves[i].value < moves[j].value
	})
}

// BestMoves sorts moves best-first and keeps the top percentage of them,
// but never fewer than minBest (or all of them, if there are fewer).
func BestMoves(moves []*Move, percentage, minBest int) []*Move {
	SortByValue(moves)
	if percentage >= 100 || len(moves) == 0 {
		return moves
	}
	keep := int(math.Ceil(float64(len(moves)*percentage) / 100))
	keep = lo.Clamp(lo.Max([]int{keep, minBest}), 1, len(moves))
	return moves[:keep]
}

// Descriptions returns the short descriptions of a list of moves.
func Descriptions(moves []*Move) []string {
	return lo.Map(moves, func(m *Move, _ int) string {
		return m.ShortDescription()
	})
}
