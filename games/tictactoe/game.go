// Package tictactoe is a small reference game for the search engine. X is
// player 1 and always moves first.
package tictactoe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
	"github.com/domino14/gamesearch/zobrist"
)

const (
	Empty = iota
	X
	O
)

const NumSquares = 9

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrGameOver        = errors.New("game is over")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrInvalidPosition = errors.New("invalid position")
)

// DefaultWeights score a line with one of a player's pieces, a line with
// two, and a completed line.
var DefaultWeights = search.Weights{1, 10, 100}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Game is a tic-tac-toe position plus the moves that led to it.
type Game struct {
	board   [NumSquares]int
	history []int
	// winner is only set when a finished game is recorded.
	winner int

	opts *search.Options
	z    *zobrist.Zobrist
	key  uint64
}

// New returns an empty board.
func New(opts *search.Options) *Game {
	z := &zobrist.Zobrist{}
	z.Initialize(NumSquares, 3)
	return &Game{opts: opts, z: z}
}

// FromSquares sets up a position from nine characters, row by row from
// the top: X, O, or anything else for an empty square. The side to move
// follows from the piece counts.
func FromSquares(squares string, opts *search.Options) (*Game, error) {
	squares = strings.Join(strings.Fields(squares), "")
	if len(squares) != NumSquares {
		return nil, fmt.Errorf("%w: need %d squares, got %d", ErrInvalidPosition, NumSquares, len(squares))
	}
	g := New(opts)
	xs, os := 0, 0
	for i, c := range strings.ToUpper(squares) {
		switch c {
		case 'X':
			g.board[i] = X
			xs++
		case 'O':
			g.board[i] = O
			os++
		}
	}
	if xs != os && xs != os+1 {
		return nil, fmt.Errorf("%w: %d X and %d O", ErrInvalidPosition, xs, os)
	}
	g.key = g.z.Hash(g.board[:], !g.XToMove())
	return g, nil
}

// Copy returns an independent game sharing the same options and hash
// keys.
func (g *Game) Copy() *Game {
	c := *g
	c.history = append([]int(nil), g.history...)
	return &c
}

func (g *Game) Options() *search.Options {
	return g.opts
}

func (g *Game) SetOptions(opts *search.Options) {
	g.opts = opts
}

func (g *Game) pieces() int {
	n := 0
	for _, p := range g.board {
		if p != Empty {
			n++
		}
	}
	return n
}

// XToMove returns true if it is player 1's turn.
func (g *Game) XToMove() bool {
	return g.pieces()%2 == 0
}

func (g *Game) Board() [NumSquares]int {
	return g.board
}

// Squares returns the board in the format FromSquares reads.
func (g *Game) Squares() string {
	var sb strings.Builder
	for _, p := range g.board {
		sb.WriteString(pieceName(p))
	}
	return sb.String()
}

// Winner returns X or O if there is a completed line, and Empty
// otherwise.
func (g *Game) Winner() int {
	for _, l := range lines {
		p := g.board[l[0]]
		if p != Empty && p == g.board[l[1]] && p == g.board[l[2]] {
			return p
		}
	}
	return Empty
}

// Over returns true if someone has won or the board is full.
func (g *Game) Over() bool {
	return g.Winner() != Empty || g.pieces() == NumSquares
}

// RecordedWinner returns the winner recorded by Done, if any.
func (g *Game) RecordedWinner() int {
	return g.winner
}

func weightsOrDefault(w search.Weights) search.Weights {
	if len(w) < len(DefaultWeights) {
		return DefaultWeights
	}
	return w
}

// Evaluate returns the static value of the position from X's point of
// view.
func (g *Game) Evaluate(w search.Weights) float64 {
	w = weightsOrDefault(w)
	total := 0.0
	for _, l := range lines {
		var xs, os int
		for _, sq := range l {
			switch g.board[sq] {
			case X:
				xs++
			case O:
				os++
			}
		}
		switch {
		case xs == 3:
			return w[2]
		case os == 3:
			return -w[2]
		case xs > 0 && os == 0:
			total += w[xs-1]
		case os > 0 && xs == 0:
			total -= w[os-1]
		}
	}
	return total
}

// SquareName returns the name of a square, a3 being the top left.
func SquareName(sq int) string {
	return fmt.Sprintf("%c%d", 'a'+sq%3, 3-sq/3)
}

// ParseSquare parses a square name such as "b2".
func ParseSquare(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'c' || s[1] < '1' || s[1] > '3' {
		return 0, fmt.Errorf("%w: bad square %q", ErrIllegalMove, s)
	}
	return int(s[0]-'a') + 3*int('3'-s[1]), nil
}

func pieceName(p int) string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	}
	return "."
}

func (g *Game) newMove(sq int, player1 bool, w search.Weights) *move.Move {
	piece := O
	if player1 {
		piece = X
	}
	g.board[sq] = piece
	v := g.Evaluate(w)
	g.board[sq] = Empty
	return move.New(sq, pieceName(piece)+SquareName(sq), v, player1)
}

// LastMove returns the move that led to the current position, for use as
// the root of a search.
func (g *Game) LastMove() *move.Move {
	if len(g.history) == 0 {
		m := move.NewRoot(g.XToMove())
		m.SetValue(g.Evaluate(nil))
		return m
	}
	sq := g.history[len(g.history)-1]
	m := move.New(sq, pieceName(g.board[sq])+SquareName(sq), g.Evaluate(nil), g.board[sq] == X)
	return m
}

// Play makes a move for the side to move.
func (g *Game) Play(sq int) error {
	if g.Over() {
		return ErrGameOver
	}
	if sq < 0 || sq >= NumSquares || g.board[sq] != Empty {
		return fmt.Errorf("%w: square %d", ErrIllegalMove, sq)
	}
	m := g.newMove(sq, g.XToMove(), nil)
	g.MakeInternalMove(m)
	g.Done(m, true)
	return nil
}

// Undo takes back the last move played.
func (g *Game) Undo() error {
	if len(g.history) == 0 {
		return ErrNothingToUndo
	}
	g.winner = Empty
	g.UndoInternalMove(g.LastMove())
	return nil
}

func (g *Game) LookAhead() int {
	return g.opts.LookAhead
}

func (g *Game) AlphaBeta() bool {
	return g.opts.AlphaBeta
}

func (g *Game) Quiescence() bool {
	return g.opts.Quiescence
}

func (g *Game) MakeInternalMove(m *move.Move) {
	piece := O
	if m.Player1() {
		piece = X
	}
	sq := m.Code()
	g.board[sq] = piece
	g.history = append(g.history, sq)
	g.key = g.z.AddMove(g.key, sq, piece)
}

func (g *Game) UndoInternalMove(m *move.Move) {
	sq := m.Code()
	n := len(g.history)
	if n == 0 || g.history[n-1] != sq {
		log.Error().Str("move", m.ShortDescription()).Ints("history", g.history).Msg("undo-out-of-order")
		panic(fmt.Errorf("%w: cannot undo %v", ErrIllegalMove, m.ShortDescription()))
	}
	piece := g.board[sq]
	g.board[sq] = Empty
	g.history = g.history[:n-1]
	g.key = g.z.AddMove(g.key, sq, piece)
}

func (g *Game) Done(m *move.Move, recordWin bool) bool {
	if !g.Over() {
		return false
	}
	if recordWin {
		g.winner = g.Winner()
		log.Debug().Str("winner", pieceName(g.winner)).Msg("game-over")
	}
	return true
}

func (g *Game) PositionKey() uint64 {
	return g.key
}

// finish applies the generator's perspective and the best-moves cutoff.
func (g *Game) finish(moves []*move.Move, player1sPerspective bool) []*move.Move {
	if g.opts != nil {
		moves = move.BestMoves(moves, g.opts.PercentageBestMoves, g.opts.MinBestMoves)
	}
	if !player1sPerspective {
		for _, m := range moves {
			if !m.Player1() {
				m.SetValue(-m.Value())
			}
		}
	}
	return moves
}

func (g *Game) GenerateMoves(lastMove *move.Move, w search.Weights, player1sPerspective bool) []*move.Move {
	if g.Over() {
		return nil
	}
	xToMove := g.XToMove()
	moves := make([]*move.Move, 0, NumSquares)
	for sq, p := range g.board {
		if p == Empty {
			moves = append(moves, g.newMove(sq, xToMove, w))
		}
	}
	return g.finish(moves, player1sPerspective)
}

// winningSquares returns the empty squares that complete a line for
// piece.
func (g *Game) winningSquares(piece int) []int {
	var sqs []int
	for _, l := range lines {
		count, empty := 0, -1
		for _, sq := range l {
			switch g.board[sq] {
			case piece:
				count++
			case Empty:
				empty = sq
			}
		}
		if count == 2 && empty >= 0 {
			sqs = append(sqs, empty)
		}
	}
	return sqs
}

// GenerateUrgentMoves returns immediate wins for the side to move, then
// blocks of the opponent's immediate wins.
func (g *Game) GenerateUrgentMoves(lastMove *move.Move, w search.Weights, player1sPerspective bool) []*move.Move {
	if g.Over() {
		return nil
	}
	xToMove := g.XToMove()
	me, them := O, X
	if xToMove {
		me, them = X, O
	}
	seen := map[int]bool{}
	var moves []*move.Move
	for _, sq := range append(g.winningSquares(me), g.winningSquares(them)...) {
		if seen[sq] {
			continue
		}
		seen[sq] = true
		moves = append(moves, g.newMove(sq, xToMove, w))
	}
	if !player1sPerspective {
		for _, m := range moves {
			if !m.Player1() {
				m.SetValue(-m.Value())
			}
		}
	}
	return moves
}

// InJeopardy returns true if the side to move can win at once.
func (g *Game) InJeopardy(lastMove *move.Move, w search.Weights, player1sPerspective bool) bool {
	if g.Over() {
		return false
	}
	me := O
	if g.XToMove() {
		me = X
	}
	return len(g.winningSquares(me)) > 0
}

func (g *Game) String() string {
	var sb strings.Builder
	sb.WriteString("   a b c\n")
	for row := 0; row < 3; row++ {
		fmt.Fprintf(&sb, "%d ", 3-row)
		for col := 0; col < 3; col++ {
			sb.WriteString(" " + pieceName(g.board[row*3+col]))
		}
		sb.WriteString("\n")
	}
	switch {
	case g.Winner() != Empty:
		fmt.Fprintf(&sb, "%v wins\n", pieceName(g.Winner()))
	case g.Over():
		sb.WriteString("draw\n")
	case g.XToMove():
		sb.WriteString("X to move\n")
	default:
		sb.WriteString("O to move\n")
	}
	return sb.String()
}
