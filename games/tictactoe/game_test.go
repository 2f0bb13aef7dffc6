package tictactoe

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func defaultOpts() *search.Options {
	o := search.DefaultOptions()
	return &o
}

func TestParseSquare(t *testing.T) {
	is := is.New(t)
	for name, sq := range map[string]int{"a3": 0, "b3": 1, "b2": 4, "c1": 8, " A1 ": 6} {
		got, err := ParseSquare(name)
		is.NoErr(err)
		is.Equal(got, sq)
		if !strings.Contains(name, " ") {
			is.Equal(SquareName(sq), name)
		}
	}
	_, err := ParseSquare("d1")
	is.True(errors.Is(err, ErrIllegalMove))
}

func TestFromSquares(t *testing.T) {
	is := is.New(t)
	g, err := FromSquares("X.. .O. ..X", defaultOpts())
	is.NoErr(err)
	is.Equal(g.Board()[0], X)
	is.Equal(g.Board()[4], O)
	is.True(!g.XToMove())

	_, err = FromSquares("XXX......", defaultOpts())
	is.True(errors.Is(err, ErrInvalidPosition))
	_, err = FromSquares("XX", defaultOpts())
	is.True(errors.Is(err, ErrInvalidPosition))
}

func TestEvaluate(t *testing.T) {
	is := is.New(t)
	g := New(defaultOpts())
	is.Equal(g.Evaluate(nil), 0.0)

	is.NoErr(g.Play(4))
	// The center is on four lines.
	is.Equal(g.Evaluate(nil), 4.0)
	is.Equal(g.Evaluate(search.Weights{2, 0, 0}), 8.0)

	g, err := FromSquares("XXXOO....", defaultOpts())
	is.NoErr(err)
	is.Equal(g.Evaluate(nil), 100.0)
	is.Equal(g.Winner(), X)
	is.True(g.Over())
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	g := New(defaultOpts())
	key := g.PositionKey()
	is.NoErr(g.Play(0))
	is.NoErr(g.Play(4))
	is.True(g.PositionKey() != key)
	b := g.Board()
	is.Equal(g.PositionKey(), g.z.Hash(b[:], !g.XToMove()))
	is.Equal(g.LastMove().ShortDescription(), "Ob2")

	is.True(errors.Is(g.Play(4), ErrIllegalMove))
	is.NoErr(g.Undo())
	is.NoErr(g.Undo())
	is.Equal(g.PositionKey(), key)
	is.True(errors.Is(g.Undo(), ErrNothingToUndo))
	is.Equal(g.LastMove().Code(), -1)
	is.True(!g.LastMove().Player1())
	is.Equal(g.LastMove().Value(), 0.0)
}

func TestLastMoveOfSetUpPosition(t *testing.T) {
	is := is.New(t)
	g, err := FromSquares("XXXOO....", defaultOpts())
	is.NoErr(err)
	root := g.LastMove()
	is.Equal(root.Code(), -1)
	// O is to move, so the sentinel belongs to X.
	is.True(root.Player1())
	is.Equal(root.Value(), 100.0)

	g, err = FromSquares("X.O.X....", defaultOpts())
	is.NoErr(err)
	is.Equal(g.LastMove().Value(), g.Evaluate(nil))
}

func TestPlayRecordsWinner(t *testing.T) {
	is := is.New(t)
	g, err := FromSquares("XX.OO....", defaultOpts())
	is.NoErr(err)
	is.NoErr(g.Play(2))
	is.Equal(g.RecordedWinner(), X)
	is.True(errors.Is(g.Play(8), ErrGameOver))
	is.True(strings.Contains(g.String(), "X wins"))
	is.NoErr(g.Undo())
	is.Equal(g.RecordedWinner(), Empty)
}

func TestGenerateMoves(t *testing.T) {
	is := is.New(t)
	g := New(defaultOpts())
	moves := g.GenerateMoves(g.LastMove(), nil, true)
	is.Equal(len(moves), 9)
	is.Equal(moves[0].ShortDescription(), "Xb2")
	is.Equal(moves[0].Value(), 4.0)
	is.True(moves[0].Player1())

	opts := defaultOpts()
	opts.PercentageBestMoves = 50
	g.SetOptions(opts)
	is.Equal(len(g.GenerateMoves(g.LastMove(), nil, true)), 5)
	opts.PercentageBestMoves = 10
	opts.MinBestMoves = 3
	is.Equal(len(g.GenerateMoves(g.LastMove(), nil, true)), 3)
}

func TestMoverPerspective(t *testing.T) {
	is := is.New(t)
	g := New(defaultOpts())
	is.NoErr(g.Play(0))
	p1 := g.GenerateMoves(g.LastMove(), nil, true)
	mover := g.GenerateMoves(g.LastMove(), nil, false)
	is.Equal(len(p1), len(mover))
	for i := range p1 {
		is.True(!p1[i].Player1())
		is.Equal(mover[i].Value(), -p1[i].Value())
	}
}

func TestUrgentMovesAndJeopardy(t *testing.T) {
	is := is.New(t)
	g, err := FromSquares("XX.OO....", defaultOpts())
	is.NoErr(err)
	urgent := g.GenerateUrgentMoves(g.LastMove(), nil, true)
	is.Equal(move.Descriptions(urgent), []string{"Xc3", "Xc2"})
	is.True(g.InJeopardy(g.LastMove(), nil, true))

	g = New(defaultOpts())
	is.Equal(len(g.GenerateUrgentMoves(g.LastMove(), nil, true)), 0)
	is.True(!g.InJeopardy(g.LastMove(), nil, true))
}

func TestCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	g := New(defaultOpts())
	is.NoErr(g.Play(4))
	c := g.Copy()
	is.NoErr(c.Play(0))
	is.Equal(g.Board()[0], Empty)
	is.Equal(len(g.history), 1)
	is.Equal(c.PositionKey() == g.PositionKey(), false)
}

func TestString(t *testing.T) {
	is := is.New(t)
	g, err := FromSquares("X...O....", defaultOpts())
	is.NoErr(err)
	is.Equal(g.Squares(), "X...O....")
	is.Equal(g.String(), "   a b c\n3  X . .\n2  . O .\n1  . . .\nX to move\n")
}
