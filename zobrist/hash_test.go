package zobrist

import (
	"testing"

	"github.com/matryer/is"
)

func TestIncrementalMatchesFull(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(9, 3)

	squares := make([]int, 9)
	key := z.Hash(squares, false)
	is.Equal(key, uint64(0))

	moves := []struct{ sq, piece int }{{4, 1}, {0, 2}, {8, 1}}
	for _, m := range moves {
		key = z.AddMove(key, m.sq, m.piece)
		squares[m.sq] = m.piece
	}
	// three moves were made, so player 2 is to move.
	is.Equal(key, z.Hash(squares, true))
}

func TestAddMoveIsReversible(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(9, 3)
	start := z.Hash([]int{1, 0, 0, 0, 2, 0, 0, 0, 0}, false)
	k := z.AddMove(start, 5, 1)
	is.True(k != start)
	is.Equal(z.AddMove(k, 5, 1), start)
}

func TestDistinctPositions(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(9, 3)
	a := z.Hash([]int{1, 2, 0, 0, 0, 0, 0, 0, 0}, false)
	b := z.Hash([]int{2, 1, 0, 0, 0, 0, 0, 0, 0}, false)
	c := z.Hash([]int{1, 2, 0, 0, 0, 0, 0, 0, 0}, true)
	is.True(a != b)
	is.True(a != c)
	is.Equal(z.Toggle(a, 3, 0), a)
}
