package zobrist

import (
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// Zobrist generates hash keys for a board game position made of squares
// that each hold at most one piece kind.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	player2ToMove uint64

	posTable [][]uint64

	numSquares    int
	numPieceKinds int
}

// Initialize creates the random tables. Piece kind 0 means an empty square
// and never contributes to the key.
func (z *Zobrist) Initialize(numSquares, numPieceKinds int) {
	z.numSquares = numSquares
	z.numPieceKinds = numPieceKinds
	z.posTable = make([][]uint64, numSquares)
	for i := 0; i < numSquares; i++ {
		z.posTable[i] = make([]uint64, numPieceKinds)
		for j := 1; j < numPieceKinds; j++ {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	z.player2ToMove = frand.Uint64n(bignum) + 1
}

func (z *Zobrist) NumSquares() int {
	return z.numSquares
}

// Hash computes the key of a full position from scratch.
func (z *Zobrist) Hash(squares []int, player2ToMove bool) uint64 {
	key := uint64(0)
	for i, piece := range squares {
		if piece == 0 {
			continue
		}
		key ^= z.posTable[i][piece]
	}
	if player2ToMove {
		key ^= z.player2ToMove
	}
	return key
}

// Toggle adds or removes a piece on a square. Since XOR is its own inverse,
// the same call undoes itself.
func (z *Zobrist) Toggle(key uint64, square, piece int) uint64 {
	if piece == 0 {
		return key
	}
	return key ^ z.posTable[square][piece]
}

// AddMove updates key for a piece placed on a square by the side to move,
// and flips the side to move.
func (z *Zobrist) AddMove(key uint64, square, piece int) uint64 {
	return z.Toggle(key, square, piece) ^ z.player2ToMove
}
