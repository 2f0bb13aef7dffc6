package bench

import (
	"fmt"
	"strings"

	"lukechampine.com/frand"

	"github.com/domino14/gamesearch/games/tictactoe"
	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
)

// TicTacToe returns a setup for a fixed tic-tac-toe position.
func TicTacToe(squares string) Setup {
	return Setup{
		Name: squares,
		New: func(opts *search.Options) (search.Searchable, *move.Move, error) {
			g, err := tictactoe.FromSquares(squares, opts)
			if err != nil {
				return nil, nil, err
			}
			return g, g.LastMove(), nil
		},
	}
}

// RandomTicTacToeOpenings returns n setups, each reached by playing the
// given number of random moves from the empty board. Openings that end the
// game are thrown away.
func RandomTicTacToeOpenings(n, plies int) []Setup {
	setups := make([]Setup, 0, n)
	seen := map[string]bool{}
	for attempts := 0; len(setups) < n && attempts < 100*n; attempts++ {
		var board [tictactoe.NumSquares]byte
		for i := range board {
			board[i] = '.'
		}
		piece := byte('X')
		for range plies {
			empty := []int{}
			for i, c := range board {
				if c == '.' {
					empty = append(empty, i)
				}
			}
			if len(empty) == 0 {
				break
			}
			board[empty[frand.Intn(len(empty))]] = piece
			if piece == 'X' {
				piece = 'O'
			} else {
				piece = 'X'
			}
		}
		squares := string(board[:])
		if seen[squares] {
			continue
		}
		g, err := tictactoe.FromSquares(squares, nil)
		if err != nil || g.Over() {
			continue
		}
		seen[squares] = true
		setups = append(setups, TicTacToe(squares))
	}
	return setups
}

// Names returns a readable list of the setups.
func Names(setups []Setup) string {
	names := make([]string, len(setups))
	for i, s := range setups {
		names[i] = fmt.Sprintf("%d:%s", i+1, s.Name)
	}
	return strings.Join(names, " ")
}
