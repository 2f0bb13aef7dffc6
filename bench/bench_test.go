package bench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/gamesearch/games/tictactoe"
	"github.com/domino14/gamesearch/move"
	"github.com/domino14/gamesearch/search"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestCompareAgrees(t *testing.T) {
	opts := search.DefaultOptions()
	opts.LookAhead = 4
	setups := []Setup{TicTacToe("........."), TicTacToe("X...O...."), TicTacToe("XX.OO....")}
	report, err := Compare(context.Background(), setups, search.AllKinds, opts)
	assert.Nil(t, err)
	assert.Len(t, report.Results, len(setups)*len(search.AllKinds))
	assert.Len(t, report.Summaries, len(search.AllKinds))
	assert.Empty(t, report.Disagreements)
	for _, s := range report.Summaries {
		assert.Equal(t, len(setups), s.Positions)
		assert.Greater(t, s.MeanMoves, 0.0)
	}
	for _, r := range report.Results {
		if r.Position == "XX.OO...." {
			assert.Equal(t, 100.0, r.Value)
			assert.Equal(t, "Xc3", r.Best)
		}
	}

	var buf bytes.Buffer
	assert.Nil(t, report.Fprint(&buf))
	assert.Contains(t, buf.String(), "negascout-memory")
	assert.Contains(t, buf.String(), "moves considered per position")

	buf.Reset()
	assert.Nil(t, report.WriteYAML(&buf))
	var decoded Report
	assert.Nil(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Results[0].Position, decoded.Results[0].Position)
	assert.Equal(t, 4, decoded.LookAhead)
}

// lyingGame reports a different static value for every move to catch
// disagreements.
type lyingGame struct {
	*tictactoe.Game
	offset float64
}

func (g *lyingGame) GenerateMoves(lastMove *move.Move, w search.Weights, p1 bool) []*move.Move {
	moves := g.Game.GenerateMoves(lastMove, w, p1)
	for _, m := range moves {
		m.SetValue(m.Value() + g.offset)
	}
	return moves
}

func TestCompareReportsDisagreement(t *testing.T) {
	opts := search.DefaultOptions()
	opts.LookAhead = 1
	setup := Setup{
		Name: "lying",
		New: func(o *search.Options) (search.Searchable, *move.Move, error) {
			g := tictactoe.New(o)
			offset := 0.0
			if o.Strategy == search.KindNegaMax {
				offset = 1
			}
			return &lyingGame{Game: g, offset: offset}, g.LastMove(), nil
		},
	}
	report, err := Compare(context.Background(), []Setup{setup},
		[]search.Kind{search.KindMiniMax, search.KindNegaMax}, opts)
	assert.True(t, errors.Is(err, ErrDisagreement))
	assert.Len(t, report.Disagreements, 1)
	assert.True(t, strings.HasPrefix(report.Disagreements[0], "lying"))
}

func TestCompareRejectsBadOptions(t *testing.T) {
	opts := search.DefaultOptions()
	opts.LookAhead = -1
	_, err := Compare(context.Background(), []Setup{TicTacToe(".........")}, search.AllKinds, opts)
	assert.NotNil(t, err)
}

func TestRandomOpenings(t *testing.T) {
	setups := RandomTicTacToeOpenings(5, 3)
	assert.Len(t, setups, 5)
	seen := map[string]bool{}
	for _, s := range setups {
		assert.False(t, seen[s.Name])
		seen[s.Name] = true
		assert.Equal(t, 3, strings.Count(s.Name, "X")+strings.Count(s.Name, "O"))
		g, last, err := s.New(nil)
		assert.Nil(t, err)
		assert.NotNil(t, g)
		assert.True(t, last.Player1())
	}
	assert.Contains(t, Names(setups), "1:")
}
