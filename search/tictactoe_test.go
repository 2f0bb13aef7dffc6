package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/domino14/gamesearch/games/tictactoe"
	"github.com/domino14/gamesearch/search"
	"github.com/domino14/gamesearch/transposition"
	"github.com/domino14/gamesearch/tree"
)

var positions = []string{
	".........",
	"X...O....",
	"X.O.X....",
	"XO..X..O.",
	"XX.OO....",
	"XXXOO....",
	"XO..X....",
}

func solve(t *testing.T, squares string, opts search.Options) (float64, string, search.Strategy) {
	t.Helper()
	opts.CheckSymmetry = true
	g, err := tictactoe.FromSquares(squares, &opts)
	if err != nil {
		t.Fatal(err)
	}
	before := g.PositionKey()
	s := search.NewStrategy(opts, g)
	root := g.LastMove()
	best := s.Search(context.Background(), root, nil, opts.LookAhead, 0, -search.Infinity, search.Infinity, nil)
	if g.PositionKey() != before {
		t.Fatalf("%v left the board changed", opts.Strategy)
	}
	desc := ""
	if best != nil {
		desc = best.ShortDescription()
	}
	return root.InheritedValue(), desc, s
}

func TestStrategiesAgreeOnTicTacToe(t *testing.T) {
	for _, pos := range positions {
		for _, depth := range []int{1, 2, 4} {
			for _, quiescence := range []bool{false, true} {
				opts := search.DefaultOptions()
				opts.LookAhead = depth
				opts.AlphaBeta = false
				opts.Quiescence = quiescence
				want, _, _ := solve(t, pos, opts)

				for _, kind := range search.AllKinds {
					for _, ab := range []bool{false, true} {
						for _, tt := range []bool{false, true} {
							if tt && kind != search.KindNegaScoutMemory {
								continue
							}
							o := opts
							o.Strategy = kind
							o.AlphaBeta = ab
							o.TranspositionTable = tt
							got, _, _ := solve(t, pos, o)
							if got != want {
								t.Errorf("%v depth %d %v ab=%v q=%v tt=%v: got %v want %v",
									pos, depth, kind, ab, quiescence, tt, got, want)
							}
						}
					}
				}
			}
		}
	}
}

func TestDecidedPositionKeepsItsValue(t *testing.T) {
	is := is.New(t)
	for _, kind := range search.AllKinds {
		for _, quiescence := range []bool{false, true} {
			opts := search.DefaultOptions()
			opts.LookAhead = 2
			opts.Quiescence = quiescence
			opts.Strategy = kind
			value, _, s := solve(t, "XXXOO....", opts)
			is.Equal(value, 100.0)
			is.Equal(s.MovesConsidered(), 0)
			value, _, _ = solve(t, "XX.OOOX..", opts)
			is.Equal(value, -100.0)
		}
	}
}

func TestPerfectPlayIsADraw(t *testing.T) {
	is := is.New(t)
	opts := search.DefaultOptions()
	opts.LookAhead = 9
	opts.Strategy = search.KindNegaScoutMemory
	opts.TranspositionTable = true
	value, _, s := solve(t, ".........", opts)
	is.Equal(value, 0.0)
	mem := s.(*search.NegaScoutMemory)
	is.True(mem.TableHits() > 0)
	is.True(mem.Table().Stats().Created > 0)
	is.True(mem.BoundCounts()[transposition.Exact] > 0)
}

func TestTakesImmediateWin(t *testing.T) {
	is := is.New(t)
	for _, kind := range search.AllKinds {
		opts := search.DefaultOptions()
		opts.LookAhead = 3
		opts.Strategy = kind
		value, best, _ := solve(t, "XX.OO....", opts)
		is.Equal(best, "Xc3")
		is.Equal(value, 100.0)
	}
}

func TestBlocksThreat(t *testing.T) {
	is := is.New(t)
	for _, kind := range search.AllKinds {
		opts := search.DefaultOptions()
		opts.LookAhead = 2
		opts.Strategy = kind
		_, best, _ := solve(t, "X.O.X....", opts)
		is.Equal(best, "Oc1")
	}
}

func TestQuiescenceFindsThreatAtHorizon(t *testing.T) {
	is := is.New(t)
	// With one ply, O only sees static values. Quiescence shows that every
	// reply but the block loses.
	opts := search.DefaultOptions()
	opts.LookAhead = 1
	opts.Quiescence = true
	opts.Strategy = search.KindNegaScout
	value, best, _ := solve(t, "X.O.X....", opts)
	is.Equal(best, "Oc1")
	is.True(value < 100)
}

func TestSearchTreeOnTicTacToe(t *testing.T) {
	is := is.New(t)
	opts := search.DefaultOptions()
	opts.LookAhead = 3
	opts.Strategy = search.KindMiniMax
	g, err := tictactoe.FromSquares("X...O....", &opts)
	is.NoErr(err)
	root := g.LastMove()
	parent := tree.NewRoot(root)
	s := search.NewStrategy(opts, g)
	best := s.Search(context.Background(), root, nil, 3, 0, -search.Infinity, search.Infinity, parent)
	is.True(best != nil)
	is.Equal(len(parent.Children()), 7)
	is.True(parent.PrunedCount() > 0)
	selected := 0
	for _, c := range parent.Children() {
		if c.Move.Selected() {
			selected++
			is.Equal(c.Move, best)
		}
	}
	is.Equal(selected, 1)
}

func TestRunnerOnTicTacToe(t *testing.T) {
	is := is.New(t)
	opts := search.DefaultOptions()
	opts.LookAhead = 9
	opts.Strategy = search.KindNegaScout
	g := tictactoe.New(&opts)
	runner := search.NewRunner(search.NewStrategy(opts, g), 50*time.Millisecond)
	root := g.LastMove()
	best, err := runner.Run(context.Background(), root, tictactoe.DefaultWeights, 9, nil)
	is.NoErr(err)
	is.True(best != nil)
	is.Equal(root.InheritedValue(), 0.0)
	is.Equal(runner.Strategy().PercentDone(), 100)
}
