package search

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/domino14/gamesearch/move"
)

// fnode is one position of a scripted game. Values are from player 1's
// point of view.
type fnode struct {
	desc     string
	value    float64
	children []*fnode
	urgent   []int
	jeopardy bool
	done     bool
}

func leaf(desc string, v float64) *fnode {
	return &fnode{desc: desc, value: v}
}

func node(desc string, v float64, children ...*fnode) *fnode {
	return &fnode{desc: desc, value: v, children: children}
}

// fixtureGame plays a scripted tree and counts everything the search does
// to it.
type fixtureGame struct {
	root         *fnode
	player1First bool
	lookAhead    int
	alphaBeta    bool
	quiescence   bool
	delay        time.Duration

	stack         []*fnode
	makes         map[string]int
	undos         map[string]int
	generateCalls int
}

func newFixtureGame(root *fnode, lookAhead int, alphaBeta, quiescence bool) *fixtureGame {
	return &fixtureGame{
		root:         root,
		player1First: true,
		lookAhead:    lookAhead,
		alphaBeta:    alphaBeta,
		quiescence:   quiescence,
		stack:        []*fnode{root},
		makes:        map[string]int{},
		undos:        map[string]int{},
	}
}

// rootMove returns the move leading to the fixture's root, carrying the
// root's static value.
func (f *fixtureGame) rootMove() *move.Move {
	return move.New(-1, f.root.desc, f.root.value, !f.player1First)
}

func (f *fixtureGame) top() *fnode {
	return f.stack[len(f.stack)-1]
}

func (f *fixtureGame) player1ToMove() bool {
	return (len(f.stack)%2 == 1) == f.player1First
}

func (f *fixtureGame) LookAhead() int   { return f.lookAhead }
func (f *fixtureGame) AlphaBeta() bool  { return f.alphaBeta }
func (f *fixtureGame) Quiescence() bool { return f.quiescence }

func (f *fixtureGame) MakeInternalMove(m *move.Move) {
	child := f.top().children[m.Code()]
	if child.desc != m.ShortDescription() {
		panic(fmt.Sprintf("made %v from %v", m.ShortDescription(), f.top().desc))
	}
	f.stack = append(f.stack, child)
	f.makes[child.desc]++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fixtureGame) UndoInternalMove(m *move.Move) {
	if len(f.stack) < 2 || f.top().desc != m.ShortDescription() {
		panic(fmt.Sprintf("undid %v at %v", m.ShortDescription(), f.top().desc))
	}
	f.stack = f.stack[:len(f.stack)-1]
	f.undos[m.ShortDescription()]++
}

func (f *fixtureGame) Done(m *move.Move, recordWin bool) bool {
	if recordWin {
		panic("search asked to record a win")
	}
	return f.top().done
}

func (f *fixtureGame) toMoves(n *fnode, idxs []int) []*move.Move {
	p1 := f.player1ToMove()
	moves := make([]*move.Move, 0, len(idxs))
	for _, i := range idxs {
		c := n.children[i]
		moves = append(moves, move.New(i, c.desc, c.value, p1))
	}
	return moves
}

func (f *fixtureGame) GenerateMoves(lastMove *move.Move, w Weights, player1sPerspective bool) []*move.Move {
	f.generateCalls++
	n := f.top()
	idxs := make([]int, len(n.children))
	for i := range idxs {
		idxs[i] = i
	}
	return f.toMoves(n, idxs)
}

func (f *fixtureGame) GenerateUrgentMoves(lastMove *move.Move, w Weights, player1sPerspective bool) []*move.Move {
	return f.toMoves(f.top(), f.top().urgent)
}

func (f *fixtureGame) InJeopardy(lastMove *move.Move, w Weights, player1sPerspective bool) bool {
	return f.top().jeopardy
}

func (f *fixtureGame) balanced() bool {
	if len(f.stack) != 1 {
		return false
	}
	for k, v := range f.makes {
		if f.undos[k] != v {
			return false
		}
	}
	return true
}

// randomTree builds a reproducible tree with a mix of terminal nodes,
// positions without replies, urgent moves and unstable positions.
func randomTree(seed uint64, depth int) *fnode {
	r := rand.New(rand.NewPCG(seed, 0x5eed))
	var build func(desc string, d int) *fnode
	build = func(desc string, d int) *fnode {
		n := leaf(desc, float64(r.IntN(41)-20))
		if d == 0 {
			return n
		}
		switch p := r.IntN(100); {
		case p < 8:
			n.done = true
			return n
		case p < 12:
			return n
		}
		nc := 1 + r.IntN(4)
		for i := range nc {
			n.children = append(n.children, build(fmt.Sprintf("%s.%d", desc, i), d-1))
			if r.IntN(3) == 0 {
				n.urgent = append(n.urgent, i)
			}
		}
		n.jeopardy = r.IntN(10) == 0
		return n
	}
	return build("r", depth)
}

// reference computes the minimax value of n without any pruning.
func reference(n *fnode, p1ToMove bool, depth int, quiescence bool, maxQ int) float64 {
	if depth <= 0 || n.done {
		if quiescence && depth <= 0 {
			return quiesce(n, p1ToMove, 0, maxQ)
		}
		return n.value
	}
	return expandRef(n, p1ToMove, func(c *fnode) float64 {
		return reference(c, !p1ToMove, depth-1, quiescence, maxQ)
	})
}

func quiesce(n *fnode, p1ToMove bool, qd, maxQ int) float64 {
	if qd >= maxQ || n.done {
		return n.value
	}
	if n.jeopardy {
		return expandRef(n, p1ToMove, func(c *fnode) float64 {
			return quiesce(c, !p1ToMove, qd+1, maxQ)
		})
	}
	best := n.value
	for _, i := range n.urgent {
		v := quiesce(n.children[i], !p1ToMove, qd+1, maxQ)
		if (p1ToMove && v > best) || (!p1ToMove && v < best) {
			best = v
		}
	}
	return best
}

func expandRef(n *fnode, p1ToMove bool, eval func(*fnode) float64) float64 {
	if len(n.children) == 0 {
		if p1ToMove {
			return -WinningValue
		}
		return WinningValue
	}
	best := eval(n.children[0])
	for _, c := range n.children[1:] {
		v := eval(c)
		if (p1ToMove && v > best) || (!p1ToMove && v < best) {
			best = v
		}
	}
	return best
}
