// Package tree holds the optional record of a game-tree search. It is
// output only: nothing in the search depends on it being populated.
package tree

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/domino14/gamesearch/move"
)

// PruneKind names the bound that caused a cutoff.
type PruneKind int

const (
	PruneAlpha PruneKind = iota
	PruneBeta
)

func (p PruneKind) String() string {
	switch p {
	case PruneAlpha:
		return "alpha"
	case PruneBeta:
		return "beta"
	}
	return "unknown"
}

// Node wraps one move explored (or skipped) by the search, along with the
// alpha-beta window it was searched with.
type Node struct {
	Move    *move.Move
	Alpha   float64
	Beta    float64
	Pruned  bool
	Comment string

	parent   *Node
	children []*Node
}

// NewRoot creates a root node for a search starting after m.
func NewRoot(m *move.Move) *Node {
	return &Node{Move: m}
}

// New creates a detached node.
func New(m *move.Move, alpha, beta float64) *Node {
	return &Node{Move: m, Alpha: alpha, Beta: beta}
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// InsertChild inserts c at position idx among n's children. An index past
// the end appends.
func (n *Node) InsertChild(idx int, c *Node) {
	c.parent = n
	if idx < 0 || idx >= len(n.children) {
		n.children = append(n.children, c)
		return
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = c
}

// Index returns the position of n among its siblings, or -1 for a root.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's subtree.
func (n *Node) Walk(fn func(*Node, int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Len is the number of nodes in the tree rooted at n.
func (n *Node) Len() int {
	ct := 0
	n.Walk(func(*Node, int) bool {
		ct++
		return true
	})
	return ct
}

// PrunedCount is the number of nodes marked pruned under n.
func (n *Node) PrunedCount() int {
	ct := 0
	n.Walk(func(c *Node, _ int) bool {
		if c.Pruned {
			ct++
		}
		return true
	})
	return ct
}

// Path returns the move descriptions from the root down to n.
func (n *Node) Path() []string {
	var p []string
	for c := n; c != nil; c = c.parent {
		if c.Move != nil {
			p = append([]string{c.Move.ShortDescription()}, p...)
		}
	}
	return p
}

// Fingerprint is a stable identifier for the node, derived from its path
// and sibling index. It survives re-running the same search, unlike a
// pointer.
func (n *Node) Fingerprint() uint64 {
	var sb strings.Builder
	for c := n; c != nil; c = c.parent {
		fmt.Fprintf(&sb, "%d/", c.Index())
	}
	sb.WriteString(strings.Join(n.Path(), " "))
	return xxhash.Sum64String(sb.String())
}

func (n *Node) String() string {
	desc := "(nil)"
	if n.Move != nil {
		desc = n.Move.ShortDescription()
	}
	s := fmt.Sprintf("%v [α=%v β=%v]", desc, n.Alpha, n.Beta)
	if n.Move != nil {
		s += fmt.Sprintf(" val=%v inh=%v", n.Move.Value(), n.Move.InheritedValue())
	}
	if n.Pruned {
		s += " pruned"
	}
	if n.Comment != "" {
		s += " (" + n.Comment + ")"
	}
	return s
}

// Text renders the tree as indented lines.
func (n *Node) Text() string {
	var sb strings.Builder
	n.Walk(func(c *Node, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(c.String())
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}
