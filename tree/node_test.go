package tree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/gamesearch/move"
)

func sampleTree() *Node {
	root := NewRoot(move.NewRoot(true))
	a := New(move.New(0, "a", 5, true), -10, 10)
	b := New(move.New(1, "b", -3, true), 5, 10)
	c := New(move.New(2, "c", 1, true), 5, 10)
	root.InsertChild(0, a)
	root.InsertChild(1, c)
	// insert b between a and c
	root.InsertChild(1, b)
	a.InsertChild(0, New(move.New(3, "a1", 2, false), -10, 10))
	c.Pruned = true
	c.Comment = "pruned"
	return root
}

func TestInsertChildOrder(t *testing.T) {
	root := sampleTree()
	descs := []string{}
	for _, c := range root.Children() {
		descs = append(descs, c.Move.ShortDescription())
	}
	assert.Equal(t, []string{"a", "b", "c"}, descs)
	assert.Equal(t, 1, root.Children()[1].Index())
	assert.Equal(t, -1, root.Index())
	assert.Equal(t, root, root.Children()[2].Parent())
}

func TestCounts(t *testing.T) {
	root := sampleTree()
	assert.Equal(t, 5, root.Len())
	assert.Equal(t, 1, root.PrunedCount())
	leaf := root.Children()[0].Children()[0]
	assert.Equal(t, []string{"(root)", "a", "a1"}, leaf.Path())
}

func TestWalkSkipsSubtree(t *testing.T) {
	root := sampleTree()
	visited := 0
	root.Walk(func(n *Node, depth int) bool {
		visited++
		return depth == 0
	})
	// root + three children; a1 is skipped.
	assert.Equal(t, 4, visited)
}

func TestFingerprintStable(t *testing.T) {
	r1 := sampleTree()
	r2 := sampleTree()
	assert.Equal(t, r1.Children()[1].Fingerprint(), r2.Children()[1].Fingerprint())
	assert.NotEqual(t, r1.Children()[0].Fingerprint(), r1.Children()[1].Fingerprint())
}

func TestWriteDot(t *testing.T) {
	root := sampleTree()
	var buf bytes.Buffer
	err := root.WriteDot(&buf)
	assert.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph {"))
	assert.Equal(t, 4, strings.Count(out, "->"))
	assert.Contains(t, out, "style=dashed")
}

func TestWriteYAML(t *testing.T) {
	root := sampleTree()
	var buf bytes.Buffer
	err := root.WriteYAML(&buf)
	assert.NoError(t, err)

	var decoded yamlNode
	err = yaml.Unmarshal(buf.Bytes(), &decoded)
	assert.NoError(t, err)
	assert.Equal(t, "(root)", decoded.Move)
	assert.Len(t, decoded.Children, 3)
	assert.True(t, decoded.Children[2].Pruned)
	assert.Equal(t, "a1", decoded.Children[0].Children[0].Move)
}
