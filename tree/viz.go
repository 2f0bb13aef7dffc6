package tree

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Visualize a search tree with graphviz dot.

type dotfile struct {
	declarations []string
	directives   []string
}

func genDotFile(n *Node, d *dotfile) {
	for _, child := range n.children {
		style := ""
		if child.Pruned {
			style = ", style=dashed"
		} else if child.Move.Selected() {
			style = ", style=bold"
		}
		decl := fmt.Sprintf("n_%x [label=\"%v\\nVal: %v\\nInh: %v\\nα: %v β: %v\"%s];",
			child.Fingerprint(), child.Move.ShortDescription(),
			child.Move.Value(), child.Move.InheritedValue(),
			child.Alpha, child.Beta, style)
		conn := fmt.Sprintf("n_%x -> n_%x;", n.Fingerprint(), child.Fingerprint())
		d.declarations = append(d.declarations, decl)
		d.directives = append(d.directives, conn)
		genDotFile(child, d)
	}
}

// WriteDot writes the tree rooted at n in graphviz dot format.
func (n *Node) WriteDot(w io.Writer) error {
	d := &dotfile{}
	genDotFile(n, d)
	var sb strings.Builder
	sb.WriteString("digraph {\n")
	fmt.Fprintf(&sb, " n_%x [label=\"(root)\"]\n", n.Fingerprint())
	for _, decl := range d.declarations {
		fmt.Fprintf(&sb, " %v\n", decl)
	}
	sb.WriteString("\n")
	for _, dir := range d.directives {
		fmt.Fprintf(&sb, " %v\n", dir)
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

type yamlNode struct {
	Move      string      `yaml:"move"`
	Player1   bool        `yaml:"player1"`
	Value     float64     `yaml:"value"`
	Inherited float64     `yaml:"inherited"`
	Alpha     float64     `yaml:"alpha"`
	Beta      float64     `yaml:"beta"`
	Selected  bool        `yaml:"selected,omitempty"`
	Pruned    bool        `yaml:"pruned,omitempty"`
	Comment   string      `yaml:"comment,omitempty"`
	Children  []*yamlNode `yaml:"children,omitempty"`
}

func toYAMLNode(n *Node) *yamlNode {
	y := &yamlNode{
		Alpha:   n.Alpha,
		Beta:    n.Beta,
		Pruned:  n.Pruned,
		Comment: n.Comment,
	}
	if n.Move != nil {
		y.Move = n.Move.ShortDescription()
		y.Player1 = n.Move.Player1()
		y.Value = n.Move.Value()
		y.Inherited = n.Move.InheritedValue()
		y.Selected = n.Move.Selected()
	}
	for _, c := range n.children {
		y.Children = append(y.Children, toYAMLNode(c))
	}
	return y
}

// MarshalYAML implements yaml.Marshaler.
func (n *Node) MarshalYAML() (interface{}, error) {
	return toYAMLNode(n), nil
}

// WriteYAML writes the tree rooted at n as YAML.
func (n *Node) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}
	return enc.Close()
}
