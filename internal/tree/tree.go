package tree

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brouwer-lang/brouwer/internal/token"
)

// Node is a syntax tree node. A node exclusively owns its children; there
// are no parent links and no sharing between nodes.
//
// Leaves carry the verbatim lexeme they matched and have no children.
// Internal nodes carry no text; their meaning is the tag plus the child
// sequence.
type Node struct {
	tag      token.Tag
	text     string
	children []*Node
}

// New creates an internal node with the given children.
func New(tag token.Tag, children ...*Node) *Node {
	n := &Node{tag: tag}
	n.Add(children...)
	return n
}

// Leaf creates a terminal node holding text.
func Leaf(tag token.Tag, text string) *Node {
	return &Node{tag: tag, text: text}
}

// Add appends children in order and returns n. Nil children are skipped so
// optional parts can be passed unconditionally.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	return n
}

func (n *Node) Tag() token.Tag  { return n.tag }
func (n *Node) Text() string    { return n.text }
func (n *Node) ChildCount() int { return len(n.children) }
func (n *Node) IsLeaf() bool    { return len(n.children) == 0 }

// Child returns the i-th child. It panics if i is out of range, like a
// slice index would.
func (n *Node) Child(i int) *Node {
	return n.children[i]
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the children of the visited node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
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

// Find returns the first node in pre-order with the given tag, or nil.
func (n *Node) Find(tag token.Tag) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.tag == tag {
			found = node
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node with the given tag in pre-order.
func (n *Node) FindAll(tag token.Tag) []*Node {
	var out []*Node
	n.Walk(func(node *Node, _ int) bool {
		if node.tag == tag {
			out = append(out, node)
		}
		return true
	})
	return out
}

// ChildrenOf returns the direct children with the given tag.
func (n *Node) ChildrenOf(tag token.Tag) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Terminals returns the lexemes of all leaves in source order.
func (n *Node) Terminals() []string {
	var out []string
	n.Walk(func(node *Node, _ int) bool {
		if node.IsLeaf() && node.text != "" {
			out = append(out, node.text)
		}
		return true
	})
	return out
}

// Source re-serializes the subtree from its terminals, separating tokens
// by a single space. Character and string literals are written as one
// token so their bodies are reproduced exactly.
func (n *Node) Source() string {
	var sb strings.Builder
	n.source(&sb)
	return strings.TrimRight(sb.String(), " ")
}

func (n *Node) source(sb *strings.Builder) {
	switch {
	case n.IsLeaf():
		sb.WriteString(n.text)
	case n.tag == token.StrLit || n.tag == token.ChrLit:
		for _, c := range n.children {
			sb.WriteString(c.text)
		}
	default:
		for _, c := range n.children {
			c.source(sb)
		}
		return
	}
	sb.WriteByte(' ')
}

// String renders the subtree as an s-expression, e.g.
// (expr (subexpr (qualIdent (ident "x")))).
func (n *Node) String() string {
	var sb strings.Builder
	n.sexpr(&sb)
	return sb.String()
}

func (n *Node) sexpr(sb *strings.Builder) {
	if n.IsLeaf() {
		fmt.Fprintf(sb, "(%s %q)", n.tag, n.text)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.tag.String())
	for _, c := range n.children {
		sb.WriteByte(' ')
		c.sexpr(sb)
	}
	sb.WriteByte(')')
}

type jsonNode struct {
	Tag      string  `json:"tag"`
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{
		Tag:      n.tag.String(),
		Text:     n.text,
		Children: n.children,
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return err
	}
	tag, ok := token.Lookup(jn.Tag)
	if !ok {
		return fmt.Errorf("unknown tag %q", jn.Tag)
	}
	n.tag = tag
	n.text = jn.Text
	n.children = jn.Children
	return nil
}
