package memory

import (
	"sync"

	"github.com/dshills/amptab/internal/editor"
)

// Node is a hand-built syntax node.
type Node struct {
	kind     string
	rng      editor.Range
	parent   *Node
	children []*Node
	fields   map[string]*Node
}

// NewNode creates a node spanning lines [startLine, endLine] whose end column
// is endCol. Children are adopted in order.
func NewNode(kind string, startLine, endLine, endCol int, children ...*Node) *Node {
	n := &Node{
		kind: kind,
		rng: editor.Range{
			Start: editor.Position{Line: startLine},
			End:   editor.Position{Line: endLine, Col: endCol},
		},
	}
	for _, c := range children {
		n.Adopt(c)
	}
	return n
}

// Adopt appends c as a child of n.
func (n *Node) Adopt(c *Node) *Node {
	c.parent = n
	n.children = append(n.children, c)
	return n
}

// WithField binds c to a field name and adopts it.
func (n *Node) WithField(name string, c *Node) *Node {
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	n.fields[name] = c
	return n.Adopt(c)
}

// WithStartCol sets the start column.
func (n *Node) WithStartCol(col int) *Node {
	n.rng.Start.Col = col
	return n
}

// Kind returns the node type.
func (n *Node) Kind() string {
	return n.kind
}

// Range returns the node span.
func (n *Node) Range() editor.Range {
	return n.rng
}

// Parent returns the parent node or nil.
func (n *Node) Parent() editor.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the child nodes.
func (n *Node) Children() []editor.Node {
	out := make([]editor.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// FieldNamed returns the child bound to name, or nil.
func (n *Node) FieldNamed(name string) editor.Node {
	if c, ok := n.fields[name]; ok {
		return c
	}
	return nil
}

// Tree wraps a root node.
type Tree struct {
	Root *Node
}

// NodeAt returns the deepest node containing the position.
func (t *Tree) NodeAt(line, col int) editor.Node {
	if t.Root == nil {
		return nil
	}
	pos := editor.Position{Line: line, Col: col}
	if !t.Root.rng.Contains(pos) {
		return t.Root
	}
	cur := t.Root
	for {
		next := (*Node)(nil)
		for _, c := range cur.children {
			if c.rng.Contains(pos) {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// Syntax is a SyntaxProvider serving fixed trees per buffer.
type Syntax struct {
	mu    sync.RWMutex
	trees map[editor.BufferID]*Tree
}

// NewSyntax creates an empty provider.
func NewSyntax() *Syntax {
	return &Syntax{trees: make(map[editor.BufferID]*Tree)}
}

// Set assigns the tree for a buffer.
func (s *Syntax) Set(id editor.BufferID, root *Node) {
	s.mu.Lock()
	s.trees[id] = &Tree{Root: root}
	s.mu.Unlock()
}

// TreeFor returns the tree registered for b.
func (s *Syntax) TreeFor(b editor.Buffer) (editor.Tree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trees[b.ID()]
	if !ok {
		return nil, false
	}
	return t, true
}
