package editor

// Node is a read-only view of one syntax tree node.
type Node interface {
	// Kind returns the grammar node type, e.g. "function_definition".
	Kind() string

	// Range returns the node span.
	Range() Range

	// Parent returns the enclosing node, or nil at the root.
	Parent() Node

	// Children returns the named child nodes.
	Children() []Node

	// FieldNamed returns the child bound to a grammar field, or nil.
	FieldNamed(name string) Node
}

// Tree is a parsed buffer.
type Tree interface {
	// NodeAt returns the smallest named node covering the position.
	NodeAt(line, col int) Node
}

// SyntaxProvider produces syntax trees for buffers.
type SyntaxProvider interface {
	// TreeFor returns the current tree for b, or false when the language is
	// unsupported or parsing failed.
	TreeFor(b Buffer) (Tree, bool)
}

// Ancestors returns n followed by each of its parents up to the root.
func Ancestors(n Node) []Node {
	var out []Node
	for cur := n; cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}
