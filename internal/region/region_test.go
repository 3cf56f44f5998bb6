package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
)

const pythonSource = `class A:
    def __init__(self):
        self.x = 1

    def f(self):
        if self.x:
            return 1
        return 2
`

// pythonTree mirrors the shape tree-sitter produces for pythonSource.
func pythonTree() *memory.Node {
	ret1 := memory.NewNode("return_statement", 6, 6, 20).WithStartCol(12)
	ifBody := memory.NewNode("block", 6, 6, 20, ret1).WithStartCol(12)
	ifStmt := memory.NewNode("if_statement", 5, 6, 20, ifBody).WithStartCol(8)
	ret2 := memory.NewNode("return_statement", 7, 7, 16).WithStartCol(8)
	fBody := memory.NewNode("block", 5, 7, 16, ifStmt, ret2).WithStartCol(8)
	f := memory.NewNode("function_definition", 4, 7, 16).WithStartCol(4).
		WithField("name", memory.NewNode("identifier", 4, 4, 9).WithStartCol(8))
	f.Adopt(fBody)

	initBody := memory.NewNode("block", 2, 2, 18).WithStartCol(8)
	initFn := memory.NewNode("function_definition", 1, 2, 18).WithStartCol(4).
		WithField("name", memory.NewNode("identifier", 1, 1, 16).WithStartCol(8))
	initFn.Adopt(initBody)

	classBody := memory.NewNode("block", 1, 7, 16, initFn, f).WithStartCol(4)
	class := memory.NewNode("class_definition", 0, 7, 16).
		WithField("name", memory.NewNode("identifier", 0, 0, 7).WithStartCol(6))
	class.Adopt(classBody)

	return memory.NewNode("module", 0, 7, 16, class)
}

func newPythonFixture(t *testing.T) (*memory.Buffer, *Selector) {
	t.Helper()
	b := memory.NewBuffer(1, pythonSource, memory.WithName("a.py"))
	syntax := memory.NewSyntax()
	syntax.Set(b.ID(), pythonTree())
	return b, NewSelector(syntax)
}

func TestSelectFunction(t *testing.T) {
	b, s := newPythonFixture(t)

	r, err := s.Select(b, editor.Position{Line: 6, Col: 12}, 50, true)
	require.NoError(t, err)

	assert.Equal(t, StrategyFunction, r.Strategy)
	assert.Equal(t, "function_definition", r.NodeKind)
	assert.Equal(t, editor.Position{Line: 4, Col: 0}, r.Start)
	assert.Equal(t, editor.Position{Line: 7, Col: len("        return 2")}, r.End)
	assert.Equal(t, "class A:\n    def __init__(self):\n        self.x = 1", r.ClassContext)
}

func TestSelectBlockWhenFunctionTooLarge(t *testing.T) {
	b, s := newPythonFixture(t)

	r, err := s.Select(b, editor.Position{Line: 6, Col: 12}, 3, true)
	require.NoError(t, err)

	assert.Equal(t, StrategyBlock, r.Strategy)
	assert.Equal(t, 6, r.Start.Line)
	assert.Equal(t, 6, r.End.Line)
}

func TestSelectWithoutFunctionPreference(t *testing.T) {
	b, s := newPythonFixture(t)

	r, err := s.Select(b, editor.Position{Line: 7, Col: 10}, 50, false)
	require.NoError(t, err)

	// The function body block is the innermost function-or-block ancestor.
	assert.Equal(t, StrategyBlock, r.Strategy)
	assert.Equal(t, 5, r.Start.Line)
	assert.Equal(t, 7, r.End.Line)
}

func TestSelectClassWindow(t *testing.T) {
	b, s := newPythonFixture(t)

	r, err := s.Select(b, editor.Position{Line: 3, Col: 0}, 2, true)
	require.NoError(t, err)

	assert.Equal(t, StrategyClass, r.Strategy)
	assert.Equal(t, "class_definition", r.NodeKind)
	assert.Equal(t, 2, r.Start.Line)
	assert.Equal(t, 3, r.End.Line)
	// The constructor overlaps the window, so only the header is added.
	assert.Equal(t, "class A:", r.ClassContext)
}

func TestSelectFallbackWithoutTree(t *testing.T) {
	b := memory.NewBuffer(1, pythonSource, memory.WithName("a.py"))
	s := NewSelector(nil)

	r, err := s.Select(b, editor.Position{Line: 6, Col: 4}, 3, true)
	require.NoError(t, err)

	assert.Equal(t, StrategyFallback, r.Strategy)
	assert.Equal(t, 5, r.Start.Line)
	assert.Equal(t, 7, r.End.Line)
	assert.Empty(t, r.ClassContext)
}

func TestSelectFallbackClampsToBuffer(t *testing.T) {
	b := memory.NewBuffer(1, "a\nb\nc\n")
	s := NewSelector(nil)

	r, err := s.Select(b, editor.Position{Line: 0, Col: 0}, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Start.Line)
	assert.Equal(t, 2, r.End.Line)

	r, err = s.Select(b, editor.Position{Line: 40, Col: 40}, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Start.Line)
	assert.Equal(t, 2, r.End.Line)
}

func TestSelectClosedBuffer(t *testing.T) {
	b := memory.NewBuffer(1, "a\n")
	b.Close()

	_, err := NewSelector(nil).Select(b, editor.Position{}, 5, true)
	assert.ErrorIs(t, err, editor.ErrBufferClosed)
}

func TestSelectContainsCursorWithinBudget(t *testing.T) {
	b, s := newPythonFixture(t)
	plain := NewSelector(nil)

	for _, sel := range []*Selector{s, plain} {
		for maxLines := 1; maxLines <= 9; maxLines++ {
			for line := 0; line < b.LineCount(); line++ {
				for _, prefer := range []bool{true, false} {
					cursor := editor.Position{Line: line, Col: len(editor.Line(b, line))}
					r, err := sel.Select(b, cursor, maxLines, prefer)
					require.NoError(t, err)

					assert.True(t, r.Range().Contains(cursor),
						"region %v does not contain cursor %v (max %d)", r.Range(), cursor, maxLines)
					assert.LessOrEqual(t, r.LineCount(), maxLines,
						"region %v exceeds %d lines (%s)", r.Range(), maxLines, r.Strategy)
				}
			}
		}
	}
}

func TestClassifyGeneric(t *testing.T) {
	tests := map[string]nodeClass{
		"function_item":         classFunction,
		"method_declaration":    classFunction,
		"class_specifier":       classClass,
		"struct_item":           classClass,
		"compound_block":        classBlock,
		"if_statement":          classBlock,
		"expression_statement":  classNone,
		"translation_unit":      classNone,
		"anonymous_closure_def": classFunction,
	}
	for kind, want := range tests {
		if got := classifyGeneric(kind); got != want {
			t.Errorf("classifyGeneric(%q) = %v, want %v", kind, got, want)
		}
	}
}

func TestSelectFallbackMaxLines(t *testing.T) {
	b := memory.NewBuffer(1, "a\nb\nc\nd\ne\nf\ng\n")
	s := NewSelector(nil, WithFallbackMaxLines(3))

	r, err := s.Select(b, editor.Position{Line: 3}, 50, true)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Start.Line)
	assert.Equal(t, 4, r.End.Line)
}
