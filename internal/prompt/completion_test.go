package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/markers"
	"github.com/dshills/amptab/internal/region"
)

func TestCompletionRoundTrip(t *testing.T) {
	const text = "def f():\n    pass\n"
	b := memory.NewBuffer(1, text, memory.WithName("a.py"))
	bl := NewBuilder(region.NewSelector(nil))

	ctx, err := bl.Build(b, editor.Position{Line: 1, Col: 4}, DefaultTokenLimits(), "")
	require.NoError(t, err)
	require.Equal(t, "def f():\n    ", ctx.PrefixInRegion)

	entry, ok := ctx.Completion("def f():\n    return 1\n    pass\n", b.ID())
	require.True(t, ok)
	assert.Equal(t, "return 1", entry.Text)
	assert.Equal(t, editor.Position{Line: 1, Col: 4}, entry.Anchor)
	assert.Equal(t, b.ID(), entry.BufferID)

	require.NoError(t, b.SetText(entry.Range, entry.FullText))
	assert.Equal(t, "def f():\n    return 1\n    pass\n", b.String())
}

func TestCompletionStripsMarkers(t *testing.T) {
	b := memory.NewBuffer(1, "x = \n")
	ctx, err := NewBuilder(region.NewSelector(nil)).Build(b, editor.Position{Col: 4}, DefaultTokenLimits(), "")
	require.NoError(t, err)

	out := markers.EditableRegionStart + "\nx = 42" + markers.UserCursor + "\n" + markers.EditableRegionEnd
	entry, ok := ctx.Completion(out, b.ID())
	require.True(t, ok)
	assert.Equal(t, "42", entry.Text)
	assert.Equal(t, "x = 42", entry.FullText)
}

func TestCompletionNoOp(t *testing.T) {
	b := memory.NewBuffer(1, "a\nb\n")
	ctx, err := NewBuilder(region.NewSelector(nil)).Build(b, editor.Position{Line: 1}, DefaultTokenLimits(), "")
	require.NoError(t, err)

	_, ok := ctx.Completion(ctx.CodeToRewrite, b.ID())
	assert.False(t, ok)
}
