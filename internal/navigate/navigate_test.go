package navigate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/ghost"
)

type request struct {
	pos    editor.Position
	hint   string
	source cache.Source
}

type fixture struct {
	buf      *memory.Buffer
	diags    *memory.Diagnostics
	cache    *cache.Cache
	overlay  *memory.Overlay
	renderer *ghost.Renderer
	requests []request
	now      time.Time
	nav      *Navigator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		buf:     memory.NewBuffer(1, strings.Repeat("code\n", 12), memory.WithName("main.go")),
		diags:   memory.NewDiagnostics(),
		cache:   cache.New(),
		overlay: memory.NewOverlay(),
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.renderer = ghost.NewRenderer(f.overlay, f.cache)
	f.diags.Set(f.buf.ID(),
		editor.Diagnostic{Line: 9, Severity: editor.SeverityWarning, Message: "unused"},
		editor.Diagnostic{Line: 2, Severity: editor.SeverityError, Message: "undefined"},
		editor.Diagnostic{Line: 7, Severity: editor.SeverityHint, Message: "style"},
		editor.Diagnostic{Line: 5, Severity: editor.SeverityError, Message: "mismatch"},
	)
	req := RequesterFunc(func(_ editor.Buffer, pos editor.Position, hint string, source cache.Source) {
		f.requests = append(f.requests, request{pos: pos, hint: hint, source: source})
	})
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.nav = New(f.diags, f.renderer, f.cache, req, opts...)
	return f
}

func (f *fixture) lines() []int {
	out := make([]int, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.pos.Line
	}
	return out
}

func TestNextWrapsToFirst(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 4; i++ {
		require.True(t, f.nav.Next(f.buf))
	}
	assert.Equal(t, []int{2, 5, 9, 2}, f.lines())
	assert.Equal(t, editor.Position{Line: 2}, f.buf.Cursor())

	last := f.requests[len(f.requests)-1]
	assert.Equal(t, "undefined", last.hint)
	assert.Equal(t, cache.SourceDiagnostic, last.source)
}

func TestPrevWrapsToLast(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.buf.SetCursor(editor.Position{Line: 6}))

	for i := 0; i < 4; i++ {
		require.True(t, f.nav.Prev(f.buf))
	}
	assert.Equal(t, []int{5, 2, 9, 9}, f.lines(), "restart from the last after all were visited")
}

func TestNextSkipsVisitedUntilExpired(t *testing.T) {
	f := newFixture(t, WithVisitedTTL(10*time.Second))

	require.True(t, f.nav.Next(f.buf))
	require.NoError(t, f.buf.SetCursor(editor.Position{}))

	require.True(t, f.nav.Next(f.buf))
	assert.Equal(t, []int{2, 5}, f.lines())

	f.now = f.now.Add(11 * time.Second)
	require.NoError(t, f.buf.SetCursor(editor.Position{}))
	require.True(t, f.nav.Next(f.buf))
	assert.Equal(t, 2, f.lines()[2], "expired visit is eligible again")
}

func TestNextWithoutDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.diags.Set(f.buf.ID(), editor.Diagnostic{Line: 3, Severity: editor.SeverityInfo, Message: "fyi"})

	assert.False(t, f.nav.Next(f.buf))
	assert.False(t, f.nav.Prev(f.buf))
	assert.Empty(t, f.requests)
}

func TestNextUsesFallbackProvider(t *testing.T) {
	fallback := memory.NewDiagnostics()
	f := newFixture(t, WithFallback(fallback))
	f.diags.Set(f.buf.ID())
	fallback.Set(f.buf.ID(), editor.Diagnostic{Line: 4, Severity: editor.SeverityError, Message: "from fallback"})

	require.True(t, f.nav.Next(f.buf))
	assert.Equal(t, "from fallback", f.requests[0].hint)
}

func TestNextClampsStaleDiagnostic(t *testing.T) {
	f := newFixture(t)
	f.diags.Set(f.buf.ID(), editor.Diagnostic{Line: 40, Col: 3, Severity: editor.SeverityError, Message: "gone"})

	require.True(t, f.nav.Next(f.buf))
	assert.Less(t, f.buf.Cursor().Line, f.buf.LineCount())
}

func TestPreviewAcceptReject(t *testing.T) {
	f := newFixture(t)
	id := f.cache.Add(cache.Entry{
		Text:     "fixed",
		FullText: "fixed",
		Range:    editor.Range{Start: editor.Position{Line: 2}, End: editor.Position{Line: 2, Col: 4}},
		Anchor:   editor.Position{Line: 2},
		Cursor:   editor.Position{Line: 2},
		BufferID: f.buf.ID(),
	}, cache.SourceDiagnostic)
	entry, _ := f.cache.Get(id)

	require.NoError(t, f.nav.ShowPreview(f.buf, entry))
	f.nav.Reject()
	assert.Equal(t, ghost.StateHidden, f.renderer.State())
	assert.Zero(t, f.cache.Len())

	id = f.cache.Add(entry, cache.SourceDiagnostic)
	entry, _ = f.cache.Get(id)
	require.NoError(t, f.nav.ShowPreview(f.buf, entry))
	require.NoError(t, f.nav.Accept())
	assert.Equal(t, "fixed", editor.Line(f.buf, 2))
	assert.Zero(t, f.cache.Len())
}

func TestNextDismissesVisibleCompletion(t *testing.T) {
	f := newFixture(t)
	id := f.cache.Add(cache.Entry{Text: "x", BufferID: f.buf.ID()}, cache.SourceCursor)
	entry, _ := f.cache.Get(id)
	require.NoError(t, f.renderer.Show(f.buf, entry))

	require.True(t, f.nav.Next(f.buf))
	assert.Equal(t, ghost.StateHidden, f.renderer.State())
	assert.Zero(t, f.overlay.Len())
}
