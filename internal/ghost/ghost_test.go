package ghost

import (
	"errors"
	"testing"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
)

func newFixture(text string, opts ...memory.Option) (*memory.Buffer, *memory.Overlay, *cache.Cache, *Renderer) {
	b := memory.NewBuffer(1, text, opts...)
	ov := memory.NewOverlay()
	c := cache.New()
	return b, ov, c, NewRenderer(ov, c)
}

func add(c *cache.Cache, e cache.Entry) cache.Entry {
	id := c.Add(e, cache.SourceCursor)
	got, _ := c.Get(id)
	return got
}

func pos(line, col int) editor.Position {
	return editor.Position{Line: line, Col: col}
}

func TestShowPlacesAnnotation(t *testing.T) {
	b, ov, c, r := newFixture("def f():\n    \n")
	e := add(c, cache.Entry{
		Text:     "return 1\nprint(x)",
		BufferID: b.ID(),
		Anchor:   pos(1, 4),
	})

	if err := r.Show(b, e); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if r.State() != StateVisible {
		t.Errorf("State() = %v, want visible", r.State())
	}

	anns := ov.Annotations(b.ID())
	if len(anns) != 1 {
		t.Fatalf("len(Annotations) = %d, want 1", len(anns))
	}
	a := anns[0]
	if a.Line != 1 || a.Col != 4 || a.Text != "return 1" || a.Indicator != DefaultIndicator {
		t.Errorf("annotation = %+v", a)
	}
	if len(a.VirtualLines) != 1 || a.VirtualLines[0] != "print(x)" {
		t.Errorf("VirtualLines = %q, want [print(x)]", a.VirtualLines)
	}
}

func TestShowSupersedesPrevious(t *testing.T) {
	b, ov, c, r := newFixture("a\nb\n")
	first := add(c, cache.Entry{Text: "x", BufferID: b.ID(), Anchor: pos(0, 1)})
	second := add(c, cache.Entry{Text: "y", BufferID: b.ID(), Anchor: pos(1, 1), Cursor: pos(20, 0)})

	_ = r.Show(b, first)
	_ = r.Show(b, second)

	if ov.Len() != 1 {
		t.Errorf("overlay Len() = %d, want 1", ov.Len())
	}
	cur, ok := r.Current()
	if !ok || cur.Text != "y" {
		t.Errorf("Current() = %+v, %v", cur, ok)
	}
}

func TestShowRejectsOtherBuffer(t *testing.T) {
	b, ov, _, r := newFixture("a\n")
	other := memory.NewBuffer(2, "b\n")

	err := r.Show(other, cache.Entry{Text: "x", BufferID: b.ID()})
	if !errors.Is(err, ErrBufferMismatch) {
		t.Errorf("Show() error = %v, want ErrBufferMismatch", err)
	}
	if r.State() != StateHidden || ov.Len() != 0 {
		t.Errorf("cross-buffer completion was rendered")
	}
}

func TestShowRejectsClosedBuffer(t *testing.T) {
	b, _, _, r := newFixture("a\n")
	b.Close()

	if err := r.Show(b, cache.Entry{Text: "x", BufferID: b.ID()}); !errors.Is(err, ErrBufferInvalid) {
		t.Errorf("Show() error = %v, want ErrBufferInvalid", err)
	}
}

func TestShowClampsAnchor(t *testing.T) {
	b, ov, _, r := newFixture("ab\n")

	if err := r.Show(b, cache.Entry{Text: "x", BufferID: b.ID(), Anchor: pos(9, 9)}); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	a := ov.Annotations(b.ID())[0]
	if a.Line != 0 || a.Col != 2 {
		t.Errorf("anchor = (%d,%d), want (0,2)", a.Line, a.Col)
	}
}

func TestShowOverlayFailure(t *testing.T) {
	b, ov, _, r := newFixture("a\n")
	ov.FailWith(errors.New("no namespace"))

	if err := r.Show(b, cache.Entry{Text: "x", BufferID: b.ID()}); err == nil {
		t.Fatal("Show() error = nil, want overlay error")
	}
	if r.State() != StateHidden {
		t.Errorf("State() = %v, want hidden", r.State())
	}
}

func TestDismissIdempotent(t *testing.T) {
	b, ov, _, r := newFixture("a\n")
	_ = r.Show(b, cache.Entry{Text: "x", BufferID: b.ID()})

	r.Dismiss()
	r.Dismiss()

	if r.State() != StateHidden || ov.Len() != 0 {
		t.Errorf("Dismiss() left state %v with %d annotations", r.State(), ov.Len())
	}
}

func TestAcceptFullMatchesDirectReplacement(t *testing.T) {
	const text = "def f():\n    pass\n\nx = 1\n"
	rng := editor.Range{Start: pos(0, 0), End: pos(1, 8)}
	full := "def f():\n    return 1"

	want := memory.NewBuffer(1, text)
	if err := want.SetText(rng, full); err != nil {
		t.Fatal(err)
	}

	b, ov, c, r := newFixture(text)
	e := add(c, cache.Entry{
		Text:     "return 1",
		FullText: full,
		Range:    rng,
		Anchor:   pos(1, 4),
		BufferID: b.ID(),
	})
	if err := r.Show(b, e); err != nil {
		t.Fatal(err)
	}
	if err := r.AcceptFull(); err != nil {
		t.Fatalf("AcceptFull() error = %v", err)
	}

	if b.String() != want.String() {
		t.Errorf("buffer = %q, want %q", b.String(), want.String())
	}
	if got := b.Cursor(); got != pos(1, 12) {
		t.Errorf("Cursor() = %v, want (1:12)", got)
	}
	if r.State() != StateHidden || ov.Len() != 0 {
		t.Errorf("renderer still visible after accept")
	}
	if _, ok := c.Get(e.ID); ok {
		t.Errorf("accepted entry still cached")
	}
}

func TestAcceptFullFailureKeepsState(t *testing.T) {
	b, _, c, r := newFixture("a\n", memory.WithReadOnly(true))
	e := add(c, cache.Entry{
		Text:     "b",
		FullText: "ab",
		Range:    editor.Range{Start: pos(0, 0), End: pos(0, 1)},
		Anchor:   pos(0, 1),
		BufferID: b.ID(),
	})
	_ = r.Show(b, e)

	err := r.AcceptFull()
	if !errors.Is(err, memory.ErrReadOnly) {
		t.Fatalf("AcceptFull() error = %v, want ErrReadOnly", err)
	}
	if r.State() != StateVisible {
		t.Errorf("State() = %v, want visible", r.State())
	}
	if _, ok := c.Get(e.ID); !ok {
		t.Errorf("entry removed from cache after failed accept")
	}
}

func TestAcceptFullWhenHidden(t *testing.T) {
	_, _, _, r := newFixture("a\n")
	if err := r.AcceptFull(); !errors.Is(err, ErrNotVisible) {
		t.Errorf("AcceptFull() error = %v, want ErrNotVisible", err)
	}
}

func TestAcceptLine(t *testing.T) {
	b, ov, c, r := newFixture("a\n")
	e := add(c, cache.Entry{Text: "bc\nde", BufferID: b.ID(), Anchor: pos(0, 1)})
	_ = r.Show(b, e)

	if err := r.AcceptLine(); err != nil {
		t.Fatalf("AcceptLine() error = %v", err)
	}
	if got := b.String(); got != "abc\n\n" {
		t.Errorf("buffer = %q, want %q", got, "abc\n\n")
	}
	if got := b.Cursor(); got != pos(1, 0) {
		t.Errorf("Cursor() = %v, want (1:0)", got)
	}
	if _, ok := c.Get(e.ID); ok {
		t.Errorf("original entry still cached after partial accept")
	}
	cur, ok := r.Current()
	if !ok || cur.Text != "de" || cur.Anchor != pos(1, 0) {
		t.Fatalf("Current() = %+v, %v; want remainder de at (1:0)", cur, ok)
	}
	if anns := ov.Annotations(b.ID()); len(anns) != 1 || anns[0].Text != "de" {
		t.Errorf("annotations = %+v", anns)
	}

	if err := r.AcceptLine(); err != nil {
		t.Fatalf("AcceptLine() error = %v", err)
	}
	if got := b.String(); got != "abc\nde\n" {
		t.Errorf("buffer = %q, want %q", got, "abc\nde\n")
	}
	if r.State() != StateHidden || ov.Len() != 0 {
		t.Errorf("renderer visible after last line")
	}
}

func TestAcceptWord(t *testing.T) {
	b, _, c, r := newFixture("x\n")
	_ = r.Show(b, add(c, cache.Entry{Text: " = foo(bar) + 1", BufferID: b.ID(), Anchor: pos(0, 1)}))

	steps := []string{"x ", "x = ", "x = foo(bar) ", "x = foo(bar) + ", "x = foo(bar) + 1"}
	for i, want := range steps {
		if err := r.AcceptWord(); err != nil {
			t.Fatalf("AcceptWord() #%d error = %v", i, err)
		}
		if got := editor.Line(b, 0); got != want {
			t.Errorf("after word %d line = %q, want %q", i, got, want)
		}
	}
	if r.State() != StateHidden {
		t.Errorf("State() = %v, want hidden", r.State())
	}
}

func TestWordEnd(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"foo bar", 4},
		{"foo\tbar", 4},
		{"foo", 3},
		{"  foo", 2},
		{"foo\nbar", 4},
		{"\nbar", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := wordEnd(tt.in); got != tt.want {
			t.Errorf("wordEnd(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
