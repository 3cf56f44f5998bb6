package memory

import (
	"errors"
	"testing"

	"github.com/dshills/amptab/internal/editor"
)

func TestNewBufferTrailingNewline(t *testing.T) {
	b := NewBuffer(1, "a\nb\n")
	if b.LineCount() != 2 {
		t.Errorf("LineCount() = %d, want 2", b.LineCount())
	}
	if b.String() != "a\nb\n" {
		t.Errorf("String() = %q, want %q", b.String(), "a\nb\n")
	}
}

func TestBufferText(t *testing.T) {
	b := NewBuffer(1, "hello\nworld\nagain")

	tests := []struct {
		name string
		rng  editor.Range
		want string
	}{
		{"single line", editor.Range{Start: editor.Position{Line: 0, Col: 1}, End: editor.Position{Line: 0, Col: 4}}, "ell"},
		{"two lines", editor.Range{Start: editor.Position{Line: 0, Col: 3}, End: editor.Position{Line: 1, Col: 2}}, "lo\nwo"},
		{"three lines", editor.Range{Start: editor.Position{Line: 0, Col: 5}, End: editor.Position{Line: 2, Col: 0}}, "\nworld\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Text(tt.rng)
			if err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBufferSetText(t *testing.T) {
	b := NewBuffer(1, "def f():\n    pass\n")
	r := editor.Range{Start: editor.Position{Line: 1, Col: 4}, End: editor.Position{Line: 1, Col: 8}}

	if err := b.SetText(r, "x = 1\n    return x"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	want := "def f():\n    x = 1\n    return x\n"
	if b.String() != want {
		t.Errorf("String() = %q, want %q", b.String(), want)
	}
	if b.Changedtick() != 1 {
		t.Errorf("Changedtick() = %d, want 1", b.Changedtick())
	}
}

func TestBufferSetTextOutOfRange(t *testing.T) {
	b := NewBuffer(1, "abc")
	r := editor.Range{Start: editor.Position{Line: 0, Col: 0}, End: editor.Position{Line: 3, Col: 0}}

	if err := b.SetText(r, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetText() error = %v, want ErrOutOfRange", err)
	}
}

func TestBufferClosed(t *testing.T) {
	b := NewBuffer(1, "abc")
	b.Close()

	if b.Valid() {
		t.Error("Valid() = true after Close")
	}
	if _, err := b.Lines(0, -1); !errors.Is(err, editor.ErrBufferClosed) {
		t.Errorf("Lines() error = %v, want ErrBufferClosed", err)
	}
}

func TestTreeNodeAt(t *testing.T) {
	inner := NewNode("block", 1, 2, 10)
	fn := NewNode("function_definition", 0, 2, 10, inner)
	root := NewNode("module", 0, 5, 0, fn)
	tree := &Tree{Root: root}

	if got := tree.NodeAt(1, 4); got.Kind() != "block" {
		t.Errorf("NodeAt(1, 4).Kind() = %q, want block", got.Kind())
	}
	if got := tree.NodeAt(4, 0); got.Kind() != "module" {
		t.Errorf("NodeAt(4, 0).Kind() = %q, want module", got.Kind())
	}
	if root.Parent() != nil {
		t.Error("root Parent() should be nil")
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := map[string]string{
		"main.go":    "go",
		"app.py":     "python",
		"index.tsx":  "typescript",
		"lib.rs":     "rust",
		"README.md":  "",
		"script.MJS": "javascript",
	}
	for path, want := range tests {
		if got := LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
