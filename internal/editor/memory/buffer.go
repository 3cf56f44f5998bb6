// Package memory provides in-process implementations of the editor
// interfaces. The command-line tool runs the engine against these, and every
// package test uses them in place of a live editor.
package memory

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/amptab/internal/editor"
)

// ErrOutOfRange is returned for line or column arguments outside the buffer.
var ErrOutOfRange = errors.New("position out of range")

// ErrReadOnly is returned when modifying a read-only buffer.
var ErrReadOnly = errors.New("buffer is read-only")

// Buffer is a line-based editor.Buffer.
type Buffer struct {
	mu sync.RWMutex

	id       editor.BufferID
	name     string
	kind     string
	language string
	lines    []string
	eol      bool
	cursor   editor.Position
	tick     int
	closed   bool
	readOnly bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithName sets the file path. The language is inferred from the extension
// unless WithLanguage is also given.
func WithName(name string) Option {
	return func(b *Buffer) {
		b.name = name
		if b.language == "" {
			b.language = LanguageForPath(name)
		}
	}
}

// WithKind sets the scratch buffer type.
func WithKind(kind string) Option {
	return func(b *Buffer) {
		b.kind = kind
	}
}

// WithLanguage sets the filetype explicitly.
func WithLanguage(lang string) Option {
	return func(b *Buffer) {
		b.language = lang
	}
}

// WithCursor sets the initial cursor.
func WithCursor(pos editor.Position) Option {
	return func(b *Buffer) {
		b.cursor = pos
	}
}

// WithReadOnly makes every modification fail with ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(b *Buffer) {
		b.readOnly = readOnly
	}
}

// NewBuffer creates a buffer holding text. A single trailing newline is
// treated as the end-of-file marker rather than an extra empty line.
func NewBuffer(id editor.BufferID, text string, opts ...Option) *Buffer {
	b := &Buffer{id: id}
	b.eol = strings.HasSuffix(text, "\n")
	b.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the buffer identifier.
func (b *Buffer) ID() editor.BufferID {
	return b.id
}

// Name returns the file path.
func (b *Buffer) Name() string {
	return b.name
}

// Kind returns the scratch buffer type.
func (b *Buffer) Kind() string {
	return b.kind
}

// Language returns the filetype.
func (b *Buffer) Language() string {
	return b.language
}

// Valid reports whether the buffer is open.
func (b *Buffer) Valid() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

// Close invalidates the buffer.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Changedtick returns the modification counter.
func (b *Buffer) Changedtick() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tick
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Lines returns lines [start, end).
func (b *Buffer) Lines(start, end int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, editor.ErrBufferClosed
	}
	if end < 0 || end > len(b.lines) {
		end = len(b.lines)
	}
	if start < 0 || start > end {
		return nil, fmt.Errorf("lines [%d, %d): %w", start, end, ErrOutOfRange)
	}
	out := make([]string, end-start)
	copy(out, b.lines[start:end])
	return out, nil
}

// Text returns the text inside r.
func (b *Buffer) Text(r editor.Range) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return "", editor.ErrBufferClosed
	}
	if err := b.checkRange(r); err != nil {
		return "", err
	}
	if r.Start.Line == r.End.Line {
		return b.lines[r.Start.Line][r.Start.Col:r.End.Col], nil
	}

	var sb strings.Builder
	sb.WriteString(b.lines[r.Start.Line][r.Start.Col:])
	for line := r.Start.Line + 1; line < r.End.Line; line++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[line])
	}
	sb.WriteByte('\n')
	sb.WriteString(b.lines[r.End.Line][:r.End.Col])
	return sb.String(), nil
}

// SetText replaces the text inside r with text.
func (b *Buffer) SetText(r editor.Range, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return editor.ErrBufferClosed
	}
	if b.readOnly {
		return ErrReadOnly
	}
	if err := b.checkRange(r); err != nil {
		return err
	}

	head := b.lines[r.Start.Line][:r.Start.Col]
	tail := b.lines[r.End.Line][r.End.Col:]
	inserted := strings.Split(head+text+tail, "\n")

	lines := make([]string, 0, len(b.lines)-r.LineCount()+len(inserted))
	lines = append(lines, b.lines[:r.Start.Line]...)
	lines = append(lines, inserted...)
	lines = append(lines, b.lines[r.End.Line+1:]...)
	b.lines = lines
	b.tick++
	return nil
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() editor.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursor moves the cursor.
func (b *Buffer) SetCursor(pos editor.Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return editor.ErrBufferClosed
	}
	if pos.Line < 0 || pos.Line >= len(b.lines) || pos.Col < 0 || pos.Col > len(b.lines[pos.Line]) {
		return fmt.Errorf("cursor %s: %w", pos, ErrOutOfRange)
	}
	b.cursor = pos
	return nil
}

// String returns the full buffer text.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	text := strings.Join(b.lines, "\n")
	if b.eol {
		text += "\n"
	}
	return text
}

func (b *Buffer) checkRange(r editor.Range) error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("range %s: %w", r, ErrOutOfRange)
	}
	for _, p := range []editor.Position{r.Start, r.End} {
		if p.Line < 0 || p.Line >= len(b.lines) || p.Col < 0 || p.Col > len(b.lines[p.Line]) {
			return fmt.Errorf("range %s: %w", r, ErrOutOfRange)
		}
	}
	return nil
}

// LanguageForPath maps a file extension to a filetype.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py", ".pyw":
		return "python"
	case ".js", ".mjs", ".cjs", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".rs":
		return "rust"
	case ".rb":
		return "ruby"
	case ".java":
		return "java"
	case ".lua":
		return "lua"
	default:
		return ""
	}
}
