package editor

import (
	"errors"
	"strings"
)

// ErrBufferClosed is returned when a buffer is no longer valid.
var ErrBufferClosed = errors.New("buffer closed")

// BufferID identifies a buffer for the lifetime of the editor session.
type BufferID int

// Buffer is the editor's text storage for one open document.
//
// Implementations must reject out-of-range arguments with an error rather
// than panicking; the engine clamps before mutating but buffers may change
// between the clamp and the call on hosts with re-entrant callbacks.
type Buffer interface {
	// ID returns the stable buffer identifier.
	ID() BufferID

	// Name returns the file path, or "" for unnamed buffers.
	Name() string

	// Kind returns "" for regular file buffers and a non-empty type such as
	// "nofile", "terminal" or "help" for scratch buffers.
	Kind() string

	// Language returns the filetype ("go", "python", ...).
	Language() string

	// Valid reports whether the buffer is still open.
	Valid() bool

	// Changedtick increments on every modification.
	Changedtick() int

	// LineCount returns the number of lines, at least 1 for an open buffer.
	LineCount() int

	// Lines returns lines [start, end). end < 0 means through the last line.
	Lines(start, end int) ([]string, error)

	// Text returns the text inside r.
	Text(r Range) (string, error)

	// SetText replaces the text inside r.
	SetText(r Range, text string) error

	// Cursor returns the current cursor position.
	Cursor() Position

	// SetCursor moves the cursor.
	SetCursor(pos Position) error
}

// Line returns a single line of b, or "" when out of range.
func Line(b Buffer, line int) string {
	lines, err := b.Lines(line, line+1)
	if err != nil || len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// ClampPosition moves pos inside the current bounds of b.
// It fails only when b is no longer valid.
func ClampPosition(b Buffer, pos Position) (Position, error) {
	if b == nil || !b.Valid() {
		return Position{}, ErrBufferClosed
	}
	count := b.LineCount()
	if count <= 0 {
		return Position{}, nil
	}
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= count {
		pos.Line = count - 1
	}
	if pos.Col < 0 {
		pos.Col = 0
	}
	if width := len(Line(b, pos.Line)); pos.Col > width {
		pos.Col = width
	}
	return pos, nil
}

// ClampRange clamps both ends of r and keeps Start <= End.
func ClampRange(b Buffer, r Range) (Range, error) {
	start, err := ClampPosition(b, r.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := ClampPosition(b, r.End)
	if err != nil {
		return Range{}, err
	}
	if end.Before(start) {
		end = start
	}
	return Range{Start: start, End: end}, nil
}

// Contents returns every line of b joined by newlines.
func Contents(b Buffer) (string, error) {
	lines, err := b.Lines(0, -1)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
