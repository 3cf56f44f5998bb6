package editor

import "fmt"

// Position is a 0-indexed line and byte column.
type Position struct {
	Line int
	Col  int
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Col)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Position) Compare(other Position) int {
	if p.Line < other.Line {
		return -1
	}
	if p.Line > other.Line {
		return 1
	}
	if p.Col < other.Col {
		return -1
	}
	if p.Col > other.Col {
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Position) After(other Position) bool {
	return p.Compare(other) > 0
}

// Range is a span of text. End is exclusive.
type Range struct {
	Start Position
	End   Position
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.Start, r.End)
}

// Contains returns true if pos lies within the range, End inclusive.
// The engine uses inclusive containment because a cursor sitting at the end
// of the last region line is still inside the region.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !pos.After(r.End)
}

// LineCount returns the number of lines the range touches.
func (r Range) LineCount() int {
	return r.End.Line - r.Start.Line + 1
}

// IsEmpty returns true if the range has zero width.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// LineSpan is a half-open range of lines. End < 0 means "to the end of the
// buffer".
type LineSpan struct {
	Start int
	End   int
}

// AllLines selects every line of a buffer.
var AllLines = LineSpan{Start: 0, End: -1}

// Includes reports whether line lies within the span.
func (s LineSpan) Includes(line int) bool {
	if line < s.Start {
		return false
	}
	return s.End < 0 || line < s.End
}

// EndOf returns the position just past text when it is inserted at start.
func EndOf(start Position, text string) Position {
	end := start
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end.Line++
			end.Col = 0
			continue
		}
		end.Col++
	}
	return end
}
