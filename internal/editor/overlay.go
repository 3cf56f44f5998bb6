package editor

// MarkID identifies a placed overlay annotation.
type MarkID int

// Annotation is inline virtual text anchored at a buffer position.
type Annotation struct {
	Line int
	Col  int

	// Text is shown inline after Col.
	Text string

	// Indicator is a glyph appended after Text to mark the suggestion.
	Indicator string

	// VirtualLines are shown as whole virtual lines below Line.
	VirtualLines []string
}

// Overlay places and removes annotations.
type Overlay interface {
	Place(b Buffer, a Annotation) (MarkID, error)
	Clear(b Buffer, id MarkID)
}

// Clipboard exposes the most recently copied text.
type Clipboard interface {
	Text() string
}
