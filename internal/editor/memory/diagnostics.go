package memory

import (
	"sync"

	"github.com/dshills/amptab/internal/editor"
)

// Diagnostics is a settable diagnostics provider.
type Diagnostics struct {
	mu    sync.RWMutex
	byBuf map[editor.BufferID][]editor.Diagnostic
}

// NewDiagnostics creates an empty provider.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{byBuf: make(map[editor.BufferID][]editor.Diagnostic)}
}

// Set replaces the diagnostics of a buffer.
func (d *Diagnostics) Set(id editor.BufferID, diags ...editor.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(diags) == 0 {
		delete(d.byBuf, id)
		return
	}
	cp := make([]editor.Diagnostic, len(diags))
	copy(cp, diags)
	d.byBuf[id] = cp
}

// Diagnostics returns the diagnostics of b inside span.
func (d *Diagnostics) Diagnostics(b editor.Buffer, span editor.LineSpan) []editor.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []editor.Diagnostic
	for _, diag := range d.byBuf[b.ID()] {
		if span.Includes(diag.Line) {
			out = append(out, diag)
		}
	}
	return out
}

// Clipboard is a settable clipboard.
type Clipboard struct {
	mu   sync.RWMutex
	text string
}

// NewClipboard creates a clipboard holding text.
func NewClipboard(text string) *Clipboard {
	return &Clipboard{text: text}
}

// Set replaces the clipboard contents.
func (c *Clipboard) Set(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Text returns the clipboard contents.
func (c *Clipboard) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}
