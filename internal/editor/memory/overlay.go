package memory

import (
	"sync"

	"github.com/dshills/amptab/internal/editor"
)

// Overlay records placed annotations.
type Overlay struct {
	mu     sync.Mutex
	next   editor.MarkID
	marks  map[editor.MarkID]placed
	placed int
	fail   error
}

type placed struct {
	buffer     editor.BufferID
	annotation editor.Annotation
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{marks: make(map[editor.MarkID]placed)}
}

// FailWith makes subsequent Place calls return err. Pass nil to reset.
func (o *Overlay) FailWith(err error) {
	o.mu.Lock()
	o.fail = err
	o.mu.Unlock()
}

// Place records a.
func (o *Overlay) Place(b editor.Buffer, a editor.Annotation) (editor.MarkID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fail != nil {
		return 0, o.fail
	}
	o.next++
	o.marks[o.next] = placed{buffer: b.ID(), annotation: a}
	o.placed++
	return o.next, nil
}

// Clear removes a mark. Unknown IDs are ignored.
func (o *Overlay) Clear(_ editor.Buffer, id editor.MarkID) {
	o.mu.Lock()
	delete(o.marks, id)
	o.mu.Unlock()
}

// Annotations returns the live annotations for a buffer.
func (o *Overlay) Annotations(id editor.BufferID) []editor.Annotation {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []editor.Annotation
	for _, m := range o.marks {
		if m.buffer == id {
			out = append(out, m.annotation)
		}
	}
	return out
}

// Len returns the number of live annotations.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.marks)
}

// PlacedCount returns how many annotations were ever placed.
func (o *Overlay) PlacedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.placed
}
