package navigate

import (
	"sync"
	"time"

	"github.com/dshills/amptab/internal/editor"
)

// DefaultVisitedTTL is how long a visited diagnostic is skipped.
const DefaultVisitedTTL = 30 * time.Second

type visitKey struct {
	buf  editor.BufferID
	line int
}

// VisitedSet remembers which diagnostic lines were navigated to recently.
// Entries expire lazily on lookup.
type VisitedSet struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[visitKey]time.Time
}

// NewVisitedSet creates a set whose entries live for ttl. now may be nil.
func NewVisitedSet(ttl time.Duration, now func() time.Time) *VisitedSet {
	if ttl <= 0 {
		ttl = DefaultVisitedTTL
	}
	if now == nil {
		now = time.Now
	}
	return &VisitedSet{
		ttl:     ttl,
		now:     now,
		entries: make(map[visitKey]time.Time),
	}
}

// Mark records a visit to line of buf.
func (v *VisitedSet) Mark(buf editor.BufferID, line int) {
	v.mu.Lock()
	v.entries[visitKey{buf: buf, line: line}] = v.now()
	v.mu.Unlock()
}

// Visited reports whether line of buf was visited within the TTL.
func (v *VisitedSet) Visited(buf editor.BufferID, line int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := visitKey{buf: buf, line: line}
	at, ok := v.entries[key]
	if !ok {
		return false
	}
	if v.now().Sub(at) > v.ttl {
		delete(v.entries, key)
		return false
	}
	return true
}

// Clear forgets every visit in buf.
func (v *VisitedSet) Clear(buf editor.BufferID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k := range v.entries {
		if k.buf == buf {
			delete(v.entries, k)
		}
	}
}

// ClearAll forgets every visit.
func (v *VisitedSet) ClearAll() {
	v.mu.Lock()
	v.entries = make(map[visitKey]time.Time)
	v.mu.Unlock()
}

// Len returns the number of stored visits, expired or not.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
