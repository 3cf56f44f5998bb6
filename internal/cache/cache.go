// Package cache stores finished completions by buffer location so they can be
// shown again without another request.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
)

// Default limits.
const (
	DefaultCapacity   = 20
	DefaultDedupLines = 5
)

// Source records what requested a completion.
type Source uint8

const (
	SourceCursor Source = iota
	SourceDiagnostic
	SourcePreload
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceCursor:
		return "cursor"
	case SourceDiagnostic:
		return "diagnostic"
	case SourcePreload:
		return "preload"
	default:
		return "unknown"
	}
}

// Entry is one cached completion.
type Entry struct {
	ID string

	// Text is the span shown as ghost text.
	Text string

	// FullText replaces Range when the completion is accepted in full.
	FullText string
	Range    editor.Range

	// Cursor is the position the request was made for; Anchor is where the
	// ghost text starts.
	Cursor editor.Position
	Anchor editor.Position

	BufferID  editor.BufferID
	Timestamp time.Time
	Source    Source
}

// Cache is a bounded, proximity-deduplicated completion store.
type Cache struct {
	mu         sync.Mutex
	entries    []Entry
	capacity   int
	dedupLines int
	now        func() time.Time
	log        *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity sets the maximum number of entries.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDedupLines sets the line distance within which a new entry replaces
// existing entries of the same buffer.
func WithDedupLines(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.dedupLines = n
		}
	}
}

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		capacity:   DefaultCapacity,
		dedupLines: DefaultDedupLines,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add stores e with the given source and returns its new ID. Entries of the
// same buffer whose cursor lies within the dedup distance are dropped, and
// the oldest entries are evicted beyond capacity.
func (c *Cache) Add(e Entry, source Source) string {
	e.ID = uuid.NewString()
	e.Source = source
	e.Timestamp = c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, old := range c.entries {
		if old.BufferID == e.BufferID && abs(old.Cursor.Line-e.Cursor.Line) <= c.dedupLines {
			c.log.Debug("cache entry replaced",
				zap.String("id", old.ID),
				zap.Int("line", old.Cursor.Line))
			continue
		}
		kept = append(kept, old)
	}
	c.entries = append(kept, e)

	if over := len(c.entries) - c.capacity; over > 0 {
		c.entries = append(c.entries[:0], c.entries[over:]...)
	}

	c.log.Debug("cache entry added",
		zap.String("id", e.ID),
		zap.Int("buffer", int(e.BufferID)),
		zap.Int("line", e.Cursor.Line),
		zap.Stringer("source", source))
	return e.ID
}

// Get returns the entry with id.
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(id); i >= 0 {
		return c.entries[i], true
	}
	return Entry{}, false
}

// Nearest returns the entries of buf ordered by line distance from cursor.
// Equal distances put the newest entry first.
func (c *Cache) Nearest(buf editor.BufferID, cursor editor.Position) []Entry {
	c.mu.Lock()
	out := c.forBuffer(buf)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := abs(out[i].Cursor.Line-cursor.Line), abs(out[j].Cursor.Line-cursor.Line)
		if di != dj {
			return di < dj
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Next returns the entry of buf closest below the cursor line.
func (c *Cache) Next(buf editor.BufferID, cursor editor.Position) (Entry, bool) {
	return c.closest(buf, func(line int) (int, bool) {
		return line - cursor.Line, line > cursor.Line
	})
}

// Prev returns the entry of buf closest above the cursor line.
func (c *Cache) Prev(buf editor.BufferID, cursor editor.Position) (Entry, bool) {
	return c.closest(buf, func(line int) (int, bool) {
		return cursor.Line - line, line < cursor.Line
	})
}

// HasNear reports whether buf has an entry within the given number of lines
// of line.
func (c *Cache) HasNear(buf editor.BufferID, line, within int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.BufferID == buf && abs(e.Cursor.Line-line) <= within {
			return true
		}
	}
	return false
}

// Remove deletes the entry with id and reports whether it existed.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return true
}

// ClearBuffer removes every entry of buf and returns how many were removed.
func (c *Cache) ClearBuffer(buf editor.BufferID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.BufferID != buf {
			kept = append(kept, e)
		}
	}
	removed := len(c.entries) - len(kept)
	c.entries = kept
	return removed
}

// ClearAll removes every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) closest(buf editor.BufferID, dist func(line int) (int, bool)) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		best  Entry
		bestD int
		found bool
	)
	for _, e := range c.entries {
		if e.BufferID != buf {
			continue
		}
		d, ok := dist(e.Cursor.Line)
		if !ok {
			continue
		}
		if !found || d < bestD || (d == bestD && e.Timestamp.After(best.Timestamp)) {
			best, bestD, found = e, d, true
		}
	}
	return best, found
}

func (c *Cache) forBuffer(buf editor.BufferID) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.BufferID == buf {
			out = append(out, e)
		}
	}
	return out
}

func (c *Cache) index(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
