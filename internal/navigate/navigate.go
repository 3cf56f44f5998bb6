// Package navigate moves between error and warning diagnostics and requests
// a fix completion at each one.
package navigate

import (
	"time"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/ghost"
)

// Requester starts a foreground completion at pos with a diagnostic hint.
type Requester interface {
	RequestAt(b editor.Buffer, pos editor.Position, hint string, source cache.Source)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(b editor.Buffer, pos editor.Position, hint string, source cache.Source)

// RequestAt calls f.
func (f RequesterFunc) RequestAt(b editor.Buffer, pos editor.Position, hint string, source cache.Source) {
	f(b, pos, hint, source)
}

// Navigator cycles through the actionable diagnostics of a buffer.
type Navigator struct {
	primary   editor.DiagnosticsProvider
	fallback  editor.DiagnosticsProvider
	renderer  *ghost.Renderer
	cache     *cache.Cache
	requester Requester
	visited   *VisitedSet
	log       *zap.Logger

	ttl time.Duration
	now func() time.Time
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithFallback sets the diagnostics provider used when the primary one has
// nothing actionable.
func WithFallback(p editor.DiagnosticsProvider) Option {
	return func(n *Navigator) {
		n.fallback = p
	}
}

// WithVisitedTTL sets how long a visited diagnostic is skipped.
func WithVisitedTTL(ttl time.Duration) Option {
	return func(n *Navigator) {
		n.ttl = ttl
	}
}

// WithClock sets the time source for visit expiry.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		n.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(n *Navigator) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates a navigator.
func New(primary editor.DiagnosticsProvider, renderer *ghost.Renderer, c *cache.Cache, requester Requester, opts ...Option) *Navigator {
	n := &Navigator{
		primary:   primary,
		renderer:  renderer,
		cache:     c,
		requester: requester,
		ttl:       DefaultVisitedTTL,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.visited = NewVisitedSet(n.ttl, n.now)
	return n
}

// Visited returns the visit history.
func (n *Navigator) Visited() *VisitedSet {
	return n.visited
}

// Next jumps to the closest unvisited diagnostic after the cursor, wrapping
// to the first one. It reports false when b has no errors or warnings.
func (n *Navigator) Next(b editor.Buffer) bool {
	return n.jump(b, true)
}

// Prev jumps to the closest unvisited diagnostic before the cursor, wrapping
// to the last one.
func (n *Navigator) Prev(b editor.Buffer) bool {
	return n.jump(b, false)
}

func (n *Navigator) jump(b editor.Buffer, forward bool) bool {
	if b == nil || !b.Valid() {
		return false
	}
	diags := n.actionable(b)
	if len(diags) == 0 {
		return false
	}

	target, ok := n.pick(b, diags, forward)
	if !ok {
		n.log.Debug("all diagnostics visited, restarting", zap.Int("buffer", int(b.ID())))
		n.visited.Clear(b.ID())
		target = diags[0]
		if !forward {
			target = diags[len(diags)-1]
		}
	}

	pos, err := editor.ClampPosition(b, target.Position())
	if err != nil {
		return false
	}
	n.renderer.Dismiss()
	if err := b.SetCursor(pos); err != nil {
		n.log.Warn("moving to diagnostic failed", zap.Int("line", pos.Line), zap.Error(err))
		return false
	}
	n.visited.Mark(b.ID(), target.Line)

	n.log.Debug("navigated to diagnostic",
		zap.Int("buffer", int(b.ID())),
		zap.Int("line", target.Line),
		zap.Stringer("severity", target.Severity))
	n.requester.RequestAt(b, pos, target.Message, cache.SourceDiagnostic)
	return true
}

// pick returns the nearest unvisited diagnostic past the cursor in the given
// direction, then the first unvisited one from the wrapped end.
func (n *Navigator) pick(b editor.Buffer, diags []editor.Diagnostic, forward bool) (editor.Diagnostic, bool) {
	cursor := b.Cursor()
	id := b.ID()

	if forward {
		for _, d := range diags {
			if d.Position().After(cursor) && !n.visited.Visited(id, d.Line) {
				return d, true
			}
		}
		for _, d := range diags {
			if !n.visited.Visited(id, d.Line) {
				return d, true
			}
		}
		return editor.Diagnostic{}, false
	}

	for i := len(diags) - 1; i >= 0; i-- {
		if diags[i].Position().Before(cursor) && !n.visited.Visited(id, diags[i].Line) {
			return diags[i], true
		}
	}
	for i := len(diags) - 1; i >= 0; i-- {
		if !n.visited.Visited(id, diags[i].Line) {
			return diags[i], true
		}
	}
	return editor.Diagnostic{}, false
}

// ShowPreview renders entry as the fix for the current diagnostic.
func (n *Navigator) ShowPreview(b editor.Buffer, entry cache.Entry) error {
	return n.renderer.Show(b, entry)
}

// Accept applies the previewed fix.
func (n *Navigator) Accept() error {
	return n.renderer.AcceptFull()
}

// Reject hides the previewed fix and drops it from the cache.
func (n *Navigator) Reject() {
	entry, ok := n.renderer.Current()
	n.renderer.Dismiss()
	if ok && entry.ID != "" && n.cache != nil {
		n.cache.Remove(entry.ID)
	}
}

func (n *Navigator) actionable(b editor.Buffer) []editor.Diagnostic {
	var diags []editor.Diagnostic
	if n.primary != nil {
		diags = editor.Actionable(n.primary.Diagnostics(b, editor.AllLines))
	}
	if len(diags) == 0 && n.fallback != nil {
		diags = editor.Actionable(n.fallback.Diagnostics(b, editor.AllLines))
	}
	editor.SortByPosition(diags)
	return diags
}
