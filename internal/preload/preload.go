// Package preload requests completions at diagnostic locations in the
// background so they are ready when the user navigates there.
package preload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/debounce"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/prompt"
	"github.com/dshills/amptab/internal/stream"
)

// Settings tune the preloader.
type Settings struct {
	Delay         time.Duration
	MaxPerBuffer  int
	CoverageLines int
	MaxConcurrent int64
	Limits        prompt.TokenLimits

	// Request carries the model parameters; prompt fields are filled per
	// diagnostic.
	Request stream.Request
}

// DefaultSettings returns the default tuning.
func DefaultSettings() Settings {
	return Settings{
		Delay:         2 * time.Second,
		MaxPerBuffer:  3,
		CoverageLines: 3,
		MaxConcurrent: 4,
		Limits:        prompt.DefaultTokenLimits(),
	}
}

type flightKey struct {
	buf  editor.BufferID
	line int
	col  int
}

type flight struct {
	task stream.Task
}

// Preloader fills the cache with completions for error and warning
// diagnostics. It never renders and never moves the real cursor.
type Preloader struct {
	builder   *prompt.Builder
	completer stream.Completer
	cache     *cache.Cache
	primary   editor.DiagnosticsProvider
	fallback  editor.DiagnosticsProvider
	settings  Settings
	sem       *semaphore.Weighted
	loop      editor.Loop
	clock     debounce.Clock
	log       *zap.Logger

	mu       sync.Mutex
	enabled  bool
	inflight map[flightKey]*flight
	timers   map[editor.BufferID]*debounce.Debouncer
}

// Option configures a Preloader.
type Option func(*Preloader)

// WithFallback sets the diagnostics provider consulted when the primary one
// reports nothing actionable.
func WithFallback(p editor.DiagnosticsProvider) Option {
	return func(pl *Preloader) {
		pl.fallback = p
	}
}

// WithLoop sets the loop debounced runs are posted to.
func WithLoop(l editor.Loop) Option {
	return func(pl *Preloader) {
		if l != nil {
			pl.loop = l
		}
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c debounce.Clock) Option {
	return func(pl *Preloader) {
		if c != nil {
			pl.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(pl *Preloader) {
		if log != nil {
			pl.log = log
		}
	}
}

// New creates an enabled preloader.
func New(builder *prompt.Builder, completer stream.Completer, c *cache.Cache, primary editor.DiagnosticsProvider, settings Settings, opts ...Option) *Preloader {
	if settings.MaxConcurrent < 1 {
		settings.MaxConcurrent = 1
	}
	p := &Preloader{
		builder:   builder,
		completer: completer,
		cache:     c,
		primary:   primary,
		settings:  settings,
		sem:       semaphore.NewWeighted(settings.MaxConcurrent),
		loop:      editor.Inline,
		clock:     debounce.SystemClock,
		log:       zap.NewNop(),
		enabled:   true,
		inflight:  make(map[flightKey]*flight),
		timers:    make(map[editor.BufferID]*debounce.Debouncer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enable turns preloading on.
func (p *Preloader) Enable() {
	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
}

// Disable turns preloading off and drops pending debounced runs. Requests
// already in flight finish normally.
func (p *Preloader) Disable() {
	p.mu.Lock()
	p.enabled = false
	timers := p.timers
	p.timers = make(map[editor.BufferID]*debounce.Debouncer)
	p.mu.Unlock()

	for _, d := range timers {
		d.Cancel()
	}
}

// Enabled reports whether preloading is on.
func (p *Preloader) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// InFlight returns the number of running preload requests.
func (p *Preloader) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Scheduled returns how many buffers have a debounced run pending.
func (p *Preloader) Scheduled() int {
	p.mu.Lock()
	timers := make([]*debounce.Debouncer, 0, len(p.timers))
	for _, d := range p.timers {
		timers = append(timers, d)
	}
	p.mu.Unlock()

	n := 0
	for _, d := range timers {
		if d.Pending() {
			n++
		}
	}
	return n
}

// Schedule runs PreloadDiagnostics for b once events for it have been quiet
// for the configured delay. Each call restarts the delay.
func (p *Preloader) Schedule(b editor.Buffer) {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return
	}
	d, ok := p.timers[b.ID()]
	if !ok {
		d = debounce.New(p.settings.Delay, func() { p.PreloadDiagnostics(b) },
			debounce.WithClock(p.clock), debounce.WithLoop(p.loop))
		p.timers[b.ID()] = d
	}
	p.mu.Unlock()

	d.Call()
}

// PreloadDiagnostics starts requests for the most severe diagnostics of b
// that have no nearby cached completion. Requests still in flight for b count
// toward the per-buffer limit. It returns how many started.
func (p *Preloader) PreloadDiagnostics(b editor.Buffer) int {
	if !p.Enabled() || b == nil || !b.Valid() {
		return 0
	}

	diags := p.actionable(b)
	busy := p.inFlightFor(b.ID())
	started := 0
	for _, d := range diags {
		if busy >= p.settings.MaxPerBuffer {
			break
		}
		if p.cache.HasNear(b.ID(), d.Line, p.settings.CoverageLines) {
			continue
		}
		if p.flying(flightKey{buf: b.ID(), line: d.Line, col: d.Col}) {
			continue
		}
		if p.start(b, d) {
			busy++
			started++
		}
	}

	if started > 0 {
		p.log.Debug("preloading diagnostics",
			zap.Int("buffer", int(b.ID())),
			zap.Int("started", started),
			zap.Int("candidates", len(diags)))
	}
	return started
}

func (p *Preloader) inFlightFor(buf editor.BufferID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for k := range p.inflight {
		if k.buf == buf {
			n++
		}
	}
	return n
}

func (p *Preloader) flying(key flightKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inflight[key]
	return ok
}

// CancelBuffer drops the pending run and in-flight requests for buf.
func (p *Preloader) CancelBuffer(buf editor.BufferID) {
	p.mu.Lock()
	d := p.timers[buf]
	delete(p.timers, buf)
	var cancelled []*flight
	for k, f := range p.inflight {
		if k.buf == buf {
			cancelled = append(cancelled, f)
			delete(p.inflight, k)
		}
	}
	p.mu.Unlock()

	if d != nil {
		d.Cancel()
	}
	p.cancel(cancelled)
}

// Shutdown cancels every pending run and in-flight request.
func (p *Preloader) Shutdown() {
	p.Disable()

	p.mu.Lock()
	cancelled := make([]*flight, 0, len(p.inflight))
	for k, f := range p.inflight {
		cancelled = append(cancelled, f)
		delete(p.inflight, k)
	}
	p.mu.Unlock()

	p.cancel(cancelled)
}

func (p *Preloader) cancel(flights []*flight) {
	for _, f := range flights {
		if f.task != nil {
			f.task.Cancel()
		}
		p.sem.Release(1)
	}
}

// actionable returns the errors and warnings of b, most severe first. The
// fallback provider is asked when the primary has none.
func (p *Preloader) actionable(b editor.Buffer) []editor.Diagnostic {
	var diags []editor.Diagnostic
	if p.primary != nil {
		diags = editor.Actionable(p.primary.Diagnostics(b, editor.AllLines))
	}
	if len(diags) == 0 && p.fallback != nil {
		diags = editor.Actionable(p.fallback.Diagnostics(b, editor.AllLines))
	}
	editor.SortBySeverity(diags)
	return diags
}

// start launches one preload request. It reports false when the location is
// already in flight, the concurrency cap is reached or no prompt could be
// built.
func (p *Preloader) start(b editor.Buffer, d editor.Diagnostic) bool {
	key := flightKey{buf: b.ID(), line: d.Line, col: d.Col}

	p.mu.Lock()
	if _, ok := p.inflight[key]; ok {
		p.mu.Unlock()
		return false
	}
	if !p.sem.TryAcquire(1) {
		p.mu.Unlock()
		p.log.Debug("preload concurrency cap reached", zap.Int("line", d.Line))
		return false
	}
	f := &flight{}
	p.inflight[key] = f
	p.mu.Unlock()

	ctx, err := p.builder.Build(b, d.Position(), p.settings.Limits, d.Message)
	if err != nil {
		p.finish(key, f)
		p.log.Warn("preload prompt failed", zap.Int("line", d.Line), zap.Error(err))
		return false
	}

	req := p.settings.Request
	req.Prompt = ctx.Prompt
	req.CodeToRewrite = ctx.CodeToRewrite
	tick := b.Changedtick()

	task := p.completer.Complete(context.Background(), req, stream.Handlers{
		OnDone: func(out string) {
			if !p.finish(key, f) {
				return
			}
			if !b.Valid() || b.Changedtick() != tick {
				p.log.Debug("dropping stale preload", zap.Int("line", d.Line))
				return
			}
			entry, ok := ctx.Completion(out, b.ID())
			if !ok {
				return
			}
			p.cache.Add(entry, cache.SourcePreload)
		},
		OnError: func(err error) {
			if p.finish(key, f) {
				p.log.Warn("preload request failed", zap.Int("line", d.Line), zap.Error(err))
			}
		},
	})

	p.mu.Lock()
	if p.inflight[key] == f {
		f.task = task
	}
	p.mu.Unlock()
	return true
}

// finish releases a flight. It reports false when the flight was already
// released by a cancellation.
func (p *Preloader) finish(key flightKey, f *flight) bool {
	p.mu.Lock()
	if p.inflight[key] != f {
		p.mu.Unlock()
		return false
	}
	delete(p.inflight, key)
	p.mu.Unlock()

	p.sem.Release(1)
	return true
}
