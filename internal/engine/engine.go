package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/config"
	"github.com/dshills/amptab/internal/debounce"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/enrich"
	"github.com/dshills/amptab/internal/ghost"
	"github.com/dshills/amptab/internal/navigate"
	"github.com/dshills/amptab/internal/preload"
	"github.com/dshills/amptab/internal/prompt"
	"github.com/dshills/amptab/internal/region"
	"github.com/dshills/amptab/internal/stream"
)

// Deps are the editor collaborators an Engine runs against. Overlay and Loop
// are required; everything else has a default or may be nil.
type Deps struct {
	Syntax              editor.SyntaxProvider
	Diagnostics         editor.DiagnosticsProvider
	FallbackDiagnostics editor.DiagnosticsProvider
	Overlay             editor.Overlay
	Clipboard           editor.Clipboard

	// Loop receives every asynchronous callback and debounced run. Pass
	// editor.Inline only when the completer and clock call back on the
	// loop themselves.
	Loop editor.Loop

	// Clock drives debouncing and timestamps. Defaults to the system clock.
	Clock debounce.Clock

	// Completer replaces the HTTP client built from the API settings.
	Completer stream.Completer

	// HTTPClient is used by the default completer.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	CachedCompletions int
	PreloadsInFlight  int
	PreloadsScheduled int
	Renderer          ghost.State
	Foreground        bool

	// LastError is why the latest foreground request failed. It is nil while
	// a request runs and after one succeeds.
	LastError error
}

// Engine runs the completion pipeline for one editor session.
type Engine struct {
	cfg    config.Config
	limits prompt.TokenLimits
	req    stream.Request
	log    *zap.Logger

	builder   *prompt.Builder
	tracker   *enrich.Tracker
	completer stream.Completer
	cache     *cache.Cache
	renderer  *ghost.Renderer
	preloader *preload.Preloader
	navigator *navigate.Navigator

	mu      sync.Mutex
	task    stream.Task
	taskBuf editor.BufferID
	seq     uint64
	lastErr error
	closed  bool
}

// New builds an engine from cfg. cfg is validated first.
func New(cfg config.Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if deps.Overlay == nil {
		return nil, ErrNoOverlay
	}
	if deps.Loop == nil {
		return nil, ErrNoLoop
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loop := deps.Loop
	clock := deps.Clock
	if clock == nil {
		clock = debounce.SystemClock
	}

	e := &Engine{
		cfg: cfg,
		limits: prompt.TokenLimits{
			Prefix:        cfg.Tokens.Prefix,
			Suffix:        cfg.Tokens.Suffix,
			RewritePrefix: cfg.Tokens.RewritePrefix,
			RewriteSuffix: cfg.Tokens.RewriteSuffix,
		},
		req: stream.Request{
			Model:       cfg.API.Model,
			Temperature: cfg.API.Temperature,
			MaxTokens:   cfg.API.MaxTokens,
			User:        cfg.API.User,
		},
		log: log,
	}

	var syntax editor.SyntaxProvider
	if cfg.Region.UseTreesitter {
		syntax = deps.Syntax
	}
	selector := region.NewSelector(syntax,
		region.WithClassContextMaxLines(cfg.Region.ClassContextMaxLines),
		region.WithFallbackMaxLines(cfg.FallbackLines()),
		region.WithLogger(log.Named("region")))

	builderOpts := []prompt.Option{
		prompt.WithMaxLines(cfg.Region.MaxLines),
		prompt.WithPreferFunction(cfg.Region.PreferFunction),
		prompt.WithLogger(log.Named("prompt")),
	}
	if cfg.Enrichment.Enabled {
		e.tracker = enrich.NewTracker(deps.Diagnostics, deps.Clipboard, enrich.Options{
			MaxEdits:          cfg.Enrichment.MaxEdits,
			MaxViews:          cfg.Enrichment.MaxViews,
			MaxDiagnostics:    cfg.Enrichment.MaxDiagnostics,
			ClipboardMaxChars: cfg.Enrichment.ClipboardMaxChars,
			ViewSnippetLines:  cfg.Enrichment.ViewSnippetLines,
		}, log.Named("enrich"))
		builderOpts = append(builderOpts, prompt.WithTracker(e.tracker))
	}
	e.builder = prompt.NewBuilder(selector, builderOpts...)

	e.completer = deps.Completer
	if e.completer == nil {
		e.completer = stream.NewClient(cfg.API.Endpoint,
			stream.WithAPIKey(cfg.API.Key),
			stream.WithHTTPClient(deps.HTTPClient),
			stream.WithLoop(loop),
			stream.WithRateLimit(cfg.API.RequestsPerSecond),
			stream.WithTimeout(cfg.API.Timeout()),
			stream.WithLogger(log.Named("stream")))
	}

	e.cache = cache.New(
		cache.WithCapacity(cfg.Cache.Capacity),
		cache.WithDedupLines(cfg.Cache.DedupLines),
		cache.WithClock(clock.Now),
		cache.WithLogger(log.Named("cache")))
	e.renderer = ghost.NewRenderer(deps.Overlay, e.cache, ghost.WithLogger(log.Named("ghost")))

	e.preloader = preload.New(e.builder, e.completer, e.cache, deps.Diagnostics, preload.Settings{
		Delay:         cfg.Preload.Debounce(),
		MaxPerBuffer:  cfg.Preload.MaxPerBuffer,
		CoverageLines: cfg.Preload.CoverageLines,
		MaxConcurrent: int64(cfg.Preload.MaxConcurrent),
		Limits:        e.limits,
		Request:       e.req,
	},
		preload.WithFallback(deps.FallbackDiagnostics),
		preload.WithLoop(loop),
		preload.WithClock(clock),
		preload.WithLogger(log.Named("preload")))
	if !cfg.Preload.Enabled {
		e.preloader.Disable()
	}

	e.navigator = navigate.New(deps.Diagnostics, e.renderer, e.cache, e,
		navigate.WithFallback(deps.FallbackDiagnostics),
		navigate.WithVisitedTTL(cfg.Navigator.VisitedTTL()),
		navigate.WithClock(clock.Now),
		navigate.WithLogger(log.Named("navigate")))

	return e, nil
}

// Cache returns the completion cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Renderer returns the ghost-text renderer.
func (e *Engine) Renderer() *ghost.Renderer {
	return e.renderer
}

// Preloader returns the diagnostic preloader.
func (e *Engine) Preloader() *preload.Preloader {
	return e.preloader
}

// BuildContext assembles the prompt a trigger at pos would send, without
// sending it.
func (e *Engine) BuildContext(b editor.Buffer, pos editor.Position, hint string) (*prompt.Context, error) {
	return e.builder.Build(b, pos, e.limits, hint)
}

// Trigger requests a completion at the cursor of b.
func (e *Engine) Trigger(b editor.Buffer) error {
	if b == nil || !b.Valid() {
		return editor.ErrBufferClosed
	}
	return e.TriggerAt(b, b.Cursor(), "", cache.SourceCursor)
}

// TriggerAt requests a completion at pos. hint, when set, is the diagnostic
// the completion should fix. Any running foreground request is cancelled.
// The result is cached under source and shown if the cursor is still inside
// the edited region when it arrives.
func (e *Engine) TriggerAt(b editor.Buffer, pos editor.Position, hint string, source cache.Source) error {
	if b == nil || !b.Valid() {
		return editor.ErrBufferClosed
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	prev := e.task
	e.task = nil
	e.seq++
	seq := e.seq
	e.taskBuf = b.ID()
	e.lastErr = nil
	e.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	ctx, err := e.builder.Build(b, pos, e.limits, hint)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}

	req := e.req
	req.Prompt = ctx.Prompt
	req.CodeToRewrite = ctx.CodeToRewrite
	tick := b.Changedtick()

	e.log.Debug("completion requested",
		zap.Int("buffer", int(b.ID())),
		zap.Stringer("cursor", ctx.Cursor),
		zap.Stringer("source", source))

	task := e.completer.Complete(context.Background(), req, stream.Handlers{
		OnDone: func(out string) {
			if !e.release(seq) {
				return
			}
			e.complete(b, ctx, tick, out, source)
		},
		OnError: func(err error) {
			if e.fail(seq, err) {
				e.log.Error("completion request failed",
					zap.Int("buffer", int(b.ID())),
					zap.Error(err))
			}
		},
	})

	e.mu.Lock()
	if e.seq == seq && task != nil {
		select {
		case <-task.Done():
		default:
			e.task = task
		}
	}
	e.mu.Unlock()
	return nil
}

// RequestAt starts a foreground completion for the navigator.
func (e *Engine) RequestAt(b editor.Buffer, pos editor.Position, hint string, source cache.Source) {
	if err := e.TriggerAt(b, pos, hint, source); err != nil {
		e.log.Warn("diagnostic completion not started", zap.Int("line", pos.Line), zap.Error(err))
	}
}

// release clears the foreground slot if seq still owns it. It reports false
// for superseded requests.
func (e *Engine) release(seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seq != seq || e.closed {
		return false
	}
	e.task = nil
	return true
}

// fail releases the foreground slot like release and records err.
func (e *Engine) fail(seq uint64, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seq != seq || e.closed {
		return false
	}
	e.task = nil
	e.lastErr = err
	return true
}

func (e *Engine) complete(b editor.Buffer, ctx *prompt.Context, tick int, out string, source cache.Source) {
	if !b.Valid() || b.Changedtick() != tick {
		e.log.Debug("dropping stale completion", zap.Int("buffer", int(b.ID())))
		return
	}
	entry, ok := ctx.Completion(out, b.ID())
	if !ok {
		e.log.Debug("empty completion", zap.Int("buffer", int(b.ID())))
		return
	}

	id := e.cache.Add(entry, source)
	entry, _ = e.cache.Get(id)

	if !ctx.Region.Range().Contains(b.Cursor()) {
		e.log.Debug("cursor left region, completion cached only",
			zap.Int("buffer", int(b.ID())),
			zap.Stringer("cursor", b.Cursor()))
		return
	}
	if err := e.renderer.Show(b, entry); err != nil {
		e.log.Warn("showing completion failed", zap.Error(err))
	}
}

// Accept applies the whole visible completion.
func (e *Engine) Accept() error {
	return e.renderer.AcceptFull()
}

// AcceptLine applies the next line of the visible completion.
func (e *Engine) AcceptLine() error {
	return e.renderer.AcceptLine()
}

// AcceptWord applies the next word of the visible completion.
func (e *Engine) AcceptWord() error {
	return e.renderer.AcceptWord()
}

// Dismiss hides the visible completion and keeps it cached.
func (e *Engine) Dismiss() {
	e.renderer.Dismiss()
}

// Reject hides the visible completion and drops it from the cache.
func (e *Engine) Reject() {
	e.navigator.Reject()
}

// ShowNearest shows the cached completion closest to the cursor of b.
func (e *Engine) ShowNearest(b editor.Buffer) bool {
	if b == nil || !b.Valid() {
		return false
	}
	entries := e.cache.Nearest(b.ID(), b.Cursor())
	if len(entries) == 0 {
		return false
	}
	return e.renderer.Show(b, entries[0]) == nil
}

// ShowNext moves to the closest cached completion below the cursor and
// shows it.
func (e *Engine) ShowNext(b editor.Buffer) bool {
	if b == nil || !b.Valid() {
		return false
	}
	entry, ok := e.cache.Next(b.ID(), b.Cursor())
	return ok && e.jumpTo(b, entry)
}

// ShowPrev moves to the closest cached completion above the cursor and
// shows it.
func (e *Engine) ShowPrev(b editor.Buffer) bool {
	if b == nil || !b.Valid() {
		return false
	}
	entry, ok := e.cache.Prev(b.ID(), b.Cursor())
	return ok && e.jumpTo(b, entry)
}

func (e *Engine) jumpTo(b editor.Buffer, entry cache.Entry) bool {
	pos, err := editor.ClampPosition(b, entry.Cursor)
	if err != nil {
		return false
	}
	if err := b.SetCursor(pos); err != nil {
		return false
	}
	return e.renderer.Show(b, entry) == nil
}

// NextDiagnostic moves to the next unvisited error or warning and requests a
// fix there.
func (e *Engine) NextDiagnostic(b editor.Buffer) bool {
	return e.navigator.Next(b)
}

// PrevDiagnostic moves to the previous unvisited error or warning and
// requests a fix there.
func (e *Engine) PrevDiagnostic(b editor.Buffer) bool {
	return e.navigator.Prev(b)
}

// SetPreloadEnabled turns diagnostic preloading on or off.
func (e *Engine) SetPreloadEnabled(enabled bool) {
	if enabled {
		e.preloader.Enable()
		return
	}
	e.preloader.Disable()
}

// Shutdown cancels the foreground request, every preload and pending timer,
// and hides the visible completion. Later triggers return ErrClosed.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	task := e.task
	e.task = nil
	e.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
	e.preloader.Shutdown()
	e.renderer.Dismiss()
	e.log.Debug("engine shut down")
}

// Stats returns a snapshot of the engine state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	foreground := e.task != nil
	lastErr := e.lastErr
	e.mu.Unlock()

	return Stats{
		CachedCompletions: e.cache.Len(),
		PreloadsInFlight:  e.preloader.InFlight(),
		PreloadsScheduled: e.preloader.Scheduled(),
		Renderer:          e.renderer.State(),
		Foreground:        foreground,
		LastError:         lastErr,
	}
}

func (e *Engine) cancelForeground(buf editor.BufferID) {
	e.mu.Lock()
	task := e.task
	if task == nil || e.taskBuf != buf {
		e.mu.Unlock()
		return
	}
	e.task = nil
	e.seq++
	e.mu.Unlock()

	task.Cancel()
}
