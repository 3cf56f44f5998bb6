// Package ghost renders a completion as inline virtual text and applies it
// when the user accepts all or part of it.
package ghost

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
)

// Errors returned by the renderer.
var (
	ErrBufferMismatch  = errors.New("completion belongs to another buffer")
	ErrBufferInvalid   = errors.New("buffer is not valid")
	ErrEmptyCompletion = errors.New("completion has no text")
	ErrNotVisible      = errors.New("no completion is visible")
)

// DefaultIndicator marks ghost text as a suggestion.
const DefaultIndicator = " ⇥"

// State is the renderer state.
type State uint8

const (
	StateHidden State = iota
	StateVisible
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// Renderer owns at most one visible completion.
type Renderer struct {
	overlay   editor.Overlay
	cache     *cache.Cache
	indicator string
	log       *zap.Logger

	state   State
	buf     editor.Buffer
	current cache.Entry
	mark    editor.MarkID

	// partial is set once part of the original completion was accepted and
	// current holds the remainder.
	partial bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithIndicator sets the glyph shown after the ghost text.
func WithIndicator(s string) Option {
	return func(r *Renderer) {
		r.indicator = s
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRenderer creates a renderer. Accepted completions are removed from c,
// which may be nil.
func NewRenderer(overlay editor.Overlay, c *cache.Cache, opts ...Option) *Renderer {
	r := &Renderer{
		overlay:   overlay,
		cache:     c,
		indicator: DefaultIndicator,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Renderer) State() State {
	return r.state
}

// Current returns the visible completion.
func (r *Renderer) Current() (cache.Entry, bool) {
	if r.state != StateVisible {
		return cache.Entry{}, false
	}
	return r.current, true
}

// Buffer returns the buffer the visible completion belongs to, or nil.
func (r *Renderer) Buffer() editor.Buffer {
	if r.state != StateVisible {
		return nil
	}
	return r.buf
}

// Show dismisses any visible completion and displays c in b. Completions
// computed for another buffer are refused.
func (r *Renderer) Show(b editor.Buffer, c cache.Entry) error {
	r.Dismiss()

	if b == nil || !b.Valid() {
		return ErrBufferInvalid
	}
	if b.ID() != c.BufferID {
		r.log.Warn("dropping completion for another buffer",
			zap.Int("buffer", int(b.ID())),
			zap.Int("completion_buffer", int(c.BufferID)))
		return ErrBufferMismatch
	}
	if c.Text == "" {
		return ErrEmptyCompletion
	}

	anchor, err := editor.ClampPosition(b, c.Anchor)
	if err != nil {
		return err
	}
	c.Anchor = anchor

	if err := r.place(b, c); err != nil {
		return err
	}
	r.partial = false
	return nil
}

// Dismiss hides the visible completion. It is a no-op when hidden.
func (r *Renderer) Dismiss() {
	if r.state == StateHidden {
		return
	}
	if r.buf != nil && r.buf.Valid() {
		r.overlay.Clear(r.buf, r.mark)
	}
	r.reset()
}

// AcceptFull replaces the completion range with its full text and moves the
// cursor to the end of the inserted text. On failure nothing changes.
func (r *Renderer) AcceptFull() error {
	if r.state != StateVisible {
		return ErrNotVisible
	}
	b, c := r.buf, r.current
	if !b.Valid() {
		return ErrBufferInvalid
	}

	rng, err := editor.ClampRange(b, c.Range)
	if err != nil {
		return err
	}
	if err := b.SetText(rng, c.FullText); err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}
	r.moveCursor(b, editor.EndOf(rng.Start, c.FullText))

	if r.cache != nil && c.ID != "" {
		r.cache.Remove(c.ID)
	}
	r.log.Debug("completion accepted",
		zap.String("id", c.ID),
		zap.Int("start_line", rng.Start.Line),
		zap.Int("end_line", rng.End.Line))
	r.Dismiss()
	return nil
}

// AcceptLine inserts the first remaining line of the completion, including
// its line break when more lines follow.
func (r *Renderer) AcceptLine() error {
	if r.state != StateVisible {
		return ErrNotVisible
	}
	text := r.current.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return r.acceptPiece(text[:i+1], text[i+1:])
	}
	return r.acceptPiece(text, "")
}

// AcceptWord inserts the next word of the completion with the whitespace that
// follows it.
func (r *Renderer) AcceptWord() error {
	if r.state != StateVisible {
		return ErrNotVisible
	}
	text := r.current.Text
	n := wordEnd(text)
	return r.acceptPiece(text[:n], text[n:])
}

// acceptPiece inserts piece at the anchor. A non-blank rest stays visible as
// a completion anchored after the inserted text.
func (r *Renderer) acceptPiece(piece, rest string) error {
	b, c := r.buf, r.current
	if !b.Valid() {
		return ErrBufferInvalid
	}

	anchor, err := editor.ClampPosition(b, c.Anchor)
	if err != nil {
		return err
	}
	if err := b.SetText(editor.Range{Start: anchor, End: anchor}, piece); err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}
	next := editor.EndOf(anchor, piece)
	r.moveCursor(b, next)

	if !r.partial && r.cache != nil && c.ID != "" {
		r.cache.Remove(c.ID)
	}
	r.Dismiss()

	if strings.TrimSpace(rest) == "" {
		return nil
	}

	remainder := cache.Entry{
		Text:     rest,
		FullText: rest,
		Range:    editor.Range{Start: next, End: next},
		Cursor:   next,
		Anchor:   next,
		BufferID: c.BufferID,
		Source:   c.Source,
	}
	if err := r.place(b, remainder); err != nil {
		r.log.Warn("failed to show completion remainder", zap.Error(err))
		return err
	}
	r.partial = true
	return nil
}

func (r *Renderer) place(b editor.Buffer, c cache.Entry) error {
	lines := strings.Split(c.Text, "\n")
	ann := editor.Annotation{
		Line:      c.Anchor.Line,
		Col:       c.Anchor.Col,
		Text:      lines[0],
		Indicator: r.indicator,
	}
	if len(lines) > 1 {
		ann.VirtualLines = lines[1:]
	}

	id, err := r.overlay.Place(b, ann)
	if err != nil {
		return fmt.Errorf("place ghost text: %w", err)
	}
	r.state = StateVisible
	r.buf = b
	r.current = c
	r.mark = id
	return nil
}

func (r *Renderer) moveCursor(b editor.Buffer, pos editor.Position) {
	pos, err := editor.ClampPosition(b, pos)
	if err == nil {
		err = b.SetCursor(pos)
	}
	if err != nil {
		r.log.Warn("failed to move cursor", zap.Error(err))
	}
}

func (r *Renderer) reset() {
	r.state = StateHidden
	r.buf = nil
	r.current = cache.Entry{}
	r.mark = 0
	r.partial = false
}

// wordEnd returns the length of the leading non-whitespace run of s plus the
// spaces and tabs after it. A line break directly after the word is included
// and ends the word.
func wordEnd(s string) int {
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && s[i] == '\n' {
		i++
	}
	if i == 0 && len(s) > 0 {
		i = 1
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
