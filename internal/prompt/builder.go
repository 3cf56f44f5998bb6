// Package prompt assembles the fill-in-the-middle prompt sent to the
// completion model.
package prompt

import (
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/enrich"
	"github.com/dshills/amptab/internal/markers"
	"github.com/dshills/amptab/internal/region"
)

// CharsPerToken is the rough character-to-token ratio used for budgets.
const CharsPerToken = 4

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	return (len(s) + CharsPerToken - 1) / CharsPerToken
}

// TokenLimits are the per-section token budgets.
type TokenLimits struct {
	Prefix        int
	Suffix        int
	RewritePrefix int
	RewriteSuffix int
}

// DefaultTokenLimits returns the default budgets.
func DefaultTokenLimits() TokenLimits {
	return TokenLimits{
		Prefix:        1500,
		Suffix:        1000,
		RewritePrefix: 600,
		RewriteSuffix: 400,
	}
}

// Section labels.
const (
	labelRecentViews = "Recently viewed files:"
	labelRecentEdits = "Recent edits:"
	labelLintErrors  = "Lint errors:"
	labelHint        = "Diagnostic to fix:"
	labelClipboard   = "Clipboard:"
)

// Context is the prompt and bookkeeping for one completion request. It is
// built fresh per trigger and not modified afterwards.
type Context struct {
	Prompt string

	// CodeToRewrite is the region text, ending with a line break. It equals
	// PrefixInRegion + SuffixInRegion.
	CodeToRewrite  string
	PrefixInRegion string
	SuffixInRegion string

	Region         region.Region
	Cursor         editor.Position
	DiagnosticHint string
}

// Builder turns a buffer and cursor into a Context.
type Builder struct {
	selector       *region.Selector
	tracker        *enrich.Tracker
	maxLines       int
	preferFunction bool
	log            *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithTracker adds enrichment sections from t.
func WithTracker(t *enrich.Tracker) Option {
	return func(b *Builder) {
		b.tracker = t
	}
}

// WithMaxLines sets the region line budget.
func WithMaxLines(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxLines = n
		}
	}
}

// WithPreferFunction controls whether whole functions are preferred over
// smaller blocks.
func WithPreferFunction(prefer bool) Option {
	return func(b *Builder) {
		b.preferFunction = prefer
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBuilder creates a builder that selects regions with selector.
func NewBuilder(selector *region.Selector, opts ...Option) *Builder {
	b := &Builder{
		selector:       selector,
		maxLines:       50,
		preferFunction: true,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the prompt for cursor in buf. hint, when set, is the
// message of the diagnostic the completion should address.
func (bl *Builder) Build(buf editor.Buffer, cursor editor.Position, limits TokenLimits, hint string) (*Context, error) {
	cursor, err := editor.ClampPosition(buf, cursor)
	if err != nil {
		return nil, err
	}
	r, err := bl.selector.Select(buf, cursor, bl.maxLines, bl.preferFunction)
	if err != nil {
		return nil, err
	}
	lines, err := buf.Lines(0, -1)
	if err != nil {
		return nil, err
	}

	r = fitRewriteBudget(lines, r, cursor, limits)

	code := strings.Join(lines[r.Start.Line:r.End.Line+1], "\n") + "\n"
	offset := cursorOffset(lines, r.Start.Line, cursor)

	ctx := &Context{
		CodeToRewrite:  code,
		PrefixInRegion: code[:offset],
		SuffixInRegion: code[offset:],
		Region:         r,
		Cursor:         cursor,
		DiagnosticHint: hint,
	}

	filePrefix := tailLines(lines[:r.Start.Line], limits.Prefix*CharsPerToken)
	fileSuffix := headLines(lines[r.End.Line+1:], limits.Suffix*CharsPerToken)

	var bundle enrich.Bundle
	if bl.tracker != nil {
		bundle = bl.tracker.Snapshot(buf, r.Range())
	}

	var sb strings.Builder
	writeSection(&sb, labelRecentViews, bundle.RecentViews)
	writeSection(&sb, labelRecentEdits, bundle.EditHistory)
	if bundle.Diagnostics != "" {
		writeSection(&sb, labelLintErrors, bundle.Diagnostics)
	} else {
		writeSection(&sb, labelHint, hint)
	}
	writeSection(&sb, labelClipboard, bundle.Clipboard)

	sb.WriteString(filePrefix)
	if cc := classContextFor(filePrefix, r.ClassContext); cc != "" {
		sb.WriteString(cc)
		sb.WriteString("\n")
	}
	sb.WriteString(markers.EditableRegionStart)
	sb.WriteString("\n")
	sb.WriteString(ctx.PrefixInRegion)
	sb.WriteString(markers.UserCursor)
	sb.WriteString(ctx.SuffixInRegion)
	sb.WriteString(markers.EditableRegionEnd)
	sb.WriteString(fileSuffix)
	ctx.Prompt = sb.String()

	bl.log.Debug("prompt built",
		zap.Int("buffer", int(buf.ID())),
		zap.Int("start_line", r.Start.Line),
		zap.Int("end_line", r.End.Line),
		zap.Int("tokens", EstimateTokens(ctx.Prompt)),
		zap.Bool("hint", hint != ""))
	return ctx, nil
}

// fitRewriteBudget moves region lines out of the region when they exceed the
// rewrite budgets. The cursor line always stays.
func fitRewriteBudget(lines []string, r region.Region, cursor editor.Position, limits TokenLimits) region.Region {
	cur := lines[cursor.Line]

	start := cursor.Line
	used := cursor.Col
	for l := cursor.Line - 1; l >= r.Start.Line; l-- {
		used += len(lines[l]) + 1
		if used > limits.RewritePrefix*CharsPerToken {
			break
		}
		start = l
	}

	end := cursor.Line
	used = len(cur) - cursor.Col + 1
	for l := cursor.Line + 1; l <= r.End.Line; l++ {
		used += len(lines[l]) + 1
		if used > limits.RewriteSuffix*CharsPerToken {
			break
		}
		end = l
	}

	r.Start = editor.Position{Line: start}
	r.End = editor.Position{Line: end, Col: len(lines[end])}
	return r
}

// cursorOffset returns the byte offset of cursor inside the region text that
// starts at line start.
func cursorOffset(lines []string, start int, cursor editor.Position) int {
	offset := 0
	for l := start; l < cursor.Line; l++ {
		offset += len(lines[l]) + 1
	}
	return offset + cursor.Col
}

// tailLines joins lines, each followed by a line break, keeping only the
// trailing whole lines that fit in limit bytes.
// classContextFor returns the part of classContext the file prefix does not
// already show. The header line is checked on its own.
func classContextFor(filePrefix, classContext string) string {
	if classContext == "" || strings.Contains(filePrefix, classContext) {
		return ""
	}
	header, rest, _ := strings.Cut(classContext, "\n")
	if strings.Contains("\n"+filePrefix, "\n"+header+"\n") {
		return rest
	}
	return classContext
}

func tailLines(lines []string, limit int) string {
	size := 0
	first := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		size += len(lines[i]) + 1
		if size > limit {
			break
		}
		first = i
	}
	if first == len(lines) {
		return ""
	}
	return strings.Join(lines[first:], "\n") + "\n"
}

// headLines joins lines, each preceded by a line break, keeping only the
// leading whole lines that fit in limit bytes.
func headLines(lines []string, limit int) string {
	size := 0
	last := 0
	for i, l := range lines {
		size += len(l) + 1
		if size > limit {
			break
		}
		last = i + 1
	}
	if last == 0 {
		return ""
	}
	return "\n" + strings.Join(lines[:last], "\n")
}

func writeSection(sb *strings.Builder, label, body string) {
	if body == "" {
		return
	}
	sb.WriteString(label)
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")
}
