// Package enrich collects the editing context that accompanies a completion
// prompt: recent multi-line edits, recently viewed files, nearby diagnostics
// and the clipboard.
package enrich

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
)

// maxEditLines caps how many lines of each side of an edit are kept.
const maxEditLines = 20

// Options bounds the histories and snapshot sections.
type Options struct {
	MaxEdits          int
	MaxViews          int
	MaxDiagnostics    int
	ClipboardMaxChars int
	ViewSnippetLines  int
}

// DefaultOptions returns the default bounds.
func DefaultOptions() Options {
	return Options{
		MaxEdits:          10,
		MaxViews:          5,
		MaxDiagnostics:    5,
		ClipboardMaxChars: 2000,
		ViewSnippetLines:  20,
	}
}

// Edit is one recorded buffer change.
type Edit struct {
	File      string
	StartLine int
	OldLines  []string
	NewLines  []string
	At        time.Time
}

// View is one recorded buffer visit.
type View struct {
	Buffer  editor.BufferID
	File    string
	Snippet string
	At      time.Time
}

// Bundle is the rendered enrichment for one prompt. Empty fields mean the
// section has nothing to contribute.
type Bundle struct {
	RecentViews string
	EditHistory string
	Diagnostics string
	Clipboard   string
}

// IsEmpty reports whether every section is empty.
func (b Bundle) IsEmpty() bool {
	return b.RecentViews == "" && b.EditHistory == "" && b.Diagnostics == "" && b.Clipboard == ""
}

// Tracker owns the edit and view histories for an editor session.
type Tracker struct {
	mu    sync.Mutex
	opts  Options
	edits *ring[Edit]
	views *ring[View]

	diagnostics editor.DiagnosticsProvider
	clipboard   editor.Clipboard
	now         func() time.Time
	log         *zap.Logger
}

// NewTracker creates a tracker. diagnostics and clipboard may be nil.
func NewTracker(diagnostics editor.DiagnosticsProvider, clipboard editor.Clipboard, opts Options, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		opts:        opts,
		edits:       newRing[Edit](opts.MaxEdits),
		views:       newRing[View](opts.MaxViews),
		diagnostics: diagnostics,
		clipboard:   clipboard,
		now:         time.Now,
		log:         log,
	}
}

// RecordEdit records a change that replaced old lines [startLine, endLine)
// with newLines. Single-line edits that keep the line count are ignored; they
// are mostly keystrokes the model already sees in the buffer. It reports
// whether the edit was kept.
func (t *Tracker) RecordEdit(b editor.Buffer, oldLines, newLines []string, startLine, endLine int) bool {
	if !isFileBuffer(b) {
		return false
	}
	if endLine-startLine <= 1 && len(oldLines) == len(newLines) {
		return false
	}
	if equalLines(oldLines, newLines) {
		return false
	}

	e := Edit{
		File:      b.Name(),
		StartLine: startLine,
		OldLines:  capLines(oldLines),
		NewLines:  capLines(newLines),
		At:        t.now(),
	}

	t.mu.Lock()
	t.edits.push(e)
	t.mu.Unlock()

	t.log.Debug("edit recorded",
		zap.String("file", e.File),
		zap.Int("start_line", startLine),
		zap.Int("old_lines", len(oldLines)),
		zap.Int("new_lines", len(newLines)))
	return true
}

// RecordView records that b gained focus. Unnamed and scratch buffers are
// ignored. A file already in the history moves to the newest slot.
func (t *Tracker) RecordView(b editor.Buffer) bool {
	if !isFileBuffer(b) {
		return false
	}

	v := View{
		Buffer:  b.ID(),
		File:    b.Name(),
		Snippet: t.snippetAround(b),
		At:      t.now(),
	}

	t.mu.Lock()
	t.views.removeFunc(func(old View) bool { return old.File == v.File })
	t.views.push(v)
	t.mu.Unlock()
	return true
}

// Edits returns the recorded edits, oldest first.
func (t *Tracker) Edits() []Edit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.edits.slice()
}

// Views returns the recorded views, oldest first.
func (t *Tracker) Views() []View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.views.slice()
}

// Snapshot renders every enrichment source for a prompt about r in b.
func (t *Tracker) Snapshot(b editor.Buffer, r editor.Range) Bundle {
	t.mu.Lock()
	edits := t.edits.slice()
	views := t.views.slice()
	t.mu.Unlock()

	return Bundle{
		RecentViews: formatViews(views, b.ID()),
		EditHistory: formatEdits(edits),
		Diagnostics: t.diagnosticsBlock(b, r),
		Clipboard:   t.clipboardBlock(),
	}
}

func (t *Tracker) snippetAround(b editor.Buffer) string {
	n := t.opts.ViewSnippetLines
	if n < 1 {
		n = 1
	}
	cursor := b.Cursor()
	start := cursor.Line - n/2
	if start < 0 {
		start = 0
	}
	lines, err := b.Lines(start, start+n)
	if err != nil {
		return ""
	}
	return strings.Join(lines, "\n")
}

// diagnosticsBlock lists diagnostics inside r, deduplicated by line and
// message, most severe first, capped at MaxDiagnostics.
func (t *Tracker) diagnosticsBlock(b editor.Buffer, r editor.Range) string {
	if t.diagnostics == nil {
		return ""
	}
	diags := t.diagnostics.Diagnostics(b, editor.LineSpan{Start: r.Start.Line, End: r.End.Line + 1})
	if len(diags) == 0 {
		return ""
	}

	type key struct {
		line    int
		message string
	}
	seen := make(map[key]bool, len(diags))
	unique := make([]editor.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Line < r.Start.Line || d.Line > r.End.Line {
			continue
		}
		k := key{line: d.Line, message: d.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, d)
	}
	editor.SortBySeverity(unique)
	if max := t.opts.MaxDiagnostics; max > 0 && len(unique) > max {
		unique = unique[:max]
	}

	lines := make([]string, len(unique))
	for i, d := range unique {
		lines[i] = FormatDiagnostic(d)
	}
	return strings.Join(lines, "\n")
}

func (t *Tracker) clipboardBlock() string {
	if t.clipboard == nil {
		return ""
	}
	return truncateRunes(strings.TrimSpace(t.clipboard.Text()), t.opts.ClipboardMaxChars)
}

// truncateRunes keeps the first max characters of s. Zero or less keeps all.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// FormatDiagnostic renders a diagnostic as a single prompt line.
func FormatDiagnostic(d editor.Diagnostic) string {
	return fmt.Sprintf("line %d: [%s] %s", d.Line+1, d.Severity, strings.TrimSpace(d.Message))
}

func formatViews(views []View, current editor.BufferID) string {
	var blocks []string
	for _, v := range views {
		if v.Buffer == current || v.Snippet == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("```%s\n%s\n```", v.File, v.Snippet))
	}
	return strings.Join(blocks, "\n")
}

func formatEdits(edits []Edit) string {
	var blocks []string
	for _, e := range edits {
		var sb strings.Builder
		fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", e.File, e.File)
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@", e.StartLine+1, len(e.OldLines), e.StartLine+1, len(e.NewLines))
		for _, l := range e.OldLines {
			sb.WriteString("\n-")
			sb.WriteString(l)
		}
		for _, l := range e.NewLines {
			sb.WriteString("\n+")
			sb.WriteString(l)
		}
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

func isFileBuffer(b editor.Buffer) bool {
	return b != nil && b.Valid() && b.Name() != "" && b.Kind() == ""
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func capLines(lines []string) []string {
	if len(lines) > maxEditLines {
		lines = lines[:maxEditLines]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
