// Package region chooses the span of a buffer that the completion model is
// asked to rewrite.
//
// With a syntax tree the selector walks the ancestors of the node under the
// cursor and picks the innermost function, then the innermost block that fits
// the line budget, then a window inside the enclosing class. Without a tree it
// centers a fixed window on the cursor. Regions always cover whole lines.
package region

import (
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
)

// Strategy records how a region was chosen.
type Strategy uint8

const (
	StrategyFunction Strategy = iota
	StrategyBlock
	StrategyClass
	StrategyFallback
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyFunction:
		return "function"
	case StrategyBlock:
		return "block"
	case StrategyClass:
		return "class"
	case StrategyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Region is the editable span handed to the model.
type Region struct {
	Start    editor.Position
	End      editor.Position
	Strategy Strategy

	// NodeKind is the syntax node the region was derived from, if any.
	NodeKind string

	// ClassContext is the enclosing class header and constructor, included in
	// the prompt when they lie outside the region.
	ClassContext string
}

// Range returns the region as an editor range.
func (r Region) Range() editor.Range {
	return editor.Range{Start: r.Start, End: r.End}
}

// LineCount returns the number of lines in the region.
func (r Region) LineCount() int {
	return r.End.Line - r.Start.Line + 1
}

// DefaultClassContextMaxLines caps the class header plus constructor excerpt.
const DefaultClassContextMaxLines = 10

// Selector picks editable regions.
type Selector struct {
	syntax               editor.SyntaxProvider
	languages            map[string]Language
	classContextMaxLines int
	fallbackMaxLines     int
	log                  *zap.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithLanguages replaces the grammar tables.
func WithLanguages(langs map[string]Language) Option {
	return func(s *Selector) {
		s.languages = langs
	}
}

// WithClassContextMaxLines sets the class context line cap.
func WithClassContextMaxLines(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.classContextMaxLines = n
		}
	}
}

// WithFallbackMaxLines caps the window used when no syntax tree is
// available. Zero means the caller's line budget applies unchanged.
func WithFallbackMaxLines(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.fallbackMaxLines = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Selector) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSelector creates a selector. syntax may be nil, in which case every
// region uses the fallback window.
func NewSelector(syntax editor.SyntaxProvider, opts ...Option) *Selector {
	s := &Selector{
		syntax:               syntax,
		languages:            Languages,
		classContextMaxLines: DefaultClassContextMaxLines,
		log:                  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the region around cursor. The region always contains the
// cursor and spans at most maxLines lines unless no narrower choice exists.
func (s *Selector) Select(b editor.Buffer, cursor editor.Position, maxLines int, preferFunction bool) (Region, error) {
	cursor, err := editor.ClampPosition(b, cursor)
	if err != nil {
		return Region{}, err
	}
	if maxLines < 1 {
		maxLines = 1
	}
	lineCount := b.LineCount()

	if s.syntax != nil {
		if tree, ok := s.syntax.TreeFor(b); ok && tree != nil {
			if node := tree.NodeAt(cursor.Line, cursor.Col); node != nil {
				if r, ok := s.fromTree(b, node, cursor, maxLines, preferFunction); ok {
					s.logRegion(b, r)
					return r, nil
				}
			}
		}
	}

	size := maxLines
	if s.fallbackMaxLines > 0 && s.fallbackMaxLines < size {
		size = s.fallbackMaxLines
	}
	r := window(b, cursor.Line, size, 0, lineCount-1)
	r.Strategy = StrategyFallback
	s.logRegion(b, r)
	return r, nil
}

func (s *Selector) fromTree(b editor.Buffer, leaf editor.Node, cursor editor.Position, maxLines int, preferFunction bool) (Region, bool) {
	lang := s.languages[b.Language()]
	lineCount := b.LineCount()

	var fn, fitBlock, fitAny, class editor.Node
	for _, n := range editor.Ancestors(leaf) {
		start, end := nodeLines(n, lineCount)
		if cursor.Line < start || cursor.Line > end {
			continue
		}
		fits := end-start+1 <= maxLines

		switch lang.classify(n.Kind()) {
		case classFunction:
			if fn == nil {
				fn = n
			}
			if fits && fitAny == nil {
				fitAny = n
			}
		case classBlock:
			if fits && fitBlock == nil {
				fitBlock = n
			}
			if fits && fitAny == nil {
				fitAny = n
			}
		case classClass:
			if class == nil {
				class = n
			}
		}
	}

	var (
		r  Region
		ok bool
	)
	switch {
	case preferFunction && fn != nil && fitsLines(fn, lineCount, maxLines):
		r, ok = nodeRegion(b, fn, StrategyFunction), true
	case preferFunction && fitBlock != nil:
		r, ok = nodeRegion(b, fitBlock, StrategyBlock), true
	case !preferFunction && fitAny != nil:
		strategy := StrategyBlock
		if lang.classify(fitAny.Kind()) == classFunction {
			strategy = StrategyFunction
		}
		r, ok = nodeRegion(b, fitAny, strategy), true
	case class != nil:
		start, end := nodeLines(class, lineCount)
		r = window(b, cursor.Line, maxLines, start, end)
		r.Strategy = StrategyClass
		r.NodeKind = class.Kind()
		ok = true
	}
	if !ok {
		return Region{}, false
	}

	if class != nil {
		r.ClassContext = s.classContext(b, lang, class, r)
	}
	return r, true
}

// classContext returns the class header line and its constructor, skipping
// whatever the region already shows.
func (s *Selector) classContext(b editor.Buffer, lang Language, class editor.Node, r Region) string {
	lineCount := b.LineCount()
	classStart, _ := nodeLines(class, lineCount)
	if classStart >= r.Start.Line {
		return ""
	}

	lines := []string{editor.Line(b, classStart)}

	if ctor := findConstructor(b, lang, class); ctor != nil {
		start, end := nodeLines(ctor, lineCount)
		if start > classStart && (end < r.Start.Line || start > r.End.Line) {
			budget := s.classContextMaxLines - 1
			if end-start+1 > budget {
				end = start + budget - 1
			}
			if end >= start {
				body, err := b.Lines(start, end+1)
				if err == nil {
					lines = append(lines, body...)
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}

// findConstructor searches the class body breadth-first for a constructor.
func findConstructor(b editor.Buffer, lang Language, class editor.Node) editor.Node {
	const maxDepth = 3

	level := class.Children()
	for depth := 0; depth < maxDepth && len(level) > 0; depth++ {
		var next []editor.Node
		for _, n := range level {
			kind := n.Kind()
			if lang.classify(kind) == classFunction || strings.Contains(kind, "constructor") {
				if lang.isConstructor(kind, nodeName(b, n)) {
					return n
				}
				continue
			}
			next = append(next, n.Children()...)
		}
		level = next
	}
	return nil
}

func nodeName(b editor.Buffer, n editor.Node) string {
	name := n.FieldNamed("name")
	if name == nil {
		return ""
	}
	text, err := b.Text(name.Range())
	if err != nil {
		return ""
	}
	return text
}

// nodeLines returns the first and last buffer line covered by n. A node that
// ends at column 0 of a line does not cover that line.
func nodeLines(n editor.Node, lineCount int) (int, int) {
	rng := n.Range()
	start, end := rng.Start.Line, rng.End.Line
	if rng.End.Col == 0 && end > start {
		end--
	}
	if start < 0 {
		start = 0
	}
	if end > lineCount-1 {
		end = lineCount - 1
	}
	if end < start {
		end = start
	}
	return start, end
}

func fitsLines(n editor.Node, lineCount, maxLines int) bool {
	start, end := nodeLines(n, lineCount)
	return end-start+1 <= maxLines
}

func nodeRegion(b editor.Buffer, n editor.Node, strategy Strategy) Region {
	start, end := nodeLines(n, b.LineCount())
	return Region{
		Start:    editor.Position{Line: start},
		End:      editor.Position{Line: end, Col: len(editor.Line(b, end))},
		Strategy: strategy,
		NodeKind: n.Kind(),
	}
}

// window centers a region of at most size lines on line, kept inside
// [minLine, maxLine].
func window(b editor.Buffer, line, size, minLine, maxLine int) Region {
	if span := maxLine - minLine + 1; size > span {
		size = span
	}
	start := line - size/2
	if start+size-1 > maxLine {
		start = maxLine - size + 1
	}
	if start < minLine {
		start = minLine
	}
	end := start + size - 1

	return Region{
		Start: editor.Position{Line: start},
		End:   editor.Position{Line: end, Col: len(editor.Line(b, end))},
	}
}

func (s *Selector) logRegion(b editor.Buffer, r Region) {
	s.log.Debug("region selected",
		zap.Int("buffer", int(b.ID())),
		zap.Stringer("strategy", r.Strategy),
		zap.String("node", r.NodeKind),
		zap.Int("start_line", r.Start.Line),
		zap.Int("end_line", r.End.Line))
}
