// Package extract isolates the text a completion model added to a region.
//
// The model rewrites the whole editable region. Whatever it kept from the
// original text before and after the cursor is trimmed away, leaving the new
// middle span that is shown as ghost text.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/amptab/internal/markers"
)

// Result is the outcome of an extraction.
type Result struct {
	// Text is the new span, with trailing whitespace removed.
	Text string

	// PrefixLen is how many bytes at the start of the rewrite match the region
	// text before the cursor. The ghost text is anchored after them.
	PrefixLen int

	// SuffixLen is how many bytes at the end of the rewrite match the region
	// text after the cursor.
	SuffixLen int
}

// Empty reports whether there is nothing to suggest.
func (r Result) Empty() bool {
	return r.Text == ""
}

// DisplayText returns the span of fullRewrite not already present in the
// region. An empty result means there is no suggestion.
func DisplayText(fullRewrite, prefixInRegion, suffixInRegion string) string {
	return Span(fullRewrite, prefixInRegion, suffixInRegion).Text
}

// Span matches the longest common suffix of suffixInRegion and fullRewrite,
// then the longest common prefix of prefixInRegion and what remains. The two
// matches never overlap and both end on rune boundaries.
func Span(fullRewrite, prefixInRegion, suffixInRegion string) Result {
	full := markers.Strip(fullRewrite)
	if full == prefixInRegion+suffixInRegion {
		return Result{PrefixLen: len(prefixInRegion), SuffixLen: len(suffixInRegion)}
	}

	s := commonSuffix(full, suffixInRegion)
	for s > 0 && !utf8.RuneStart(full[len(full)-s]) {
		s--
	}
	head := full[:len(full)-s]

	p := commonPrefix(head, prefixInRegion)
	for p > 0 && p < len(head) && !utf8.RuneStart(head[p]) {
		p--
	}

	return Result{
		Text:      strings.TrimRightFunc(head[p:], isSpace),
		PrefixLen: p,
		SuffixLen: s,
	}
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
