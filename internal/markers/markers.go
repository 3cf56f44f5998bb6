// Package markers holds the literal tokens that delimit the editable region in
// a completion prompt. The prompt builder writes them and the extractor strips
// them from model output, so both sides share this one vocabulary.
package markers

import "strings"

// Marker tokens understood by the completion model.
const (
	EditableRegionStart = "<|editable_region_start|>"
	EditableRegionEnd   = "<|editable_region_end|>"
	UserCursor          = "<|user_cursor_is_here|>"
)

// All lists every marker in the order they appear in a prompt.
var All = []string{EditableRegionStart, UserCursor, EditableRegionEnd}

// Kind classifies a token.
type Kind uint8

const (
	// KindText is plain text between markers.
	KindText Kind = iota
	KindRegionStart
	KindCursor
	KindRegionEnd
)

// Token is a run of text or a single marker.
type Token struct {
	Kind Kind
	Text string
}

// Tokenize splits s into marker and text tokens. Adjacent text is merged.
func Tokenize(s string) []Token {
	var tokens []Token
	for len(s) > 0 {
		idx, marker := nextMarker(s)
		if idx < 0 {
			tokens = appendText(tokens, s)
			break
		}
		if idx > 0 {
			tokens = appendText(tokens, s[:idx])
		}
		tokens = append(tokens, Token{Kind: kindOf(marker), Text: marker})
		s = s[idx+len(marker):]
	}
	return tokens
}

// Strip removes every marker from s. A line break directly after a region
// start marker or directly before a region end marker is removed with it,
// mirroring how the prompt builder lays the markers out.
func Strip(s string) string {
	if !Contains(s) {
		return s
	}

	tokens := Tokenize(s)
	var sb strings.Builder
	for i, tok := range tokens {
		if tok.Kind != KindText {
			continue
		}
		text := tok.Text
		if i > 0 && tokens[i-1].Kind == KindRegionStart {
			text = strings.TrimPrefix(text, "\n")
		}
		if i+1 < len(tokens) && tokens[i+1].Kind == KindRegionEnd {
			text = strings.TrimSuffix(text, "\n")
			text += "\n"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Contains reports whether s holds any marker.
func Contains(s string) bool {
	idx, _ := nextMarker(s)
	return idx >= 0
}

func nextMarker(s string) (int, string) {
	best, found := -1, ""
	for _, m := range All {
		if i := strings.Index(s, m); i >= 0 && (best < 0 || i < best) {
			best, found = i, m
		}
	}
	return best, found
}

func kindOf(marker string) Kind {
	switch marker {
	case EditableRegionStart:
		return KindRegionStart
	case EditableRegionEnd:
		return KindRegionEnd
	case UserCursor:
		return KindCursor
	default:
		return KindText
	}
}

func appendText(tokens []Token, text string) []Token {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == KindText {
		tokens[n-1].Text += text
		return tokens
	}
	return append(tokens, Token{Kind: KindText, Text: text})
}
