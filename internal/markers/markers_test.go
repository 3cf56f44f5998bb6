package markers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	in := "a" + EditableRegionStart + "\nb" + UserCursor + "c\n" + EditableRegionEnd + "d"

	want := []Token{
		{Kind: KindText, Text: "a"},
		{Kind: KindRegionStart, Text: EditableRegionStart},
		{Kind: KindText, Text: "\nb"},
		{Kind: KindCursor, Text: UserCursor},
		{Kind: KindText, Text: "c\n"},
		{Kind: KindRegionEnd, Text: EditableRegionEnd},
		{Kind: KindText, Text: "d"},
	}

	if diff := cmp.Diff(want, Tokenize(in)); diff != "" {
		t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizePlain(t *testing.T) {
	got := Tokenize("no markers <| here")
	if len(got) != 1 || got[0].Kind != KindText {
		t.Errorf("Tokenize() = %v, want a single text token", got)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "return 1\n", "return 1\n"},
		{"cursor", "x = " + UserCursor + "1\n", "x = 1\n"},
		{"region", EditableRegionStart + "\ndef f():\n    return 1\n" + EditableRegionEnd, "def f():\n    return 1\n"},
		{"end without newline", "x = 1" + EditableRegionEnd, "x = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	if Contains("hello") {
		t.Error("Contains(hello) = true")
	}
	if !Contains("a" + UserCursor) {
		t.Error("Contains(cursor) = false")
	}
}
