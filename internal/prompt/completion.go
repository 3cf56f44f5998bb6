package prompt

import (
	"strings"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/extract"
	"github.com/dshills/amptab/internal/markers"
)

// Completion turns the model's rewrite of the region into a cache entry for
// buf. It reports false when the rewrite adds nothing.
//
// FullText is the rewrite without the region's final line break, so it
// replaces Region.Range() exactly. The entry is anchored where the new text
// starts.
func (c *Context) Completion(output string, buf editor.BufferID) (cache.Entry, bool) {
	full := markers.Strip(output)
	span := extract.Span(full, c.PrefixInRegion, c.SuffixInRegion)
	if span.Empty() {
		return cache.Entry{}, false
	}

	return cache.Entry{
		Text:     span.Text,
		FullText: strings.TrimSuffix(full, "\n"),
		Range:    c.Region.Range(),
		Cursor:   c.Cursor,
		Anchor:   editor.EndOf(c.Region.Start, c.PrefixInRegion[:span.PrefixLen]),
		BufferID: buf,
	}, true
}
