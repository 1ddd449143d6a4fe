package calcdoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Runtime bundle markers. A bundle runs from its header comment to its trailer.
// The legacy header has no trailer and extends to the end of the document.
const (
	BundleHeader       = "<!-- ITB Calc Runtime"
	BundleTrailer      = "<!-- /ITB Calc Runtime -->"
	LegacyBundleHeader = "<!-- OZ Calc"
)

// toolBlockPattern matches an embedded raw tool definition: a preformatted code block
// tagged "itb-tool". Attributes on <pre> are tolerated.
var toolBlockPattern = regexp.MustCompile(`(?s)<pre(?:\s[^>]*)?>\s*<code class="itb-tool">\s*(.*?)\s*</code>\s*</pre>`)

var widgetPattern = regexp.MustCompile(AttrCalculator + `="([^"]*)"`)

// Block is one raw tool definition found in a document.
// Raw is the exact matched text, [Start, End) its byte range.
// Either Schema is set or Err holds a *ParseError or ErrSchemaIncomplete.
type Block struct {
	Index   int
	Start   int
	End     int
	Raw     string
	Payload string
	Schema  ToolSchema
	Err     error
}

// Span is a byte range [Start, End) in a document.
type Span struct {
	Start int
	End   int
}

// Scan returns every raw tool block of document in order. Malformed payloads are
// reported on their Block; the scan itself never fails and never modifies input.
func Scan(document string) []Block {
	locs := toolBlockPattern.FindAllStringSubmatchIndex(document, -1)
	blocks := make([]Block, 0, len(locs))
	for i, loc := range locs {
		b := Block{
			Index:   i,
			Start:   loc[0],
			End:     loc[1],
			Raw:     document[loc[0]:loc[1]],
			Payload: html.UnescapeString(document[loc[2]:loc[3]]),
		}
		b.Schema, b.Err = ParseToolSchema([]byte(b.Payload))
		blocks = append(blocks, b)
	}
	return blocks
}

// FindRuntimeBundle locates the first previously injected runtime bundle.
func FindRuntimeBundle(document string) (Span, bool) {
	spans := FindRuntimeBundles(document)
	if len(spans) == 0 {
		return Span{}, false
	}
	return spans[0], true
}

// FindRuntimeBundles locates every runtime bundle, current or legacy, in order.
func FindRuntimeBundles(document string) []Span {
	var spans []Span
	pos := 0
	for pos < len(document) {
		start, legacy := nextBundleHeader(document, pos)
		if start < 0 {
			break
		}
		end := len(document)
		if !legacy {
			if i := strings.Index(document[start:], BundleTrailer); i >= 0 {
				end = start + i + len(BundleTrailer)
			}
		}
		spans = append(spans, Span{Start: start, End: end})
		pos = end
	}
	return spans
}

func nextBundleHeader(document string, from int) (int, bool) {
	cur := strings.Index(document[from:], BundleHeader)
	old := strings.Index(document[from:], LegacyBundleHeader)
	switch {
	case cur < 0 && old < 0:
		return -1, false
	case old < 0 || (cur >= 0 && cur < old):
		return from + cur, false
	default:
		return from + old, true
	}
}

// FindWidgets returns the ids of compiled widgets in document order.
func FindWidgets(document string) []string {
	matches := widgetPattern.FindAllStringSubmatch(document, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, html.UnescapeString(m[1]))
	}
	return ids
}
