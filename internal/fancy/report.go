package fancy

import (
	"fmt"

	"github.com/skosovsky/calcdoc"
)

// maxErrorWidth bounds error text in tree leaves.
const maxErrorWidth = 72

// RewriteReport renders the batch diagnostics of one rewrite as a tree.
func RewriteReport(source string, res *calcdoc.Result) string {
	t := Tree()
	t.Root(RootStyle.Render(source))
	if res == nil {
		return t.String()
	}

	blocks := BranchNode("Blocks", fmt.Sprintf("(%d converted, %d warned, %d skipped)",
		res.Count(calcdoc.BlockConverted), res.Count(calcdoc.BlockWarned), res.Count(calcdoc.BlockSkipped)))
	blocks.EnumeratorStyle(BranchStyle)
	for _, o := range res.Blocks {
		blocks.Child(outcomeLine(o))
	}
	t.Child(blocks)

	bundle := BranchNode("Runtime", fmt.Sprintf("(%d removed)", res.BundlesRemoved))
	bundle.EnumeratorStyle(BranchStyle)
	if res.Bundle != nil {
		bundle.Child(fmt.Sprintf("Codec: %s", res.Bundle.Codec))
		bundle.Child(fmt.Sprintf("Payload: %d bytes", len(res.Bundle.Payload)))
	}
	t.Child(bundle)

	return t.String()
}

// ScanReport renders what a document holds without changing it.
func ScanReport(source string, blocks []calcdoc.Block, bundles []calcdoc.Span, widgets []string) string {
	t := Tree()
	t.Root(RootStyle.Render(source))

	raw := BranchNode("Tool blocks", fmt.Sprintf("(%d)", len(blocks)))
	raw.EnumeratorStyle(BranchStyle)
	for _, b := range blocks {
		if b.Err != nil {
			raw.Child(fmt.Sprintf("#%d %s", b.Index, ErrorText(TruncateString(b.Err.Error(), maxErrorWidth))))
			continue
		}
		raw.Child(fmt.Sprintf("#%d %s %s", b.Index, ToolText(b.Schema.ID),
			InfoStyle.Render(fmt.Sprintf("%d inputs, %d outputs", len(b.Schema.Inputs), len(b.Schema.Outputs)))))
	}
	t.Child(raw)

	compiled := BranchNode("Widgets", fmt.Sprintf("(%d)", len(widgets)))
	compiled.EnumeratorStyle(BranchStyle)
	for _, id := range widgets {
		compiled.Child(ToolText(id))
	}
	t.Child(compiled)

	runtime := BranchNode("Runtime bundles", fmt.Sprintf("(%d)", len(bundles)))
	runtime.EnumeratorStyle(BranchStyle)
	for _, s := range bundles {
		runtime.Child(fmt.Sprintf("bytes %d-%d", s.Start, s.End))
	}
	t.Child(runtime)

	return t.String()
}

func outcomeLine(o calcdoc.BlockOutcome) string {
	id := o.ToolID
	if id == "" {
		id = "?"
	}
	line := fmt.Sprintf("#%d %s %s", o.Index, ToolText(id), StatusText(o.Status))
	if o.Err != nil {
		line += " " + InfoStyle.Render(TruncateString(o.Err.Error(), maxErrorWidth))
	}
	return line
}
