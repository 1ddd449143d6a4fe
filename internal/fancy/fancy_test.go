package fancy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skosovsky/calcdoc"
	"github.com/skosovsky/calcdoc/internal/fancy"
)

func TestTree(t *testing.T) {
	tree := fancy.Tree()
	assert.NotNil(t, tree)

	tree.Root("Root Node")
	tree.Child(fancy.BranchNode("Child Node", "(1)").Child("Grandchild"))

	out := tree.String()
	assert.Contains(t, out, "Root Node")
	assert.Contains(t, out, "Child Node")
	assert.Contains(t, out, "(1)")
	assert.Contains(t, out, "Grandchild")
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter", "short", 20, "short"},
		{"exact", "exactly", 7, "exactly"},
		{"longer", "a rather long message", 10, "a rathe..."},
		{"multibyte", "ääääääää", 6, "äää..."},
		{"tiny limit", "abcdef", 3, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fancy.TruncateString(tt.in, tt.max))
		})
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []calcdoc.BlockStatus{calcdoc.BlockConverted, calcdoc.BlockWarned, calcdoc.BlockSkipped, "other"} {
		assert.Contains(t, fancy.StatusText(s), string(s))
	}
}

func TestRewriteReport(t *testing.T) {
	res := &calcdoc.Result{
		Blocks: []calcdoc.BlockOutcome{
			{Index: 0, ToolID: "roi-payback-calculator-2026", Status: calcdoc.BlockConverted},
			{Index: 1, ToolID: "mystery", Status: calcdoc.BlockWarned, Err: calcdoc.ErrUnknownToolID},
			{Index: 2, Status: calcdoc.BlockSkipped, Err: errors.New("invalid tool JSON")},
		},
		BundlesRemoved: 2,
		Bundle:         &calcdoc.Bundle{Codec: "hex", Payload: "abcd"},
	}
	out := fancy.RewriteReport("post.html", res)
	for _, want := range []string{
		"post.html",
		"1 converted, 1 warned, 1 skipped",
		"roi-payback-calculator-2026",
		"mystery",
		"#2 ?",
		"invalid tool JSON",
		"2 removed",
		"Codec: hex",
		"Payload: 4 bytes",
	} {
		assert.Contains(t, out, want)
	}

	assert.Contains(t, fancy.RewriteReport("empty.html", nil), "empty.html")
}

func TestScanReport(t *testing.T) {
	blocks := []calcdoc.Block{
		{Index: 0, Schema: calcdoc.ToolSchema{ID: "a", Inputs: []calcdoc.InputSpec{{Name: "x"}}}},
		{Index: 1, Err: calcdoc.ErrSchemaIncomplete},
	}
	out := fancy.ScanReport("page.html", blocks, []calcdoc.Span{{Start: 10, End: 40}}, []string{"b"})
	assert.Contains(t, out, "Tool blocks")
	assert.Contains(t, out, "1 inputs, 0 outputs")
	assert.Contains(t, out, calcdoc.ErrSchemaIncomplete.Error())
	assert.Contains(t, out, "Widgets")
	assert.Contains(t, out, "bytes 10-40")
}
