package testutil

import (
	"encoding/json"
	"strings"

	"github.com/skosovsky/calcdoc"
)

// NewTestRegistry returns a FormulaRegistry with panic recovery enabled.
// It panics on duplicate ids, which is a bug in the test itself.
func NewTestRegistry(formulas ...calcdoc.Formula) *calcdoc.FormulaRegistry {
	reg, err := calcdoc.NewFormulaRegistry(formulas, calcdoc.WithRecoverPanics(true))
	if err != nil {
		panic(err)
	}
	return reg
}

// RawBlock wraps payload in the embedded tool block convention.
func RawBlock(payload string) string {
	return `<pre><code class="itb-tool">` + payload + `</code></pre>`
}

// SchemaBlock marshals schema and wraps it with RawBlock.
func SchemaBlock(schema calcdoc.ToolSchema) string {
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return RawBlock(string(data))
}

// Page joins parts into a minimal host document, one part per line.
func Page(parts ...string) string {
	return "<article>\n" + strings.Join(parts, "\n") + "\n</article>\n"
}

// ToolsMap keys schemas by their resolved id.
func ToolsMap(schemas ...calcdoc.ToolSchema) map[string]calcdoc.ToolSchema {
	m := make(map[string]calcdoc.ToolSchema, len(schemas))
	for _, s := range schemas {
		id, err := s.ResolveID()
		if err != nil {
			panic(err)
		}
		m[id] = s
	}
	return m
}
