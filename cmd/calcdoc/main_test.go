package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/calcdoc"
)

const capacityPage = `<h1>Line sizing</h1>
<pre><code class="itb-tool">{
  "id": "capacity-calculator-2026",
  "title": "Capacity",
  "inputs": [
    {"name": "dailyProductionTarget", "kind": "number", "min": 10000},
    {"name": "operatingHoursPerDay", "kind": "number", "min": 16},
    {"name": "operatingDaysPerYear", "kind": "number", "min": 300},
    {"name": "plannedDowntimePercentage", "kind": "number", "min": 10}
  ],
  "outputs": [{"name": "requiredBPH"}, {"name": "utilizationRate", "format": "percent"}]
}</code></pre>
<pre><code class="itb-tool">{"id": "not-registered", "outputs": [{"name": "x"}]}</code></pre>
`

// run executes the CLI in an isolated working directory.
func run(t *testing.T, dir string, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(context.Background(), append([]string{"calcdoc", "--log-level", "error"}, args...))
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "calcdoc version dev (runtime "+calcdoc.RuntimeVersion+")\n", out)
}

func TestSchema(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "", "schema")
	require.NoError(t, err)
	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Contains(t, s, "properties")
}

func TestBuild_InPlace(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)

	_, report, err := run(t, dir, "", "build", page)
	require.NoError(t, err)
	assert.Contains(t, report, "1 converted, 1 warned, 0 skipped")
	assert.Contains(t, report, "Built 1 document(s)")

	built, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(built), `data-itb-calculator="capacity-calculator-2026"`)
	assert.Contains(t, string(built), `"not-registered"`, "unknown block stays raw")
	assert.Equal(t, 1, strings.Count(string(built), calcdoc.BundleHeader))

	_, _, err = run(t, dir, "", "build", "--quiet", page)
	require.NoError(t, err)
	again, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, string(built), string(again), "rebuilding is a no-op")
}

func TestBuild_ToolsFileAndOutput(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)
	tools := writeTemp(t, dir, "tools.json", `[{"id": "not-registered"}]`)
	out := filepath.Join(dir, "out.html")

	_, report, err := run(t, dir, "", "--tools", tools, "build", "-o", out, "--codec", "base64", page)
	require.NoError(t, err)
	assert.Contains(t, report, "1 converted, 1 warned")

	src, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, capacityPage, string(src), "source untouched with --output")

	built, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(built), `data-itb-calculator="not-registered"`)
	assert.Contains(t, string(built), "(base64)")
}

func TestBuild_Stdio(t *testing.T) {
	out, _, err := run(t, t.TempDir(), capacityPage, "build", "-q", "-o", "-", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `data-itb-calculator="capacity-calculator-2026"`)
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)

	_, _, err := run(t, dir, "", "build")
	require.Error(t, err)

	_, _, err = run(t, dir, "", "build", "-")
	require.ErrorContains(t, err, "stdin")

	_, _, err = run(t, dir, "", "build", "-o", "x.html", page, page)
	require.ErrorContains(t, err, "--output")

	_, _, err = run(t, dir, "", "build", "--duplicates", "first-wins", page)
	require.Error(t, err)

	_, _, err = run(t, dir, "", "build", filepath.Join(dir, "missing.html"))
	require.Error(t, err)
}

func TestBuild_UnsafeFormulasAbort(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)
	formulas := writeTemp(t, dir, "formulas.js",
		"var ITB_FORMULAS = { \"capacity-calculator-2026\": function () { return { requiredBPH: \"it’s\" }; } };\n")

	_, _, err := run(t, dir, "", "--formulas", formulas, "build", page)
	require.ErrorIs(t, err, calcdoc.ErrUnsafeSourceCharacters)

	src, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, capacityPage, string(src), "nothing is written when packaging fails")
}

func TestBuild_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)
	writeTemp(t, dir, "calcdoc.toml", "[build]\ncodec = \"base64\"\n")

	_, _, err := run(t, dir, "", "build", "-q", page)
	require.NoError(t, err)
	built, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(built), "(base64)")
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)

	out, _, err := run(t, dir, "", "scan", page)
	require.NoError(t, err)
	assert.Contains(t, out, "Tool blocks")
	assert.Contains(t, out, "(2)")
	assert.Contains(t, out, "capacity-calculator-2026")

	src, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, capacityPage, string(src))
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "post.html", capacityPage)

	out, _, err := run(t, dir, "", "preview", page)
	require.NoError(t, err)
	assert.Contains(t, out, ">695</")
	assert.Contains(t, out, ">86.9%</")

	out, _, err = run(t, dir, "", "preview", "--set", "capacity-calculator-2026.dailyProductionTarget=20000", page)
	require.NoError(t, err)
	assert.Contains(t, out, ">1389</")

	_, _, err = run(t, dir, "", "preview", "--set", "ghost.x=1", page)
	require.ErrorContains(t, err, "ghost")

	_, _, err = run(t, dir, "", "preview", "--set", "nodot=1", page)
	require.Error(t, err)
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		in      string
		want    inputEdit
		wantErr bool
	}{
		{in: "roi.investment=1000", want: inputEdit{toolID: "roi", input: "investment", value: "1000"}},
		{in: "v1.2.term=CIF", want: inputEdit{toolID: "v1.2", input: "term", value: "CIF"}},
		{in: "roi.note=a=b", want: inputEdit{toolID: "roi", input: "note", value: "a=b"}},
		{in: "roi.x=", want: inputEdit{toolID: "roi", input: "x"}},
		{in: "roi", wantErr: true},
		{in: ".x=1", wantErr: true},
		{in: "roi.=1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEdit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
