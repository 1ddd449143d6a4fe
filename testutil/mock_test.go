package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/calcdoc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMockFormula(t *testing.T) {
	m := &MockFormula{
		IDVal: "double",
		ComputeFn: func(in calcdoc.Values) (calcdoc.Values, error) {
			return calcdoc.Values{"y": in["x"].(float64) * 2}, nil
		},
	}
	assert.Equal(t, "double", m.ID())
	out, err := m.Compute(calcdoc.Values{"x": 4.0})
	require.NoError(t, err)
	assert.Equal(t, calcdoc.Values{"y": 8.0}, out)
	require.Len(t, m.Calls, 1)
	assert.Equal(t, calcdoc.Values{"x": 4.0}, m.Calls[0])
}

func TestMockFormula_Defaults(t *testing.T) {
	m := &MockFormula{}
	assert.Equal(t, "mock", m.ID())
	out, err := m.Compute(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewTestRegistry(t *testing.T) {
	m := &MockFormula{IDVal: "m", ComputeFn: func(calcdoc.Values) (calcdoc.Values, error) {
		panic("recovered")
	}}
	reg := NewTestRegistry(m)
	require.Equal(t, []string{"m"}, reg.IDs())
	_, err := reg.Compute("m", calcdoc.Values{})
	require.ErrorIs(t, err, calcdoc.ErrFormulaFault)

	assert.Panics(t, func() { NewTestRegistry(&MockFormula{}, &MockFormula{}) })
}

func TestSchemaBlock_Scans(t *testing.T) {
	schema := calcdoc.ToolSchema{ID: "roi", Outputs: []calcdoc.OutputSpec{{Name: "roi", Format: calcdoc.FormatPercent}}}
	page := Page("<p>intro</p>", SchemaBlock(schema), RawBlock(`{"id": `))
	blocks := calcdoc.Scan(page)
	require.Len(t, blocks, 2)
	require.NoError(t, blocks[0].Err)
	assert.Equal(t, "roi", blocks[0].Schema.ID)
	assert.True(t, calcdoc.IsParseError(blocks[1].Err))
}

func TestToolsMap(t *testing.T) {
	m := ToolsMap(calcdoc.ToolSchema{ID: "a"}, calcdoc.ToolSchema{Title: "Energy Cost"})
	assert.Contains(t, m, "a")
	assert.Contains(t, m, "energy-cost")
	assert.Panics(t, func() { ToolsMap(calcdoc.ToolSchema{}) })
}
