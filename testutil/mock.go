// Package testutil provides test helpers for calcdoc (e.g. MockFormula, raw block builders).
package testutil

import (
	"github.com/skosovsky/calcdoc"
)

// MockFormula is a configurable Formula implementation for tests.
// It records every input it receives.
type MockFormula struct {
	IDVal     string
	ComputeFn func(in calcdoc.Values) (calcdoc.Values, error)
	Calls     []calcdoc.Values
}

// ID returns the formula id.
func (m *MockFormula) ID() string {
	if m.IDVal != "" {
		return m.IDVal
	}
	return "mock"
}

// Compute records in and runs ComputeFn if set, otherwise returns empty values.
func (m *MockFormula) Compute(in calcdoc.Values) (calcdoc.Values, error) {
	m.Calls = append(m.Calls, in)
	if m.ComputeFn != nil {
		return m.ComputeFn(in)
	}
	return calcdoc.Values{}, nil
}

// Ensure MockFormula implements Formula.
var _ calcdoc.Formula = (*MockFormula)(nil)
