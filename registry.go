package calcdoc

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// FormulaRegistry maps widget ids to formulas. It is built once and never mutated,
// so it can be shared by every widget without locking.
type FormulaRegistry struct {
	formulas map[string]Formula // wrapped with middlewares
	opts     registryOptions
}

// ComputeSummary is passed to the after-compute hook (WithOnAfterCompute).
type ComputeSummary struct {
	ToolID  string
	Error   error
	Outputs int
}

// NewFormulaRegistry builds a registry from formulas. Middlewares (WithMiddleware) are
// applied in onion order: the first middleware is outermost. A nil formula, an empty id
// or an id registered twice is an error.
func NewFormulaRegistry(formulas []Formula, opts ...RegistryOption) (*FormulaRegistry, error) {
	o := registryOptions{recoverPanics: true}
	for _, opt := range opts {
		opt(&o)
	}
	m := make(map[string]Formula, len(formulas))
	for i, f := range formulas {
		if f == nil {
			return nil, fmt.Errorf("formulas[%d] is nil", i)
		}
		id := f.ID()
		if id == "" {
			return nil, fmt.Errorf("formulas[%d] has an empty id", i)
		}
		if _, dup := m[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFormula, id)
		}
		for j := len(o.middlewares) - 1; j >= 0; j-- {
			f = o.middlewares[j](f)
		}
		m[id] = f
	}
	return &FormulaRegistry{formulas: m, opts: o}, nil
}

// Lookup returns the formula for id (after middlewares are applied).
func (r *FormulaRegistry) Lookup(id string) (Formula, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.formulas[id]
	return f, ok
}

// IDs returns every registered id, sorted.
func (r *FormulaRegistry) IDs() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.formulas))
}

// Len returns the number of registered formulas.
func (r *FormulaRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.formulas)
}

// Compute runs the formula registered for id. A missing id yields an error wrapping
// ErrNoFormula; a formula error or panic yields *FaultError. Panics are recovered
// unless WithRecoverPanics(false) was given.
func (r *FormulaRegistry) Compute(id string, in Values) (out Values, err error) {
	f, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoFormula, id)
	}

	var summary ComputeSummary
	summary.ToolID = id
	start := time.Now()
	// Recover defer is registered after the hook so it runs first and the hook sees the fault.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(summary, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				out = nil
				err = &FaultError{ToolID: id, Err: &panicError{p: p}}
				summary.Error = err
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(id, in)
	}

	out, err = f.Compute(in)
	if err != nil {
		if !IsFaultError(err) {
			err = &FaultError{ToolID: id, Err: err}
		}
		summary.Error = err
		return nil, err
	}
	summary.Outputs = len(out)
	return out, nil
}
