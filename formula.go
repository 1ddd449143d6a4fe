package calcdoc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Values maps binding names to values. Numbers are float64; choice values and
// textual results are strings.
type Values map[string]any

// Formula is the pure computation behind one widget, looked up by widget id.
type Formula interface {
	ID() string
	Compute(in Values) (Values, error)
}

type funcFormula struct {
	id string
	fn func(Values) (Values, error)
}

// FormulaFunc adapts a plain function to Formula.
func FormulaFunc(id string, fn func(Values) (Values, error)) Formula {
	return &funcFormula{id: id, fn: fn}
}

func (f *funcFormula) ID() string { return f.id }

func (f *funcFormula) Compute(in Values) (Values, error) {
	out, err := f.fn(in)
	if err != nil {
		return nil, err
	}
	return normalizeValues(out), nil
}

type typedFormula[T any, R any] struct {
	id string
	fn func(T) (R, error)
}

// NewFormula builds a Formula from a typed function. Input values are decoded into T
// and the result R is encoded back to Values through their JSON field names.
func NewFormula[T any, R any](id string, fn func(T) (R, error)) (Formula, error) {
	if id == "" {
		return nil, errors.New("formula id must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("formula %q: function must not be nil", id)
	}
	return &typedFormula[T, R]{id: id, fn: fn}, nil
}

func (f *typedFormula[T, R]) ID() string { return f.id }

func (f *typedFormula[T, R]) Compute(in Values) (Values, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}
	var args T
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	res, err := f.fn(args)
	if err != nil {
		return nil, err
	}
	data, err = json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return normalizeValues(out), nil
}

func normalizeValues(in map[string]any) Values {
	if in == nil {
		return nil
	}
	out := make(Values, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue widens every numeric type to float64.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return v
	}
}

var (
	_ Formula = (*funcFormula)(nil)
	_ Formula = (*typedFormula[struct{}, struct{}])(nil)
)
