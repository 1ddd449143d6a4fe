package calcdoc

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dop251/goja"
)

// scriptTable owns the JavaScript VM behind a loaded formula table.
// goja runtimes are not safe for concurrent use; every call holds mu.
type scriptTable struct {
	mu sync.Mutex
	vm *goja.Runtime
}

type scriptFormula struct {
	id    string
	table *scriptTable
	fn    goja.Callable
}

// LoadScriptFormulas evaluates a JavaScript formula table that assigns the global
// ITB_FORMULAS and returns one Formula per entry, sorted by id. This is the same
// table the browser runtime ships with.
func LoadScriptFormulas(source string) ([]Formula, error) {
	return LoadScriptFormulasFrom(source, FormulaTableGlobal)
}

// LoadScriptFormulasFrom is LoadScriptFormulas with a custom global name.
func LoadScriptFormulasFrom(source, global string) ([]Formula, error) {
	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("run formula table: %w", err)
	}
	v := vm.Get(global)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("formula table does not define %s", global)
	}
	obj := v.ToObject(vm)
	keys := obj.Keys()
	slices.Sort(keys)
	table := &scriptTable{vm: vm}
	formulas := make([]Formula, 0, len(keys))
	for _, key := range keys {
		fn, ok := goja.AssertFunction(obj.Get(key))
		if !ok {
			return nil, fmt.Errorf("formula %q is not a function", key)
		}
		formulas = append(formulas, &scriptFormula{id: key, table: table, fn: fn})
	}
	return formulas, nil
}

func (f *scriptFormula) ID() string { return f.id }

// Compute calls the JavaScript function with the input values as a plain object.
// A thrown exception is returned as an error.
func (f *scriptFormula) Compute(in Values) (Values, error) {
	f.table.mu.Lock()
	defer f.table.mu.Unlock()
	arg := f.table.vm.ToValue(map[string]any(in))
	res, err := f.fn(goja.Undefined(), arg)
	if err != nil {
		return nil, err
	}
	if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
		return Values{}, nil
	}
	exported, ok := res.Export().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("formula %q returned %T, want an object", f.id, res.Export())
	}
	return normalizeValues(exported), nil
}

var builtinFormulas = sync.OnceValues(func() ([]Formula, error) {
	return LoadScriptFormulas(FormulaTableSource())
})

// BuiltinFormulas returns the formulas of the embedded formula table.
func BuiltinFormulas() ([]Formula, error) {
	return builtinFormulas()
}

// NewBuiltinRegistry builds a registry over the embedded formula table.
func NewBuiltinRegistry(opts ...RegistryOption) (*FormulaRegistry, error) {
	formulas, err := BuiltinFormulas()
	if err != nil {
		return nil, err
	}
	return NewFormulaRegistry(formulas, opts...)
}

var _ Formula = (*scriptFormula)(nil)
