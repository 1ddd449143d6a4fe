package calcdoc

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var capacitySchema = ToolSchema{
	ID: "capacity-calculator-2026",
	Inputs: []InputSpec{
		{Name: "dailyProductionTarget", Kind: KindNumber, Min: ptr(10000)},
		{Name: "operatingHoursPerDay", Kind: KindNumber, Min: ptr(16)},
		{Name: "operatingDaysPerYear", Kind: KindNumber, Min: ptr(300)},
		{Name: "plannedDowntimePercentage", Kind: KindNumber, Min: ptr(10)},
	},
	Outputs: []OutputSpec{
		{Name: "requiredBPH"},
		{Name: "recommendedBPH"},
		{Name: "annualCapacity"},
		{Name: "utilizationRate", Format: FormatPercent},
	},
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestEvaluator_LoadPass(t *testing.T) {
	reg, err := NewBuiltinRegistry()
	require.NoError(t, err)
	doc := compiledDoc(t, capacitySchema)
	logger, _ := testLogger()

	sub, err := NewEvaluator(reg, WithEvaluatorLogger(logger)).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	w, _ := doc.Widget(capacitySchema.ID)
	for name, want := range map[string]string{
		"requiredBPH":     "695",
		"recommendedBPH":  "800",
		"annualCapacity":  "3000000",
		"utilizationRate": "86.9%",
	} {
		got, ok := w.OutputText(name)
		require.True(t, ok)
		assert.Equal(t, want, got, name)
	}
	assert.Equal(t, StateSettled, sub.State(w))
}

func TestEvaluator_ReactsToSignals(t *testing.T) {
	reg, err := NewBuiltinRegistry()
	require.NoError(t, err)
	doc := compiledDoc(t, capacitySchema)
	sub, err := NewEvaluator(reg).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	w, _ := doc.Widget(capacitySchema.ID)
	require.NoError(t, w.Edit("dailyProductionTarget", "20000"))
	got, _ := w.OutputText("requiredBPH")
	assert.Equal(t, "1389", got)

	// A change signal from a nested node reaches the widget too.
	require.NoError(t, w.SetInput("operatingDaysPerYear", "200"))
	field, _ := w.Field("operatingDaysPerYear")
	doc.Dispatch(Signal{Type: SignalChange, Target: field})
	got, _ = w.OutputText("annualCapacity")
	assert.Equal(t, "4000000", got)

	// Other signal types are ignored.
	require.NoError(t, w.SetInput("operatingDaysPerYear", "100"))
	doc.Dispatch(Signal{Type: "click", Target: field})
	got, _ = w.OutputText("annualCapacity")
	assert.Equal(t, "4000000", got)
}

func TestEvaluator_FaultIsolation(t *testing.T) {
	calls := 0
	reg, err := NewFormulaRegistry([]Formula{
		FormulaFunc("a", func(in Values) (Values, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("division by zero")
			}
			return Values{"out": 1.0}, nil
		}),
		FormulaFunc("b", func(in Values) (Values, error) {
			x, _ := in["x"].(float64)
			return Values{"out": x + 1}, nil
		}),
		FormulaFunc("c", func(Values) (Values, error) { panic("kaboom") }),
	})
	require.NoError(t, err)

	schema := func(id string) ToolSchema {
		return ToolSchema{ID: id, Inputs: []InputSpec{{Name: "x", Kind: KindNumber, Min: ptr(1)}}, Outputs: []OutputSpec{{Name: "out"}}}
	}
	doc := compiledDoc(t, schema("a"), schema("b"), schema("c"))
	logger, buf := testLogger()
	sub, err := NewEvaluator(reg, WithEvaluatorLogger(logger)).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	a, _ := doc.Widget("a")
	b, _ := doc.Widget("b")
	c, _ := doc.Widget("c")

	txt, _ := a.OutputText("out")
	assert.Equal(t, "1", txt)
	txt, _ = b.OutputText("out")
	assert.Equal(t, "2", txt, "b settles although c panics in the same pass")
	txt, _ = c.OutputText("out")
	assert.Equal(t, OutputPlaceholder, txt)
	assert.Equal(t, StateIdle, sub.State(c))

	require.NoError(t, a.Edit("x", "5"))
	txt, _ = a.OutputText("out")
	assert.Equal(t, "1", txt, "last settled value stays visible")
	assert.Equal(t, StateIdle, sub.State(a))

	err = sub.Evaluate(a)
	require.ErrorIs(t, err, ErrFormulaFault)
	assert.Contains(t, buf.String(), "widget fault contained")

	require.NoError(t, b.Edit("x", "41"))
	txt, _ = b.OutputText("out")
	assert.Equal(t, "42", txt)
	assert.Equal(t, StateSettled, sub.State(b))
}

func TestEvaluator_PanicWithoutRegistryRecovery(t *testing.T) {
	reg, err := NewFormulaRegistry([]Formula{
		FormulaFunc("p", func(Values) (Values, error) { panic("raw") }),
	}, WithRecoverPanics(false))
	require.NoError(t, err)
	doc := compiledDoc(t, ToolSchema{ID: "p", Outputs: []OutputSpec{{Name: "o"}}})
	logger, _ := testLogger()
	sub, err := NewEvaluator(reg, WithEvaluatorLogger(logger)).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	w, _ := doc.Widget("p")
	assert.NotPanics(t, func() {
		err = sub.Evaluate(w)
	})
	require.ErrorIs(t, err, ErrFormulaFault)
	assert.Equal(t, StateIdle, sub.State(w))
}

func TestEvaluator_NoFormula(t *testing.T) {
	reg, err := NewFormulaRegistry(nil)
	require.NoError(t, err)
	doc := compiledDoc(t, ToolSchema{ID: "orphan", Inputs: []InputSpec{{Name: "x"}}, Outputs: []OutputSpec{{Name: "y"}}})
	logger, buf := testLogger()
	sub, err := NewEvaluator(reg, WithEvaluatorLogger(logger)).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	w, _ := doc.Widget("orphan")
	require.NoError(t, w.Edit("x", "3"))
	txt, _ := w.OutputText("y")
	assert.Equal(t, OutputPlaceholder, txt)
	assert.Equal(t, StateIdle, sub.State(w))
	assert.Contains(t, buf.String(), "no formula for widget")
	require.ErrorIs(t, sub.Evaluate(w), ErrNoFormula)
}

func TestEvaluator_CoercesBadInput(t *testing.T) {
	var seen Values
	reg, err := NewFormulaRegistry([]Formula{
		FormulaFunc("echo", func(in Values) (Values, error) {
			seen = in
			return Values{"sum": in["a"].(float64) + in["b"].(float64), "pick": in["c"]}, nil
		}),
	})
	require.NoError(t, err)
	doc := compiledDoc(t, ToolSchema{
		ID: "echo",
		Inputs: []InputSpec{
			{Name: "a", Kind: KindNumber},
			{Name: "b"},
			{Name: "c", Options: []string{"007", "x"}},
		},
		Outputs: []OutputSpec{{Name: "sum"}, {Name: "pick"}},
	})
	sub, err := NewEvaluator(reg).Install(doc)
	require.NoError(t, err)
	defer sub.Close()

	w, _ := doc.Widget("echo")
	require.NoError(t, w.Edit("a", ""))
	require.NoError(t, w.Edit("b", "not a number"))
	assert.Equal(t, Values{"a": 0.0, "b": 0.0, "c": "007"}, seen)
	txt, _ := w.OutputText("sum")
	assert.Equal(t, "0", txt)
	txt, _ = w.OutputText("pick")
	assert.Equal(t, "007", txt, "choice values pass through verbatim")
}

func TestSubscription_CloseAndReinstall(t *testing.T) {
	calls := 0
	reg, err := NewFormulaRegistry([]Formula{
		FormulaFunc("n", func(Values) (Values, error) {
			calls++
			return Values{"count": float64(calls)}, nil
		}),
	})
	require.NoError(t, err)
	doc := compiledDoc(t, ToolSchema{ID: "n", Inputs: []InputSpec{{Name: "x"}}, Outputs: []OutputSpec{{Name: "count"}}})
	ev := NewEvaluator(reg)

	first, err := ev.Install(doc)
	require.NoError(t, err)
	second, err := ev.Install(doc)
	require.NoError(t, err)
	assert.True(t, first.Closed(), "reinstall replaces the previous subscription")
	assert.Equal(t, 1, doc.Listeners())
	assert.Equal(t, 2, calls, "one load pass per install")

	w, _ := doc.Widget("n")
	require.NoError(t, w.Edit("x", "1"))
	assert.Equal(t, 3, calls, "a single listener reacts")

	second.Close()
	second.Close()
	assert.Zero(t, doc.Listeners())
	require.NoError(t, w.Edit("x", "2"))
	assert.Equal(t, 3, calls)
	require.NoError(t, second.Evaluate(w), "closed subscriptions do nothing")
	assert.Equal(t, 3, calls)
}

func TestDocument_UnloadClosesSubscription(t *testing.T) {
	reg, err := NewFormulaRegistry([]Formula{doubler("d")})
	require.NoError(t, err)
	doc := compiledDoc(t, ToolSchema{ID: "d", Inputs: []InputSpec{{Name: "x"}}, Outputs: []OutputSpec{{Name: "y"}}})
	sub, err := NewEvaluator(reg).Install(doc)
	require.NoError(t, err)
	doc.Unload()
	assert.True(t, sub.Closed())
	assert.Zero(t, doc.Listeners())
}

func TestEvaluator_InstallNil(t *testing.T) {
	reg, err := NewFormulaRegistry(nil)
	require.NoError(t, err)
	_, err = NewEvaluator(reg).Install(nil)
	require.Error(t, err)
}

func TestWidgetTransitions(t *testing.T) {
	assert.Equal(t, []string{StateComputing}, WidgetTransitions[StateIdle])
	assert.Contains(t, WidgetTransitions[StateComputing], StateFaulted)
	assert.Equal(t, []string{StateIdle}, WidgetTransitions[StateFaulted])
}
