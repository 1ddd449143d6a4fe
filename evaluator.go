package calcdoc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-fsm"
	"golang.org/x/net/html"
)

// Widget states. A widget is Idle until a signal arrives, Computing while its
// formula runs, then Settled or Faulted. A fault always returns it to Idle.
const (
	StateIdle      = "idle"
	StateComputing = "computing"
	StateSettled   = "settled"
	StateFaulted   = "faulted"
)

// WidgetTransitions defines the valid widget state transitions.
var WidgetTransitions = map[string][]string{
	StateIdle:      {StateComputing},
	StateComputing: {StateSettled, StateFaulted, StateIdle},
	StateSettled:   {StateComputing, StateIdle},
	StateFaulted:   {StateIdle},
}

// Evaluator connects formulas to the widgets of a Document.
type Evaluator struct {
	formulas *FormulaRegistry
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator over formulas.
func NewEvaluator(formulas *FormulaRegistry, opts ...EvaluatorOption) *Evaluator {
	o := evaluatorOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Evaluator{formulas: formulas, logger: o.logger}
}

// Subscription is one installed runtime. It holds a single document-level listener
// that serves every widget, including widgets added after installation.
type Subscription struct {
	ev         *Evaluator
	doc        *Document
	listenerID int
	machines   map[*html.Node]*fsm.Machine
	closed     bool
}

// Install attaches the evaluator to doc and runs one pass over every widget so
// outputs reflect the seeded inputs. A previous installation on doc is closed first,
// so repeated installs never stack listeners. Faults during the pass are logged.
func (e *Evaluator) Install(doc *Document) (*Subscription, error) {
	if doc == nil {
		return nil, errors.New("install: nil document")
	}
	if doc.runtime != nil {
		doc.runtime.Close()
	}
	s := &Subscription{
		ev:       e,
		doc:      doc,
		machines: make(map[*html.Node]*fsm.Machine),
	}
	s.listenerID = doc.addListener(s.handle, s.Close)
	doc.runtime = s

	for _, w := range doc.Widgets() {
		_ = s.Evaluate(w)
	}
	return s, nil
}

// Close removes the listener. Further signals have no effect. Safe to call twice.
func (s *Subscription) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.doc.removeListener(s.listenerID)
	if s.doc.runtime == s {
		s.doc.runtime = nil
	}
}

// Closed reports whether the subscription was closed.
func (s *Subscription) Closed() bool { return s.closed }

// State returns the current state of w, or StateIdle for a widget not yet seen.
func (s *Subscription) State(w *Widget) string {
	if m, ok := s.machines[w.node]; ok {
		return m.GetState()
	}
	return StateIdle
}

func (s *Subscription) handle(sig Signal) {
	if sig.Type != SignalInput && sig.Type != SignalChange {
		return
	}
	w := s.doc.closestWidget(sig.Target)
	if w == nil {
		return
	}
	_ = s.Evaluate(w)
}

// Evaluate runs the formula of w on its current inputs and writes the results.
// A missing formula or a fault is logged and returned; the widget's outputs keep
// their previous text and no other widget is affected.
func (s *Subscription) Evaluate(w *Widget) (err error) {
	if s.closed {
		return nil
	}
	m, err := s.machine(w)
	if err != nil {
		return err
	}
	if err := m.Transition(StateComputing); err != nil {
		return fmt.Errorf("widget %q: %w", w.ID, err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = &FaultError{ToolID: w.ID, Err: &panicError{p: p}}
			s.fault(m, w, err)
		}
	}()

	out, err := s.ev.formulas.Compute(w.ID, w.Values())
	switch {
	case errors.Is(err, ErrNoFormula):
		s.ev.logger.Warn("no formula for widget", "tool", w.ID)
		_ = m.Transition(StateIdle)
		return err
	case err != nil:
		s.fault(m, w, err)
		return err
	}
	n := w.writeOutputs(out)
	s.ev.logger.Debug("widget settled", "tool", w.ID, "outputs", n)
	return m.Transition(StateSettled)
}

func (s *Subscription) fault(m *fsm.Machine, w *Widget, err error) {
	s.ev.logger.Error("widget fault contained", "tool", w.ID, "error", err)
	_ = m.Transition(StateFaulted)
	_ = m.Transition(StateIdle)
}

func (s *Subscription) machine(w *Widget) (*fsm.Machine, error) {
	if m, ok := s.machines[w.node]; ok {
		return m, nil
	}
	m, err := fsm.New(s.ev.logger.Handler(), StateIdle, WidgetTransitions)
	if err != nil {
		return nil, fmt.Errorf("widget %q state machine: %w", w.ID, err)
	}
	s.machines[w.node] = m
	return m, nil
}
