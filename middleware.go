package calcdoc

import (
	"log/slog"
	"time"
)

// Middleware wraps a Formula with cross-cutting behavior (logging, recovery).
type Middleware func(Formula) Formula

// WithLogging returns a middleware that logs every computation at debug level and
// failures at error level.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Formula) Formula {
		return &loggingFormula{formulaBase: formulaBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that turns panics into *FaultError.
func WithRecovery() Middleware {
	return func(next Formula) Formula {
		return &recoveryFormula{formulaBase{next: next}}
	}
}

// formulaBase delegates ID to the wrapped Formula; used by middleware wrappers.
type formulaBase struct{ next Formula }

func (b *formulaBase) ID() string { return b.next.ID() }

type loggingFormula struct {
	formulaBase
	logger *slog.Logger
}

func (m *loggingFormula) Compute(in Values) (Values, error) {
	m.logger.Debug("formula start", "tool", m.next.ID(), "inputs", len(in))
	start := time.Now()
	out, err := m.next.Compute(in)
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("formula error", "tool", m.next.ID(), "duration", dur, "error", err)
		return nil, err
	}
	m.logger.Debug("formula end", "tool", m.next.ID(), "duration", dur, "outputs", len(out))
	return out, nil
}

type recoveryFormula struct{ formulaBase }

func (r *recoveryFormula) Compute(in Values) (out Values, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &FaultError{ToolID: r.next.ID(), Err: &panicError{p: p}}
		}
	}()
	return r.next.Compute(in)
}
