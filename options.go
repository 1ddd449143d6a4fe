package calcdoc

import (
	"log/slog"
	"time"
)

// RegistryOption configures a FormulaRegistry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	recoverPanics bool
	middlewares   []Middleware
	onBefore      func(string, Values)
	onAfter       func(ComputeSummary, time.Duration)
}

// WithRecoverPanics enables panic recovery in Compute (returns *FaultError). Enabled by default.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithMiddleware wraps every registered formula. The first middleware is outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(o *registryOptions) {
		o.middlewares = append(o.middlewares, mw...)
	}
}

// WithOnBeforeCompute sets a hook called before each computation.
func WithOnBeforeCompute(fn func(toolID string, in Values)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterCompute sets a hook called after each computation, faults included.
func WithOnAfterCompute(fn func(ComputeSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// PackagerOption configures a Packager.
type PackagerOption func(*packagerOptions)

type packagerOptions struct {
	codec     Codec
	bootDelay time.Duration
	version   string
}

// WithCodec sets the reversible transform applied to the runtime source.
func WithCodec(c Codec) PackagerOption {
	return func(o *packagerOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithBootDelay sets how long the bootstrap waits after DOM ready before evaluating.
// Negative values are treated as zero.
func WithBootDelay(d time.Duration) PackagerOption {
	return func(o *packagerOptions) {
		o.bootDelay = max(d, 0)
	}
}

// WithRuntimeVersion sets the version written into the bundle header.
func WithRuntimeVersion(v string) PackagerOption {
	return func(o *packagerOptions) {
		if v != "" {
			o.version = v
		}
	}
}

// DuplicatePolicy decides what happens to a second raw block declaring an id that
// was already seen in the same document.
type DuplicatePolicy int

const (
	// DuplicateReplaceAll compiles every block, producing widgets with the same id.
	DuplicateReplaceAll DuplicatePolicy = iota
	// DuplicateKeepFirst compiles the first block only. Later blocks are left
	// untouched and reported with ErrDuplicateToolID.
	DuplicateKeepFirst
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReplaceAll:
		return "replace-all"
	case DuplicateKeepFirst:
		return "keep-first"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy maps "replace-all" and "keep-first" to a DuplicatePolicy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, bool) {
	switch s {
	case "", "replace-all":
		return DuplicateReplaceAll, true
	case "keep-first":
		return DuplicateKeepFirst, true
	default:
		return DuplicateReplaceAll, false
	}
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*rewriterOptions)

type rewriterOptions struct {
	logger     *slog.Logger
	packager   *Packager
	compiler   *Compiler
	runtime    string
	duplicates DuplicatePolicy
}

// WithLogger sets the logger used for per-block warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RewriterOption {
	return func(o *rewriterOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPackager sets the packager used for the runtime bundle.
func WithPackager(p *Packager) RewriterOption {
	return func(o *rewriterOptions) {
		if p != nil {
			o.packager = p
		}
	}
}

// WithCompiler sets the widget compiler, e.g. one with a larger cache.
func WithCompiler(c *Compiler) RewriterOption {
	return func(o *rewriterOptions) {
		if c != nil {
			o.compiler = c
		}
	}
}

// WithRuntimeSource replaces the embedded runtime script that gets packaged.
func WithRuntimeSource(src string) RewriterOption {
	return func(o *rewriterOptions) {
		o.runtime = src
	}
}

// WithDuplicatePolicy sets how repeated tool ids are handled.
func WithDuplicatePolicy(p DuplicatePolicy) RewriterOption {
	return func(o *rewriterOptions) {
		o.duplicates = p
	}
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*evaluatorOptions)

type evaluatorOptions struct {
	logger *slog.Logger
}

// WithEvaluatorLogger sets the logger that receives contained faults and missing formulas.
func WithEvaluatorLogger(logger *slog.Logger) EvaluatorOption {
	return func(o *evaluatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
