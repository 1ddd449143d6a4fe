package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/skosovsky/calcdoc"
	"github.com/skosovsky/calcdoc/internal/config"
	"github.com/skosovsky/calcdoc/internal/logging"
	"github.com/skosovsky/calcdoc/internal/toolset"
)

// stdio is the "-" path for standard input or output.
const stdio = "-"

// env is everything a command needs, resolved from config, environment and flags.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *calcdoc.FormulaRegistry
	runtime  string
}

func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	overrides := map[string]*string{
		"log-level":  &cfg.Logging.Level,
		"log-format": &cfg.Logging.Format,
		"tools":      &cfg.Build.Tools,
		"formulas":   &cfg.Build.Formulas,
		"codec":      &cfg.Build.Codec,
		"duplicates": &cfg.Build.Duplicates,
	}
	for flag, dst := range overrides {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(logging.NewHandler(cfg.Logging.Format, cfg.Logging.Level, cmd.Root().ErrWriter))
	e := &env{cfg: cfg, logger: logger, runtime: calcdoc.RuntimeSource()}

	regOpts := []calcdoc.RegistryOption{
		calcdoc.WithMiddleware(calcdoc.WithLogging(logger.With("component", "formulas"))),
	}
	if cfg.Build.Formulas == "" {
		e.registry, err = calcdoc.NewBuiltinRegistry(regOpts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	src, err := os.ReadFile(cfg.Build.Formulas)
	if err != nil {
		return nil, fmt.Errorf("read formulas: %w", err)
	}
	formulas, err := calcdoc.LoadScriptFormulas(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Build.Formulas, err)
	}
	e.registry, err = calcdoc.NewFormulaRegistry(formulas, regOpts...)
	if err != nil {
		return nil, err
	}
	e.runtime = calcdoc.RuntimeSourceWith(string(src))
	return e, nil
}

func (e *env) tools() (map[string]calcdoc.ToolSchema, error) {
	if e.cfg.Build.Tools == "" {
		return toolset.FromRegistry(e.registry), nil
	}
	return toolset.LoadFile(e.cfg.Build.Tools, e.logger.With("component", "toolset"))
}

func (e *env) rewriter() (*calcdoc.Rewriter, error) {
	pkgOpts, err := e.cfg.PackagerOptions()
	if err != nil {
		return nil, err
	}
	policy, err := e.cfg.DuplicatePolicy()
	if err != nil {
		return nil, err
	}
	compiler, err := calcdoc.NewCompiler(e.cfg.Build.CompilerCacheSize)
	if err != nil {
		return nil, err
	}
	return calcdoc.NewRewriter(
		calcdoc.WithLogger(e.logger.With("component", "rewriter")),
		calcdoc.WithPackager(calcdoc.NewPackager(pkgOpts...)),
		calcdoc.WithCompiler(compiler),
		calcdoc.WithRuntimeSource(e.runtime),
		calcdoc.WithDuplicatePolicy(policy),
	)
}

func readDocument(cmd *cli.Command, path string) (string, error) {
	if path == stdio {
		b, err := io.ReadAll(cmd.Root().Reader)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func writeDocument(cmd *cli.Command, path, content string) error {
	if path == stdio {
		_, err := io.WriteString(cmd.Root().Writer, content)
		return err
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}
