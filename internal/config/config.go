// Package config loads the calcdoc CLI settings from calcdoc.toml, .env files and
// CALCDOC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/skosovsky/calcdoc"
	"github.com/skosovsky/calcdoc/internal/logging"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "calcdoc.toml"

// Config is the complete CLI configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Build   BuildConfig   `toml:"build"`
}

// LoggingConfig contains logging-related configuration options
type LoggingConfig struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// BuildConfig controls how documents are rewritten.
type BuildConfig struct {
	// Tools is the JSON file holding the tool schema array.
	Tools string `toml:"tools"`
	// Formulas optionally replaces the embedded JavaScript formula table.
	Formulas          string   `toml:"formulas"`
	Codec             string   `toml:"codec"`
	BootDelay         Duration `toml:"boot_delay"`
	RuntimeVersion    string   `toml:"runtime_version"`
	Duplicates        string   `toml:"duplicates"`
	CompilerCacheSize int      `toml:"compiler_cache_size"`
}

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "warning", "error"}
	logFormats = []string{logging.FormatText, logging.FormatJSON}
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Format: logging.FormatText,
			Level:  "info",
		},
		Build: BuildConfig{
			Codec:             calcdoc.HexCodec{}.Name(),
			BootDelay:         Duration(500 * time.Millisecond),
			RuntimeVersion:    calcdoc.RuntimeVersion,
			Duplicates:        calcdoc.DuplicateReplaceAll.String(),
			CompilerCacheSize: calcdoc.DefaultCompilerCacheSize,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errz []error

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		errz = append(errz, fmt.Errorf("logging.level %q: want one of %s", c.Logging.Level, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		errz = append(errz, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}
	if _, err := calcdoc.CodecByName(c.Build.Codec); err != nil {
		errz = append(errz, fmt.Errorf("build.codec: %w", err))
	}
	if c.Build.BootDelay < 0 {
		errz = append(errz, fmt.Errorf("build.boot_delay %s: must not be negative", c.Build.BootDelay))
	}
	if _, ok := calcdoc.ParseDuplicatePolicy(c.Build.Duplicates); !ok {
		errz = append(errz, fmt.Errorf("build.duplicates %q: want replace-all or keep-first", c.Build.Duplicates))
	}
	if c.Build.CompilerCacheSize < 0 {
		errz = append(errz, fmt.Errorf("build.compiler_cache_size %d: must not be negative", c.Build.CompilerCacheSize))
	}

	if len(errz) > 0 {
		return fmt.Errorf("%w: %w", ErrFailedToValidateConfig, errors.Join(errz...))
	}
	return nil
}

// PackagerOptions translates the build settings into packager options.
func (c *Config) PackagerOptions() ([]calcdoc.PackagerOption, error) {
	codec, err := calcdoc.CodecByName(c.Build.Codec)
	if err != nil {
		return nil, err
	}
	return []calcdoc.PackagerOption{
		calcdoc.WithCodec(codec),
		calcdoc.WithBootDelay(c.Build.BootDelay.AsDuration()),
		calcdoc.WithRuntimeVersion(c.Build.RuntimeVersion),
	}, nil
}

// DuplicatePolicy returns the parsed build.duplicates setting.
func (c *Config) DuplicatePolicy() (calcdoc.DuplicatePolicy, error) {
	p, ok := calcdoc.ParseDuplicatePolicy(c.Build.Duplicates)
	if !ok {
		return 0, fmt.Errorf("unknown duplicate policy %q", c.Build.Duplicates)
	}
	return p, nil
}
