package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CALCDOC_"

// Load builds the configuration in order: defaults, the TOML file, .env files,
// then CALCDOC_* variables. An empty path falls back to DefaultFileName when it
// exists; envFiles default to ".env". Missing .env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	defer f.Close()
	if err := c.Decode(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFailedToLoadConfig, path, err)
	}
	return nil
}

// Decode reads TOML from r over the current values. Unknown keys are errors.
func (c *Config) Decode(r io.Reader) error {
	return toml.NewDecoder(r).DisallowUnknownFields().Decode(c)
}

// LoadDotEnv exports the variables of each existing file that are not already set.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from CALCDOC_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":       &c.Logging.Level,
		"LOG_FORMAT":      &c.Logging.Format,
		"TOOLS":           &c.Build.Tools,
		"FORMULAS":        &c.Build.Formulas,
		"CODEC":           &c.Build.Codec,
		"RUNTIME_VERSION": &c.Build.RuntimeVersion,
		"DUPLICATES":      &c.Build.Duplicates,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "BOOT_DELAY"); ok {
		if err := c.Build.BootDelay.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sBOOT_DELAY: %w", EnvPrefix, err)
		}
	}
	if v, ok := lookup(EnvPrefix + "COMPILER_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCOMPILER_CACHE_SIZE: %w", EnvPrefix, err)
		}
		c.Build.CompilerCacheSize = n
	}
	return nil
}
