// Package toolset reads the curated tool schema source that decides which raw
// blocks the CLI converts.
package toolset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/skosovsky/calcdoc"
)

// ErrInvalidToolset is returned when the source is not a JSON array of tool records.
var ErrInvalidToolset = errors.New("invalid toolset")

// Load decodes a JSON array of tool schemas keyed by resolved id. Each record goes
// through calcdoc.ParseToolSchema; all bad records are reported together. A later
// record with an id already seen replaces the earlier one and is logged.
func Load(r io.Reader, logger *slog.Logger) (map[string]calcdoc.ToolSchema, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToolset, err)
	}

	tools := make(map[string]calcdoc.ToolSchema, len(records))
	var errz []error
	for i, raw := range records {
		schema, err := calcdoc.ParseToolSchema(raw)
		if err != nil {
			errz = append(errz, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if _, dup := tools[schema.ID]; dup {
			logger.Warn("duplicate tool id, later record wins", "tool", schema.ID, "record", i)
		}
		tools[schema.ID] = schema
	}
	if len(errz) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToolset, errors.Join(errz...))
	}
	logger.Debug("toolset loaded", "tools", len(tools))
	return tools, nil
}

// LoadFile is Load over the file at path.
func LoadFile(path string, logger *slog.Logger) (map[string]calcdoc.ToolSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tools, err := Load(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tools, nil
}

// FromRegistry accepts every id that has a formula. It is the default source
// when no toolset file is configured.
func FromRegistry(reg *calcdoc.FormulaRegistry) map[string]calcdoc.ToolSchema {
	ids := reg.IDs()
	tools := make(map[string]calcdoc.ToolSchema, len(ids))
	for _, id := range ids {
		tools[id] = calcdoc.ToolSchema{ID: id}
	}
	return tools
}
