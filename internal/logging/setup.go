// Package logging builds the slog handlers used by the calcdoc CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Log output formats accepted by NewHandler.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// SetupHandlerText configures a charmbracelet text handler with the provided writer and log level
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	reportTimestamp := false
	lvl := log.InfoLevel
	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		reportTimestamp = true
		lvl = log.DebugLevel
	case "debug":
		reportTimestamp = true
		lvl = log.DebugLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
		Prefix:          "calcdoc",
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	addSource := false
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "trace":
		addSource = true
		level = slog.LevelDebug
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
	})
}

// NewHandler picks the handler for format; anything but "json" is text.
func NewHandler(format, logLevel string, writer io.Writer) slog.Handler {
	if strings.EqualFold(format, FormatJSON) {
		return SetupHandlerJSON(logLevel, writer)
	}
	return SetupHandlerText(logLevel, writer)
}

// SetupLogger installs the default logger and returns it.
func SetupLogger(format, logLevel string) *slog.Logger {
	logger := slog.New(NewHandler(format, logLevel, nil))
	slog.SetDefault(logger)
	return logger
}
