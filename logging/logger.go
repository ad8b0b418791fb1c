// ABOUTME: Structured logger construction shared by every command
// ABOUTME: Builds a charmbracelet/log logger from a textual level and format
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config captures the settings needed to build a logger.
type Config struct {
	// Level is the textual log level (debug, info, warn, error).
	Level string
	// Format is the output encoding (text, json, or logfmt).
	Format string
	// Prefix is printed before every text line.
	Prefix string
}

// ParseLevel converts textual levels into log levels, defaulting to info.
func ParseLevel(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "dbg", "trace":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error", "err":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter converts a textual format name, defaulting to text.
func ParseFormatter(raw string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New builds a logger for w using cfg. A nil writer logs to stderr.
func New(w io.Writer, cfg Config) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(cfg.Level),
		Formatter:       ParseFormatter(cfg.Format),
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
}

// Discard returns a logger that drops everything. Tests and library callers
// that pass no logger get this one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
