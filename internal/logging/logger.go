package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// FuncKey is the attribute naming the unit of work that emitted a record.
const FuncKey = "func"

// Config selects the logger's format, level and destination.
type Config struct {
	// Level is one of debug, info, warn or error. Unknown values mean info.
	Level string
	// Format is text, json or auto. Auto picks text on a terminal.
	Format string
	// Output is stderr (default) or stdout.
	Output string
}

// New constructs a logger for cfg. A non-nil w overrides cfg.Output.
func New(cfg Config, w io.Writer) *slog.Logger {
	if w == nil {
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			w = os.Stdout
		default:
			w = os.Stderr
		}
	}

	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	switch resolveFormat(cfg.Format, w) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = NewTextHandler(w, level)
	}
	return slog.New(handler)
}

// For returns a logger whose records are attributed to the named unit.
func For(logger *slog.Logger, unit string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With(FuncKey, unit)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return "json"
	case "text", "":
		return "text"
	case "auto":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "text"
		}
		return "json"
	default:
		return "text"
	}
}
