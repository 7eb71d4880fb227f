package utils

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// NewLogger builds a pterm logger for the given level ("trace", "debug", "info",
// "warn", "error", "disabled") and format ("colorful" or "json"). A nil writer
// logs to stderr.
func NewLogger(level, format string, w io.Writer) *pterm.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := pterm.DefaultLogger.
		WithLevel(ParseLogLevel(level)).
		WithWriter(w).
		WithTime(true)

	if strings.EqualFold(format, "json") {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	} else {
		logger = logger.WithFormatter(pterm.LogFormatterColorful)
	}
	return logger
}

// ParseLogLevel maps a level name to a pterm level. Unknown names mean info.
func ParseLogLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "disabled", "off", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// OrDiscard returns logger, or a logger that drops everything when logger is nil.
func OrDiscard(logger *pterm.Logger) *pterm.Logger {
	if logger != nil {
		return logger
	}
	return pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(pterm.LogLevelDisabled)
}
