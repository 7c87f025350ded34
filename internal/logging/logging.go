// Package logging configures the dev-server's structured logging.
//
// Grounded on the retrieval pack's declared charmbracelet/log
// dependency (doismellburning-samoyed's go.mod); that project's
// filtered source doesn't exercise the library directly, so the
// concrete calling convention here follows charmbracelet/log's own
// documented API (logger.With for per-subsystem fields, SetLevel for
// verbosity) rather than a pack source file.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New builds the root logger at the given level ("debug", "info",
// "warn", or "error"; anything else falls back to info).
func New(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

// For returns a child logger tagged with a "component" field, used so
// every subsystem's log lines are attributable at a glance (e.g. the
// reload pipeline, the audio server, the WebSocket hub).
func For(root *log.Logger, component string) *log.Logger {
	return root.With("component", component)
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
