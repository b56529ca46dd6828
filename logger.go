package gpures

import (
	"log/slog"

	"github.com/gogpu/gpures/internal/logging"
)

// SetLogger configures the logger for gpures and all its sub-packages.
// By default, gpures produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by gpures:
//   - [slog.LevelDebug]: buffer sizes, staged copies, submissions, barrier batches
//   - [slog.LevelInfo]: context lifecycle (adapter selected, context closed)
//   - [slog.LevelWarn]: invalid handles, failed allocations, dead CPU buffers
//
// Example:
//
//	gpures.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by gpures.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.L()
}
