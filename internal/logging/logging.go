// Package logging holds the logger shared by every gpures package.
//
// The root package exposes it as gpures.SetLogger / gpures.Logger; sub-packages
// read it through L so they never import the root package.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NewNop creates a logger that discards all output.
func NewNop() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(NewNop())
}

// L returns the active logger. Safe for concurrent use.
func L() *slog.Logger {
	return loggerPtr.Load()
}

// Set stores l as the active logger. nil restores the silent default.
func Set(l *slog.Logger) {
	if l == nil {
		l = NewNop()
	}
	loggerPtr.Store(l)
}
