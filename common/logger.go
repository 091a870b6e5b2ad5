package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr stores the active logger. Accessed atomically so SetLogger can race with logging
// from the render loop and the loader's worker pool.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.Default())
}

// SetLogger configures the logger shared by every engine package.
// By default the engine logs through slog.Default(). Pass nil to silence all output.
//
// Log levels used by the engine:
//   - [slog.LevelDebug]: resource creation (labels, byte sizes), bind group rebuilds
//   - [slog.LevelInfo]: lifecycle events (adapter selected, surface configured, pipeline built)
//   - [slog.LevelWarn]: recoverable frame errors, dropped debug lines
//   - [slog.LevelError]: device errors reported outside a construction call
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
