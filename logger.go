package convolve

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for convolve. By default nothing is
// logged. Pass nil to restore the silent default.
//
// The logger is passed on to every setter registered with
// RegisterLoggerSetter, which backend packages do from init. Devices that
// implement LoggerSetter also receive the current logger when a Pipeline
// is created on them.
//
// Log levels used:
//   - [slog.LevelDebug]: per-pass state (pass index, target parity, kernel)
//   - [slog.LevelInfo]: lifecycle events (pipeline created, adapter selected)
//   - [slog.LevelWarn]: frame diagnostics (device errors, missing kernels)
//
// Example:
//
//	convolve.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to registered backends.
	settersMu.RLock()
	ls := setters
	settersMu.RUnlock()
	for _, s := range ls {
		s.SetLogger(l)
	}
}

// Logger returns the current logger.
// Backends call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// LoggerSetter is implemented by devices that accept a logger.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}

// LoggerFunc adapts a function to LoggerSetter.
type LoggerFunc func(*slog.Logger)

// SetLogger calls f(l).
func (f LoggerFunc) SetLogger(l *slog.Logger) { f(l) }

var (
	settersMu sync.RWMutex
	setters   []LoggerSetter
)

// RegisterLoggerSetter adds ls to the setters SetLogger updates and hands
// it the current logger.
func RegisterLoggerSetter(ls LoggerSetter) {
	settersMu.Lock()
	setters = append(setters[:len(setters):len(setters)], ls)
	settersMu.Unlock()
	ls.SetLogger(Logger())
}

// propagateLogger passes l to dev if it implements LoggerSetter.
func propagateLogger(dev any, l *slog.Logger) {
	if ls, ok := dev.(LoggerSetter); ok {
		ls.SetLogger(l)
	}
}
