package convolve

import (
	"context"
	"log/slog"
)

// Diagnostic describes a per-frame failure. Frames continue after a
// diagnostic is reported.
type Diagnostic struct {
	// Frame is the 1-based frame counter of the pipeline.
	Frame uint64

	// Pass is the offscreen pass index, or -1 for the terminal pass.
	Pass int

	// Kernel is the catalog slot being applied, or -1.
	Kernel int

	// Op names the step that failed.
	Op string

	// Err is a *DeviceError, *LookupError or wraps ErrFramebufferIncomplete.
	Err error
}

// DiagnosticSink receives per-frame diagnostics.
type DiagnosticSink interface {
	Report(Diagnostic)
}

// DiagnosticFunc adapts a function to DiagnosticSink.
type DiagnosticFunc func(Diagnostic)

// Report calls f(d).
func (f DiagnosticFunc) Report(d Diagnostic) { f(d) }

// LogSink reports diagnostics as warnings on l. A nil logger uses the
// package Logger at report time.
func LogSink(l *slog.Logger) DiagnosticSink {
	return logSink{l: l}
}

type logSink struct {
	l *slog.Logger
}

func (s logSink) Report(d Diagnostic) {
	l := s.l
	if l == nil {
		l = Logger()
	}
	if !l.Enabled(context.Background(), slog.LevelWarn) {
		return
	}
	l.Warn("convolve: frame diagnostic",
		"frame", d.Frame,
		"pass", d.Pass,
		"kernel", d.Kernel,
		"op", d.Op,
		"err", d.Err)
}

// DiagnosticRecorder collects diagnostics in memory.
type DiagnosticRecorder struct {
	Diagnostics []Diagnostic
}

// Report appends d.
func (r *DiagnosticRecorder) Report(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Reset drops all recorded diagnostics.
func (r *DiagnosticRecorder) Reset() {
	r.Diagnostics = r.Diagnostics[:0]
}
