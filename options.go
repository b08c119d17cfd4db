package convolve

import "log/slog"

// Option configures a Pipeline or Compositor during creation.
//
// Example:
//
//	rec := &convolve.DiagnosticRecorder{}
//	p, err := convolve.New(dev, prog, src, convolve.DefaultCatalog(),
//	    convolve.WithDiagnosticSink(rec))
type Option func(*options)

type options struct {
	sink          DiagnosticSink
	primitive     Primitive
	flipSet       bool
	offscreenFlip float32
	onscreenFlip  float32
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		sink:      LogSink(nil),
		primitive: Triangles,
	}
}

func buildOptions(dev Device, opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.flipSet {
		o.offscreenFlip, o.onscreenFlip = flipSigns(dev)
	}
	if o.sink == nil {
		o.sink = LogSink(nil)
	}
	return o
}

// WithDiagnosticSink routes per-frame diagnostics to s instead of the
// package logger.
func WithDiagnosticSink(s DiagnosticSink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithPrimitive sets the topology used for every draw call.
// The default is Triangles.
func WithPrimitive(p Primitive) Option {
	return func(o *options) {
		o.primitive = p
	}
}

// WithFlipSigns overrides the vertical flip signs written to the flip
// uniform for offscreen and onscreen passes. Without this option the
// device's FlipConvention is used, falling back to (+1, -1).
func WithFlipSigns(offscreen, onscreen float32) Option {
	return func(o *options) {
		o.flipSet = true
		o.offscreenFlip = offscreen
		o.onscreenFlip = onscreen
	}
}

// WithLogger sets the logger used for pass-level debug output. It is also
// handed to the device when the device implements LoggerSetter.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}
