package convolve

import "fmt"

// maxErrorDrain bounds how many queued error codes are read after one call.
const maxErrorDrain = 8

// uniforms holds the locations resolved once from the program.
type uniforms struct {
	kernel UniformLocation
	weight UniformLocation
	flip   UniformLocation
}

func resolveUniforms(prog Program) (uniforms, error) {
	var u uniforms
	for _, r := range []struct {
		name string
		dst  *UniformLocation
	}{
		{UniformKernel, &u.kernel},
		{UniformKernelWeight, &u.weight},
		{UniformFlip, &u.flip},
	} {
		loc, ok := prog.UniformLocation(r.name)
		if !ok {
			return uniforms{}, fmt.Errorf("%w: %s", ErrUniformNotFound, r.name)
		}
		*r.dst = loc
	}
	return u, nil
}

// frameReporter queries the device after state changes and forwards
// failures to the sink. It is shared by the pipeline and compositor.
type frameReporter struct {
	dev   Device
	sink  DiagnosticSink
	frame uint64
	count int
}

// check drains pending device errors and reports each one.
// It returns false if any error was found.
func (r *frameReporter) check(pass, kernel int, op string) bool {
	ok := true
	for i := 0; i < maxErrorDrain; i++ {
		code := r.dev.Error()
		if code == NoError {
			break
		}
		ok = false
		r.report(pass, kernel, op, &DeviceError{Op: op, Code: code})
		if code == ContextLost {
			break
		}
	}
	return ok
}

func (r *frameReporter) report(pass, kernel int, op string, err error) {
	r.count++
	r.sink.Report(Diagnostic{
		Frame:  r.frame,
		Pass:   pass,
		Kernel: kernel,
		Op:     op,
		Err:    err,
	})
}

// setKernel writes the kernel weights and normalization weight uniforms.
func setKernel(dev Device, u uniforms, k *Kernel) {
	dev.Uniform1fv(u.kernel, k.Weights[:])
	dev.Uniform1f(u.weight, k.NormalizationWeight)
}

// Compositor presents a texture to the display surface with the identity
// kernel. It is the terminal step of every Pipeline.Draw.
type Compositor struct {
	dev      Device
	u        uniforms
	identity Kernel
	opts     options
	reporter *frameReporter

	// standalone is set by NewCompositor; Present then counts frames.
	standalone bool
}

// NewCompositor creates a standalone compositor. Pipelines create their
// own; use this to present a texture without any offscreen passes.
func NewCompositor(dev Device, prog Program, opts ...Option) (*Compositor, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if prog == nil {
		return nil, ErrNilProgram
	}
	u, err := resolveUniforms(prog)
	if err != nil {
		return nil, err
	}
	o := buildOptions(dev, opts)
	c := newCompositor(dev, u, o, &frameReporter{dev: dev, sink: o.sink})
	c.standalone = true
	return c, nil
}

func newCompositor(dev Device, u uniforms, o options, r *frameReporter) *Compositor {
	return &Compositor{
		dev:      dev,
		u:        u,
		identity: IdentityKernel(),
		opts:     o,
		reporter: r,
	}
}

// Present binds the display framebuffer, samples src through the identity
// kernel with the onscreen flip sign and draws vertexCount vertices.
// Device errors are reported to the diagnostic sink. A standalone
// compositor starts a new frame on every call.
func (c *Compositor) Present(src Texture, vertexCount int) {
	const pass, kernel = -1, -1
	r := c.reporter
	if c.standalone {
		r.frame++
		r.count = 0
	}

	c.dev.BindFramebuffer(nil)
	r.check(pass, kernel, "bind display framebuffer")

	c.dev.BindTexture(src)
	r.check(pass, kernel, "bind texture")

	c.dev.Uniform1f(c.u.flip, c.opts.onscreenFlip)
	setKernel(c.dev, c.u, &c.identity)
	r.check(pass, kernel, "set uniforms")

	c.dev.DrawArrays(c.opts.primitive, 0, vertexCount)
	r.check(pass, kernel, "draw")

	c.opts.log().Debug("convolve: present", "frame", r.frame, "vertices", vertexCount)
}
