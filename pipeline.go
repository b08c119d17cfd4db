package convolve

import (
	"context"
	"fmt"
	"log/slog"
)

// FrameStats summarizes the most recent Draw.
type FrameStats struct {
	// Frame is the 1-based frame counter.
	Frame uint64

	// Selection is the mask passed to Draw.
	Selection Selection

	// Passes is the number of offscreen passes that drew.
	Passes int

	// Aborted counts selected kernels whose pass was skipped.
	Aborted int

	// Targets lists the ping-pong slot written by each pass, in order.
	Targets []int

	// Diagnostics counts reports sent to the sink during the frame.
	Diagnostics int
}

// Pipeline applies selected kernels to a source image through two
// ping-pong render targets and presents the result.
//
// The source image is uploaded once at construction. Each Draw call runs
// the enabled kernels in ascending catalog order, each pass sampling the
// output of the previous one, then draws the final texture to the display
// framebuffer with the identity kernel.
//
// Pipeline is not safe for concurrent use. Call Draw from the goroutine
// that owns the device.
type Pipeline struct {
	dev      Device
	u        uniforms
	catalog  *Catalog
	original Texture
	targets  *PingPong
	comp     *Compositor
	reporter *frameReporter
	opts     options
	width    int
	height   int
	last     FrameStats
	closed   bool
}

// New builds a pipeline on dev. It resolves the uniform locations of prog,
// uploads src and allocates both render targets at the source size.
//
// catalog is copied; later changes to it do not affect the pipeline.
//
// Any failure is fatal: resources allocated so far are released and no
// pipeline is returned. Render target failures are *ConstructionError.
func New(dev Device, prog Program, src SourceImage, catalog *Catalog, opts ...Option) (*Pipeline, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if prog == nil {
		return nil, ErrNilProgram
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if catalog == nil {
		return nil, ErrNilCatalog
	}

	w, h := src.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: source %dx%d", ErrInvalidDimensions, w, h)
	}
	if pix := src.Pixels(); len(pix) < w*h*4 {
		return nil, fmt.Errorf("%w: source has %d bytes, want %d", ErrInvalidDimensions, len(pix), w*h*4)
	}

	u, err := resolveUniforms(prog)
	if err != nil {
		return nil, err
	}

	o := buildOptions(dev, opts)
	propagateLogger(dev, o.log())

	original, err := dev.CreateTexture(w, h, src.Pixels())
	if err != nil {
		return nil, fmt.Errorf("convolve: upload source: %w", err)
	}

	targets, err := NewPingPong(dev, w, h)
	if err != nil {
		dev.DeleteTexture(original)
		return nil, err
	}

	r := &frameReporter{dev: dev, sink: o.sink}
	p := &Pipeline{
		dev:      dev,
		u:        u,
		catalog:  catalog.Clone(),
		original: original,
		targets:  targets,
		comp:     newCompositor(dev, u, o, r),
		reporter: r,
		opts:     o,
		width:    w,
		height:   h,
	}

	o.log().Info("convolve: pipeline created",
		"width", w,
		"height", h,
		"kernels", p.catalog.Len(),
		"offscreenFlip", o.offscreenFlip,
		"onscreenFlip", o.onscreenFlip)

	return p, nil
}

// Draw renders one frame. Bit i of mask enables catalog slot i; bits at
// or beyond the catalog length are ignored. vertexCount is forwarded to
// every draw call.
//
// Draw never fails as a whole. Device errors, missing kernels and
// incomplete framebuffers are reported to the diagnostic sink, the
// affected pass is skipped where needed, and the frame continues to the
// compositor.
func (p *Pipeline) Draw(mask Selection, vertexCount int) {
	r := p.reporter
	r.frame++
	r.count = 0

	stats := FrameStats{Frame: r.frame, Selection: mask}
	if p.closed {
		r.report(-1, -1, "draw", ErrClosed)
		stats.Diagnostics = r.count
		p.last = stats
		return
	}

	log := p.opts.log()
	debug := log.Enabled(context.Background(), slog.LevelDebug)

	current := p.original
	passIndex := 0
	n := p.catalog.Len()
	for i := 0; i < n; i++ {
		if !mask.Has(i) {
			continue
		}

		k, err := p.catalog.Get(i)
		if err != nil {
			r.report(passIndex, i, "lookup kernel", err)
			stats.Aborted++
			continue
		}

		target := p.targets.Target(passIndex)
		target.Bind()
		r.check(passIndex, i, "bind framebuffer")

		if status := target.Status(); status != FramebufferComplete {
			r.report(passIndex, i, "check framebuffer",
				fmt.Errorf("%w: target %d: %s", ErrFramebufferIncomplete, Slot(passIndex), status))
			stats.Aborted++
			continue
		}

		p.dev.BindTexture(current)
		r.check(passIndex, i, "bind texture")

		p.dev.Uniform1f(p.u.flip, p.opts.offscreenFlip)
		setKernel(p.dev, p.u, &k)
		r.check(passIndex, i, "set uniforms")

		p.dev.DrawArrays(p.opts.primitive, 0, vertexCount)
		r.check(passIndex, i, "draw")

		if debug {
			log.Debug("convolve: pass",
				"frame", r.frame,
				"pass", passIndex,
				"target", Slot(passIndex),
				"kernel", k.Name)
		}

		current = target.Texture()
		stats.Targets = append(stats.Targets, Slot(passIndex))
		passIndex++
	}
	stats.Passes = passIndex

	p.comp.Present(current, vertexCount)

	stats.Diagnostics = r.count
	p.last = stats
}

// LastFrame returns statistics for the most recent Draw.
func (p *Pipeline) LastFrame() FrameStats {
	s := p.last
	s.Targets = append([]int(nil), p.last.Targets...)
	return s
}

// Catalog returns a copy of the pipeline's kernel snapshot.
func (p *Pipeline) Catalog() *Catalog {
	return p.catalog.Clone()
}

// Size returns the source and render target dimensions.
func (p *Pipeline) Size() (width, height int) {
	return p.width, p.height
}

// Targets returns the ping-pong pair.
func (p *Pipeline) Targets() *PingPong {
	return p.targets
}

// Close releases the source texture and both render targets. Draw after
// Close reports ErrClosed. Safe to call twice.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.targets.Destroy()
	p.dev.DeleteTexture(p.original)
	p.original = nil
	p.opts.log().Info("convolve: pipeline closed", "frames", p.reporter.frame)
}
