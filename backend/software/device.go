// Package software provides a CPU reference implementation of convolve.Device.
//
// The device emulates a GL-style context: textures are RGBA8 images with
// clamp-to-edge sampling, framebuffers attach one texture, and failures
// are queued as error codes for Error to drain. It renders the same
// frames as the native backend and backs the pipeline tests.
//
// The display surface follows the GL convention of storing its bottom row
// first; ReadDisplay returns it top row first.
package software

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/convolve"
	"github.com/gogpu/convolve/backend"
	"github.com/gogpu/convolve/internal/glstate"
)

func init() {
	backend.Register(backend.Software, func(cfg backend.Config) (backend.Device, error) {
		return New(Config{Width: cfg.Width, Height: cfg.Height})
	})
}

// Config describes the display surface.
type Config struct {
	Width  int
	Height int
}

// Device is a CPU convolve.Device. Texture payloads are RGBA8 images whose
// row 0 is the first uploaded row. It is not safe for concurrent use.
type Device struct {
	glstate.State[*image.RGBA]

	width   int
	height  int
	display *image.RGBA
	draws   int
}

// New creates a device with a cleared width x height display.
func New(cfg Config) (*Device, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cfg.Width, cfg.Height)
	}
	d := &Device{
		width:   cfg.Width,
		height:  cfg.Height,
		display: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
	}
	slogger().Info("software: device created", "width", cfg.Width, "height", cfg.Height)
	return d, nil
}

// Name returns "software".
func (d *Device) Name() string { return backend.Software }

// SetLogger sets the package logger. It is called by convolve.New.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Program returns the built-in convolution program.
func (d *Device) Program() convolve.Program { return glstate.Program{} }

// CreateTexture allocates an RGBA8 texture. pixels may be nil.
func (d *Device) CreateTexture(width, height int, pixels []byte) (convolve.Texture, error) {
	switch {
	case d.Closed():
		return nil, ErrClosed
	case d.Lost():
		return nil, ErrContextLost
	case width <= 0 || height <= 0:
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	case pixels != nil && len(pixels) != width*height*4:
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPixelSize, len(pixels), width*height*4)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)
	return d.NewTexture(width, height, img), nil
}

// DeleteTexture releases t. Framebuffers it was attached to become
// incomplete. Deleting nil is a no-op.
func (d *Device) DeleteTexture(t convolve.Texture) {
	d.ReleaseTexture(t)
}

// CreateFramebuffer attaches color to a new framebuffer.
func (d *Device) CreateFramebuffer(color convolve.Texture) (convolve.Framebuffer, error) {
	switch {
	case d.Closed():
		return nil, ErrClosed
	case d.Lost():
		return nil, ErrContextLost
	}
	fb, ok := d.AttachFramebuffer(color)
	if !ok {
		return nil, fmt.Errorf("create framebuffer: %w", ErrForeignHandle)
	}
	return fb, nil
}

// DrawArrays renders the bound texture through the current kernel into
// the bound framebuffer. Any draw of at least one primitive covers the
// whole destination.
func (d *Device) DrawArrays(mode convolve.Primitive, first, count int) {
	modeOK := mode == convolve.Triangles || mode == convolve.TriangleStrip
	fb, src, ok := d.PrepareDraw(modeOK, first, count)
	if !ok {
		return
	}
	dst := d.display
	if fb != nil {
		dst = fb.Color().Payload
	}
	var k kernelState
	k.weights, k.weight, k.flip = d.Kernel()
	render(dst, src.Payload, k)
	d.draws++
}

// LoseContext simulates a lost context. CONTEXT_LOST is reported once;
// afterwards calls are ignored and framebuffers report unsupported until
// RestoreContext.
func (d *Device) LoseContext() {
	if d.Lose() {
		slogger().Warn("software: context lost")
	}
}

// RestoreContext ends a simulated context loss. Resources created before
// the loss remain valid.
func (d *Device) RestoreContext() { d.Restore() }

// ReadDisplay copies the display surface, top row first.
func (d *Device) ReadDisplay() (*image.RGBA, error) {
	if d.Closed() {
		return nil, ErrClosed
	}
	out := image.NewRGBA(d.display.Bounds())
	copyRows(out, d.display, true)
	return out, nil
}

// ReadTexture copies t in upload order.
func (d *Device) ReadTexture(t convolve.Texture) (*image.RGBA, error) {
	st, ok := d.OwnTexture(t)
	if !ok {
		return nil, ErrForeignHandle
	}
	out := image.NewRGBA(st.Payload.Bounds())
	copy(out.Pix, st.Payload.Pix)
	return out, nil
}

// Stats reports live resource counts and the number of completed draws.
func (d *Device) Stats() (textures, framebuffers, draws int) {
	textures, framebuffers = d.Live()
	return textures, framebuffers, d.draws
}

// Close releases the display. Later calls are ignored or fail with ErrClosed.
func (d *Device) Close() {
	if !d.Shutdown() {
		return
	}
	slogger().Info("software: device closed", "draws", d.draws)
}
