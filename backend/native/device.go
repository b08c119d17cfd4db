// Package native implements convolve.Device on the WebGPU HAL.
//
// The device presents the GL-style state machine the pipeline expects on
// top of gogpu/wgpu/hal: bound framebuffer and texture are tracked on the
// CPU, uniform writes land in a shadow array, and every DrawArrays encodes
// one render pass that runs the embedded WGSL convolution shader. Errors
// raised while encoding or submitting are queued as convolve error codes.
//
// Framebuffer row 0 is the top row on every HAL backend, so the device
// reports flip signs (1, 1) through convolve.FlipConvention and the
// display reads back upright.
//
// A device can own its GPU (Open), borrow a host device (New), or borrow
// one from a gpucontext.DeviceProvider (NewFromProvider). Only owned
// devices are destroyed by Close.
package native

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/convolve"
	"github.com/gogpu/convolve/backend"
	"github.com/gogpu/convolve/internal/glstate"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan HAL registration for Open.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

const (
	defaultTimeout = 5 * time.Second

	// textureFormat is the format of every texture the device creates.
	textureFormat = gputypes.TextureFormatRGBA8Unorm
)

func init() {
	backend.Register(backend.Native, func(cfg backend.Config) (backend.Device, error) {
		return Open(Config{Width: cfg.Width, Height: cfg.Height, Label: cfg.Label})
	})
}

// Config describes the display surface and device options.
type Config struct {
	// Width and Height size the display surface.
	Width  int
	Height int

	// Format is the display format. Zero selects RGBA8Unorm, or the
	// provider's surface format in NewFromProvider.
	Format gputypes.TextureFormat

	// Label prefixes GPU object labels.
	Label string

	// Timeout bounds each fence wait. Zero means five seconds.
	Timeout time.Duration

	// PrecompileSPIRV compiles the shader with naga instead of handing
	// WGSL to the HAL.
	PrecompileSPIRV bool
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	return nil
}

// Device is a convolve.Device backed by a HAL device and queue. Texture
// handles carry a *texture payload. It is not safe for concurrent use.
type Device struct {
	glstate.State[*texture]

	cfg      Config
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	owned    bool

	res *programResources

	// display is the owned headless surface. surface, when set, replaces
	// it with an external view that cannot be read back.
	display       *texture
	surface       hal.TextureView
	surfaceWidth  int
	surfaceHeight int
	surfaceFormat gputypes.TextureFormat

	draws int
}

// Open creates a device on the first discrete or integrated Vulkan
// adapter, falling back to the first adapter found.
func Open(cfg Config) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, cfg)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	slogger().Info("native: adapter selected", "name", selected.Info.Name)
	return d, nil
}

// New creates a device on a borrowed HAL device and queue. Close releases
// the device's own resources but not device or queue.
func New(device hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("native: nil HAL device or queue")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newDevice(device, queue, cfg)
}

// NewFromProvider borrows the device of a host application. The provider
// must also expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. When cfg.Format is unset the provider's surface format is
// used for the display.
func NewFromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalProvider)
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = provider.SurfaceFormat()
	}
	return New(device, queue, cfg)
}

func newDevice(device hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = textureFormat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	d := &Device{cfg: cfg, device: device, queue: queue}

	res, err := newProgramResources(device, cfg.PrecompileSPIRV)
	if err != nil {
		return nil, err
	}
	d.res = res

	display, err := d.newTexture("display", cfg.Width, cfg.Height, cfg.Format)
	if err != nil {
		res.destroy()
		return nil, fmt.Errorf("create display: %w", err)
	}
	d.display = display

	slogger().Info("native: device created", "width", cfg.Width, "height", cfg.Height, "format", cfg.Format)
	return d, nil
}

// Name returns "native".
func (d *Device) Name() string { return backend.Native }

// SetLogger sets the package logger. It is called by convolve.New.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Program returns the built-in convolution program.
func (d *Device) Program() convolve.Program { return glstate.Program{} }

// FlipSigns reports that both offscreen and display rows are stored top
// row first.
func (d *Device) FlipSigns() (offscreen, onscreen float32) { return 1, 1 }

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.device }

// SetSurfaceTarget renders the display pass into view instead of the
// owned display texture. A nil view restores the owned display.
func (d *Device) SetSurfaceTarget(view hal.TextureView, width, height int, format gputypes.TextureFormat) {
	d.surface = view
	d.surfaceWidth = width
	d.surfaceHeight = height
	d.surfaceFormat = format
}

func (d *Device) label(s string) string {
	if d.cfg.Label == "" {
		return "convolve_" + s
	}
	return d.cfg.Label + "_" + s
}

// CreateTexture allocates an RGBA8 texture and uploads pixels if given.
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
	t, err := d.newTexture("texture", width, height, textureFormat)
	if err != nil {
		return nil, err
	}
	if pixels != nil {
		d.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
			pixels,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(width * 4), RowsPerImage: uint32(height)}, //nolint:gosec // positive, checked above
			&hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},             //nolint:gosec // positive, checked above
		)
		t.usage = gputypes.TextureUsageCopyDst
	}
	return d.NewTexture(width, height, t), nil
}

// DeleteTexture releases t. Framebuffers it was attached to become
// incomplete. Deleting nil is a no-op.
func (d *Device) DeleteTexture(t convolve.Texture) {
	if nt, ok := d.ReleaseTexture(t); ok {
		nt.Payload.destroy()
	}
}

// CreateFramebuffer attaches color to a new framebuffer. The display is
// not a texture handle and cannot be attached.
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

// DrawArrays encodes and submits one convolution pass into the bound
// framebuffer. The quad is generated in the vertex shader, so any draw of
// at least one primitive covers the whole destination.
func (d *Device) DrawArrays(mode convolve.Primitive, first, count int) {
	topo, modeOK := topology(mode)
	fb, src, ok := d.PrepareDraw(modeOK, first, count)
	if !ok {
		return
	}
	dst, ok := d.drawTarget(fb)
	if !ok {
		d.Push(convolve.InvalidFramebufferOperation)
		return
	}

	p := params{
		strip: mode == convolve.TriangleStrip,
		dstW:  dst.width,
		dstH:  dst.height,
		srcW:  src.Payload.width,
		srcH:  src.Payload.height,
	}
	p.weights, p.weight, p.flip = d.Kernel()

	if err := d.encodePass(dst, src.Payload, topo, &p); err != nil {
		d.fail(err)
		return
	}
	d.draws++
}

// LoseContext marks the device lost as a failed submission would.
// CONTEXT_LOST is reported once; afterwards calls are ignored.
func (d *Device) LoseContext() {
	if d.Lose() {
		slogger().Warn("native: device lost")
	}
}

// ReadDisplay copies the owned display, top row first.
func (d *Device) ReadDisplay() (*image.RGBA, error) {
	switch {
	case d.Closed():
		return nil, ErrClosed
	case d.Lost():
		return nil, ErrContextLost
	case d.surface != nil:
		return nil, ErrNoReadback
	}
	return d.readback(d.display)
}

// ReadTexture copies t, top row first.
func (d *Device) ReadTexture(t convolve.Texture) (*image.RGBA, error) {
	switch {
	case d.Closed():
		return nil, ErrClosed
	case d.Lost():
		return nil, ErrContextLost
	}
	nt, ok := d.OwnTexture(t)
	if !ok {
		return nil, ErrForeignHandle
	}
	return d.readback(nt.Payload)
}

// Stats reports live resource counts and the number of submitted draws.
func (d *Device) Stats() (textures, framebuffers, draws int) {
	textures, framebuffers = d.Live()
	return textures, framebuffers, d.draws
}

// Close releases the device's GPU objects. Owned devices are destroyed;
// borrowed ones are left to their owner.
func (d *Device) Close() {
	if !d.Shutdown() {
		return
	}
	if d.display != nil {
		d.display.destroy()
		d.display = nil
	}
	if d.res != nil {
		d.res.destroy()
		d.res = nil
	}
	leaked, _ := d.Live()
	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	slogger().Info("native: device closed", "draws", d.draws, "leaked_textures", leaked)
}
