package convolve

import "fmt"

// RenderTarget owns one texture and one framebuffer whose color
// attachment 0 is that texture. Its size is fixed at construction.
//
// The texture returned by Texture is borrowed: callers must not delete it.
type RenderTarget struct {
	dev     Device
	texture Texture
	fb      Framebuffer
	width   int
	height  int
	slot    int
}

// NewRenderTarget allocates a width x height texture, attaches it to a new
// framebuffer and validates completeness. On any failure every resource
// allocated so far is released and a *ConstructionError is returned.
func NewRenderTarget(dev Device, width, height int) (*RenderTarget, error) {
	return newRenderTarget(dev, width, height, -1)
}

func newRenderTarget(dev Device, width, height, slot int) (*RenderTarget, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	tex, err := dev.CreateTexture(width, height, nil)
	if err != nil {
		return nil, &ConstructionError{Target: slot, Status: FramebufferIncompleteMissingAttachment,
			Err: fmt.Errorf("create texture: %w", err)}
	}

	fb, err := dev.CreateFramebuffer(tex)
	if err != nil {
		dev.DeleteTexture(tex)
		return nil, &ConstructionError{Target: slot, Status: FramebufferIncompleteMissingAttachment,
			Err: fmt.Errorf("create framebuffer: %w", err)}
	}

	if status := dev.CheckFramebufferStatus(fb); status != FramebufferComplete {
		dev.DeleteFramebuffer(fb)
		dev.DeleteTexture(tex)
		return nil, &ConstructionError{Target: slot, Status: status}
	}

	return &RenderTarget{
		dev:     dev,
		texture: tex,
		fb:      fb,
		width:   width,
		height:  height,
		slot:    slot,
	}, nil
}

// Bind makes this target's framebuffer the active draw destination.
func (t *RenderTarget) Bind() {
	t.dev.BindFramebuffer(t.fb)
}

// Status re-validates framebuffer completeness. Long-lived targets can
// become incomplete after a context loss.
func (t *RenderTarget) Status() FramebufferStatus {
	if t.fb == nil {
		return FramebufferIncompleteMissingAttachment
	}
	return t.dev.CheckFramebufferStatus(t.fb)
}

// Texture returns the sampler-input handle for this target.
func (t *RenderTarget) Texture() Texture {
	return t.texture
}

// Framebuffer returns the underlying framebuffer handle.
func (t *RenderTarget) Framebuffer() Framebuffer {
	return t.fb
}

// Size returns the target dimensions.
func (t *RenderTarget) Size() (width, height int) {
	return t.width, t.height
}

// Destroy releases the framebuffer and texture. Safe to call twice.
func (t *RenderTarget) Destroy() {
	if t.fb != nil {
		t.dev.DeleteFramebuffer(t.fb)
		t.fb = nil
	}
	if t.texture != nil {
		t.dev.DeleteTexture(t.texture)
		t.texture = nil
	}
}

// PingPong holds exactly two render targets of the same size. Pass n
// writes to Target(n), which alternates 0, 1, 0, 1, ... so a pass never
// samples the texture it is drawing into.
type PingPong struct {
	targets [2]*RenderTarget
}

// NewPingPong creates both targets. If the second fails the first is
// released before the error is returned.
func NewPingPong(dev Device, width, height int) (*PingPong, error) {
	var pp PingPong
	for i := range pp.targets {
		t, err := newRenderTarget(dev, width, height, i)
		if err != nil {
			pp.Destroy()
			return nil, err
		}
		pp.targets[i] = t
	}
	return &pp, nil
}

// Target returns the target for the given pass index.
func (pp *PingPong) Target(passIndex int) *RenderTarget {
	return pp.targets[passIndex&1]
}

// Slot returns the parity slot used for passIndex.
func Slot(passIndex int) int {
	return passIndex & 1
}

// Destroy releases both targets.
func (pp *PingPong) Destroy() {
	for i, t := range pp.targets {
		if t != nil {
			t.Destroy()
			pp.targets[i] = nil
		}
	}
}
