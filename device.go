package convolve

import "fmt"

// Device is the GPU context the pipeline drives. The host application
// creates it; convolve only issues state changes and draw calls on it.
//
// The model is a GL-style state machine: one framebuffer and one texture
// are bound at a time, uniforms are written by location, and errors are
// queried after the fact. Implementations live in backend/native (WebGPU
// HAL) and backend/software (CPU reference).
//
// A Device is used from a single goroutine.
type Device interface {
	// CreateTexture allocates a width x height RGBA8 texture with
	// clamp-to-edge wrapping and nearest filtering. pixels holds
	// width*height*4 bytes in row-major order, or nil for uninitialized
	// contents.
	CreateTexture(width, height int, pixels []byte) (Texture, error)

	// DeleteTexture releases a texture. Deleting nil is a no-op.
	DeleteTexture(Texture)

	// CreateFramebuffer creates a framebuffer whose color attachment 0 is
	// color.
	CreateFramebuffer(color Texture) (Framebuffer, error)

	// DeleteFramebuffer releases a framebuffer but not its attachment.
	DeleteFramebuffer(Framebuffer)

	// CheckFramebufferStatus reports whether fb can be rendered to.
	CheckFramebufferStatus(fb Framebuffer) FramebufferStatus

	// BindFramebuffer makes fb the draw destination. nil binds the
	// display surface.
	BindFramebuffer(fb Framebuffer)

	// BindTexture makes t the sampler input for subsequent draws.
	BindTexture(t Texture)

	// Uniform1f sets a scalar uniform.
	Uniform1f(loc UniformLocation, v float32)

	// Uniform1fv sets a float array uniform starting at loc.
	Uniform1fv(loc UniformLocation, v []float32)

	// DrawArrays submits count vertices starting at first.
	DrawArrays(mode Primitive, first, count int)

	// Error returns and clears the oldest pending error code.
	Error() ErrorCode
}

// Texture is a device texture handle. Callers borrow it; only the
// owner may delete it.
type Texture interface {
	Size() (width, height int)
}

// Framebuffer is a device framebuffer handle.
type Framebuffer interface {
	// ColorAttachment returns the texture bound to color attachment 0.
	ColorAttachment() Texture
}

// Program is a compiled, linked shader program. It exposes the uniform
// locations the pipeline writes every pass.
type Program interface {
	UniformLocation(name string) (UniformLocation, bool)
}

// UniformLocation is an opaque uniform address within a Program.
type UniformLocation int32

// Uniform names every convolution program must expose.
const (
	UniformKernel       = "u_kernel[0]"
	UniformKernelWeight = "u_kernelWeight"
	UniformFlip         = "u_flip"
)

// Primitive is the topology passed to DrawArrays.
type Primitive uint8

const (
	// Triangles draws independent triangles from every three vertices.
	Triangles Primitive = iota

	// TriangleStrip draws a connected strip.
	TriangleStrip
)

// String returns the primitive name.
func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	default:
		return fmt.Sprintf("Primitive(%d)", uint8(p))
	}
}

// FramebufferStatus is the result of a completeness check.
type FramebufferStatus uint8

const (
	// FramebufferComplete means the framebuffer can be drawn to.
	FramebufferComplete FramebufferStatus = iota

	// FramebufferIncompleteAttachment means the attachment is unusable.
	FramebufferIncompleteAttachment

	// FramebufferIncompleteMissingAttachment means nothing is attached.
	FramebufferIncompleteMissingAttachment

	// FramebufferIncompleteDimensions means the attachment has zero size.
	FramebufferIncompleteDimensions

	// FramebufferUnsupported means the format cannot be rendered to.
	FramebufferUnsupported
)

// String returns the GL-style status name.
func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "FRAMEBUFFER_COMPLETE"
	case FramebufferIncompleteAttachment:
		return "FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case FramebufferIncompleteMissingAttachment:
		return "FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case FramebufferIncompleteDimensions:
		return "FRAMEBUFFER_INCOMPLETE_DIMENSIONS"
	case FramebufferUnsupported:
		return "FRAMEBUFFER_UNSUPPORTED"
	default:
		return fmt.Sprintf("FramebufferStatus(%d)", uint8(s))
	}
}

// FlipConvention is implemented by devices whose framebuffer origin
// differs from the GL bottom-left convention. The pipeline writes the
// returned signs to the flip uniform for offscreen and onscreen passes.
type FlipConvention interface {
	FlipSigns() (offscreen, onscreen float32)
}

// Default flip signs for GL-style devices.
const (
	DefaultOffscreenFlip float32 = 1
	DefaultOnscreenFlip  float32 = -1
)

// flipSigns returns the signs dev prefers, or the GL defaults.
func flipSigns(dev Device) (offscreen, onscreen float32) {
	if fc, ok := dev.(FlipConvention); ok {
		return fc.FlipSigns()
	}
	return DefaultOffscreenFlip, DefaultOnscreenFlip
}
