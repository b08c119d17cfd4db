// Package glstate holds the GL-style context state shared by the convolve
// devices: handle ownership, the bound framebuffer and texture, shadow
// uniforms and the queued error codes.
//
// A backend embeds State and keeps its own storage in the Payload of each
// Texture. State never touches the payload; the backend releases it when
// ReleaseTexture hands the handle back.
package glstate

import "github.com/gogpu/convolve"

// Uniform locations of the built-in convolution program.
const (
	LocKernel    convolve.UniformLocation = 0
	LocWeight    convolve.UniformLocation = convolve.KernelSize
	LocFlip      convolve.UniformLocation = convolve.KernelSize + 1
	UniformCount                          = convolve.KernelSize + 2
)

// MaxPendingErrors caps the error queue so an unread queue cannot grow
// without bound across frames.
const MaxPendingErrors = 32

// Texture is a device texture handle carrying backend storage.
type Texture[P any] struct {
	owner  *State[P]
	width  int
	height int
	live   bool

	// Payload is the backend's storage for the texture.
	Payload P
}

// Size returns the texture dimensions.
func (t *Texture[P]) Size() (int, int) { return t.width, t.height }

// Framebuffer is a framebuffer handle with one color attachment.
type Framebuffer[P any] struct {
	owner *State[P]
	color *Texture[P]
	live  bool
}

// ColorAttachment returns the attached texture.
func (f *Framebuffer[P]) ColorAttachment() convolve.Texture {
	if f.color == nil {
		return nil
	}
	return f.color
}

// Color returns the attached texture handle.
func (f *Framebuffer[P]) Color() *Texture[P] { return f.color }

// State is the context state of one device. The zero value is ready to
// use. It is not safe for concurrent use.
type State[P any] struct {
	boundFB  *Framebuffer[P]
	boundTex *Texture[P]
	uniforms [UniformCount]float32

	pending []convolve.ErrorCode
	lost    bool
	closed  bool

	textures     int
	framebuffers int
}

// Lost reports whether the context was lost.
func (s *State[P]) Lost() bool { return s.lost }

// Closed reports whether Shutdown was called.
func (s *State[P]) Closed() bool { return s.closed }

// Inactive reports whether calls should be ignored.
func (s *State[P]) Inactive() bool { return s.lost || s.closed }

// Push queues code for Error. Codes beyond MaxPendingErrors are dropped.
func (s *State[P]) Push(code convolve.ErrorCode) {
	if len(s.pending) >= MaxPendingErrors {
		return
	}
	s.pending = append(s.pending, code)
}

// Error returns and clears the oldest pending error.
func (s *State[P]) Error() convolve.ErrorCode {
	if len(s.pending) == 0 {
		return convolve.NoError
	}
	code := s.pending[0]
	s.pending = s.pending[1:]
	return code
}

// NewTexture registers a live texture of the given size.
func (s *State[P]) NewTexture(width, height int, payload P) *Texture[P] {
	s.textures++
	return &Texture[P]{owner: s, width: width, height: height, live: true, Payload: payload}
}

// OwnTexture resolves t to a live texture of this state.
func (s *State[P]) OwnTexture(t convolve.Texture) (*Texture[P], bool) {
	st, ok := t.(*Texture[P])
	if !ok || st == nil || st.owner != s || !st.live {
		return nil, false
	}
	return st, true
}

// OwnFramebuffer resolves fb to a live framebuffer of this state.
func (s *State[P]) OwnFramebuffer(fb convolve.Framebuffer) (*Framebuffer[P], bool) {
	sf, ok := fb.(*Framebuffer[P])
	if !ok || sf == nil || sf.owner != s || !sf.live {
		return nil, false
	}
	return sf, true
}

// ReleaseTexture marks t deleted and returns it so the backend can free
// the payload. Framebuffers it was attached to become incomplete. It
// returns false for nil, foreign or already deleted textures.
func (s *State[P]) ReleaseTexture(t convolve.Texture) (*Texture[P], bool) {
	if t == nil {
		return nil, false
	}
	st, ok := s.OwnTexture(t)
	if !ok {
		return nil, false
	}
	st.live = false
	s.textures--
	if s.boundTex == st {
		s.boundTex = nil
	}
	return st, true
}

// AttachFramebuffer creates a framebuffer on color. It returns false when
// color is not a live texture of this state.
func (s *State[P]) AttachFramebuffer(color convolve.Texture) (*Framebuffer[P], bool) {
	st, ok := s.OwnTexture(color)
	if !ok {
		return nil, false
	}
	s.framebuffers++
	return &Framebuffer[P]{owner: s, color: st, live: true}, true
}

// DeleteFramebuffer releases fb. If it was bound the display is bound.
// Deleting nil is a no-op.
func (s *State[P]) DeleteFramebuffer(fb convolve.Framebuffer) {
	if fb == nil {
		return
	}
	sf, ok := s.OwnFramebuffer(fb)
	if !ok {
		return
	}
	sf.live = false
	s.framebuffers--
	if s.boundFB == sf {
		s.boundFB = nil
	}
}

// CheckFramebufferStatus validates fb. A lost or closed context reports
// FramebufferUnsupported.
func (s *State[P]) CheckFramebufferStatus(fb convolve.Framebuffer) convolve.FramebufferStatus {
	if s.Inactive() {
		return convolve.FramebufferUnsupported
	}
	sf, ok := s.OwnFramebuffer(fb)
	if !ok || sf.color == nil || !sf.color.live {
		return convolve.FramebufferIncompleteMissingAttachment
	}
	if sf.color.width == 0 || sf.color.height == 0 {
		return convolve.FramebufferIncompleteDimensions
	}
	return convolve.FramebufferComplete
}

// BindFramebuffer binds fb, or the display when fb is nil.
func (s *State[P]) BindFramebuffer(fb convolve.Framebuffer) {
	if s.Inactive() {
		return
	}
	if fb == nil {
		s.boundFB = nil
		return
	}
	sf, ok := s.OwnFramebuffer(fb)
	if !ok {
		s.Push(convolve.InvalidOperation)
		return
	}
	s.boundFB = sf
}

// BindTexture binds t as the sampler input. nil unbinds.
func (s *State[P]) BindTexture(t convolve.Texture) {
	if s.Inactive() {
		return
	}
	if t == nil {
		s.boundTex = nil
		return
	}
	st, ok := s.OwnTexture(t)
	if !ok {
		s.Push(convolve.InvalidOperation)
		return
	}
	s.boundTex = st
}

// Uniform1f sets a scalar uniform.
func (s *State[P]) Uniform1f(loc convolve.UniformLocation, v float32) {
	if s.Inactive() {
		return
	}
	if loc < 0 || int(loc) >= UniformCount {
		s.Push(convolve.InvalidOperation)
		return
	}
	s.uniforms[loc] = v
}

// Uniform1fv sets consecutive uniforms starting at loc.
func (s *State[P]) Uniform1fv(loc convolve.UniformLocation, v []float32) {
	if s.Inactive() {
		return
	}
	if loc < 0 || int(loc) >= UniformCount {
		s.Push(convolve.InvalidOperation)
		return
	}
	if int(loc)+len(v) > UniformCount {
		s.Push(convolve.InvalidValue)
		return
	}
	copy(s.uniforms[loc:], v)
}

// Kernel returns the kernel weights, normalization weight and flip sign
// currently set.
func (s *State[P]) Kernel() (weights [convolve.KernelSize]float32, weight, flip float32) {
	copy(weights[:], s.uniforms[LocKernel:LocKernel+convolve.KernelSize])
	return weights, s.uniforms[LocWeight], s.uniforms[LocFlip]
}

// PrepareDraw validates a draw call and queues the error for an invalid
// one. modeOK reports whether the backend accepts the primitive mode.
// fb is nil when the display is bound. draw is false when nothing should
// be rendered, including valid draws of fewer than three vertices.
func (s *State[P]) PrepareDraw(modeOK bool, first, count int) (fb *Framebuffer[P], src *Texture[P], draw bool) {
	if s.Inactive() {
		return nil, nil, false
	}
	if !modeOK {
		s.Push(convolve.InvalidEnum)
		return nil, nil, false
	}
	if first < 0 || count < 0 {
		s.Push(convolve.InvalidValue)
		return nil, nil, false
	}
	if s.boundFB != nil && s.CheckFramebufferStatus(s.boundFB) != convolve.FramebufferComplete {
		s.Push(convolve.InvalidFramebufferOperation)
		return nil, nil, false
	}
	if s.boundTex == nil {
		s.Push(convolve.InvalidOperation)
		return nil, nil, false
	}
	if s.boundFB != nil && s.boundFB.color == s.boundTex {
		// Sampling the texture being rendered to.
		s.Push(convolve.InvalidOperation)
		return nil, nil, false
	}
	if count < 3 {
		return nil, nil, false
	}
	return s.boundFB, s.boundTex, true
}

// Lose marks the context lost. CONTEXT_LOST replaces any queued errors and
// is reported once. It returns false if the context was already lost.
func (s *State[P]) Lose() bool {
	if s.lost {
		return false
	}
	s.lost = true
	s.pending = append(s.pending[:0], convolve.ContextLost)
	return true
}

// Restore ends a context loss. Handles created before the loss remain
// valid.
func (s *State[P]) Restore() { s.lost = false }

// Shutdown closes the state and clears bindings and queued errors. It
// returns false if it was already closed.
func (s *State[P]) Shutdown() bool {
	if s.closed {
		return false
	}
	s.closed = true
	s.boundFB = nil
	s.boundTex = nil
	s.pending = nil
	return true
}

// Live reports the number of live textures and framebuffers.
func (s *State[P]) Live() (textures, framebuffers int) {
	return s.textures, s.framebuffers
}

// Program resolves the fixed uniform layout of the built-in program.
type Program struct{}

// UniformLocation accepts the GLSL name of the kernel array as an alias.
func (Program) UniformLocation(name string) (convolve.UniformLocation, bool) {
	switch name {
	case convolve.UniformKernel, "u_kernel":
		return LocKernel, true
	case convolve.UniformKernelWeight:
		return LocWeight, true
	case convolve.UniformFlip:
		return LocFlip, true
	}
	return 0, false
}
