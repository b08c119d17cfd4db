package convolve

import (
	"image"
	"image/color"
)

// Uniform locations exposed by fakeProgram.
const (
	locKernel UniformLocation = 0
	locWeight UniformLocation = 9
	locFlip   UniformLocation = 10
)

type fakeTexture struct {
	id   int
	w, h int
}

func (t *fakeTexture) Size() (int, int) { return t.w, t.h }

type fakeFramebuffer struct {
	id     int
	color  *fakeTexture
	status FramebufferStatus
}

func (f *fakeFramebuffer) ColorAttachment() Texture { return f.color }

type fakeProgram map[string]UniformLocation

func (p fakeProgram) UniformLocation(name string) (UniformLocation, bool) {
	loc, ok := p[name]
	return loc, ok
}

// drawRecord captures the bound state at a DrawArrays call.
type drawRecord struct {
	fb     *fakeFramebuffer // nil is the display
	src    *fakeTexture
	kernel [KernelSize]float32
	weight float32
	flip   float32
	mode   Primitive
	first  int
	count  int
}

// recordingDevice is an in-memory Device that records every draw and
// supports fault injection.
type recordingDevice struct {
	nextID int

	liveTextures     map[*fakeTexture]bool
	liveFramebuffers map[*fakeFramebuffer]bool
	textureCalls     int
	framebufferCalls int

	// failTexture makes the n-th CreateTexture call fail (1-based).
	failTexture int
	// failFramebuffer makes the n-th CreateFramebuffer call fail.
	failFramebuffer int
	// incomplete makes the n-th framebuffer report this status.
	incomplete       int
	incompleteStatus FramebufferStatus

	// errorsAfter queues codes after the named op, once per entry.
	errorsAfter map[string][]ErrorCode
	pending     []ErrorCode

	ops          []string
	boundFB      *fakeFramebuffer
	boundTexture *fakeTexture
	uniforms     map[UniformLocation]float32
	draws        []drawRecord
	bindsFB      []*fakeFramebuffer
}

func newRecordingDevice() *recordingDevice {
	return &recordingDevice{
		liveTextures:     make(map[*fakeTexture]bool),
		liveFramebuffers: make(map[*fakeFramebuffer]bool),
		errorsAfter:      make(map[string][]ErrorCode),
		uniforms:         make(map[UniformLocation]float32),
		incompleteStatus: FramebufferIncompleteAttachment,
	}
}

func (d *recordingDevice) program() fakeProgram {
	return fakeProgram{
		UniformKernel:       locKernel,
		UniformKernelWeight: locWeight,
		UniformFlip:         locFlip,
	}
}

func (d *recordingDevice) record(op string) {
	d.ops = append(d.ops, op)
	if codes := d.errorsAfter[op]; len(codes) > 0 {
		d.pending = append(d.pending, codes[0])
		d.errorsAfter[op] = codes[1:]
	}
}

func (d *recordingDevice) CreateTexture(w, h int, _ []byte) (Texture, error) {
	d.textureCalls++
	if d.textureCalls == d.failTexture {
		return nil, &DeviceError{Op: "create texture", Code: OutOfMemory}
	}
	d.nextID++
	t := &fakeTexture{id: d.nextID, w: w, h: h}
	d.liveTextures[t] = true
	return t, nil
}

func (d *recordingDevice) DeleteTexture(t Texture) {
	if ft, ok := t.(*fakeTexture); ok {
		delete(d.liveTextures, ft)
	}
}

func (d *recordingDevice) CreateFramebuffer(color Texture) (Framebuffer, error) {
	d.framebufferCalls++
	if d.framebufferCalls == d.failFramebuffer {
		return nil, &DeviceError{Op: "create framebuffer", Code: OutOfMemory}
	}
	d.nextID++
	fb := &fakeFramebuffer{id: d.nextID, color: color.(*fakeTexture)}
	if d.framebufferCalls == d.incomplete {
		fb.status = d.incompleteStatus
	}
	d.liveFramebuffers[fb] = true
	return fb, nil
}

func (d *recordingDevice) DeleteFramebuffer(fb Framebuffer) {
	if ff, ok := fb.(*fakeFramebuffer); ok {
		delete(d.liveFramebuffers, ff)
	}
}

func (d *recordingDevice) CheckFramebufferStatus(fb Framebuffer) FramebufferStatus {
	ff, ok := fb.(*fakeFramebuffer)
	if !ok || !d.liveFramebuffers[ff] {
		return FramebufferIncompleteMissingAttachment
	}
	return ff.status
}

func (d *recordingDevice) BindFramebuffer(fb Framebuffer) {
	d.boundFB = nil
	if ff, ok := fb.(*fakeFramebuffer); ok {
		d.boundFB = ff
	}
	d.bindsFB = append(d.bindsFB, d.boundFB)
	d.record("bindFramebuffer")
}

func (d *recordingDevice) BindTexture(t Texture) {
	d.boundTexture, _ = t.(*fakeTexture)
	d.record("bindTexture")
}

func (d *recordingDevice) Uniform1f(loc UniformLocation, v float32) {
	d.uniforms[loc] = v
	d.record("uniform1f")
}

func (d *recordingDevice) Uniform1fv(loc UniformLocation, v []float32) {
	for i, f := range v {
		d.uniforms[loc+UniformLocation(i)] = f
	}
	d.record("uniform1fv")
}

func (d *recordingDevice) DrawArrays(mode Primitive, first, count int) {
	r := drawRecord{
		fb:     d.boundFB,
		src:    d.boundTexture,
		weight: d.uniforms[locWeight],
		flip:   d.uniforms[locFlip],
		mode:   mode,
		first:  first,
		count:  count,
	}
	for i := range r.kernel {
		r.kernel[i] = d.uniforms[locKernel+UniformLocation(i)]
	}
	d.draws = append(d.draws, r)
	d.record("draw")
}

func (d *recordingDevice) Error() ErrorCode {
	if len(d.pending) == 0 {
		return NoError
	}
	code := d.pending[0]
	d.pending = d.pending[1:]
	return code
}

// flipDevice overrides the flip convention.
type flipDevice struct {
	*recordingDevice
	off, on float32
}

func (d *flipDevice) FlipSigns() (float32, float32) { return d.off, d.on }

var boxBlurWeights = [KernelSize]float32{
	.045, .122, .045,
	.122, .332, .122,
	.045, .122, .045,
}

var edgeWeights = [KernelSize]float32{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// testCatalog returns {normal, boxBlur}.
func testCatalog() *Catalog {
	c := NewCatalog()
	c.mustRegister("normal", IdentityKernel().Weights)
	c.mustRegister("boxBlur", boxBlurWeights)
	return c
}

func testSource(w, h int) *RGBASource {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return FromImage(img)
}

func newTestPipeline(t interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}, dev Device, prog Program, catalog *Catalog, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(dev, prog, testSource(4, 4), catalog, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(p.Close)
	return p
}
