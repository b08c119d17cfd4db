package software

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/gogpu/convolve"
	"golang.org/x/image/draw"
)

// kernelState is the uniform state read by a draw.
type kernelState struct {
	weights [convolve.KernelSize]float32
	weight  float32
	flip    float32
}

// render convolves src with k into dst. Neighbors outside src are clamped
// to the edge. When sizes differ the convolved image is sampled nearest.
// A negative flip mirrors rows. Output alpha is always opaque.
func render(dst, src *image.RGBA, k kernelState) {
	weight := k.weight
	if weight == 0 {
		weight = 1
	}
	m := convolution.NewKernel(3, 3)
	for i, w := range k.weights {
		m.Matrix[i] = float64(w / weight)
	}

	out := convolution.Convolve(src, m, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
	if out.Bounds().Size() != dst.Bounds().Size() {
		scaled := image.NewRGBA(dst.Bounds())
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = scaled
	}
	opaque(out)
	copyRows(dst, out, k.flip < 0)
}

func opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

// copyRows copies src into dst of the same size, optionally mirrored
// vertically.
func copyRows(dst, src *image.RGBA, mirror bool) {
	b := dst.Bounds()
	h := b.Dy()
	n := b.Dx() * 4
	for y := 0; y < h; y++ {
		sy := y
		if mirror {
			sy = h - 1 - y
		}
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+n], src.Pix[sy*src.Stride:sy*src.Stride+n])
	}
}
