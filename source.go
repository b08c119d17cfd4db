package convolve

import (
	"image"

	"golang.org/x/image/draw"
)

// SourceImage supplies the pixels uploaded once when a pipeline is built.
type SourceImage interface {
	// Size returns the image dimensions.
	Size() (width, height int)

	// Pixels returns width*height*4 bytes of non-premultiplied RGBA, row
	// major, first row at the top.
	Pixels() []byte
}

// RGBASource adapts an *image.RGBA to SourceImage.
type RGBASource struct {
	img *image.RGBA
}

// FromImage converts any image to a SourceImage. *image.RGBA values whose
// stride equals width*4 and whose origin is (0, 0) are used without copying.
func FromImage(img image.Image) *RGBASource {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
			return &RGBASource{img: rgba}
		}
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &RGBASource{img: dst}
}

// Size returns the image dimensions.
func (s *RGBASource) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Pixels returns the backing pixel slice.
func (s *RGBASource) Pixels() []byte {
	return s.img.Pix
}

// Image returns the backing image.
func (s *RGBASource) Image() *image.RGBA {
	return s.img
}
