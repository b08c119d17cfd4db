package grid

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Style controls how Rasterize paints a grid.
type Style struct {
	// CellSize is the side of one cell in pixels.
	CellSize int

	Alive color.Color
	Dead  color.Color
	Lines color.Color
}

// DefaultStyle paints 5px cells, light alive cells on a slate
// background, with grid lines in the background color.
var DefaultStyle = Style{
	CellSize: 5,
	Alive:    color.RGBA{R: 0xCC, G: 0xCC, B: 0xFF, A: 0xFF},
	Dead:     color.RGBA{R: 0x43, G: 0x4C, B: 0x5E, A: 0xFF},
	Lines:    color.RGBA{R: 0x43, G: 0x4C, B: 0x5E, A: 0xFF},
}

// ImageSize returns the pixel size of a rasterized width x height grid:
// cells separated and framed by 1px lines.
func ImageSize(width, height, cellSize int) (int, int) {
	return (cellSize+1)*width + 1, (cellSize+1)*height + 1
}

// CellRect returns the pixel rectangle of the cell at row, col.
func CellRect(row, col, cellSize int) image.Rectangle {
	x := col*(cellSize+1) + 1
	y := row*(cellSize+1) + 1
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

// Rasterize paints g into a new image. Row 0 is the top of the image.
// A non-positive CellSize is treated as 1.
func Rasterize(g *Grid, s Style) *image.RGBA {
	cell := s.CellSize
	if cell <= 0 {
		cell = 1
	}
	w, h := ImageSize(g.width, g.height, cell)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(orDefault(s.Lines, DefaultStyle.Lines)), image.Point{}, draw.Src)

	alive := image.NewUniform(orDefault(s.Alive, DefaultStyle.Alive))
	dead := image.NewUniform(orDefault(s.Dead, DefaultStyle.Dead))
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			src := dead
			if g.At(row, col) {
				src = alive
			}
			draw.Draw(img, CellRect(row, col, cell), src, image.Point{}, draw.Src)
		}
	}
	return img
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}
