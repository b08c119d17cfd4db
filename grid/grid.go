// Package grid decodes bit-packed boolean grids and rasterizes them into
// images suitable as convolution sources.
//
// A packed grid stores cell index row*width+col as one bit. The package
// reads 8-bit lanes least significant bit first: cell i is bit i%8 of
// byte i/8. DecodeWords reads 32-bit lanes with the same ordering, bit
// i%32 of word i/32, which matches the byte layout of little-endian
// words.
//
// Decoded grids own their storage, so the source buffer may be reused or
// overwritten as soon as Decode returns.
package grid

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrInvalidDimensions is returned for non-positive grid sizes.
	ErrInvalidDimensions = errors.New("grid: invalid dimensions")

	// ErrShortBuffer is returned when a packed buffer holds fewer bits
	// than width*height.
	ErrShortBuffer = errors.New("grid: packed buffer too short")
)

// Grid is an immutable-size boolean matrix packed one bit per cell.
type Grid struct {
	width  int
	height int
	bits   []byte
}

// New returns an all-unset width x height grid.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Grid{width: width, height: height, bits: make([]byte, packedLen(width*height))}, nil
}

func packedLen(cells int) int { return (cells + 7) / 8 }

// Decode copies a packed buffer of 8-bit lanes. Bytes beyond the last
// cell are ignored.
func Decode(buf []byte, width, height int) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(buf) < len(g.bits) {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d cells", ErrShortBuffer, len(buf), width, height)
	}
	copy(g.bits, buf)
	g.clearTail()
	return g, nil
}

// DecodeWords copies a packed buffer of 32-bit lanes.
func DecodeWords(words []uint32, width, height int) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(words)*4 < len(g.bits) {
		return nil, fmt.Errorf("%w: %d words for %dx%d cells", ErrShortBuffer, len(words), width, height)
	}
	for i := range g.bits {
		g.bits[i] = byte(words[i/4] >> (8 * (i % 4)))
	}
	g.clearTail()
	return g, nil
}

// clearTail zeroes padding bits past the last cell so Count and Pack
// only see cells.
func (g *Grid) clearTail() {
	if rem := (g.width * g.height) % 8; rem != 0 {
		g.bits[len(g.bits)-1] &= byte(1<<rem) - 1
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.width * g.height }

// IsSet reports the cell at linear index i. Out-of-range indices are unset.
func (g *Grid) IsSet(i int) bool {
	if i < 0 || i >= g.Len() {
		return false
	}
	return g.bits[i/8]>>(i%8)&1 == 1
}

// At reports the cell at row, col.
func (g *Grid) At(row, col int) bool {
	if col < 0 || col >= g.width {
		return false
	}
	return g.IsSet(row*g.width + col)
}

// Set updates the cell at row, col. Out-of-range cells are ignored.
func (g *Grid) Set(row, col int, v bool) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return
	}
	i := row*g.width + col
	if v {
		g.bits[i/8] |= 1 << (i % 8)
	} else {
		g.bits[i/8] &^= 1 << (i % 8)
	}
}

// Count returns the number of set cells.
func (g *Grid) Count() int {
	n := 0
	for _, b := range g.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Pack returns a copy of the packed 8-bit representation.
func (g *Grid) Pack() []byte {
	out := make([]byte, len(g.bits))
	copy(out, g.bits)
	return out
}

// SeedPattern returns the demo starting pattern: cell i is set when i is
// even or a multiple of seven.
func SeedPattern(width, height int) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < g.Len(); i++ {
		if i%2 == 0 || i%7 == 0 {
			g.bits[i/8] |= 1 << (i % 8)
		}
	}
	return g, nil
}

// String renders the grid with one line per row, '#' for set cells.
func (g *Grid) String() string {
	buf := make([]byte, 0, (g.width+1)*g.height)
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			if g.At(row, col) {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
