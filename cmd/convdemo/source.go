package main

import (
	"fmt"
	"image"
	"os"

	// Decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/convolve/config"
	"github.com/gogpu/convolve/grid"
)

// loadSource decodes cfg.Source, or rasterizes the configured grid when
// no source is set.
func loadSource(cfg *config.Config) (image.Image, error) {
	if cfg.Source != "" {
		f, err := os.Open(cfg.Source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", cfg.Source, err)
		}
		return img, nil
	}

	g, err := loadGrid(cfg.Grid)
	if err != nil {
		return nil, err
	}
	style := grid.DefaultStyle
	style.CellSize = cfg.Grid.CellSize
	return grid.Rasterize(g, style), nil
}

func loadGrid(gc config.Grid) (*grid.Grid, error) {
	if gc.Packed == "" {
		return grid.SeedPattern(gc.Width, gc.Height)
	}
	buf, err := os.ReadFile(gc.Packed)
	if err != nil {
		return nil, err
	}
	return grid.Decode(buf, gc.Width, gc.Height)
}
