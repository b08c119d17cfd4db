package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/gogpu/convolve"
	"github.com/gogpu/convolve/backend"
	"github.com/gogpu/convolve/config"
)

// render runs frames draws with cfg and writes the display to cfg.Output.
func render(cfg *config.Config, frames int, logger *slog.Logger) error {
	img, err := loadSource(cfg)
	if err != nil {
		return err
	}
	src := convolve.FromImage(img)
	w, h := src.Size()
	if cfg.Width > 0 && cfg.Height > 0 {
		w, h = cfg.Width, cfg.Height
	}

	bcfg := backend.Config{Width: w, Height: h, Label: "convdemo"}
	var dev backend.Device
	if cfg.Backend == "" {
		dev, err = backend.OpenDefault(bcfg)
	} else {
		dev, err = backend.Open(cfg.Backend, bcfg)
	}
	if err != nil {
		return fmt.Errorf("open backend: %w (available: %v)", err, backend.Available())
	}
	defer dev.Close()

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	sel, err := cfg.Selection(cat)
	if err != nil {
		return err
	}
	prim, err := cfg.PrimitiveMode()
	if err != nil {
		return err
	}

	p, err := convolve.New(dev, dev.Program(), src, cat,
		convolve.WithPrimitive(prim),
		convolve.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		p.Draw(sel, cfg.VertexCount)
	}
	stats := p.LastFrame()
	logger.Info("convdemo: frame",
		"backend", dev.Name(),
		"selection", sel.String(),
		"passes", stats.Passes,
		"aborted", stats.Aborted,
		"diagnostics", stats.Diagnostics,
	)

	out, err := dev.ReadDisplay()
	if err != nil {
		return fmt.Errorf("read display: %w", err)
	}
	return writePNG(cfg.Output, out)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
