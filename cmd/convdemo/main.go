// Command convdemo runs the convolution pipeline headlessly and writes the
// display surface to a PNG file.
//
// Usage:
//
//	convdemo [-config file.toml] [-input image] [-output out.png]
//	         [-select a,b] [-mask 0b101] [-backend software|native]
//	         [-grid 64x64] [-watch] [-v]
//
// Without -input the source is a rasterized grid, read from -packed or
// seeded with the demo pattern. With -watch the frame is re-rendered
// whenever the configuration file changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gogpu/convolve"
	"github.com/gogpu/convolve/config"
	"github.com/gogpu/convolve/internal/watch"

	_ "github.com/gogpu/convolve/backend/native"
	_ "github.com/gogpu/convolve/backend/software"
)

// flags holds command-line overrides. Only flags the user set are
// applied over the configuration file.
type flags struct {
	configPath string
	input      string
	output     string
	backend    string
	selectList string
	mask       string
	grid       string
	packed     string
	frames     int
	watch      bool
	verbose    bool
	set        map[string]bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "TOML configuration file")
	flag.StringVar(&f.input, "input", "", "source image (png, jpeg, gif, bmp, tiff, webp)")
	flag.StringVar(&f.output, "output", "convolved.png", "output PNG file")
	flag.StringVar(&f.backend, "backend", "", "backend name (software, native); empty picks the best available")
	flag.StringVar(&f.selectList, "select", "", "comma-separated kernel names")
	flag.StringVar(&f.mask, "mask", "", "selection mask, e.g. 0b1010 or 10")
	flag.StringVar(&f.grid, "grid", "", "grid source size WxH when no input is given")
	flag.StringVar(&f.packed, "packed", "", "file of 8-bit packed grid cells")
	flag.IntVar(&f.frames, "frames", 1, "frames to draw before writing the output")
	flag.BoolVar(&f.watch, "watch", false, "re-render when the config file changes")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if err := run(f); err != nil {
		log.Fatalf("convdemo: %v", err)
	}
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, f.verbose)
	convolve.SetLogger(logger)

	if err := render(cfg, f.frames, logger); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}
	if f.configPath == "" {
		return fmt.Errorf("-watch requires -config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := watch.New(f.configPath, watch.Options{Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("convdemo: watching", "path", w.Path())
	return w.Run(ctx, func() {
		cfg, err := loadConfig(f)
		if err != nil {
			logger.Error("convdemo: reload failed", "error", err)
			return
		}
		if err := render(cfg, f.frames, logger); err != nil {
			logger.Error("convdemo: render failed", "error", err)
		}
	})
}

// loadConfig reads the configuration file, if any, and applies flags.
func loadConfig(f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.set["input"] {
		cfg.Source = f.input
	}
	if f.set["output"] || cfg.Output == "" {
		cfg.Output = f.output
	}
	if f.set["backend"] {
		cfg.Backend = f.backend
	}
	if f.set["select"] {
		cfg.Select = splitList(f.selectList)
		cfg.Mask = nil
	}
	if f.set["mask"] {
		m, err := strconv.ParseUint(f.mask, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("-mask: %w", err)
		}
		cfg.Mask = &m
		cfg.Select = nil
	}
	if f.set["grid"] {
		w, h, err := parseSize(f.grid)
		if err != nil {
			return nil, fmt.Errorf("-grid: %w", err)
		}
		cfg.Grid.Width, cfg.Grid.Height = w, h
	}
	if f.set["packed"] {
		cfg.Grid.Packed = f.packed
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level, err := cfg.Level()
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}
