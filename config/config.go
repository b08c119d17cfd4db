// Package config loads convolution runs from TOML files.
//
// A file names the source, the backend, the kernel catalog and the
// kernels to apply:
//
//	source = "photo.png"
//	backend = "software"
//	vertex_count = 6
//	select = ["gaussianBlur", "emboss"]
//	log_level = "debug"
//
//	[[kernel]]
//	name = "normal"
//	weights = [0, 0, 0, 0, 1, 0, 0, 0, 0]
//
// Unknown keys are rejected. Without [[kernel]] tables the built-in
// catalog is used. Selection names are resolved to catalog bits once,
// when Selection is called, so the frame loop only handles masks.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/convolve"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned for configurations that fail validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is a decoded configuration file.
type Config struct {
	// Source is the path of the input image. Empty means a grid source.
	Source string `toml:"source"`

	// Output is the path the display surface is written to.
	Output string `toml:"output"`

	// Backend names a registered backend. Empty picks the default.
	Backend string `toml:"backend"`

	// Width and Height size the display. Zero uses the source size.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// VertexCount is passed to every draw call.
	VertexCount int `toml:"vertex_count"`

	// Primitive is "triangles" or "triangle_strip".
	Primitive string `toml:"primitive"`

	// Select lists kernels by name. Mask selects by catalog bit instead;
	// setting both is an error.
	Select []string `toml:"select"`
	Mask   *uint64  `toml:"mask"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	Kernels []Kernel `toml:"kernel"`

	Grid Grid `toml:"grid"`
}

// Kernel is one [[kernel]] table.
type Kernel struct {
	Name    string    `toml:"name"`
	Weights []float32 `toml:"weights"`

	// Slot places the kernel at a fixed catalog index. Without it kernels
	// are appended in file order.
	Slot *int `toml:"slot"`
}

// Grid configures a synthesized grid source, used when Source is empty.
type Grid struct {
	Width    int `toml:"width"`
	Height   int `toml:"height"`
	CellSize int `toml:"cell_size"`

	// Packed is a file of 8-bit LSB-first packed cells. Empty seeds the
	// demo pattern.
	Packed string `toml:"packed"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		VertexCount: 6,
		Primitive:   "triangles",
		LogLevel:    "info",
		Grid:        Grid{Width: 64, Height: 64, CellSize: 5},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and kernel tables.
func (c *Config) Validate() error {
	var errs []error
	if c.VertexCount < 0 {
		errs = append(errs, fmt.Errorf("vertex_count %d is negative", c.VertexCount))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("display size %dx%d is negative", c.Width, c.Height))
	}
	if _, err := c.PrimitiveMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Mask != nil && len(c.Select) > 0 {
		errs = append(errs, errors.New("select and mask are mutually exclusive"))
	}
	seen := make(map[string]bool, len(c.Kernels))
	for i, k := range c.Kernels {
		switch {
		case k.Name == "":
			errs = append(errs, fmt.Errorf("kernel %d has no name", i))
		case seen[k.Name]:
			errs = append(errs, fmt.Errorf("kernel %q defined twice", k.Name))
		}
		seen[k.Name] = true
		if len(k.Weights) != convolve.KernelSize {
			errs = append(errs, fmt.Errorf("kernel %q has %d weights, want %d", k.Name, len(k.Weights), convolve.KernelSize))
		}
		if k.Slot != nil && (*k.Slot < 0 || *k.Slot >= convolve.MaxSelectionBits) {
			errs = append(errs, fmt.Errorf("kernel %q slot %d out of range", k.Name, *k.Slot))
		}
	}
	errs = append(errs, c.slotConflicts()...)
	if c.Source == "" {
		if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
			errs = append(errs, fmt.Errorf("grid size %dx%d must be positive", c.Grid.Width, c.Grid.Height))
		}
		if c.Grid.CellSize <= 0 {
			errs = append(errs, fmt.Errorf("grid cell_size %d must be positive", c.Grid.CellSize))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// slotConflicts replays catalog registration and reports kernels that
// would replace an earlier kernel. A table without slot takes the slot
// after the highest one used so far.
func (c *Config) slotConflicts() []error {
	var errs []error
	owner := make(map[int]string, len(c.Kernels))
	next := 0
	for _, k := range c.Kernels {
		i := next
		if k.Slot != nil {
			i = *k.Slot
			if i < 0 || i >= convolve.MaxSelectionBits {
				continue
			}
		}
		if prev, ok := owner[i]; ok {
			errs = append(errs, fmt.Errorf("kernel %q and kernel %q both use slot %d", prev, k.Name, i))
			continue
		}
		owner[i] = k.Name
		next = max(next, i+1)
	}
	return errs
}

// Catalog builds the kernel catalog. Without kernel tables it returns
// the built-in catalog.
func (c *Config) Catalog() (*convolve.Catalog, error) {
	if len(c.Kernels) == 0 {
		return convolve.DefaultCatalog(), nil
	}
	cat := convolve.NewCatalog()
	for _, k := range c.Kernels {
		if len(k.Weights) != convolve.KernelSize {
			return nil, fmt.Errorf("%w: kernel %q has %d weights", ErrInvalidConfig, k.Name, len(k.Weights))
		}
		var w [convolve.KernelSize]float32
		copy(w[:], k.Weights)
		var err error
		if k.Slot != nil {
			err = cat.RegisterAt(*k.Slot, k.Name, w)
		} else {
			_, err = cat.Register(k.Name, w)
		}
		if err != nil {
			return nil, fmt.Errorf("config: kernel %q: %w", k.Name, err)
		}
	}
	return cat, nil
}

// Selection resolves the configured selection against cat. With neither
// select nor mask set, every kernel is enabled.
func (c *Config) Selection(cat *convolve.Catalog) (convolve.Selection, error) {
	switch {
	case c.Mask != nil:
		return convolve.Selection(*c.Mask), nil
	case len(c.Select) > 0:
		s, err := cat.Select(c.Select...)
		if err != nil {
			return 0, fmt.Errorf("config: select: %w", err)
		}
		return s, nil
	default:
		return convolve.Selection(^uint64(0)).Clip(cat.Len()), nil
	}
}

// PrimitiveMode parses Primitive. Empty means triangles.
func (c *Config) PrimitiveMode() (convolve.Primitive, error) {
	switch strings.ToLower(c.Primitive) {
	case "", "triangles":
		return convolve.Triangles, nil
	case "triangle_strip", "strip":
		return convolve.TriangleStrip, nil
	}
	return 0, fmt.Errorf("unknown primitive %q", c.Primitive)
}

// Level parses LogLevel. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return l, nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
