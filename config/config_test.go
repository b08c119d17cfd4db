package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/convolve"
)

const sample = `
source = "photo.png"
backend = "software"
vertex_count = 4
primitive = "triangle_strip"
select = ["sharpen", "blur"]
log_level = "debug"

[[kernel]]
name = "blur"
weights = [1, 1, 1, 1, 1, 1, 1, 1, 1]

[[kernel]]
name = "sharpen"
weights = [-1, -1, -1, -1, 9, -1, -1, -1, -1]
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "photo.png" || cfg.Backend != "software" || cfg.VertexCount != 4 {
		t.Errorf("Parse() = %+v", cfg)
	}
	if mode, _ := cfg.PrimitiveMode(); mode != convolve.TriangleStrip {
		t.Errorf("PrimitiveMode() = %v", mode)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Errorf("Level() = %v", lvl)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if names := cat.Names(); len(names) != 2 || names[0] != "blur" || names[1] != "sharpen" {
		t.Errorf("Names() = %v", names)
	}
	k, _ := cat.Get(0)
	if k.NormalizationWeight != 9 {
		t.Errorf("blur weight = %v, want 9", k.NormalizationWeight)
	}

	sel, err := cfg.Selection(cat)
	if err != nil {
		t.Fatal(err)
	}
	// Selection follows catalog order, not the order names are listed.
	if sel != 0b11 {
		t.Errorf("Selection() = %b, want 11", sel)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VertexCount != 6 || cfg.Grid.CellSize != 5 {
		t.Errorf("defaults = %+v", cfg)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != convolve.DefaultCatalog().Len() {
		t.Errorf("catalog Len() = %d", cat.Len())
	}
	sel, err := cfg.Selection(cat)
	if err != nil {
		t.Fatal(err)
	}
	if sel != 0b1111 {
		t.Errorf("default Selection() = %b, want every kernel", sel)
	}
}

func TestParseMask(t *testing.T) {
	cfg, err := Parse(strings.NewReader("mask = 0b1010\n"))
	if err != nil {
		t.Fatal(err)
	}
	sel, err := cfg.Selection(convolve.DefaultCatalog())
	if err != nil || sel != 0b1010 {
		t.Errorf("Selection() = %b, %v", sel, err)
	}
}

func TestParseSlots(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[[kernel]]
name = "late"
slot = 3
weights = [0, 0, 0, 0, 1, 0, 0, 0, 0]
`))
	if err != nil {
		t.Fatal(err)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 4 {
		t.Errorf("Len() = %d, want 4", cat.Len())
	}
	if _, err := cat.Get(0); !errors.Is(err, convolve.ErrKernelNotFound) {
		t.Errorf("Get(0) = %v, want hole", err)
	}
}

func TestParseSlotsAppendAfterHighest(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[[kernel]]
name = "fixed"
slot = 0
weights = [0, 0, 0, 0, 1, 0, 0, 0, 0]

[[kernel]]
name = "appended"
weights = [0, 0, 0, 0, 1, 0, 0, 0, 0]
`))
	if err != nil {
		t.Fatal(err)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]int{"fixed": 0, "appended": 1} {
		if _, i, err := cat.Lookup(name); err != nil || i != want {
			t.Errorf("Lookup(%q) = %d, %v; want slot %d", name, i, err, want)
		}
	}
	sel, err := cfg.Selection(cat)
	if err != nil {
		t.Fatal(err)
	}
	if sel != convolve.SelectionOf(0, 1) {
		t.Errorf("Selection() = %v, want both kernels", sel)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown key", "colour = 1\n", "colour"},
		{"syntax", "source = \n", "line"},
		{"negative vertex count", "vertex_count = -1\n", "vertex_count"},
		{"bad primitive", "primitive = \"points\"\n", "points"},
		{"bad level", "log_level = \"loud\"\n", "loud"},
		{"select and mask", "select = [\"normal\"]\nmask = 1\n", "mutually exclusive"},
		{"short kernel", "[[kernel]]\nname = \"k\"\nweights = [1, 2]\n", "2 weights"},
		{"unnamed kernel", "[[kernel]]\nweights = [0,0,0,0,1,0,0,0,0]\n", "no name"},
		{"duplicate kernel", "[[kernel]]\nname = \"a\"\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"a\"\nweights = [0,0,0,0,1,0,0,0,0]\n", "twice"},
		{"slot range", "[[kernel]]\nname = \"a\"\nslot = 64\nweights = [0,0,0,0,1,0,0,0,0]\n", "slot 64"},
		{"slot taken by appended kernel", "[[kernel]]\nname = \"a\"\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"b\"\nslot = 0\nweights = [0,0,0,0,1,0,0,0,0]\n", `kernel "a" and kernel "b" both use slot 0`},
		{"slot taken twice", "[[kernel]]\nname = \"a\"\nslot = 2\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"b\"\nslot = 2\nweights = [0,0,0,0,1,0,0,0,0]\n", "both use slot 2"},
		{"appended kernel lands on slot", "[[kernel]]\nname = \"a\"\nslot = 1\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"b\"\nslot = 3\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"c\"\nweights = [0,0,0,0,1,0,0,0,0]\n[[kernel]]\nname = \"d\"\nslot = 4\nweights = [0,0,0,0,1,0,0,0,0]\n", "both use slot 4"},
		{"grid size", "[grid]\nwidth = 0\n", "grid size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Parse() = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSelectionUnknownName(t *testing.T) {
	cfg := Default()
	cfg.Select = []string{"normal", "missing"}
	if _, err := cfg.Selection(convolve.DefaultCatalog()); !errors.Is(err, convolve.ErrKernelNotFound) {
		t.Errorf("Selection() = %v, want ErrKernelNotFound", err)
	}
}

func TestSourceSkipsGridValidation(t *testing.T) {
	cfg := Default()
	cfg.Source = "in.png"
	cfg.Grid = Grid{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convolve.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "photo.png" {
		t.Errorf("Source = %q", cfg.Source)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want ErrNotExist", err)
	}
}
