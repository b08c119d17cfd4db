package backend

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/convolve"
)

// stubDevice satisfies Device for registry tests. The embedded
// convolve.Device is nil and must not be called.
type stubDevice struct {
	convolve.Device
	name   string
	cfg    Config
	closed bool
}

func (d *stubDevice) Name() string                      { return d.name }
func (d *stubDevice) Program() convolve.Program         { return nil }
func (d *stubDevice) ReadDisplay() (*image.RGBA, error) { return nil, nil }
func (d *stubDevice) Close()                            { d.closed = true }

func stubFactory(name string) Factory {
	return func(cfg Config) (Device, error) {
		return &stubDevice{name: name, cfg: cfg}, nil
	}
}

func failingFactory(err error) Factory {
	return func(Config) (Device, error) { return nil, err }
}

// withRegistry swaps the registry for the duration of a test.
func withRegistry(t *testing.T, entries map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = entries
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegistryRegisterAndOpen(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	Register(Software, stubFactory(Software))

	if !IsRegistered(Software) {
		t.Error("software backend should be registered")
	}

	dev, err := Open(Software, Config{Width: 4, Height: 2, Label: "x"})
	if err != nil {
		t.Fatalf("Open(software) error = %v", err)
	}
	if dev.Name() != Software {
		t.Errorf("Open(software).Name() = %q, want %q", dev.Name(), Software)
	}
	if got := dev.(*stubDevice).cfg; got.Width != 4 || got.Height != 2 || got.Label != "x" {
		t.Errorf("factory received %+v", got)
	}
}

func TestRegistryOpenUnregistered(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	_, err := Open("nonexistent", Config{Width: 1, Height: 1})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryOpenInvalidConfig(t *testing.T) {
	withRegistry(t, map[string]Factory{Software: stubFactory(Software)})
	for _, cfg := range []Config{{}, {Width: 1}, {Width: -1, Height: 3}} {
		if _, err := Open(Software, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Open(%+v) = %v, want ErrInvalidConfig", cfg, err)
		}
		if _, err := OpenDefault(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("OpenDefault(%+v) = %v, want ErrInvalidConfig", cfg, err)
		}
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	withRegistry(t, map[string]Factory{
		"zeta":   stubFactory("zeta"),
		Software: stubFactory(Software),
		Native:   stubFactory(Native),
	})
	got := Available()
	want := []string{Native, Software, "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Available()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryOpenDefaultPriority(t *testing.T) {
	cfg := Config{Width: 8, Height: 8}

	tests := []struct {
		name    string
		entries map[string]Factory
		want    string
	}{
		{"native preferred", map[string]Factory{
			Software: stubFactory(Software),
			Native:   stubFactory(Native),
		}, Native},
		{"native fails falls back", map[string]Factory{
			Software: stubFactory(Software),
			Native:   failingFactory(errors.New("no adapter")),
		}, Software},
		{"unknown backends last", map[string]Factory{
			"b": stubFactory("b"),
			"a": stubFactory("a"),
		}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t, tt.entries)
			dev, err := OpenDefault(cfg)
			if err != nil {
				t.Fatalf("OpenDefault() error = %v", err)
			}
			if dev.Name() != tt.want {
				t.Errorf("OpenDefault().Name() = %q, want %q", dev.Name(), tt.want)
			}
		})
	}
}

func TestRegistryOpenDefaultAllFail(t *testing.T) {
	cause := errors.New("no adapter")
	withRegistry(t, map[string]Factory{Native: failingFactory(cause)})
	if _, err := OpenDefault(Config{Width: 1, Height: 1}); !errors.Is(err, cause) {
		t.Errorf("OpenDefault() = %v, want %v", err, cause)
	}

	withRegistry(t, map[string]Factory{})
	if _, err := OpenDefault(Config{Width: 1, Height: 1}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("OpenDefault() on empty registry = %v", err)
	}
}

func TestRegistryUnregister(t *testing.T) {
	withRegistry(t, map[string]Factory{})
	Register("test-backend", stubFactory("test-backend"))

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}
