package backend

import (
	"errors"
	"image"

	"github.com/gogpu/convolve"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered
	// or cannot open a device on this machine.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrInvalidConfig is returned when Config has non-positive dimensions.
	ErrInvalidConfig = errors.New("backend: invalid config")
)

// Backend name constants.
const (
	// Software is the CPU reference device.
	Software = "software"

	// Native is the WebGPU HAL device (gogpu/wgpu).
	Native = "native"
)

// Config describes the display surface a device presents to.
type Config struct {
	// Width and Height are the display size in pixels.
	Width  int
	Height int

	// Label names GPU resources for debugging. Empty uses the backend name.
	Label string
}

// Validate reports whether cfg can open a device.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Device is a convolve.Device that also owns its shader program and can
// read back the display surface.
//
// Backends must be registered via Register() and are opened via
// Open() or OpenDefault().
type Device interface {
	convolve.Device

	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Program returns the linked convolution program for this device.
	Program() convolve.Program

	// ReadDisplay copies the display surface into a new image, top row
	// first.
	ReadDisplay() (*image.RGBA, error)

	// Close releases all device resources.
	// The device should not be used after Close is called.
	Close()
}
