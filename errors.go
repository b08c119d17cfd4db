package convolve

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrKernelNotFound is returned when a kernel index or name is absent
	// from the catalog.
	ErrKernelNotFound = errors.New("convolve: kernel not found")

	// ErrInvalidKernel is returned when kernel weights contain NaN or Inf.
	ErrInvalidKernel = errors.New("convolve: invalid kernel weights")

	// ErrFramebufferIncomplete is returned when a render target fails the
	// framebuffer completeness check.
	ErrFramebufferIncomplete = errors.New("convolve: framebuffer incomplete")

	// ErrInvalidDimensions is returned for non-positive image sizes.
	ErrInvalidDimensions = errors.New("convolve: invalid dimensions")

	// ErrNilDevice is returned when a nil Device is passed to a constructor.
	ErrNilDevice = errors.New("convolve: device is nil")

	// ErrNilProgram is returned when a nil Program is passed to New.
	ErrNilProgram = errors.New("convolve: program is nil")

	// ErrNilSource is returned when the source image is nil or empty.
	ErrNilSource = errors.New("convolve: source image is nil")

	// ErrNilCatalog is returned when New receives a nil catalog.
	ErrNilCatalog = errors.New("convolve: catalog is nil")

	// ErrUniformNotFound is returned when the program lacks a required uniform.
	ErrUniformNotFound = errors.New("convolve: uniform not found")

	// ErrDevice is the root of all errors reported by the GPU context.
	ErrDevice = errors.New("convolve: device error")

	// ErrClosed is returned when operating on a closed pipeline or target.
	ErrClosed = errors.New("convolve: closed")
)

// LookupError reports a kernel missing from the catalog.
// Name is empty when the lookup was by index; Index is -1 when by name.
type LookupError struct {
	Index int
	Name  string
}

func (e *LookupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("convolve: kernel %q not found", e.Name)
	}
	return fmt.Sprintf("convolve: kernel %d not found", e.Index)
}

// Unwrap returns ErrKernelNotFound.
func (e *LookupError) Unwrap() error { return ErrKernelNotFound }

// ConstructionError reports a render target that could not be built.
// It is fatal: no pipeline is returned alongside it.
type ConstructionError struct {
	// Target is the ping-pong slot (0 or 1), or -1 for a standalone target.
	Target int

	// Status is the completeness status reported by the device.
	Status FramebufferStatus

	// Err is the underlying cause.
	Err error
}

func (e *ConstructionError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrFramebufferIncomplete) {
		return fmt.Sprintf("convolve: render target %d: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("convolve: render target %d: framebuffer incomplete (%s)", e.Target, e.Status)
}

func (e *ConstructionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFramebufferIncomplete
}

// DeviceError is a non-zero code reported by the device after a
// state-changing call.
type DeviceError struct {
	// Op names the call that preceded the error query.
	Op   string
	Code ErrorCode
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("convolve: %s: %s", e.Op, e.Code)
}

// Unwrap returns ErrDevice.
func (e *DeviceError) Unwrap() error { return ErrDevice }
