package native

import "errors"

var (
	// ErrNoAdapter is returned by Open when no usable GPU adapter exists.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrNoHalProvider is returned when a device provider does not expose
	// HAL device and queue handles.
	ErrNoHalProvider = errors.New("native: provider does not expose HAL types")

	// ErrInvalidDimensions is returned for non-positive sizes.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrPixelSize is returned when uploaded pixels do not match the size.
	ErrPixelSize = errors.New("native: pixel buffer size mismatch")

	// ErrForeignHandle is returned for handles created by another device.
	ErrForeignHandle = errors.New("native: handle does not belong to this device")

	// ErrNoReadback is returned by ReadDisplay when the display is an
	// external surface.
	ErrNoReadback = errors.New("native: display surface is not readable")

	// ErrContextLost is returned after a submission failure.
	ErrContextLost = errors.New("native: device lost")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: device closed")
)
