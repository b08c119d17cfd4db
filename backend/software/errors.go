package software

import "errors"

// Package errors for the software device.
var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("software: invalid dimensions")

	// ErrPixelSize is returned when uploaded pixels do not match the texture size.
	ErrPixelSize = errors.New("software: pixel data does not match texture size")

	// ErrForeignHandle is returned when a handle was not created by this device
	// or has been deleted.
	ErrForeignHandle = errors.New("software: unknown or deleted handle")

	// ErrContextLost is returned when creating resources on a lost context.
	ErrContextLost = errors.New("software: context lost")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("software: device closed")
)
