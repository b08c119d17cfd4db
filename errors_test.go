package convolve

import (
	"errors"
	"testing"
)

func TestLookupErrorMessage(t *testing.T) {
	tests := []struct {
		err  *LookupError
		want string
	}{
		{&LookupError{Index: 3}, "convolve: kernel 3 not found"},
		{&LookupError{Index: -1, Name: "blur"}, `convolve: kernel "blur" not found`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, ErrKernelNotFound) {
			t.Errorf("%v does not wrap ErrKernelNotFound", tt.err)
		}
	}
}

func TestConstructionError(t *testing.T) {
	incomplete := &ConstructionError{Target: 1, Status: FramebufferIncompleteDimensions}
	if !errors.Is(incomplete, ErrFramebufferIncomplete) {
		t.Error("status-only ConstructionError should wrap ErrFramebufferIncomplete")
	}
	if got, want := incomplete.Error(),
		"convolve: render target 1: framebuffer incomplete (FRAMEBUFFER_INCOMPLETE_DIMENSIONS)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := &DeviceError{Op: "create texture", Code: OutOfMemory}
	wrapped := &ConstructionError{Target: 0, Status: FramebufferIncompleteMissingAttachment, Err: cause}
	if !errors.Is(wrapped, ErrDevice) {
		t.Error("ConstructionError should unwrap to its cause")
	}
	if got, want := wrapped.Error(),
		"convolve: render target 0: convolve: create texture: OUT_OF_MEMORY"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDeviceError(t *testing.T) {
	err := &DeviceError{Op: "draw", Code: InvalidFramebufferOperation}
	if got, want := err.Error(), "convolve: draw: INVALID_FRAMEBUFFER_OPERATION"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrDevice) {
		t.Error("DeviceError should wrap ErrDevice")
	}
}
