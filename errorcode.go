package convolve

import "fmt"

// ErrorCode is the closed set of error codes a Device may report.
type ErrorCode uint8

const (
	// NoError means the device has no pending error.
	NoError ErrorCode = iota

	// InvalidEnum means an unacceptable value was given for an enumerated argument.
	InvalidEnum

	// InvalidValue means a numeric argument was out of range.
	InvalidValue

	// InvalidOperation means the call is not allowed in the current state.
	InvalidOperation

	// InvalidFramebufferOperation means the bound framebuffer is not complete.
	InvalidFramebufferOperation

	// OutOfMemory means the device could not allocate a resource.
	OutOfMemory

	// ContextLost means the device context was lost and must be recreated.
	ContextLost

	// Unexpected covers every code outside the enumeration above.
	Unexpected
)

// GL and WebGL numeric error codes.
const (
	glNoError                     = 0
	glInvalidEnum                 = 0x0500
	glInvalidValue                = 0x0501
	glInvalidOperation            = 0x0502
	glOutOfMemory                 = 0x0505
	glInvalidFramebufferOperation = 0x0506
	glContextLostWebGL            = 0x9242
)

// ErrorCodeFromGL translates a raw GL or WebGL error value.
// Values outside the known set map to Unexpected.
func ErrorCodeFromGL(code uint32) ErrorCode {
	switch code {
	case glNoError:
		return NoError
	case glInvalidEnum:
		return InvalidEnum
	case glInvalidValue:
		return InvalidValue
	case glInvalidOperation:
		return InvalidOperation
	case glInvalidFramebufferOperation:
		return InvalidFramebufferOperation
	case glOutOfMemory:
		return OutOfMemory
	case glContextLostWebGL:
		return ContextLost
	default:
		return Unexpected
	}
}

// String returns the human-readable name of the code.
func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case InvalidFramebufferOperation:
		return "INVALID_FRAMEBUFFER_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case ContextLost:
		return "CONTEXT_LOST_WEBGL"
	default:
		return "UNEXPECTED ERROR"
	}
}

// GoString is used by %#v.
func (c ErrorCode) GoString() string {
	return fmt.Sprintf("convolve.ErrorCode(%d)", uint8(c))
}
