package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrExtensionQuery means the window layer could not report the instance
	// extensions it needs, or the loader does not offer one of them.
	ErrExtensionQuery = errors.New("instance extension query failed")

	// ErrValidationLayerUnsupported is returned before instance creation when a
	// configured validation layer is missing.
	ErrValidationLayerUnsupported = errors.New("validation layer unsupported")

	ErrNoSuitableDevice     = errors.New("no suitable physical device")
	ErrSurfaceChainCreation = errors.New("surface chain creation failed")

	// ErrSurfaceFormatChanged is fatal: the render pass and pipeline were built
	// for the old format.
	ErrSurfaceFormatChanged = errors.New("surface format changed")

	// ErrSurfaceUnavailable means the window has no drawable area (minimized),
	// so no chain can be built right now.
	ErrSurfaceUnavailable = errors.New("surface has no drawable area")

	ErrInvalidShaderBinary = errors.New("invalid shader binary")
	ErrMemoryTypeNotFound  = errors.New("no suitable memory type")

	// ErrOutOfDate is how drivers report a stale swapchain on acquire or present.
	ErrOutOfDate = errors.New("swapchain out of date")

	ErrShutdown = errors.New("render state is shut down")
)

// chainError classifies err as a surface chain creation failure while keeping
// the driver cause in the chain.
func chainError(err error, op string) error {
	return Classify(errors.Wrap(err, op), ErrSurfaceChainCreation)
}

// Classify returns err unchanged in message and cause chain, but matching
// class under both the standard library's errors.Is and cockroachdb's.
func Classify(err, class error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{cause: err, class: class}
}

type classifiedError struct {
	cause error
	class error
}

func (e *classifiedError) Error() string { return e.cause.Error() }
func (e *classifiedError) Unwrap() error { return e.cause }

func (e *classifiedError) Is(target error) bool { return target == e.class }

func (e *classifiedError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

func (e *classifiedError) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("classified as: %v", e.class)
	}
	return e.cause
}
