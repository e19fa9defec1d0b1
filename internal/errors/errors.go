// Package errors defines the block failure taxonomy: every way a block
// can fail to render is one of a small set of kinds, each contained at
// the single-block boundary. Nothing in this package is fatal to a
// page; failures convert into fallback fragments at the renderer.
package errors

import (
	"errors"
	"fmt"
)

// FailureKind categorizes block failures.
type FailureKind string

const (
	// KindUnregistered means the requested name has no known loader.
	// Not surfaced as an error at the registry API; it exists so
	// fallbacks and logs can name the condition.
	KindUnregistered FailureKind = "unregistered"
	// KindLoad means a loader's asynchronous resolution failed.
	KindLoad FailureKind = "load"
	// KindRender means a resolved implementation failed while
	// producing its fragment.
	KindRender FailureKind = "render"
	// KindDescriptor means the descriptor itself is malformed and
	// never reached the registry.
	KindDescriptor FailureKind = "descriptor"
)

// BlockError is a structured failure tied to one block type.
type BlockError struct {
	Kind        FailureKind
	Code        string
	Block       string
	Message     string
	Cause       error
	Recoverable bool
}

// Error implements the error interface.
func (e *BlockError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind)
	if e.Code != "" {
		msg += fmt.Sprintf("[%s]", e.Code)
	}
	if e.Block != "" {
		msg += " block:" + e.Block
	}
	msg += " " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *BlockError) Unwrap() error {
	return e.Cause
}

// Is matches on kind and code so callers can compare against sentinel
// shapes without caring about block names or causes.
func (e *BlockError) Is(target error) bool {
	var t *BlockError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
	}
	return false
}

// NewLoadError wraps a loader failure. Load failures are retryable:
// the registry drops the in-flight entry so the next demand starts a
// fresh load.
func NewLoadError(block string, cause error) *BlockError {
	return &BlockError{
		Kind:        KindLoad,
		Code:        "load_failed",
		Block:       block,
		Message:     "implementation load failed",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewLoadPanicError wraps a panic raised inside a loader.
func NewLoadPanicError(block string, recovered any) *BlockError {
	return &BlockError{
		Kind:        KindLoad,
		Code:        "load_panic",
		Block:       block,
		Message:     fmt.Sprintf("implementation loader panicked: %v", recovered),
		Recoverable: true,
	}
}

// NewRenderError wraps a failure inside a resolved implementation.
// The registry cache is unaffected: the implementation did load.
func NewRenderError(block string, cause error) *BlockError {
	return &BlockError{
		Kind:        KindRender,
		Code:        "render_failed",
		Block:       block,
		Message:     "implementation render failed",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewRenderPanicError wraps a panic recovered by the fault boundary.
func NewRenderPanicError(block string, recovered any) *BlockError {
	return &BlockError{
		Kind:        KindRender,
		Code:        "render_panic",
		Block:       block,
		Message:     fmt.Sprintf("implementation panicked during render: %v", recovered),
		Recoverable: true,
	}
}

// NewUnregisteredError names the unregistered-block condition for
// fallbacks and diagnostics. The registry itself never returns this;
// unknown names resolve to nil.
func NewUnregisteredError(block string) *BlockError {
	return &BlockError{
		Kind:        KindUnregistered,
		Code:        "unregistered_type",
		Block:       block,
		Message:     "no implementation registered",
		Recoverable: false,
	}
}

// NewDescriptorError reports a malformed descriptor.
func NewDescriptorError(message string) *BlockError {
	return &BlockError{
		Kind:        KindDescriptor,
		Code:        "invalid_descriptor",
		Message:     message,
		Recoverable: false,
	}
}

// KindOf extracts the failure kind from any error, returning ok=false
// for errors that are not BlockErrors.
func KindOf(err error) (FailureKind, bool) {
	var be *BlockError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return "", false
}
