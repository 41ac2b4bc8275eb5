package invoicer

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("invoicer: not found")
	ErrInvalidInput = errors.New("invoicer: invalid input")

	// Session errors
	ErrSessionNotFound = errors.New("invoicer: session not found")
	ErrSessionExists   = errors.New("invoicer: session already exists")
	ErrSessionLimit    = errors.New("invoicer: session limit reached")
	ErrItemNotFound    = errors.New("invoicer: item not found")
	ErrLastItem        = errors.New("invoicer: document must keep at least one item")

	// Export errors
	ErrExportFailed   = errors.New("invoicer: export failed")
	ErrRenderFailed   = errors.New("invoicer: render failed")
	ErrInvalidImage   = errors.New("invoicer: invalid image")
	ErrUnknownFormat  = errors.New("invoicer: unknown document format")
	ErrIncompleteData = errors.New("invoicer: document incomplete")

	// Engine errors
	ErrEngineStopped = errors.New("invoicer: engine stopped")

	// Store errors
	ErrStoreNotReady = errors.New("invoicer: store not ready")
	ErrStoreClosed   = errors.New("invoicer: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invoicer: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "invoicer: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("invoicer: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrorOrNil returns e when it holds errors, otherwise nil.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsValidation returns true if the error was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidImage) ||
		errors.Is(err, ErrUnknownFormat) ||
		errors.Is(err, ErrIncompleteData)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrExportFailed) ||
		errors.Is(err, ErrRenderFailed) ||
		errors.Is(err, ErrStoreNotReady)
}
