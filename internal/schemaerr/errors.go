// Package schemaerr defines the errors reported by the normalization and
// inference engine.
//
// Every error type matches a sentinel through errors.Is, so callers can
// classify failures without type assertions:
//
//	if errors.Is(err, schemaerr.ErrResolution) {
//	    // a $ref could not be resolved
//	}
//
// None of these errors is retryable: the engine is a pure transformation and
// the same input always fails the same way.
package schemaerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResolution matches any ResolutionError.
	ErrResolution = errors.New("resolution error")

	// ErrCircularReference matches a ResolutionError for a reference chain
	// that loops back on itself without reaching a value.
	ErrCircularReference = errors.New("circular reference")

	// ErrNoPaths indicates a document without any paths.
	ErrNoPaths = errors.New("document declares no paths")

	// ErrValidation matches any ValidationError or DegenerateError.
	ErrValidation = errors.New("validation error")

	// ErrInferenceDegenerate matches a DegenerateError.
	ErrInferenceDegenerate = errors.New("degenerate sample")
)

// ResolutionError reports a reference that could not be located, or a
// document that cannot be dereferenced into usable input.
type ResolutionError struct {
	// Ref is the reference as written in the document, if any
	Ref string
	// Pointer locates the node holding the reference
	Pointer string
	// Circular is set when the reference chain loops without reaching a value
	Circular bool
	// Cause is the underlying error, if any
	Cause error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("resolution error")
	if e.Ref != "" {
		fmt.Fprintf(&b, ": $ref %q", e.Ref)
	}
	if e.Pointer != "" {
		fmt.Fprintf(&b, " at %s", e.Pointer)
	}
	if e.Circular {
		b.WriteString(": circular reference")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

func (e *ResolutionError) Is(target error) bool {
	switch target {
	case ErrResolution:
		return true
	case ErrCircularReference:
		return e.Circular
	}
	return false
}

// Finding is a single structural rule violation.
type Finding struct {
	Message    string `json:"message"`
	Path       string `json:"path"`
	SchemaPath string `json:"schemaPath"`
	Details    string `json:"details,omitempty"`
}

// ValidationError carries every rule violation found in a document.
type ValidationError struct {
	Findings []Finding
}

func (e *ValidationError) Error() string {
	switch len(e.Findings) {
	case 0:
		return "validation error"
	case 1:
		return "validation error: " + e.Findings[0].String()
	default:
		return fmt.Sprintf("validation error: %s (and %d more)", e.Findings[0].String(), len(e.Findings)-1)
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (f Finding) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// DegenerateError reports a sample with no observable shape.
type DegenerateError struct {
	// Sample names the offending sample, e.g. "input" or "output"
	Sample string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%s sample is empty: a payload with no observable shape cannot be documented", e.Sample)
}

func (e *DegenerateError) Is(target error) bool {
	return target == ErrInferenceDegenerate || target == ErrValidation
}
