package schemaerr

import "errors"

// Body is the error shape returned to callers of the engine.
type Body struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// NewBody converts an engine error into its caller-facing shape. Errors that
// do not belong to the engine's taxonomy are reported as an internal failure
// without leaking their message.
func NewBody(err error) Body {
	var resErr *ResolutionError
	var valErr *ValidationError
	var degErr *DegenerateError

	switch {
	case errors.As(err, &valErr):
		return Body{Error: "validation failed", Details: valErr.Findings}
	case errors.As(err, &degErr):
		return Body{Error: "validation failed", Details: degErr.Error()}
	case errors.As(err, &resErr):
		if errors.Is(resErr, ErrNoPaths) {
			return Body{Error: "document declares no paths", Details: resErr.Error()}
		}
		return Body{Error: "reference resolution failed", Details: resErr.Error()}
	default:
		return Body{Error: "internal server error"}
	}
}

// IsClientError reports whether err is caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrResolution) || errors.Is(err, ErrValidation)
}
