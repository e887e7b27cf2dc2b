package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
	"github.com/pb33f/libopenapi-validator/errors"
)

// Realm names the protection space in WWW-Authenticate challenges.
const Realm = "weaver"

// ValidationError reports a request that does not satisfy the service
// contract.
type ValidationError struct {
	StatusCode int
	Method     string
	Path       string
	Errors     []*errors.ValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: request validation failed with %d findings", e.Method, e.Path, len(e.Errors))
}

// Findings converts the validator's errors into the service's finding shape.
// SchemaPath carries the validator's error category.
func (e *ValidationError) Findings() []schemaerr.Finding {
	out := make([]schemaerr.Finding, 0, len(e.Errors))
	for _, v := range e.Errors {
		f := schemaerr.Finding{
			Message:    v.Message,
			SchemaPath: v.ValidationType,
			Details:    v.Reason,
		}
		if v.HowToFix != "" {
			f.Details = strings.TrimSpace(f.Details + " " + v.HowToFix)
		}
		out = append(out, f)
	}
	return out
}

// AuthError is a credential that is missing, rejected (401) or not allowed
// to reach the operation (403).
type AuthError struct {
	StatusCode int
	Scheme     string
	Message    string
	// Cause is the verifier error behind a rejected credential.
	Cause error
}

func (e *AuthError) Error() string {
	if e.Scheme == "" {
		return e.Message
	}
	return e.Scheme + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Cause }

func (e *AuthError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *AuthError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// Challenge returns the WWW-Authenticate value for a 401 response.
func (e *AuthError) Challenge() string {
	if e.Cause != nil {
		return fmt.Sprintf(`Bearer realm=%q, error="invalid_token"`, Realm)
	}
	return fmt.Sprintf("Bearer realm=%q", Realm)
}

func NewUnauthorizedError(scheme, message string) *AuthError {
	return &AuthError{
		StatusCode: http.StatusUnauthorized,
		Scheme:     scheme,
		Message:    message,
	}
}

// NewRejectedError is a 401 for a credential the verifier refused.
func NewRejectedError(scheme string, cause error) *AuthError {
	return &AuthError{
		StatusCode: http.StatusUnauthorized,
		Scheme:     scheme,
		Message:    "credential rejected",
		Cause:      cause,
	}
}

func NewForbiddenError(scheme, message string) *AuthError {
	return &AuthError{
		StatusCode: http.StatusForbidden,
		Scheme:     scheme,
		Message:    message,
	}
}
