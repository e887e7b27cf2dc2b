package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidToken is returned by verifiers for an unknown credential.
var ErrInvalidToken = errors.New("invalid token")

// Verifier checks an opaque credential and resolves it to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Identity, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// StaticVerifier accepts the tokens of a fixed token to subject map.
func StaticVerifier(tokens map[string]string) Verifier {
	return VerifierFunc(func(_ context.Context, token string) (Identity, error) {
		for known, subject := range tokens {
			if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
				return Identity{Subject: subject}, nil
			}
		}
		return Identity{}, ErrInvalidToken
	})
}

// SecurityHandler validates credentials for a specific security scheme.
type SecurityHandler interface {
	Handle(r *http.Request, scopes []string) (Identity, error)
}

// BearerHandler validates HTTP Bearer authentication.
type BearerHandler struct {
	Scheme   string
	Verifier Verifier
}

// Handle implements SecurityHandler.
func (h BearerHandler) Handle(r *http.Request, _ []string) (Identity, error) {
	token := ExtractBearerToken(r)
	if token == "" {
		return Identity{}, NewUnauthorizedError(h.Scheme, "missing bearer token")
	}
	return verify(r.Context(), h.Verifier, h.Scheme, token)
}

// APIKeyHandler validates an API key read from a header, query parameter or
// cookie.
type APIKeyHandler struct {
	Scheme   string
	Verifier Verifier
	Location string
	Name     string
}

// Handle implements SecurityHandler.
func (h APIKeyHandler) Handle(r *http.Request, _ []string) (Identity, error) {
	key := ExtractAPIKey(r, h.Location, h.Name)
	if key == "" {
		return Identity{}, NewUnauthorizedError(h.Scheme, "missing API key")
	}
	return verify(r.Context(), h.Verifier, h.Scheme, key)
}

func verify(ctx context.Context, v Verifier, scheme, credential string) (Identity, error) {
	id, err := v.Verify(ctx, credential)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return Identity{}, authErr
		}
		return Identity{}, NewRejectedError(scheme, err)
	}
	id.Scheme = scheme
	return id, nil
}

// SecurityRegistry holds handlers for named security schemes.
type SecurityRegistry struct {
	handlers map[string]SecurityHandler
}

// NewSecurityRegistry creates a new security registry.
func NewSecurityRegistry() *SecurityRegistry {
	return &SecurityRegistry{handlers: make(map[string]SecurityHandler)}
}

// Register adds a handler for a named security scheme.
func (r *SecurityRegistry) Register(name string, handler SecurityHandler) {
	r.handlers[name] = handler
}

// RegisterBearer verifies the bearer token of scheme name with v.
func (r *SecurityRegistry) RegisterBearer(name string, v Verifier) {
	r.handlers[name] = BearerHandler{Scheme: name, Verifier: v}
}

// RegisterAPIKey verifies the API key of scheme name with v.
func (r *SecurityRegistry) RegisterAPIKey(name string, v Verifier, location, paramName string) {
	r.handlers[name] = APIKeyHandler{Scheme: name, Verifier: v, Location: location, Name: paramName}
}

// Get returns the handler for a scheme, or nil if not registered.
func (r *SecurityRegistry) Get(name string) SecurityHandler {
	return r.handlers[name]
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// ExtractAPIKey extracts an API key from the specified location.
func ExtractAPIKey(r *http.Request, location, name string) string {
	switch location {
	case "header":
		return r.Header.Get(name)
	case "query":
		return r.URL.Query().Get(name)
	case "cookie":
		if c, err := r.Cookie(name); err == nil {
			return c.Value
		}
	}
	return ""
}
