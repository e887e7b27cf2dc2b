package middleware

import (
	"context"
)

type contextKey string

const securityContextKey contextKey = "weaver:security"

// Identity is the principal an Auth Verifier resolved a credential to.
type Identity struct {
	Subject string
	// Scheme names the security scheme that produced the identity
	Scheme string
}

// SecurityContext holds every identity established for a request. Several
// are present when a security requirement combines schemes.
type SecurityContext struct {
	Identities []Identity
}

// Subject returns the subject of the first identity, or "".
func (s *SecurityContext) Subject() string {
	if s == nil || len(s.Identities) == 0 {
		return ""
	}
	return s.Identities[0].Subject
}

// WithSecurityContext stores security context in the request context.
func WithSecurityContext(ctx context.Context, sec *SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sec)
}

// GetSecurityContext retrieves security context from the request context.
func GetSecurityContext(ctx context.Context) *SecurityContext {
	if v := ctx.Value(securityContextKey); v != nil {
		return v.(*SecurityContext)
	}
	return nil
}

// IdentityFrom returns the first identity established for the request.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	sec := GetSecurityContext(ctx)
	if sec == nil || len(sec.Identities) == 0 {
		return Identity{}, false
	}
	return sec.Identities[0], true
}
