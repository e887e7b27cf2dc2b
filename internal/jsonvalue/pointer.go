package jsonvalue

import (
	"fmt"
	"net/url"
	"strings"
)

// ParsePointer splits a URI fragment holding a JSON pointer (RFC 6901) into
// its unescaped reference tokens. An empty fragment addresses the root.
func ParsePointer(fragment string) ([]string, error) {
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		return nil, fmt.Errorf("invalid pointer %q: %w", fragment, err)
	}
	if decoded == "" {
		return nil, nil
	}
	if !strings.HasPrefix(decoded, "/") {
		return nil, fmt.Errorf("invalid pointer %q: must start with /", fragment)
	}
	parts := strings.Split(decoded[1:], "/")
	for i, p := range parts {
		parts[i] = unescapeToken(p)
	}
	return parts, nil
}

// FormatPointer is the inverse of ParsePointer.
func FormatPointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(escapeToken(t))
	}
	return b.String()
}

func unescapeToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

func escapeToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
