package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// MaxDocumentSize caps the size of an external document.
const MaxDocumentSize = 10 * 1024 * 1024

var (
	// ErrExternalDisabled is returned for references to other documents when
	// no loader is configured for them.
	ErrExternalDisabled = errors.New("external references are disabled")

	// ErrPathTraversal is returned for file references escaping the base
	// directory.
	ErrPathTraversal = errors.New("path traversal detected")
)

// Fetcher loads documents referenced from another document.
type Fetcher interface {
	// Join resolves rel against the key of the referencing document ("" for
	// the root document) and returns the key of the referenced document.
	Join(base, rel string) (string, error)
	// Fetch returns the bytes of the document identified by key.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// NoExternal rejects every reference to another document.
type NoExternal struct{}

func (NoExternal) Join(_, rel string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrExternalDisabled, rel)
}

func (NoExternal) Fetch(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrExternalDisabled, key)
}

// Loader fetches file references below BaseDir and, when Remote is set,
// http and https references.
type Loader struct {
	// BaseDir anchors relative file references of the root document. Empty
	// disables file references.
	BaseDir string
	// Remote enables http and https references.
	Remote bool
	// Client performs remote fetches; http.DefaultClient when nil.
	Client *http.Client
}

func (l *Loader) Join(base, rel string) (string, error) {
	if u, err := url.Parse(rel); err == nil && isRemote(u) {
		if !l.Remote {
			return "", fmt.Errorf("%w: %s", ErrExternalDisabled, rel)
		}
		return u.String(), nil
	}

	if b, err := url.Parse(base); err == nil && isRemote(b) {
		r, err := url.Parse(rel)
		if err != nil {
			return "", fmt.Errorf("invalid reference %q: %w", rel, err)
		}
		return b.ResolveReference(r).String(), nil
	}

	if l.BaseDir == "" {
		return "", fmt.Errorf("%w: %s", ErrExternalDisabled, rel)
	}
	root, err := filepath.Abs(l.BaseDir)
	if err != nil {
		return "", err
	}

	dir := root
	if base != "" {
		dir = filepath.Dir(base)
	}
	target := filepath.Clean(filepath.Join(dir, filepath.FromSlash(rel)))
	if filepath.IsAbs(rel) {
		target = filepath.Clean(rel)
	}

	within, err := filepath.Rel(root, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return target, nil
}

func (l *Loader) Fetch(ctx context.Context, key string) ([]byte, error) {
	if u, err := url.Parse(key); err == nil && isRemote(u) {
		return l.fetchRemote(ctx, u.String())
	}

	info, err := os.Stat(key)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxDocumentSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", key, MaxDocumentSize)
	}
	return os.ReadFile(key)
}

func (l *Loader) fetchRemote(ctx context.Context, target string) ([]byte, error) {
	if !l.Remote {
		return nil, fmt.Errorf("%w: %s", ErrExternalDisabled, target)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", target, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", target, MaxDocumentSize)
	}
	return data, nil
}

func isRemote(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}
