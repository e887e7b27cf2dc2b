// Package store persists raw and normalized documents as opaque JSON blobs
// keyed by project and document name.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrInvalidKey = errors.New("invalid document key")
)

var segment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Key identifies one stored document.
type Key struct {
	Project  string
	Document string
}

func (k Key) Validate() error {
	if !segment.MatchString(k.Project) {
		return fmt.Errorf("%w: project %q", ErrInvalidKey, k.Project)
	}
	if !segment.MatchString(k.Document) {
		return fmt.Errorf("%w: document %q", ErrInvalidKey, k.Document)
	}
	return nil
}

func (k Key) String() string {
	return k.Project + "/" + k.Document
}

// Store is the durable holder of documents. Implementations must be safe for
// concurrent use. Get returns ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "dir":
		return NewDir(cfg.Dir)
	case "nats":
		return NewNATS(ctx, cfg.NATSURL, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type instrumented struct {
	Store
	driver  string
	metrics *metrics.Metrics
}

// Instrument records every Get and Put of s under the given driver label.
func Instrument(s Store, driver string, m *metrics.Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, driver: driver, metrics: m}
}

func (s *instrumented) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := s.Store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		s.metrics.RecordStore(s.driver, "get", nil)
	} else {
		s.metrics.RecordStore(s.driver, "get", err)
	}
	return data, err
}

func (s *instrumented) Put(ctx context.Context, key Key, data []byte) error {
	err := s.Store.Put(ctx, key, data)
	s.metrics.RecordStore(s.driver, "put", err)
	return err
}

const defaultTimeout = 5 * time.Second

// applyTimeout bounds ctx unless it already carries a deadline.
func applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
