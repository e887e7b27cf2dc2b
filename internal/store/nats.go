package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATS stores documents in a JetStream key-value bucket under the key
// "<project>.<document>".
type NATS struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
}

// NewNATS connects to url and creates the bucket if it does not exist.
func NewNATS(ctx context.Context, url, bucket string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("weaver"))
	if err != nil {
		return nil, fmt.Errorf("nats store: connecting to %s: %w", url, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats store: jetstream: %w", err)
	}

	ctx, cancel := applyTimeout(ctx)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "API Weaver documents",
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats store: bucket %s: %w", bucket, err)
	}

	return &NATS{conn: conn, bucket: kv}, nil
}

func natsKey(key Key) string {
	return key.Project + "." + key.Document
}

func (n *NATS) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := applyTimeout(ctx)
	defer cancel()

	entry, err := n.bucket.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("nats store: get %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (n *NATS) Put(ctx context.Context, key Key, data []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}

	ctx, cancel := applyTimeout(ctx)
	defer cancel()

	if _, err := n.bucket.Put(ctx, natsKey(key), data); err != nil {
		return fmt.Errorf("nats store: put %s: %w", key, err)
	}
	return nil
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
