package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir stores each document as <root>/<project>/<document>.json.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("dir store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("dir store: creating %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(key Key) string {
	return filepath.Join(d.root, key.Project, key.Document+".json")
}

func (d *Dir) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dir store: reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes through a temporary file so readers never observe a partial
// document.
func (d *Dir) Put(ctx context.Context, key Key, data []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(d.root, key.Project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dir store: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+key.Document+"-*.tmp")
	if err != nil {
		return fmt.Errorf("dir store: writing %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("dir store: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dir store: writing %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		return fmt.Errorf("dir store: writing %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Close() error { return nil }
