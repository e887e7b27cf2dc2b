package model

import (
	"bytes"
	"encoding/json"

	"github.com/pb33f/libopenapi/orderedmap"
)

type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathEntry holds the operations declared under one path, in document order.
type PathEntry struct {
	Path       string
	Operations []MethodOperation
}

type MethodOperation struct {
	Method Method
	Record *OperationRecord
}

// Catalog is the canonical metadata of a document: path, then method, then
// operation record. Iteration and JSON encoding follow declaration order.
type Catalog struct {
	paths *orderedmap.Map[string, *orderedmap.Map[Method, *OperationRecord]]
}

// NewCatalog reduces flattened path entries into a catalog. A path or method
// that appears twice keeps its first position and its last record.
func NewCatalog(entries []PathEntry) *Catalog {
	c := &Catalog{paths: orderedmap.New[string, *orderedmap.Map[Method, *OperationRecord]]()}
	for _, e := range entries {
		methods, ok := c.paths.Get(e.Path)
		if !ok {
			methods = orderedmap.New[Method, *OperationRecord]()
			c.paths.Set(e.Path, methods)
		}
		for _, op := range e.Operations {
			methods.Set(op.Method, op.Record)
		}
	}
	return c
}

func (c *Catalog) Paths() []string {
	out := make([]string, 0, c.paths.Len())
	for p := range c.paths.FromOldest() {
		out = append(out, p)
	}
	return out
}

func (c *Catalog) Methods(path string) []Method {
	methods, ok := c.paths.Get(path)
	if !ok {
		return nil
	}
	out := make([]Method, 0, methods.Len())
	for m := range methods.FromOldest() {
		out = append(out, m)
	}
	return out
}

func (c *Catalog) Operation(path string, method Method) (*OperationRecord, bool) {
	methods, ok := c.paths.Get(path)
	if !ok {
		return nil, false
	}
	return methods.Get(method)
}

// OperationCount returns the number of operations across all paths.
func (c *Catalog) OperationCount() int {
	n := 0
	for _, methods := range c.paths.FromOldest() {
		n += methods.Len()
	}
	return n
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	firstPath := true
	for path, methods := range c.paths.FromOldest() {
		if !firstPath {
			buf.WriteByte(',')
		}
		firstPath = false
		if err := writeKey(&buf, path); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		firstMethod := true
		for method, record := range methods.FromOldest() {
			if !firstMethod {
				buf.WriteByte(',')
			}
			firstMethod = false
			if err := writeKey(&buf, string(method)); err != nil {
				return nil, err
			}
			raw, err := json.Marshal(record)
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}
