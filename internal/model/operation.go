package model

import (
	"strings"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/pb33f/libopenapi/orderedmap"
)

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
)

// Methods is the fixed set of HTTP methods recognised in a path item.
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodOptions,
	MethodHead,
}

// ParseMethod maps a path item key such as "get" to a Method. Path item
// keys are case-sensitive: "GET" is not an operation.
func ParseMethod(key string) (Method, bool) {
	for _, known := range Methods {
		if key == known.Key() {
			return known, true
		}
	}
	return "", false
}

// Key returns the lowercase path item key for the method.
func (m Method) Key() string {
	return strings.ToLower(string(m))
}

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

func (l ParameterLocation) Valid() bool {
	switch l {
	case LocationPath, LocationQuery, LocationHeader, LocationCookie:
		return true
	}
	return false
}

// ParameterEntry is one declared parameter. Required and Description are
// nil when the source parameter did not declare them, which is distinct from
// an explicit false or empty string.
type ParameterEntry struct {
	Name        string            `json:"name"`
	In          ParameterLocation `json:"in"`
	Required    *bool             `json:"required,omitempty"`
	Description *string           `json:"description,omitempty"`
	Schema      *jsonvalue.Value  `json:"schema,omitempty"`
}

// ResponseEntry is one response of an operation keyed by its status code.
type ResponseEntry struct {
	StatusCode  string           `json:"statusCode"`
	Description string           `json:"description,omitempty"`
	Content     *jsonvalue.Value `json:"content,omitempty"`
	Headers     *jsonvalue.Value `json:"headers,omitempty"`
}

// OperationRecord is the canonical view of one operation. Output holds the
// 2xx responses and ErrorResponses the 4xx and 5xx ones. Input maps media
// types to their request body content and is never nil.
type OperationRecord struct {
	Output         []ResponseEntry  `json:"output"`
	Input          *jsonvalue.Value `json:"input"`
	Parameters     []ParameterEntry `json:"parameters"`
	ErrorResponses []ResponseEntry  `json:"errorResponses"`
	OperationID    string           `json:"operationId,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Description    string           `json:"description,omitempty"`
}

// NewOperationRecord returns a record with empty, non-nil collections.
func NewOperationRecord() *OperationRecord {
	return &OperationRecord{
		Output:         []ResponseEntry{},
		Input:          jsonvalue.NewObject(),
		Parameters:     []ParameterEntry{},
		ErrorResponses: []ResponseEntry{},
	}
}

// ParameterSet reduces the record's parameters into a set keyed by name and
// location.
func (r *OperationRecord) ParameterSet() *ParameterSet {
	set := NewParameterSet()
	for _, p := range r.Parameters {
		set.Add(p)
	}
	return set
}

// ParameterKey identifies a parameter within an operation.
type ParameterKey struct {
	Name string
	In   ParameterLocation
}

// ParameterSet is an ordered map of parameters keyed by (name, in).
// Adding a parameter whose key is already present replaces the stored entry
// (last write wins) while the key keeps the position of its first occurrence.
type ParameterSet struct {
	entries *orderedmap.Map[ParameterKey, ParameterEntry]
}

func NewParameterSet() *ParameterSet {
	return &ParameterSet{entries: orderedmap.New[ParameterKey, ParameterEntry]()}
}

func (s *ParameterSet) Add(p ParameterEntry) {
	s.entries.Set(ParameterKey{Name: p.Name, In: p.In}, p)
}

func (s *ParameterSet) Get(name string, in ParameterLocation) (ParameterEntry, bool) {
	return s.entries.Get(ParameterKey{Name: name, In: in})
}

func (s *ParameterSet) Len() int {
	return s.entries.Len()
}

// Entries returns the parameters in key order.
func (s *ParameterSet) Entries() []ParameterEntry {
	out := make([]ParameterEntry, 0, s.entries.Len())
	for _, p := range s.entries.FromOldest() {
		out = append(out, p)
	}
	return out
}
