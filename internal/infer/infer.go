// Package infer derives JSON Schemas from example payloads.
//
// Inference assumes the sample is fully populated: every key of an object is
// listed as required and array items are described by the first element.
package infer

import (
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
)

// MaxDepth bounds the nesting depth inference descends into. Deeper values
// are described by their example only.
const MaxDepth = 256

// WrapKey names the single property a non-object top-level sample is wrapped
// in.
const WrapKey = "value"

// Infer derives the schema of a value found under the key name.
func Infer(name string, sample *jsonvalue.Value) *model.Schema {
	return infer(name, sample, 0)
}

// Object derives the schema of a top-level payload. A sample that is not an
// object is described as an object with a single WrapKey property.
func Object(sample *jsonvalue.Value) *model.Schema {
	sample = sample.AsObject()
	if sample.Kind() != jsonvalue.Object {
		wrapped := jsonvalue.NewObject()
		wrapped.Set(WrapKey, sample)
		sample = wrapped
	}

	s := &model.Schema{Type: model.TypeObject}
	properties(s, sample, 0)
	return s
}

// Description is the placeholder description attached to an inferred
// property.
func Description(name string) string {
	return "Description for " + name
}

func infer(name string, sample *jsonvalue.Value, depth int) *model.Schema {
	s := &model.Schema{
		Description: Description(name),
		Example:     sample,
	}
	if depth >= MaxDepth {
		return s
	}

	sample = sample.AsObject()
	switch sample.Kind() {
	case jsonvalue.Object:
		s.Type = model.TypeObject
		properties(s, sample, depth)
	case jsonvalue.Array:
		s.Type = model.TypeArray
		if first, ok := sample.Index(0); ok {
			s.Items = infer(name, first, depth+1)
		} else {
			// element type unknown
			s.Items = &model.Schema{}
		}
	case jsonvalue.String:
		s.Type = model.TypeString
	case jsonvalue.Number:
		s.Type = model.TypeNumber
	case jsonvalue.Bool:
		s.Type = model.TypeBoolean
	case jsonvalue.Null:
		s.Nullable = true
	}
	return s
}

func properties(s *model.Schema, sample *jsonvalue.Value, depth int) {
	s.Properties = []model.Property{}
	s.Required = []string{}
	for key, member := range sample.Fields() {
		s.Properties = append(s.Properties, model.Property{
			Name:   key,
			Schema: infer(key, member, depth+1),
		})
		s.Required = append(s.Required, key)
	}
}
