package model

import "github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

// SchemaTypes lists the types an OpenAPI 3.0 schema may declare.
var SchemaTypes = []SchemaType{TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeObject}

// Schema is a JSON Schema fragment derived from an example value.
// An empty Type means the type could not be determined.
type Schema struct {
	Type        SchemaType
	Nullable    bool
	Description string
	Example     *jsonvalue.Value

	// Object properties, in sample order
	Properties []Property
	Required   []string

	// Array items
	Items *Schema
}

type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the named property schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// Value renders the schema as a JSON tree suitable for embedding in an
// OpenAPI document.
func (s *Schema) Value() *jsonvalue.Value {
	out := jsonvalue.NewObject()
	if s == nil {
		return out
	}
	if s.Type != "" {
		out.Set("type", jsonvalue.NewString(string(s.Type)))
	}
	if s.Nullable {
		out.Set("nullable", jsonvalue.NewBool(true))
	}
	if s.Type == TypeObject {
		props := jsonvalue.NewObject()
		for _, p := range s.Properties {
			props.Set(p.Name, p.Schema.Value())
		}
		out.Set("properties", props)
		if len(s.Required) > 0 {
			required := jsonvalue.NewArray()
			for _, name := range s.Required {
				required.Append(jsonvalue.NewString(name))
			}
			out.Set("required", required)
		}
	}
	if s.Type == TypeArray {
		out.Set("items", s.Items.Value())
	}
	if s.Description != "" {
		out.Set("description", jsonvalue.NewString(s.Description))
	}
	if s.Example != nil {
		out.Set("example", s.Example)
	}
	return out
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return s.Value().MarshalJSON()
}
