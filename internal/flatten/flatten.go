// Package flatten reduces a dereferenced OpenAPI document to one record per
// path and method.
package flatten

import (
	"errors"
	"fmt"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/gautamkmahato/API-Weaver-Server/internal/resolver"
)

// Warning codes.
const (
	WarnMissingOperation = "missing-operation"
	WarnDroppedStatus    = "dropped-status"
	WarnInvalidParameter = "invalid-parameter"
)

var errNilDocument = errors.New("flatten: nil document")

// Warning reports input the flattener skipped.
type Warning struct {
	Code       string `json:"code"`
	Path       string `json:"path"`
	Method     string `json:"method,omitempty"`
	StatusCode string `json:"statusCode,omitempty"`
	Message    string `json:"message"`
}

type Result struct {
	Paths    []model.PathEntry
	Warnings []Warning
}

// Catalog reduces the flattened entries into the canonical path to method to
// record mapping.
func (r *Result) Catalog() *model.Catalog {
	return model.NewCatalog(r.Paths)
}

// Flatten walks the document's paths in declaration order. Malformed entries
// are skipped and reported as warnings; only a nil document is an error.
func Flatten(doc *resolver.Document) (*Result, error) {
	if doc == nil || doc.Root == nil {
		return nil, errNilDocument
	}

	f := &flattener{}
	result := &Result{Paths: []model.PathEntry{}}

	paths, _ := doc.Root.Get("paths")
	for path, item := range paths.Fields() {
		result.Paths = append(result.Paths, f.path(path, item))
	}
	result.Warnings = f.warnings
	return result, nil
}

type flattener struct {
	warnings []Warning
}

func (f *flattener) warn(w Warning) {
	f.warnings = append(f.warnings, w)
}

func (f *flattener) path(path string, item *jsonvalue.Value) model.PathEntry {
	entry := model.PathEntry{Path: path, Operations: []model.MethodOperation{}}

	shared, _ := item.Get("parameters")

	for key, op := range item.Fields() {
		method, ok := model.ParseMethod(key)
		if !ok {
			continue
		}
		if op.Kind() != jsonvalue.Object {
			f.warn(Warning{
				Code:    WarnMissingOperation,
				Path:    path,
				Method:  string(method),
				Message: fmt.Sprintf("operation is %s, not an object", op.Kind()),
			})
			continue
		}
		entry.Operations = append(entry.Operations, model.MethodOperation{
			Method: method,
			Record: f.operation(path, method, op, shared),
		})
	}
	return entry
}

func (f *flattener) operation(path string, method model.Method, op, shared *jsonvalue.Value) *model.OperationRecord {
	rec := model.NewOperationRecord()
	rec.OperationID = field(op, "operationId").Str()
	rec.Summary = field(op, "summary").Str()
	rec.Description = field(op, "description").Str()

	if content, ok := op.Lookup("requestBody", "content"); ok && content.Kind() == jsonvalue.Object {
		rec.Input = content
	}

	own, _ := op.Get("parameters")
	for _, list := range []*jsonvalue.Value{shared, own} {
		for i, p := range list.Items() {
			param, ok := parameter(p)
			if !ok {
				f.warn(Warning{
					Code:    WarnInvalidParameter,
					Path:    path,
					Method:  string(method),
					Message: fmt.Sprintf("parameter %d is not an object", i),
				})
				continue
			}
			rec.Parameters = append(rec.Parameters, param)
		}
	}

	responses, _ := op.Get("responses")
	for code, resp := range responses.Fields() {
		switch statusClass(code) {
		case '2':
			rec.Output = append(rec.Output, response(code, resp))
		case '4', '5':
			rec.ErrorResponses = append(rec.ErrorResponses, response(code, resp))
		default:
			f.warn(Warning{
				Code:       WarnDroppedStatus,
				Path:       path,
				Method:     string(method),
				StatusCode: code,
				Message:    "response is neither a success nor an error response",
			})
		}
	}
	return rec
}

func statusClass(code string) byte {
	if code == "" {
		return 0
	}
	return code[0]
}

// parameter copies the declared fields of a parameter object. Fields the
// source leaves out stay nil.
func parameter(p *jsonvalue.Value) (model.ParameterEntry, bool) {
	if p.Kind() != jsonvalue.Object {
		return model.ParameterEntry{}, false
	}

	entry := model.ParameterEntry{
		Name: field(p, "name").Str(),
		In:   model.ParameterLocation(field(p, "in").Str()),
	}
	if v, ok := p.Get("required"); ok && v.Kind() == jsonvalue.Bool {
		required := v.Bool()
		entry.Required = &required
	}
	if v, ok := p.Get("description"); ok && v.Kind() == jsonvalue.String {
		description := v.Str()
		entry.Description = &description
	}
	if v, ok := p.Get("schema"); ok {
		entry.Schema = v
	}
	return entry, true
}

func response(code string, resp *jsonvalue.Value) model.ResponseEntry {
	entry := model.ResponseEntry{
		StatusCode:  code,
		Description: field(resp, "description").Str(),
	}
	if v, ok := resp.Get("content"); ok {
		entry.Content = v
	}
	if v, ok := resp.Get("headers"); ok {
		entry.Headers = v
	}
	return entry
}

// Raw maps every path to its operations keyed by upper-case method, with the
// operation objects carried verbatim.
func Raw(doc *resolver.Document) *jsonvalue.Value {
	out := jsonvalue.NewObject()
	if doc == nil {
		return out
	}

	paths, _ := doc.Root.Get("paths")
	for path, item := range paths.Fields() {
		methods := jsonvalue.NewObject()
		for key, op := range item.Fields() {
			if method, ok := model.ParseMethod(key); ok {
				methods.Set(string(method), op)
			}
		}
		out.Set(path, methods)
	}
	return out
}

func field(v *jsonvalue.Value, key string) *jsonvalue.Value {
	member, _ := v.Get(key)
	return member
}
