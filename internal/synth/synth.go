// Package synth builds a single-operation OpenAPI 3.0 document from a request
// sample, a response sample and a parameter list.
package synth

import (
	"github.com/gautamkmahato/API-Weaver-Server/internal/infer"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
)

const (
	Version     = "3.0.0"
	Path        = "/example-endpoint"
	OperationID = "exampleEndpoint"
	MediaType   = "application/json"
)

// DefaultInfo is used unless WithInfo overrides it.
var DefaultInfo = model.Info{
	Title:       "Example API",
	Description: "API generated from example request and response payloads",
	Version:     "1.0.0",
}

type config struct {
	info model.Info
}

type Option func(*config)

// WithInfo overrides the document's info object. Empty fields keep their
// defaults.
func WithInfo(info model.Info) Option {
	return func(c *config) {
		if info.Title != "" {
			c.info.Title = info.Title
		}
		if info.Description != "" {
			c.info.Description = info.Description
		}
		if info.Version != "" {
			c.info.Version = info.Version
		}
	}
}

// Synthesize documents one POST operation whose request body is described by
// input and whose 200 response is described by output. Parameters are copied
// verbatim. The document shares no nodes with the arguments. A missing, null
// or empty-object sample is rejected with a *schemaerr.DegenerateError.
func Synthesize(input, output *jsonvalue.Value, params []*jsonvalue.Value, opts ...Option) (*jsonvalue.Value, error) {
	cfg := &config{info: DefaultInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	if degenerate(input) {
		return nil, &schemaerr.DegenerateError{Sample: "input"}
	}
	if degenerate(output) {
		return nil, &schemaerr.DegenerateError{Sample: "output"}
	}

	// Inferred schemas carry their samples as examples.
	input, output = input.Clone(), output.Clone()

	parameters := jsonvalue.NewArray()
	for _, p := range params {
		parameters.Append(p.Clone())
	}

	requestBody := jsonvalue.NewObject()
	requestBody.Set("required", jsonvalue.NewBool(true))
	requestBody.Set("content", content(infer.Object(input)))

	ok := jsonvalue.NewObject()
	ok.Set("description", jsonvalue.NewString("Successful response"))
	ok.Set("content", content(infer.Object(output)))

	responses := jsonvalue.NewObject()
	responses.Set("200", ok)

	op := jsonvalue.NewObject()
	op.Set("summary", jsonvalue.NewString("Example endpoint"))
	op.Set("operationId", jsonvalue.NewString(OperationID))
	op.Set("parameters", parameters)
	op.Set("requestBody", requestBody)
	op.Set("responses", responses)

	item := jsonvalue.NewObject()
	item.Set("post", op)

	paths := jsonvalue.NewObject()
	paths.Set(Path, item)

	doc := jsonvalue.NewObject()
	doc.Set("openapi", jsonvalue.NewString(Version))
	doc.Set("info", info(cfg.info))
	doc.Set("paths", paths)
	return doc, nil
}

func degenerate(sample *jsonvalue.Value) bool {
	switch sample.Kind() {
	case jsonvalue.Null:
		return true
	case jsonvalue.Object:
		return sample.Len() == 0
	}
	return false
}

func content(schema *model.Schema) *jsonvalue.Value {
	media := jsonvalue.NewObject()
	media.Set("schema", schema.Value())

	out := jsonvalue.NewObject()
	out.Set(MediaType, media)
	return out
}

func info(i model.Info) *jsonvalue.Value {
	out := jsonvalue.NewObject()
	out.Set("title", jsonvalue.NewString(i.Title))
	out.Set("version", jsonvalue.NewString(i.Version))
	if i.Description != "" {
		out.Set("description", jsonvalue.NewString(i.Description))
	}
	return out
}
