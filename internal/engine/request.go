package engine

import (
	"fmt"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
)

// SynthesizeRequest carries the samples of one request/response exchange.
type SynthesizeRequest struct {
	Input      *jsonvalue.Value
	Output     *jsonvalue.Value
	Parameters []*jsonvalue.Value
	Info       *model.Info
}

// ParseSynthesizeRequest reads {"input", "output", "parameters"?, "info"?}.
// Missing samples are left nil so that synthesis reports them as degenerate.
func ParseSynthesizeRequest(body *jsonvalue.Value) (SynthesizeRequest, error) {
	var req SynthesizeRequest
	var findings []schemaerr.Finding

	if body.Kind() != jsonvalue.Object {
		return req, &schemaerr.ValidationError{Findings: []schemaerr.Finding{{
			Message: fmt.Sprintf("request body must be an object, got %s", body.Kind()),
		}}}
	}

	req.Input = field(body, "input")
	req.Output = field(body, "output")

	if params, ok := body.Get("parameters"); ok {
		switch params.Kind() {
		case jsonvalue.Array:
			for i, p := range params.Items() {
				if p.Kind() != jsonvalue.Object {
					findings = append(findings, schemaerr.Finding{
						Message: "parameter must be an object",
						Path:    fmt.Sprintf("parameters[%d]", i),
					})
					continue
				}
				req.Parameters = append(req.Parameters, p)
			}
		case jsonvalue.Null:
		default:
			findings = append(findings, schemaerr.Finding{
				Message: "parameters must be an array",
				Path:    "parameters",
			})
		}
	}

	if i, ok := body.Get("info"); ok && !i.IsNull() {
		if i.Kind() != jsonvalue.Object {
			findings = append(findings, schemaerr.Finding{Message: "info must be an object", Path: "info"})
		} else {
			req.Info = &model.Info{
				Title:       field(i, "title").Str(),
				Description: field(i, "description").Str(),
				Version:     field(i, "version").Str(),
			}
		}
	}

	if len(findings) > 0 {
		return req, &schemaerr.ValidationError{Findings: findings}
	}
	return req, nil
}
