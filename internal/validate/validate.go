// Package validate checks a dereferenced OpenAPI 3.0 document against the
// structural rules the flattener and synthesizer rely on.
//
// Validation never stops at the first problem: every violation is collected
// as a schemaerr.Finding with a dotted path to the offending node.
package validate

import (
	"log/slog"
	"strings"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/loader"
	"github.com/gautamkmahato/API-Weaver-Server/internal/resolver"
	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
	"github.com/pb33f/libopenapi-validator/schema_validation"
)

// SpecCheckPath is the SchemaPath of findings reported by the OpenAPI JSON
// Schema check.
const SpecCheckPath = "openapi-schema"

const specBase = "https://spec.openapis.org/oas/v3.0.3#"

type Result struct {
	Valid  bool                `json:"valid"`
	Errors []schemaerr.Finding `json:"errors"`
	// Summary is set when the spec check loaded the document.
	Summary *loader.Summary `json:"summary,omitempty"`
}

// Err returns a *schemaerr.ValidationError carrying the findings, or nil when
// the document is valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &schemaerr.ValidationError{Findings: r.Errors}
}

type Validator struct {
	specCheck bool
	strict    bool
	logger    *slog.Logger

	findings []schemaerr.Finding
	schemas  map[*jsonvalue.Value]bool
}

type Option func(*Validator)

// WithSpecCheck toggles validation of the raw document against the official
// OpenAPI JSON Schema. Enabled by default.
func WithSpecCheck(enabled bool) Option {
	return func(v *Validator) { v.specCheck = enabled }
}

// WithStrict reports documents declaring a version other than 3.0.x.
func WithStrict(enabled bool) Option {
	return func(v *Validator) { v.strict = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// Validate checks doc and returns every finding.
func Validate(doc *resolver.Document, opts ...Option) Result {
	v := &Validator{
		specCheck: true,
		logger:    slog.Default(),
		schemas:   make(map[*jsonvalue.Value]bool),
	}
	for _, opt := range opts {
		opt(v)
	}

	root := doc.Root
	v.validateVersion(root)
	v.validateInfo(root)
	v.validatePaths(root)
	v.validateComponents(root)
	v.validateSecurity(root)
	v.validateOperationIDs(root)

	result := Result{}
	if v.specCheck {
		result.Summary = v.validateAgainstSchema(doc.Raw)
	}

	result.Errors = v.findings
	if result.Errors == nil {
		result.Errors = []schemaerr.Finding{}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func (v *Validator) addError(path, message, specRef string) {
	v.findings = append(v.findings, schemaerr.Finding{
		Message:    message,
		Path:       path,
		SchemaPath: specRef,
	})
}

// validateAgainstSchema loads raw with libopenapi and checks it against the
// OpenAPI 3 JSON Schema.
func (v *Validator) validateAgainstSchema(raw []byte) *loader.Summary {
	result, err := loader.Load(raw, nil)
	if err != nil {
		v.findings = append(v.findings, schemaerr.Finding{
			Message:    "document could not be loaded",
			SchemaPath: SpecCheckPath,
			Details:    err.Error(),
		})
		return nil
	}
	for _, w := range result.Warnings {
		v.logger.Debug("document loaded with warnings", "warning", w)
	}

	valid, errs := schema_validation.ValidateOpenAPIDocument(result.Document)
	if !valid {
		for _, e := range errs {
			f := schemaerr.Finding{
				Message:    e.Message,
				SchemaPath: SpecCheckPath,
				Details:    e.Reason,
			}
			if e.HowToFix != "" {
				f.Details = strings.TrimSpace(f.Details + " " + e.HowToFix)
			}
			v.findings = append(v.findings, f)
		}
	}

	summary := loader.Summarize(result)
	return &summary
}

func join(parts ...string) string {
	return strings.Join(parts, ".")
}
