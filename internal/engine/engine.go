// Package engine runs the forward path (resolve, validate, flatten) and the
// reverse path (infer, synthesize) and persists imported documents.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gautamkmahato/API-Weaver-Server/internal/flatten"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/gautamkmahato/API-Weaver-Server/internal/resolver"
	"github.com/gautamkmahato/API-Weaver-Server/internal/store"
	"github.com/gautamkmahato/API-Weaver-Server/internal/synth"
	"github.com/gautamkmahato/API-Weaver-Server/internal/validate"
)

// Operation names used in logs and metrics.
const (
	OpNormalize  = "normalize"
	OpValidate   = "validate"
	OpSynthesize = "synthesize"
	OpImport     = "import"
	OpDocument   = "document"
)

// Engine is safe for concurrent use.
type Engine struct {
	resolverOpts []resolver.Option
	validateOpts []validate.Option
	store        store.Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Engine)

func WithResolverOptions(opts ...resolver.Option) Option {
	return func(e *Engine) { e.resolverOpts = append(e.resolverOpts, opts...) }
}

func WithValidateOptions(opts ...validate.Option) Option {
	return func(e *Engine) { e.validateOpts = append(e.validateOpts, opts...) }
}

func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an engine backed by an in-memory store unless WithStore is
// given.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = store.NewMemory()
	}
	e.resolverOpts = append([]resolver.Option{resolver.WithLogger(e.logger)}, e.resolverOpts...)
	e.validateOpts = append([]validate.Option{validate.WithLogger(e.logger)}, e.validateOpts...)
	return e
}

// Normalized is the canonical metadata of a valid document.
type Normalized struct {
	Version  string            `json:"version"`
	Info     model.Info        `json:"info"`
	Paths    *jsonvalue.Value  `json:"paths"`
	Catalog  *model.Catalog    `json:"catalog"`
	Warnings []flatten.Warning `json:"warnings"`
	Cycles   []string          `json:"cycles,omitempty"`
}

func (e *Engine) observe(op string, start time.Time, err error) {
	e.metrics.RecordOperation(op, err, time.Since(start))
	if err != nil {
		e.logger.Debug("operation failed", "operation", op, "error", err)
	}
}

// Normalize dereferences raw, rejects it with a *schemaerr.ValidationError
// when any rule is violated and flattens it otherwise.
func (e *Engine) Normalize(ctx context.Context, raw *jsonvalue.Value) (n *Normalized, err error) {
	defer func(start time.Time) { e.observe(OpNormalize, start, err) }(time.Now())
	return e.normalize(ctx, raw)
}

func (e *Engine) normalize(ctx context.Context, raw *jsonvalue.Value) (*Normalized, error) {
	doc, err := e.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	result := validate.Validate(doc, e.validateOpts...)
	e.metrics.RecordFindings(len(result.Errors))
	if err := result.Err(); err != nil {
		return nil, err
	}

	flat, err := flatten.Flatten(doc)
	if err != nil {
		return nil, fmt.Errorf("flattening document: %w", err)
	}
	for _, w := range flat.Warnings {
		e.metrics.RecordWarning(w.Code)
	}

	n := &Normalized{
		Version:  field(doc.Root, "openapi").Str(),
		Info:     info(doc.Root),
		Paths:    flatten.Raw(doc),
		Catalog:  flat.Catalog(),
		Warnings: flat.Warnings,
		Cycles:   doc.Cycles,
	}
	if n.Warnings == nil {
		n.Warnings = []flatten.Warning{}
	}

	e.logger.Info("document normalized",
		"title", n.Info.Title,
		"paths", len(n.Catalog.Paths()),
		"operations", n.Catalog.OperationCount(),
		"warnings", len(n.Warnings))
	return n, nil
}

func (e *Engine) resolve(ctx context.Context, raw *jsonvalue.Value) (*resolver.Document, error) {
	doc, err := resolver.New(e.resolverOpts...).Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordCycles(len(doc.Cycles))
	return doc, nil
}

// Validate dereferences raw and reports every finding. Only resolution
// failures are returned as errors.
func (e *Engine) Validate(ctx context.Context, raw *jsonvalue.Value) (result validate.Result, err error) {
	defer func(start time.Time) { e.observe(OpValidate, start, err) }(time.Now())

	doc, err := e.resolve(ctx, raw)
	if err != nil {
		return validate.Result{}, err
	}

	result = validate.Validate(doc, e.validateOpts...)
	e.metrics.RecordFindings(len(result.Errors))
	return result, nil
}

// Synthesize documents the exchange described by req.
func (e *Engine) Synthesize(ctx context.Context, req SynthesizeRequest) (doc *jsonvalue.Value, err error) {
	defer func(start time.Time) { e.observe(OpSynthesize, start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts []synth.Option
	if req.Info != nil {
		opts = append(opts, synth.WithInfo(*req.Info))
	}
	return synth.Synthesize(req.Input, req.Output, req.Parameters, opts...)
}

// storedDocument is the persisted form of an imported document.
type storedDocument struct {
	Schema     *jsonvalue.Value  `json:"schema"`
	Version    string            `json:"version"`
	Info       model.Info        `json:"info"`
	Paths      *jsonvalue.Value  `json:"paths"`
	Catalog    *model.Catalog    `json:"catalog"`
	Warnings   []flatten.Warning `json:"warnings"`
	ImportedAt time.Time         `json:"importedAt"`
}

// Import normalizes raw and persists it together with its canonical metadata
// under key.
func (e *Engine) Import(ctx context.Context, key store.Key, raw *jsonvalue.Value) (n *Normalized, err error) {
	defer func(start time.Time) { e.observe(OpImport, start, err) }(time.Now())

	if err := key.Validate(); err != nil {
		return nil, err
	}

	n, err = e.normalize(ctx, raw)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(storedDocument{
		Schema:     raw,
		Version:    n.Version,
		Info:       n.Info,
		Paths:      n.Paths,
		Catalog:    n.Catalog,
		Warnings:   n.Warnings,
		ImportedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding document %s: %w", key, err)
	}

	if err := e.store.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing document %s: %w", key, err)
	}

	e.logger.Info("document imported", "key", key.String(), "bytes", len(data))
	return n, nil
}

// Document returns the stored form of the document imported under key.
func (e *Engine) Document(ctx context.Context, key store.Key) (data []byte, err error) {
	defer func(start time.Time) { e.observe(OpDocument, start, err) }(time.Now())

	if err := key.Validate(); err != nil {
		return nil, err
	}
	data, err = e.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", key, err)
	}
	return data, nil
}

func field(v *jsonvalue.Value, key string) *jsonvalue.Value {
	member, _ := v.Get(key)
	return member
}

func info(root *jsonvalue.Value) model.Info {
	i := field(root, "info")
	return model.Info{
		Title:       field(i, "title").Str(),
		Description: field(i, "description").Str(),
		Version:     field(i, "version").Str(),
	}
}
