// Package resolver dereferences every $ref in an OpenAPI document.
//
// Resolution builds a new value graph and never touches the caller's tree.
// Each reference target is materialized once and shared by identity. A
// reference to a node that is still being built (an ancestor) becomes a
// back-edge to that node, so self-referential schemas produce a finite
// cyclic graph instead of unbounded recursion.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
)

// DefaultTimeout bounds the whole resolution when external references must
// be fetched.
const DefaultTimeout = 10 * time.Second

// Document is a dereferenced OpenAPI document.
type Document struct {
	// Root contains no reference nodes. It may contain cycles when the source
	// declared self-referential schemas; see Cycles.
	Root *jsonvalue.Value
	// Raw is the source document as JSON.
	Raw []byte
	// Cycles lists the reference targets reached again while being built.
	Cycles []string
}

// Paths returns the document's paths object.
func (d *Document) Paths() *jsonvalue.Value {
	p, _ := d.Root.Get("paths")
	return p
}

type Resolver struct {
	fetcher Fetcher
	baseDir string
	remote  bool
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Resolver)

// WithFetcher sets the loader used for references to other documents.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithBaseDir enables file references below dir. Ignored when a fetcher is
// set explicitly.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) { r.baseDir = dir }
}

// WithRemote enables http and https references. Ignored when a fetcher is set
// explicitly.
func WithRemote(enabled bool) Option {
	return func(r *Resolver) { r.remote = enabled }
}

// WithTimeout bounds resolution; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		if r.baseDir != "" || r.remote {
			r.fetcher = &Loader{BaseDir: r.baseDir, Remote: r.remote}
		} else {
			r.fetcher = NoExternal{}
		}
	}
	return r
}

// Resolve dereferences raw with a default Resolver.
func Resolve(ctx context.Context, raw *jsonvalue.Value, opts ...Option) (*Document, error) {
	return New(opts...).Resolve(ctx, raw)
}

// Resolve replaces every reference node in raw by its target and checks that
// the result declares at least one path.
func (r *Resolver) Resolve(ctx context.Context, raw *jsonvalue.Value) (*Document, error) {
	if raw.Kind() != jsonvalue.Object {
		return nil, &schemaerr.ResolutionError{
			Pointer: "#",
			Cause:   fmt.Errorf("document must be an object, got %s", raw.Kind()),
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	s := &state{
		ctx:     ctx,
		r:       r,
		docs:    map[string]*jsonvalue.Value{"": raw},
		done:    make(map[string]*jsonvalue.Value),
		active:  make(map[string]bool),
		reached: make(map[string]bool),
	}

	root, err := s.build(location{}, raw, false)
	if err != nil {
		return nil, err
	}

	paths, ok := root.Get("paths")
	if !ok || paths.Kind() != jsonvalue.Object || paths.Len() == 0 {
		return nil, &schemaerr.ResolutionError{Pointer: "#/paths", Cause: schemaerr.ErrNoPaths}
	}

	encoded, err := raw.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding source document: %w", err)
	}

	if len(s.cycles) > 0 {
		r.logger.Debug("resolved document with circular references", "cycles", s.cycles)
	}

	return &Document{Root: root, Raw: encoded, Cycles: s.cycles}, nil
}

// location addresses a node: a document key ("" for the root document) and
// the reference tokens of a JSON pointer inside it.
type location struct {
	doc    string
	tokens []string
}

func (l location) id() string {
	return l.doc + "#" + jsonvalue.FormatPointer(l.tokens)
}

func (l location) child(token string) location {
	tokens := make([]string, len(l.tokens), len(l.tokens)+1)
	copy(tokens, l.tokens)
	return location{doc: l.doc, tokens: append(tokens, token)}
}

type state struct {
	ctx  context.Context
	r    *Resolver
	docs map[string]*jsonvalue.Value

	// done maps a location id to its materialized node
	done map[string]*jsonvalue.Value
	// active holds the ids of nodes whose members are still being built
	active map[string]bool

	reached map[string]bool
	cycles  []string
}

func (s *state) build(loc location, v *jsonvalue.Value, literal bool) (*jsonvalue.Value, error) {
	if literal && v.Kind() == jsonvalue.Reference {
		v = v.AsObject()
	}

	id := loc.id()
	if node, ok := s.done[id]; ok {
		if s.active[id] {
			s.backEdge(id, node)
		}
		return node, nil
	}

	switch v.Kind() {
	case jsonvalue.Reference:
		target, tloc, err := s.target(loc, v.Ref(), map[string]bool{id: true})
		if err != nil {
			return nil, err
		}
		node, err := s.build(tloc, target, false)
		if err != nil {
			return nil, err
		}
		s.done[id] = node
		return node, nil

	case jsonvalue.Object:
		out := jsonvalue.NewObject()
		s.done[id] = out
		s.active[id] = true
		defer delete(s.active, id)

		for k, member := range v.Fields() {
			built, err := s.build(loc.child(k), member, literal || isLiteral(loc, k))
			if err != nil {
				return nil, err
			}
			out.Set(k, built)
		}
		return out, nil

	case jsonvalue.Array:
		out := jsonvalue.NewArray()
		s.done[id] = out
		s.active[id] = true
		defer delete(s.active, id)

		for i, item := range v.Items() {
			built, err := s.build(loc.child(strconv.Itoa(i)), item, literal)
			if err != nil {
				return nil, err
			}
			out.Append(built)
		}
		return out, nil

	default:
		return v.Clone(), nil
	}
}

func (s *state) backEdge(id string, node *jsonvalue.Value) {
	if node.Origin == "" {
		node.Origin = id
	}
	if !s.reached[id] {
		s.reached[id] = true
		s.cycles = append(s.cycles, id)
	}
}

// target follows ref, and any chain of references it leads to, until a
// non-reference node is found. chain holds the locations already visited
// along the way; meeting one again means the chain never reaches a value.
func (s *state) target(from location, ref string, chain map[string]bool) (*jsonvalue.Value, location, error) {
	loc, err := s.locate(from, ref)
	if err != nil {
		return nil, location{}, &schemaerr.ResolutionError{Ref: ref, Pointer: from.id(), Cause: err}
	}
	if chain[loc.id()] {
		return nil, location{}, &schemaerr.ResolutionError{Ref: ref, Pointer: from.id(), Circular: true}
	}
	chain[loc.id()] = true

	node, loc, err := s.walk(loc, chain)
	if err != nil {
		return nil, location{}, &schemaerr.ResolutionError{Ref: ref, Pointer: from.id(), Cause: err}
	}
	if node.Kind() == jsonvalue.Reference {
		return s.target(loc, node.Ref(), chain)
	}
	return node, loc, nil
}

// walk traverses loc's tokens from its document root. References met on the
// way are followed, so the returned location is where the node is declared.
func (s *state) walk(loc location, chain map[string]bool) (*jsonvalue.Value, location, error) {
	cur, err := s.document(loc.doc)
	if err != nil {
		return nil, location{}, err
	}
	at := location{doc: loc.doc}

	for _, tok := range loc.tokens {
		if cur.Kind() == jsonvalue.Reference {
			cur, at, err = s.target(at, cur.Ref(), chain)
			if err != nil {
				return nil, location{}, err
			}
		}

		var next *jsonvalue.Value
		var ok bool
		switch cur.Kind() {
		case jsonvalue.Object:
			next, ok = cur.Get(tok)
		case jsonvalue.Array:
			if i, convErr := strconv.Atoi(tok); convErr == nil {
				next, ok = cur.Index(i)
			}
		}
		if !ok {
			return nil, location{}, fmt.Errorf("target not found: %s", at.child(tok).id())
		}
		cur = next
		at = at.child(tok)
	}
	return cur, at, nil
}

func (s *state) locate(from location, ref string) (location, error) {
	docPart, fragment, _ := strings.Cut(ref, "#")

	doc := from.doc
	if docPart != "" {
		var err error
		doc, err = s.r.fetcher.Join(from.doc, docPart)
		if err != nil {
			return location{}, err
		}
	}

	tokens, err := jsonvalue.ParsePointer(fragment)
	if err != nil {
		return location{}, err
	}
	return location{doc: doc, tokens: tokens}, nil
}

func (s *state) document(key string) (*jsonvalue.Value, error) {
	if doc, ok := s.docs[key]; ok {
		return doc, nil
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.r.fetcher.Fetch(s.ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	doc, err := jsonvalue.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	s.r.logger.Debug("loaded external document", "location", key)
	s.docs[key] = doc
	return doc, nil
}

// literalKeys hold example data rather than OpenAPI structure; a "$ref"
// inside them is kept as written.
var literalKeys = []string{"example", "default", "enum"}

// nameMaps are the objects whose keys are user-chosen names. A member called
// "default" there is a response, schema or other component, not data.
var nameMaps = []string{
	"responses", "schemas", "parameters", "examples", "headers",
	"requestBodies", "securitySchemes", "links", "callbacks",
	"properties", "content", "encoding", "variables", "paths",
}

func isLiteral(parent location, key string) bool {
	n := len(parent.tokens)
	if n > 0 && slices.Contains(nameMaps, parent.tokens[n-1]) {
		return false
	}
	if slices.Contains(literalKeys, key) {
		return true
	}
	// Example objects: examples.<name>.value
	return key == "value" && n >= 2 && parent.tokens[n-2] == "examples"
}
