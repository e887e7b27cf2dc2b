package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
)

func (v *Validator) validateVersion(root *jsonvalue.Value) {
	version, ok := root.Get("openapi")
	switch {
	case !ok:
		v.addError("openapi", "openapi field is required", specBase+"openapi-object")
	case version.Kind() != jsonvalue.String:
		v.addError("openapi", fmt.Sprintf("openapi must be a string, got %s", version.Kind()), specBase+"openapi-object")
	case !strings.HasPrefix(version.Str(), "3."):
		v.addError("openapi", fmt.Sprintf("unsupported OpenAPI version %q", version.Str()), specBase+"versions")
	case v.strict && !strings.HasPrefix(version.Str(), "3.0."):
		v.addError("openapi", fmt.Sprintf("OpenAPI %s is only supported with 3.0 semantics", version.Str()), specBase+"versions")
	}
}

func (v *Validator) validateInfo(root *jsonvalue.Value) {
	const ref = specBase + "info-object"

	info, ok := root.Get("info")
	if !ok {
		v.addError("info", "info object is required", ref)
		return
	}
	if info.Kind() != jsonvalue.Object {
		v.addError("info", fmt.Sprintf("info must be an object, got %s", info.Kind()), ref)
		return
	}
	for _, field := range []string{"title", "version"} {
		val, ok := info.Get(field)
		if !ok {
			v.addError(join("info", field), fmt.Sprintf("info.%s is required", field), ref)
		} else if val.Kind() != jsonvalue.String {
			v.addError(join("info", field), fmt.Sprintf("info.%s must be a string, got %s", field, val.Kind()), ref)
		}
	}
}

func (v *Validator) validatePaths(root *jsonvalue.Value) {
	const ref = specBase + "paths-object"

	paths, ok := root.Get("paths")
	if !ok {
		v.addError("paths", "paths object is required", ref)
		return
	}
	if paths.Kind() != jsonvalue.Object {
		v.addError("paths", fmt.Sprintf("paths must be an object, got %s", paths.Kind()), ref)
		return
	}

	for path, item := range paths.Fields() {
		at := join("paths", path)
		if !strings.HasPrefix(path, "/") {
			v.addError(at, "path must begin with /", specBase+"patterned-fields")
		}
		if item.Kind() != jsonvalue.Object {
			v.addError(at, fmt.Sprintf("path item must be an object, got %s", item.Kind()), specBase+"path-item-object")
			continue
		}

		if params, ok := item.Get("parameters"); ok {
			v.validateParameters(join(at, "parameters"), params)
		}

		for _, m := range model.Methods {
			op, ok := item.Get(m.Key())
			if !ok {
				continue
			}
			if op.Kind() != jsonvalue.Object {
				v.addError(join(at, m.Key()), fmt.Sprintf("operation must be an object, got %s", op.Kind()), specBase+"operation-object")
				continue
			}
			v.validateOperation(join(at, m.Key()), op)
		}
	}
}

func (v *Validator) validateOperation(at string, op *jsonvalue.Value) {
	const ref = specBase + "responses-object"

	if params, ok := op.Get("parameters"); ok {
		v.validateParameters(join(at, "parameters"), params)
	}

	if body, ok := op.Get("requestBody"); ok {
		v.validateContent(join(at, "requestBody"), body)
	}

	responses, ok := op.Get("responses")
	switch {
	case !ok:
		v.addError(join(at, "responses"), "operation must declare responses", ref)
		return
	case responses.Kind() != jsonvalue.Object:
		v.addError(join(at, "responses"), fmt.Sprintf("responses must be an object, got %s", responses.Kind()), ref)
		return
	case responses.Len() == 0:
		v.addError(join(at, "responses"), "responses must declare at least one response", ref)
		return
	}

	for code, resp := range responses.Fields() {
		if !validStatusCode(code) {
			v.addError(join(at, "responses", code), fmt.Sprintf("invalid response code %q", code), ref)
		}
		v.validateResponse(join(at, "responses", code), resp)
	}
}

// validStatusCode accepts "default", a three digit code and a range such as
// "4XX".
func validStatusCode(code string) bool {
	if code == "default" {
		return true
	}
	if len(code) != 3 || code[0] < '1' || code[0] > '5' {
		return false
	}
	rest := code[1:]
	if rest == "XX" {
		return true
	}
	return isDigit(rest[0]) && isDigit(rest[1])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (v *Validator) validateResponse(at string, resp *jsonvalue.Value) {
	if resp.Kind() != jsonvalue.Object {
		v.addError(at, fmt.Sprintf("response must be an object, got %s", resp.Kind()), specBase+"response-object")
		return
	}
	v.validateContent(at, resp)

	headers, ok := resp.Get("headers")
	if !ok {
		return
	}
	for name, header := range headers.Fields() {
		if schema, ok := header.Get("schema"); ok {
			v.validateSchema(join(at, "headers", name, "schema"), schema)
		}
	}
}

// validateContent checks the schemas of a request body or response content
// map.
func (v *Validator) validateContent(at string, holder *jsonvalue.Value) {
	content, ok := holder.Get("content")
	if !ok {
		return
	}
	if content.Kind() != jsonvalue.Object {
		v.addError(join(at, "content"), fmt.Sprintf("content must be an object, got %s", content.Kind()), specBase+"media-type-object")
		return
	}
	for mediaType, media := range content.Fields() {
		if schema, ok := media.Get("schema"); ok {
			v.validateSchema(join(at, "content", mediaType, "schema"), schema)
		}
	}
}

func (v *Validator) validateParameters(at string, params *jsonvalue.Value) {
	if params.Kind() != jsonvalue.Array {
		v.addError(at, fmt.Sprintf("parameters must be an array, got %s", params.Kind()), specBase+"parameter-object")
		return
	}
	for i, p := range params.Items() {
		v.validateParameter(fmt.Sprintf("%s[%d]", at, i), p)
	}
}

func (v *Validator) validateParameter(at string, p *jsonvalue.Value) {
	const ref = specBase + "parameter-object"

	if p.Kind() != jsonvalue.Object {
		v.addError(at, fmt.Sprintf("parameter must be an object, got %s", p.Kind()), ref)
		return
	}

	name, ok := p.Get("name")
	if !ok || name.Kind() != jsonvalue.String || name.Str() == "" {
		v.addError(join(at, "name"), "parameter name is required", ref)
	}

	in, ok := p.Get("in")
	loc := model.ParameterLocation(in.Str())
	switch {
	case !ok:
		v.addError(join(at, "in"), "parameter location is required", ref)
	case !loc.Valid():
		v.addError(join(at, "in"), fmt.Sprintf("invalid parameter location %q: must be query, path, header or cookie", in.Str()), ref)
	case loc == model.LocationPath:
		if required, ok := p.Get("required"); !ok || !required.Bool() {
			v.addError(join(at, "required"), "path parameters must be required", ref)
		}
	}

	if schema, ok := p.Get("schema"); ok {
		v.validateSchema(join(at, "schema"), schema)
	}
}

// validateSchema checks a schema and everything below it. Schemas shared by
// identity, including cyclic ones, are checked once.
func (v *Validator) validateSchema(at string, s *jsonvalue.Value) {
	const ref = specBase + "schema-object"

	if v.schemas[s] {
		return
	}
	v.schemas[s] = true

	if s.Kind() != jsonvalue.Object {
		v.addError(at, fmt.Sprintf("schema must be an object, got %s", s.Kind()), ref)
		return
	}

	typ, hasType := s.Get("type")
	if hasType {
		switch {
		case typ.Kind() != jsonvalue.String:
			v.addError(join(at, "type"), fmt.Sprintf("type must be a string, got %s", typ.Kind()), ref)
		case typ.Str() == string(model.TypeNull):
			v.addError(join(at, "type"), `type "null" is not allowed in OpenAPI 3.0, use nullable: true`, ref)
		case !slices.Contains(model.SchemaTypes, model.SchemaType(typ.Str())):
			v.addError(join(at, "type"), fmt.Sprintf("unknown type %q", typ.Str()), ref)
		}
	}

	items, hasItems := s.Get("items")
	if hasType && typ.Str() == string(model.TypeArray) && !hasItems {
		v.addError(join(at, "items"), "array schemas must declare items", ref)
	}
	if hasItems {
		v.validateSchema(join(at, "items"), items)
	}

	if required, ok := s.Get("required"); ok {
		v.validateRequired(join(at, "required"), required)
	}

	if props, ok := s.Get("properties"); ok {
		if props.Kind() != jsonvalue.Object {
			v.addError(join(at, "properties"), fmt.Sprintf("properties must be an object, got %s", props.Kind()), ref)
		} else {
			for name, prop := range props.Fields() {
				v.validateSchema(join(at, "properties", name), prop)
			}
		}
	}

	if extra, ok := s.Get("additionalProperties"); ok && extra.Kind() != jsonvalue.Bool {
		v.validateSchema(join(at, "additionalProperties"), extra)
	}

	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		list, ok := s.Get(key)
		if !ok {
			continue
		}
		if list.Kind() != jsonvalue.Array {
			v.addError(join(at, key), fmt.Sprintf("%s must be an array, got %s", key, list.Kind()), ref)
			continue
		}
		for i, sub := range list.Items() {
			v.validateSchema(fmt.Sprintf("%s[%d]", join(at, key), i), sub)
		}
	}

	if not, ok := s.Get("not"); ok {
		v.validateSchema(join(at, "not"), not)
	}
}

func (v *Validator) validateRequired(at string, required *jsonvalue.Value) {
	if required.Kind() != jsonvalue.Array {
		v.addError(at, fmt.Sprintf("required must be an array of strings, got %s", required.Kind()), specBase+"schema-object")
		return
	}
	for i, name := range required.Items() {
		if name.Kind() != jsonvalue.String {
			v.addError(fmt.Sprintf("%s[%d]", at, i), fmt.Sprintf("required entries must be strings, got %s", name.Kind()), specBase+"schema-object")
		}
	}
}

func (v *Validator) validateComponents(root *jsonvalue.Value) {
	components, ok := root.Get("components")
	if !ok {
		return
	}

	if schemas, ok := components.Get("schemas"); ok {
		for name, s := range schemas.Fields() {
			v.validateSchema(join("components", "schemas", name), s)
		}
	}
	if params, ok := components.Get("parameters"); ok {
		for name, p := range params.Fields() {
			v.validateParameter(join("components", "parameters", name), p)
		}
	}
	if responses, ok := components.Get("responses"); ok {
		for name, resp := range responses.Fields() {
			v.validateResponse(join("components", "responses", name), resp)
		}
	}
	if bodies, ok := components.Get("requestBodies"); ok {
		for name, body := range bodies.Fields() {
			v.validateContent(join("components", "requestBodies", name), body)
		}
	}
}

// validateSecurity checks that every security requirement names a declared
// scheme. The schemes themselves are not validated.
func (v *Validator) validateSecurity(root *jsonvalue.Value) {
	declared := map[string]bool{}
	if schemes, ok := root.Lookup("components", "securitySchemes"); ok {
		for name := range schemes.Fields() {
			declared[name] = true
		}
	}

	if sec, ok := root.Get("security"); ok {
		v.validateRequirements("security", sec, declared)
	}

	paths, _ := root.Get("paths")
	for path, item := range paths.Fields() {
		for _, m := range model.Methods {
			op, ok := item.Get(m.Key())
			if !ok {
				continue
			}
			if sec, ok := op.Get("security"); ok {
				v.validateRequirements(join("paths", path, m.Key(), "security"), sec, declared)
			}
		}
	}
}

func (v *Validator) validateRequirements(at string, sec *jsonvalue.Value, declared map[string]bool) {
	const ref = specBase + "security-requirement-object"

	if sec.Kind() != jsonvalue.Array {
		v.addError(at, fmt.Sprintf("security must be an array, got %s", sec.Kind()), ref)
		return
	}
	for i, req := range sec.Items() {
		for name := range req.Fields() {
			if !declared[name] {
				v.addError(fmt.Sprintf("%s[%d].%s", at, i, name), fmt.Sprintf("security scheme %q is not declared in components.securitySchemes", name), ref)
			}
		}
	}
}

func (v *Validator) validateOperationIDs(root *jsonvalue.Value) {
	seen := map[string]string{}

	paths, _ := root.Get("paths")
	for path, item := range paths.Fields() {
		for _, m := range model.Methods {
			op, ok := item.Get(m.Key())
			if !ok {
				continue
			}
			id, ok := op.Get("operationId")
			if !ok || id.Kind() != jsonvalue.String {
				continue
			}
			at := join("paths", path, m.Key(), "operationId")
			if first, dup := seen[id.Str()]; dup {
				v.addError(at, fmt.Sprintf("duplicate operationId %q, first declared at %s", id.Str(), first), specBase+"operation-object")
				continue
			}
			seen[id.Str()] = at
		}
	}
}
