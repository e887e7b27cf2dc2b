package flatten

import (
	"context"
	"testing"

	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/gautamkmahato/API-Weaver-Server/internal/resolver"
	"github.com/stretchr/testify/require"
)

func flatten(t *testing.T, src string) *Result {
	t.Helper()
	doc, err := resolver.Resolve(context.Background(), jsonvalue.MustDecode(src))
	require.NoError(t, err)
	result, err := Flatten(doc)
	require.NoError(t, err)
	return result
}

func codes(entries []model.ResponseEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.StatusCode
	}
	return out
}

func TestFlattenPreservesOrder(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {
	    "/zebra": {
	      "summary": "not a method",
	      "post": {"responses": {"201": {"description": "created"}}},
	      "x-internal": true,
	      "get": {"responses": {"200": {"description": "OK"}}}
	    },
	    "/apple": {"delete": {"responses": {"204": {"description": "gone"}}}}
	  }
	}`

	result := flatten(t, src)
	require.Len(t, result.Paths, 2)
	require.Equal(t, "/zebra", result.Paths[0].Path)
	require.Equal(t, "/apple", result.Paths[1].Path)

	ops := result.Paths[0].Operations
	require.Len(t, ops, 2)
	require.Equal(t, model.MethodPost, ops[0].Method)
	require.Equal(t, model.MethodGet, ops[1].Method)

	catalog := result.Catalog()
	require.Equal(t, []string{"/zebra", "/apple"}, catalog.Paths())
	require.Equal(t, []model.Method{model.MethodPost, model.MethodGet}, catalog.Methods("/zebra"))
	require.Empty(t, result.Warnings)
}

func TestFlattenPartitionsResponses(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {"get": {"responses": {
	    "200": {"description": "OK", "content": {"application/json": {"schema": {"type": "string"}}}},
	    "404": {"description": "missing"},
	    "500": {"description": "broken", "headers": {"Retry-After": {"schema": {"type": "integer"}}}},
	    "302": {"description": "moved"}
	  }}}}
	}`

	result := flatten(t, src)
	rec, ok := result.Catalog().Operation("/a", model.MethodGet)
	require.True(t, ok)

	require.Equal(t, []string{"200"}, codes(rec.Output))
	require.Equal(t, []string{"404", "500"}, codes(rec.ErrorResponses))
	require.Equal(t, "OK", rec.Output[0].Description)
	require.NotNil(t, rec.Output[0].Content)
	require.NotNil(t, rec.ErrorResponses[1].Headers)
	require.Nil(t, rec.ErrorResponses[0].Headers)

	require.Equal(t, []Warning{{
		Code:       WarnDroppedStatus,
		Path:       "/a",
		Method:     "GET",
		StatusCode: "302",
		Message:    "response is neither a success nor an error response",
	}}, result.Warnings)
}

func TestFlattenInput(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {
	    "get": {"responses": {"200": {"description": "OK"}}},
	    "post": {
	      "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object"}}}},
	      "responses": {"200": {"description": "OK"}}
	    }
	  }}
	}`

	catalog := flatten(t, src).Catalog()

	get, _ := catalog.Operation("/a", model.MethodGet)
	require.NotNil(t, get.Input)
	require.Equal(t, jsonvalue.Object, get.Input.Kind())
	require.Zero(t, get.Input.Len())
	require.Empty(t, get.Output[0].Headers)

	post, _ := catalog.Operation("/a", model.MethodPost)
	require.Equal(t, []string{"application/json"}, post.Input.Keys())
}

func TestFlattenParameters(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/pets/{id}": {
	    "parameters": [
	      {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}},
	      {"name": "trace", "in": "header", "description": "shared"}
	    ],
	    "get": {
	      "parameters": [
	        {"name": "limit", "in": "query", "required": false},
	        {"name": "q", "in": "query"},
	        {"name": "trace", "in": "header", "description": "override"},
	        "bogus"
	      ],
	      "responses": {"200": {"description": "OK"}}
	    }
	  }}
	}`

	result := flatten(t, src)
	rec, _ := result.Catalog().Operation("/pets/{id}", model.MethodGet)
	require.Len(t, rec.Parameters, 5)

	id := rec.Parameters[0]
	require.Equal(t, "id", id.Name)
	require.Equal(t, model.LocationPath, id.In)
	require.NotNil(t, id.Required)
	require.True(t, *id.Required)
	require.Nil(t, id.Description)
	require.NotNil(t, id.Schema)

	limit := rec.Parameters[2]
	require.NotNil(t, limit.Required)
	require.False(t, *limit.Required)

	q := rec.Parameters[3]
	require.Nil(t, q.Required)
	require.Nil(t, q.Schema)

	set := rec.ParameterSet()
	require.Equal(t, 4, set.Len())
	trace, ok := set.Get("trace", model.LocationHeader)
	require.True(t, ok)
	require.Equal(t, "override", *trace.Description)
	require.Equal(t, "trace", set.Entries()[1].Name)

	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnInvalidParameter, result.Warnings[0].Code)
}

func TestFlattenSkipsNonObjectOperations(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {"get": null, "put": {"responses": {"200": {"description": "OK"}}}}}
	}`

	result := flatten(t, src)
	require.Equal(t, []model.Method{model.MethodPut}, result.Catalog().Methods("/a"))
	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnMissingOperation, result.Warnings[0].Code)
	require.Equal(t, "GET", result.Warnings[0].Method)
}

func TestFlattenIgnoresNonLowercaseMethodKeys(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {
	    "GET": {"operationId": "shouting"},
	    "Post": {"responses": {"200": {"description": "OK"}}},
	    "delete": {"responses": {"204": {"description": "gone"}}}
	  }}
	}`

	result := flatten(t, src)
	require.Equal(t, []model.Method{model.MethodDelete}, result.Catalog().Methods("/a"))
	require.Empty(t, result.Warnings)

	doc, err := resolver.Resolve(context.Background(), jsonvalue.MustDecode(src))
	require.NoError(t, err)
	raw := Raw(doc)
	methods, _ := raw.Get("/a")
	require.Equal(t, []string{"DELETE"}, methods.Keys())
}

func TestFlattenOperationMetadata(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {"get": {
	    "operationId": "listA",
	    "summary": "List",
	    "description": "Lists things",
	    "responses": {"200": {"description": "OK"}}
	  }}}
	}`

	rec, _ := flatten(t, src).Catalog().Operation("/a", model.MethodGet)
	require.Equal(t, "listA", rec.OperationID)
	require.Equal(t, "List", rec.Summary)
	require.Equal(t, "Lists things", rec.Description)
}

func TestFlattenIsDeterministic(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {
	    "/b": {"post": {"responses": {"201": {"description": "x"}, "400": {"description": "y"}}}},
	    "/a": {"get": {"parameters": [{"name": "p", "in": "query"}], "responses": {"200": {"description": "z"}}}}
	  }
	}`

	first, err := flatten(t, src).Catalog().MarshalJSON()
	require.NoError(t, err)
	second, err := flatten(t, src).Catalog().MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestFlattenNilDocument(t *testing.T) {
	_, err := Flatten(nil)
	require.Error(t, err)
}

func TestRaw(t *testing.T) {
	src := `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {
	    "parameters": [],
	    "post": {"operationId": "create", "responses": {"201": {"description": "x"}}},
	    "get": {"operationId": "list", "responses": {"200": {"description": "y"}}}
	  }}
	}`

	doc, err := resolver.Resolve(context.Background(), jsonvalue.MustDecode(src))
	require.NoError(t, err)

	out, err := Raw(doc).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t,
		`{"/a":{"POST":{"operationId":"create","responses":{"201":{"description":"x"}}},"GET":{"operationId":"list","responses":{"200":{"description":"y"}}}}}`,
		string(out))
}
