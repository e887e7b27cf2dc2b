package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/logging"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
	"github.com/gautamkmahato/API-Weaver-Server/internal/validate"
	"github.com/gautamkmahato/API-Weaver-Server/middleware"
	"github.com/stretchr/testify/require"
)

const token = "secret-token"

const petstore = `{
  "openapi": "3.0.0",
  "info": {"title": "Pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pets"}}}},
          "404": {"description": "missing"}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Pets": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

type testServer struct {
	*Server
	registry *metrics.Registry
}

func newTestServer(t *testing.T, maxBody int64) *testServer {
	t.Helper()
	logger := logging.Discard()
	registry := metrics.NewRegistry()

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithMetrics(registry.Metrics),
		engine.WithValidateOptions(validate.WithSpecCheck(false)),
	)

	srv, err := New(
		config.ServerConfig{Addr: ":0", MaxBodyBytes: maxBody},
		eng,
		WithVerifier(middleware.StaticVerifier(map[string]string{token: "alice"})),
		WithMetrics(registry),
		WithLogger(logger),
	)
	require.NoError(t, err)
	return &testServer{Server: srv, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "0b6f4c1e-8f9a-4a57-9c43-6a1f2d3e4b5c")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, "0b6f4c1e-8f9a-4a57-9c43-6a1f2d3e4b5c", rec.Header().Get(requestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/normalize", petstore, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "unauthorized", decode(t, rec)["error"])
}

func TestNormalize(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/normalize", petstore, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, "3.0.0", body["version"])
	require.Equal(t, "Pets", body["info"].(map[string]any)["title"])

	paths := body["paths"].(map[string]any)
	get := paths["/pets"].(map[string]any)["GET"].(map[string]any)
	require.Equal(t, "listPets", get["operationId"])

	record := body["catalog"].(map[string]any)["/pets"].(map[string]any)["GET"].(map[string]any)
	require.Len(t, record["output"], 1)
	require.Len(t, record["errorResponses"], 1)
	require.Empty(t, body["warnings"])
}

func TestNormalizeErrors(t *testing.T) {
	s := newTestServer(t, 1<<20)

	tests := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{
			name:   "invalid document",
			body:   `{"openapi": "3.0.0", "info": {"title": "x"}, "paths": {"/a": {"get": {"responses": {}}}}}`,
			status: http.StatusUnprocessableEntity,
			error:  "validation failed",
		},
		{
			name:   "no paths",
			body:   `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`,
			status: http.StatusBadRequest,
			error:  "document declares no paths",
		},
		{
			name:   "missing reference",
			body:   `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {"/a": {"$ref": "#/nope"}}}`,
			status: http.StatusBadRequest,
			error:  "reference resolution failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/normalize", tt.body, true)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Equal(t, tt.error, decode(t, rec)["error"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/normalize", `{"openapi": `, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, 64)

	rec := s.do(t, http.MethodPost, "/v1/normalize", petstore, true)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "request body too large", decode(t, rec)["error"])
}

func TestValidate(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/validate", petstore, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["valid"])

	rec = s.do(t, http.MethodPost, "/v1/validate",
		`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {"/a": {"get": {"responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "null"}}}}}}}}}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, false, body["valid"])
	require.NotEmpty(t, body["errors"])
}

func TestSynthesize(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/synthesize",
		`{"input": {"name": "Alice", "age": 30}, "output": {"id": 1, "active": true}, "parameters": []}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := jsonvalue.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	required, ok := doc.Lookup("paths", "/example-endpoint", "post", "requestBody", "content", "application/json", "schema", "required")
	require.True(t, ok)
	require.Equal(t, 2, required.Len())

	// The synthesized document is accepted by the normalize route.
	rec = s.do(t, http.MethodPost, "/v1/normalize", rec.Body.String(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSynthesizeDegenerate(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(t, http.MethodPost, "/v1/synthesize", `{"input": {}, "output": {"id": 1}}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "validation failed", body["error"])
	require.Contains(t, body["details"], "input sample is empty")
}

func TestDocuments(t *testing.T) {
	s := newTestServer(t, 1<<20)
	path := "/v1/projects/acme/documents/pets"

	rec := s.do(t, http.MethodGet, path, "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "document not found", decode(t, rec)["error"])

	rec = s.do(t, http.MethodPost, path, petstore, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Contains(t, body, "schema")
	require.Contains(t, body, "catalog")
	schema := body["schema"].(map[string]any)
	require.Equal(t, "3.0.0", schema["openapi"])

	rec = s.do(t, http.MethodGet, path, "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 1<<20)

	s.do(t, http.MethodPost, "/v1/normalize", petstore, true)

	rec := s.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `weaver_http_requests_total{code="200",method="POST",route="/v1/normalize"} 1`)
	require.Contains(t, rec.Body.String(), `weaver_engine_operations_total{operation="normalize",status="ok"} 1`)
}

func TestErrorResponse(t *testing.T) {
	status, body := errorResponse(context.Canceled)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "request cancelled", body.Error)

	status, body = errorResponse(jsonvalue.ErrMalformed)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "malformed JSON", body.Error)

	status, body = errorResponse(http.ErrHandlerTimeout)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal server error", body.Error)
}

func TestContractNormalizes(t *testing.T) {
	eng := engine.New(
		engine.WithLogger(logging.Discard()),
		engine.WithValidateOptions(validate.WithSpecCheck(false)),
	)

	raw, err := jsonvalue.DecodeYAML(Contract)
	require.NoError(t, err)

	n, err := eng.Normalize(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, 5, n.Catalog.OperationCount())
	require.Empty(t, n.Warnings)
}
