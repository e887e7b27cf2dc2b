package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/schemaerr"
	"github.com/gautamkmahato/API-Weaver-Server/internal/store"
	"github.com/gautamkmahato/API-Weaver-Server/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.engine.Normalize(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.engine.Validate(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := engine.ParseSynthesizeRequest(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.engine.Synthesize(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func documentKey(r *http.Request) store.Key {
	return store.Key{
		Project:  chi.URLParam(r, "project"),
		Document: chi.URLParam(r, "document"),
	}
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.Document(r.Context(), documentKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImportDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := documentKey(r)
	n, err := s.engine.Import(r.Context(), key, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, _ := middleware.IdentityFrom(r.Context())
	s.logger.Info("document stored",
		"request_id", requestIDFrom(r.Context()),
		"key", key.String(),
		"subject", id.Subject)
	writeJSON(w, http.StatusCreated, n)
}

func decodeBody(r *http.Request) (*jsonvalue.Value, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return jsonvalue.Decode(data)
}

// errorResponse maps an error to its status code and caller-facing body.
func errorResponse(err error) (int, schemaerr.Body) {
	switch {
	case errors.Is(err, jsonvalue.ErrMalformed):
		return http.StatusBadRequest, schemaerr.Body{Error: "malformed JSON", Details: err.Error()}
	case errors.Is(err, store.ErrInvalidKey):
		return http.StatusBadRequest, schemaerr.Body{Error: "invalid document key", Details: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, schemaerr.Body{Error: "document not found"}
	case errors.Is(err, schemaerr.ErrValidation):
		return http.StatusUnprocessableEntity, schemaerr.NewBody(err)
	case errors.Is(err, schemaerr.ErrResolution):
		return http.StatusBadRequest, schemaerr.NewBody(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, schemaerr.Body{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, schemaerr.NewBody(err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", requestIDFrom(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, body)
}

// contractError renders failures reported by the contract middleware.
func (s *Server) contractError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *middleware.AuthError
	var valErr *middleware.ValidationError

	switch {
	case errors.As(err, &authErr):
		if authErr.IsUnauthorized() {
			w.Header().Set("WWW-Authenticate", authErr.Challenge())
			writeJSON(w, authErr.StatusCode, schemaerr.Body{Error: "unauthorized", Details: authErr.Message})
			return
		}
		writeJSON(w, authErr.StatusCode, schemaerr.Body{Error: "forbidden", Details: authErr.Message})
	case errors.As(err, &valErr):
		writeJSON(w, valErr.StatusCode, schemaerr.Body{Error: "request validation failed", Details: valErr.Findings()})
	default:
		s.writeError(w, r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
