package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const petstore = `openapi: "3.0.3"
info:
  title: Pets
  version: "1.0.0"
servers:
  - url: https://api.example.com
paths:
  /pets:
    get:
      responses:
        "200":
          description: OK
    post:
      responses:
        "201":
          description: Created
  /pets/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    delete:
      responses:
        "204":
          description: Deleted
components:
  securitySchemes:
    bearer:
      type: http
      scheme: bearer
`

func TestLoad(t *testing.T) {
	result, err := Load([]byte(petstore), nil)
	require.NoError(t, err)
	require.Equal(t, "3.0.3", result.Version)
	require.Empty(t, result.Warnings)
	require.NotNil(t, result.Model)

	s := Summarize(result)
	require.Equal(t, "Pets", s.Info.Title)
	require.Equal(t, "1.0.0", s.Info.Version)
	require.Equal(t, []string{"https://api.example.com"}, s.Servers)
	require.Equal(t, 2, s.Paths)
	require.Equal(t, 3, s.Operations)
	require.Equal(t, []string{"bearer"}, s.SecuritySchemes)
}

func TestLoadJSON(t *testing.T) {
	result, err := Load([]byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`), nil)
	require.NoError(t, err)
	require.Equal(t, "3.0.0", result.Version)
}

func TestLoadRejectsSwagger(t *testing.T) {
	_, err := Load([]byte(`{"swagger": "2.0", "info": {"title": "x", "version": "1"}, "paths": {}}`), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported OpenAPI version")
}

func TestLoadWarnsOn31(t *testing.T) {
	result, err := Load([]byte(`{"openapi": "3.1.0", "info": {"title": "x", "version": "1"}, "paths": {}}`), nil)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "3.1.0")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o644))

	result, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Pets", Summarize(result).Info.Title)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
