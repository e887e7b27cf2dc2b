package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

type Result struct {
	Document libopenapi.Document
	Model    *libopenapi.DocumentModel[v3.Document]
	Version  string
	Warnings []string
	RawData  []byte
}

type Options struct {
	// BasePath anchors relative file references.
	BasePath string
	// AllowFileReferences lets the model builder read referenced files.
	AllowFileReferences bool
	// AllowRemoteReferences lets the model builder fetch http(s) references.
	AllowRemoteReferences bool
}

func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	return Load(data, &Options{
		BasePath:            filepath.Dir(absPath),
		AllowFileReferences: true,
	})
}

// Load parses data into a libopenapi document and builds its v3 model. Only
// 3.x documents are accepted.
func Load(data []byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	config := &datamodel.DocumentConfiguration{
		BasePath:                            opts.BasePath,
		AllowFileReferences:                 opts.AllowFileReferences,
		AllowRemoteReferences:               opts.AllowRemoteReferences,
		IgnorePolymorphicCircularReferences: true,
		IgnoreArrayCircularReferences:       true,
	}

	doc, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %q (only 3.x supported)", version)
	}

	result := &Result{
		Document: doc,
		Version:  version,
		RawData:  data,
	}

	model, err := doc.BuildV3Model()
	if model == nil {
		if err == nil {
			err = fmt.Errorf("no model produced")
		}
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}
	if err != nil {
		// A model built alongside an error carries non-fatal findings, most
		// often circular references.
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Model = model

	if !strings.HasPrefix(version, "3.0") {
		result.Warnings = append(result.Warnings, fmt.Sprintf("OpenAPI %s detected; only 3.0 semantics are applied", version))
	}

	return result, nil
}
