package loader

import (
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Summary describes a loaded document at a glance.
type Summary struct {
	Version         string     `json:"version"`
	Info            model.Info `json:"info"`
	Servers         []string   `json:"servers,omitempty"`
	Paths           int        `json:"paths"`
	Operations      int        `json:"operations"`
	SecuritySchemes []string   `json:"securitySchemes,omitempty"`
	Warnings        []string   `json:"warnings,omitempty"`
}

func Summarize(result *Result) Summary {
	doc := result.Model.Model

	s := Summary{
		Version:  result.Version,
		Info:     transformInfo(doc.Info),
		Warnings: result.Warnings,
	}

	for _, srv := range doc.Servers {
		s.Servers = append(s.Servers, srv.URL)
	}

	if doc.Paths != nil && doc.Paths.PathItems != nil {
		for _, item := range doc.Paths.PathItems.FromOldest() {
			s.Paths++
			s.Operations += countOperations(item)
		}
	}

	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for name := range doc.Components.SecuritySchemes.FromOldest() {
			s.SecuritySchemes = append(s.SecuritySchemes, name)
		}
	}

	return s
}

func transformInfo(info *base.Info) model.Info {
	if info == nil {
		return model.Info{}
	}
	return model.Info{
		Title:       info.Title,
		Description: info.Description,
		Version:     info.Version,
	}
}

// countOperations counts the operations of the methods the flattener knows.
func countOperations(item *v3.PathItem) int {
	n := 0
	for _, op := range []*v3.Operation{
		item.Get,
		item.Post,
		item.Put,
		item.Patch,
		item.Delete,
		item.Options,
		item.Head,
	} {
		if op != nil {
			n++
		}
	}
	return n
}
