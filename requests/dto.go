package requests

import (
	"github.com/brettbedarf/nifs"
)

// NodeRequestDTO is the JSON representation of [nifs.NodeRequest]
type NodeRequestDTO struct {
	Path string                     `json:"path"`
	Type nifs.NodeCreateRequestType `json:"type"`
	UUID *string                    `json:"uuid,omitempty"` // Optional id for tracing the request in logs
}

// FileRequestDTO is the JSON representation of [nifs.FileCreateRequest]
type FileRequestDTO struct {
	NodeRequestDTO
	Sources []SourceConfigDTO `json:"sources"`
}

type DirRequestDTO struct {
	NodeRequestDTO
}

// SourceConfigDTO is the JSON representation of static [nifs.FileSource] fields
//
// Additional fields depend on the "type" value:
//
// Ex. For type="http" (see [adapters.HTTPSource]):
//
//	URL     string            `json:"url"`
//	Method  *string           `json:"method,omitempty"`
//	Headers map\[string\]string `json:"headers,omitempty"`
//
// Ex. For type="inline" (see [adapters.InlineSource]):
//
//	Data     string `json:"data"`
//	Encoding string `json:"encoding,omitempty"`
//
// See adapters package for built-ins complete field specifications.
type SourceConfigDTO struct {
	Type     string `json:"type"`
	Priority *int   `json:"priority,omitempty"` // Lower number = higher priority, defaults to array index
}
