package requests

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/adapters"
)

// Nodes holds the parsed entries of a node definition file in file order
type Nodes struct {
	Dirs  []*nifs.DirCreateRequest
	Files []*nifs.FileCreateRequest
}

// Len returns the total number of requests
func (n *Nodes) Len() int {
	return len(n.Dirs) + len(n.Files)
}

// UnmarshalNodes parses a JSON array of node definitions. Every entry is
// parsed; errors for individual entries are combined and returned together.
func UnmarshalNodes(data []byte, registry *adapters.Registry) (*Nodes, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("node definitions must be a JSON array: %w", err)
	}

	nodes := &Nodes{}
	var errs *multierror.Error
	for i, raw := range raws {
		nodeType, err := GetNodeType(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("node %d: %w", i, err))
			continue
		}
		switch nodeType {
		case nifs.FileNodeType:
			req, err := UnmarshalFileRequest(raw, registry)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %d: %w", i, err))
				continue
			}
			nodes.Files = append(nodes.Files, req)
		case nifs.DirNodeType:
			req, err := UnmarshalDirRequest(raw)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %d: %w", i, err))
				continue
			}
			nodes.Dirs = append(nodes.Dirs, req)
		default:
			errs = multierror.Append(errs, fmt.Errorf("node %d: unknown type %q", i, nodeType))
		}
	}
	return nodes, errs.ErrorOrNil()
}

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (nifs.NodeCreateRequestType, error) {
	var meta struct {
		Type nifs.NodeCreateRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalFileRequest handles file-specific unmarshaling with sources
func UnmarshalFileRequest(data []byte, registry *adapters.Registry) (*nifs.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	sources, err := unmarshalSources(dto.Sources, data, registry)
	if err != nil {
		return nil, err
	}

	return &nifs.FileCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
		Sources:     sources,
	}, nil
}

// UnmarshalDirRequest handles explicit directory unmarshaling (no sources)
func UnmarshalDirRequest(data []byte) (*nifs.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	return &nifs.DirCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
	}, nil
}

// Helper function to process sources array
func unmarshalSources(sourceDTOs []SourceConfigDTO, rawData []byte, registry *adapters.Registry) ([]nifs.FileSource, error) {
	// Extract raw sources array from JSON for adapter registry
	var rawMessage struct {
		Sources []json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(rawData, &rawMessage); err != nil {
		return nil, err
	}

	sources := make([]nifs.FileSource, 0, len(rawMessage.Sources))
	for i, rawSource := range rawMessage.Sources {
		adapter, err := registry.NewAdapter(rawSource)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}

		// Apply priority default
		priority := valueOrDefault(sourceDTOs[i].Priority, i)

		sources = append(sources, nifs.FileSource{
			FileAdapter: adapter,
			Priority:    priority,
		})
	}

	return sources, nil
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) nifs.NodeRequest {
	return nifs.NodeRequest{
		Path: dto.Path,
		Type: dto.Type,
		UUID: valueOrDefault(dto.UUID, uuid.New().String()),
	}
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
