package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/brettbedarf/nifs"
)

// InlineSource carries file content directly in the node definition
type InlineSource struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty"` // "" or "text" (default), "base64"
}

// InlineProvider builds [InlineAdapter]s
type InlineProvider struct{}

func RegisterInline(r *Registry) {
	r.Register(InlineAdapterType, InlineProvider{})
}

// NewAdapter decodes the inline content up front so bad data fails at load time
func (InlineProvider) NewAdapter(raw []byte) (nifs.FileAdapter, error) {
	var src InlineSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	switch src.Encoding {
	case "", "text":
		return &InlineAdapter{data: []byte(src.Data)}, nil
	case "base64":
		data, err := base64.StdEncoding.DecodeString(src.Data)
		if err != nil {
			return nil, fmt.Errorf("inline source: %w", err)
		}
		return &InlineAdapter{data: data}, nil
	default:
		return nil, fmt.Errorf("inline source: unknown encoding %q", src.Encoding)
	}
}

// InlineAdapter implements [nifs.FileAdapter] over bytes held in memory
type InlineAdapter struct {
	data []byte
}

func (a *InlineAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(a.data)), nil
}
