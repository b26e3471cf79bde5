package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/nifs"
)

// Registry maps a source "type" key to the provider that builds its adapters
type Registry struct {
	providers *xsync.Map[string, nifs.AdapterProvider]
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, nifs.AdapterProvider]()}
}

// Register ties a provider to a "type" key. The first registration for a key
// wins; later ones are ignored.
func (r *Registry) Register(adapterType string, provider nifs.AdapterProvider) {
	r.providers.LoadOrStore(adapterType, provider)
}

// GetProvider returns the provider registered for adapterType
func (r *Registry) GetProvider(adapterType string) (nifs.AdapterProvider, error) {
	if p, ok := r.providers.Load(adapterType); ok {
		return p, nil
	}
	return nil, fmt.Errorf("no adapter provider registered for %q", adapterType)
}

// NewAdapter builds an adapter from a raw source object, picking the provider
// by the object's "type" field.
func (r *Registry) NewAdapter(raw []byte) (nifs.FileAdapter, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("source is missing a \"type\" field")
	}
	p, err := r.GetProvider(meta.Type)
	if err != nil {
		return nil, err
	}
	return p.NewAdapter(raw)
}
