package nifs

import (
	"context"
	"io"
)

// FileAdapter supplies the initial content of a seeded file.
// Adapters are consulted once while the file is created; after that the
// in-memory content buffer is the only copy of the data.
type FileAdapter interface {
	// Opens the source and returns a Reader over its full content
	Open(ctx context.Context) (io.ReadCloser, error)
}

// AdapterProvider is a factory for concrete [FileAdapter] implementations
// generated from the raw JSON of a request's source entry
type AdapterProvider interface {
	NewAdapter(raw []byte) (FileAdapter, error)
}

// FileSource pairs an adapter with its failover priority
type FileSource struct {
	FileAdapter
	Priority int `json:"priority,omitempty"` // Lower number = higher priority
}
