package requests

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/nifs"
	"github.com/brettbedarf/nifs/adapters"
)

func readSource(t *testing.T, src nifs.FileSource) string {
	t.Helper()
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestGetNodeType(t *testing.T) {
	t.Parallel()

	typ, err := GetNodeType([]byte(`{"type":"dir","path":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, nifs.DirNodeType, typ)

	_, err = GetNodeType([]byte(`not json`))
	assert.Error(t, err)
}

func TestUnmarshalDirRequest(t *testing.T) {
	t.Parallel()

	t.Run("uuid provided", func(t *testing.T) {
		t.Parallel()
		req, err := UnmarshalDirRequest([]byte(`{"type":"dir","path":"a/b","uuid":"req-1"}`))
		require.NoError(t, err)
		assert.Equal(t, nifs.NodeRequest{Path: "a/b", Type: nifs.DirNodeType, UUID: "req-1"}, req.NodeRequest)
	})
	t.Run("uuid defaulted", func(t *testing.T) {
		t.Parallel()
		req, err := UnmarshalDirRequest([]byte(`{"type":"dir","path":"a"}`))
		require.NoError(t, err)
		_, err = uuid.Parse(req.UUID)
		assert.NoError(t, err, "default UUID must be a valid uuid")
	})
}

func TestUnmarshalFileRequest(t *testing.T) {
	t.Parallel()
	registry := adapters.NewDefaultRegistry()

	data := []byte(`{
		"type": "file",
		"path": "docs/readme.txt",
		"sources": [
			{"type": "http", "url": "http://example.invalid/readme.txt", "priority": 5},
			{"type": "inline", "data": "fallback"}
		]
	}`)

	req, err := UnmarshalFileRequest(data, registry)
	require.NoError(t, err)

	assert.Equal(t, "docs/readme.txt", req.Path)
	assert.Equal(t, nifs.FileNodeType, req.Type)
	require.Len(t, req.Sources, 2)
	assert.Equal(t, 5, req.Sources[0].Priority)
	assert.IsType(t, &adapters.HTTPAdapter{}, req.Sources[0].FileAdapter)
	assert.Equal(t, 1, req.Sources[1].Priority, "priority defaults to array index")
	assert.Equal(t, "fallback", readSource(t, req.Sources[1]))
}

func TestUnmarshalFileRequest_Errors(t *testing.T) {
	t.Parallel()
	registry := adapters.NewDefaultRegistry()

	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"type":"file",`},
		{"unknown source type", `{"type":"file","path":"f","sources":[{"type":"s3"}]}`},
		{"invalid http source", `{"type":"file","path":"f","sources":[{"type":"http","url":"ftp://x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := UnmarshalFileRequest([]byte(tt.data), registry)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalNodes(t *testing.T) {
	t.Parallel()
	registry := adapters.NewDefaultRegistry()

	data := []byte(`[
		{"type": "dir", "path": "empty"},
		{"type": "file", "path": "a/one.txt", "sources": [{"type": "inline", "data": "1"}]},
		{"type": "file", "path": "a/two.txt"}
	]`)

	nodes, err := UnmarshalNodes(data, registry)
	require.NoError(t, err)

	assert.Equal(t, 3, nodes.Len())
	require.Len(t, nodes.Dirs, 1)
	assert.Equal(t, "empty", nodes.Dirs[0].Path)
	require.Len(t, nodes.Files, 2)
	assert.Equal(t, "a/one.txt", nodes.Files[0].Path)
	assert.Equal(t, "a/two.txt", nodes.Files[1].Path)
	assert.Empty(t, nodes.Files[1].Sources)
}

func TestUnmarshalNodes_CollectsErrors(t *testing.T) {
	t.Parallel()
	registry := adapters.NewDefaultRegistry()

	data := []byte(`[
		{"type": "dir", "path": "ok"},
		{"type": "symlink", "path": "bad"},
		{"type": "file", "path": "f", "sources": [{"type": "nope"}]}
	]`)

	nodes, err := UnmarshalNodes(data, registry)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 1")
	assert.Contains(t, err.Error(), "node 2")
	require.NotNil(t, nodes)
	assert.Len(t, nodes.Dirs, 1, "valid entries are still returned")
}

func TestUnmarshalNodes_NotArray(t *testing.T) {
	t.Parallel()

	_, err := UnmarshalNodes([]byte(`{"type":"dir"}`), adapters.NewDefaultRegistry())
	assert.Error(t, err)
}
