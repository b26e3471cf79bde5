package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/nifs"
)

// MockFileAdapter implements nifs.FileAdapter for testing across packages
type MockFileAdapter struct {
	mock.Mock
}

func (m *MockFileAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	args := m.Called(ctx)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context) io.ReadCloser); ok {
		return fn(ctx), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

var _ nifs.FileAdapter = (*MockFileAdapter)(nil)

// MockAdapterProvider implements nifs.AdapterProvider for testing across packages
type MockAdapterProvider struct {
	mock.Mock
}

func (m *MockAdapterProvider) NewAdapter(raw []byte) (nifs.FileAdapter, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(nifs.FileAdapter), args.Error(1)
}

var _ nifs.AdapterProvider = (*MockAdapterProvider)(nil)
