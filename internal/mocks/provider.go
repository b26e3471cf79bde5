package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/nifs"
)

// MockProvider implements nifs.Provider for testing the host integration layer
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Mount() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *MockProvider) Unmount() {
	m.Called()
}

func (m *MockProvider) Resolve(parentID uint64, name string) nifs.Resolution {
	args := m.Called(parentID, name)
	return args.Get(0).(nifs.Resolution)
}

func (m *MockProvider) List(dirID uint64, cursor uint64) (*nifs.DirEntry, uint64) {
	args := m.Called(dirID, cursor)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64)
	}
	return args.Get(0).(*nifs.DirEntry), args.Get(1).(uint64)
}

func (m *MockProvider) CreateFile(parentID uint64, name string) (uint64, error) {
	args := m.Called(parentID, name)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockProvider) RemoveFile(parentID uint64, name string) error {
	args := m.Called(parentID, name)
	return args.Error(0)
}

func (m *MockProvider) MakeDirectory(parentID uint64, name string) (uint64, error) {
	args := m.Called(parentID, name)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockProvider) RemoveDirectory(parentID uint64, name string) error {
	args := m.Called(parentID, name)
	return args.Error(0)
}

func (m *MockProvider) Read(fileID uint64, offset int64, length int) ([]byte, error) {
	args := m.Called(fileID, offset, length)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProvider) Write(fileID uint64, offset int64, data []byte, appendMode bool) (int, error) {
	args := m.Called(fileID, offset, data, appendMode)
	return args.Int(0), args.Error(1)
}

func (m *MockProvider) Stat(id uint64) (nifs.NodeInfo, error) {
	args := m.Called(id)
	return args.Get(0).(nifs.NodeInfo), args.Error(1)
}

func (m *MockProvider) Truncate(fileID uint64, size int64) error {
	args := m.Called(fileID, size)
	return args.Error(0)
}

var _ nifs.Provider = (*MockProvider)(nil)
