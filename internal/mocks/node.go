package mocks

import (
	"io"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/stretchr/testify/mock"
)

// MockFile implements webvfs.File for testing across packages
type MockFile struct {
	mock.Mock
}

func (m *MockFile) Name() string        { return m.Called().String(0) }
func (m *MockFile) VirtualPath() string { return m.Called().String(0) }
func (m *MockFile) RealPath() string    { return m.Called().String(0) }
func (m *MockFile) IsDirectory() bool   { return false }
func (m *MockFile) Extension() string   { return m.Called().String(0) }

func (m *MockFile) LastModified() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockFile) Length() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockFile) Directory() webvfs.Directory {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.Directory)
}

func (m *MockFile) OpenRead() (io.ReadCloser, error) {
	args := m.Called()

	// Handle function return types so each call gets a fresh reader
	if fn, ok := args.Get(0).(func() io.ReadCloser); ok {
		return fn(), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFile) OpenText() (io.ReadCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFile) FileHash() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockFile) ReadAllText() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockFile) ReadAllBytes() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ webvfs.File = (*MockFile)(nil)

// MockDirectory implements webvfs.Directory for testing across packages
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Name() string        { return m.Called().String(0) }
func (m *MockDirectory) VirtualPath() string { return m.Called().String(0) }
func (m *MockDirectory) RealPath() string    { return m.Called().String(0) }
func (m *MockDirectory) IsDirectory() bool   { return true }

func (m *MockDirectory) LastModified() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockDirectory) Directory() webvfs.Directory {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.Directory)
}

func (m *MockDirectory) Files() []webvfs.File {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]webvfs.File)
}

func (m *MockDirectory) Directories() []webvfs.Directory {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]webvfs.Directory)
}

func (m *MockDirectory) GetFile(relPath string) webvfs.File {
	args := m.Called(relPath)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.File)
}

func (m *MockDirectory) GetDirectory(relPath string) webvfs.Directory {
	args := m.Called(relPath)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.Directory)
}

var _ webvfs.Directory = (*MockDirectory)(nil)

// StubSeparators is a fixed webvfs.DirectoryPathProvider
type StubSeparators struct {
	Virtual string
	Real    string
}

func (s StubSeparators) VirtualPathSeparator() string { return s.Virtual }
func (s StubSeparators) RealPathSeparator() string    { return s.Real }

var _ webvfs.DirectoryPathProvider = StubSeparators{}

// MockProvider implements webvfs.PathProvider with fixed separators
type MockProvider struct {
	mock.Mock
	StubSeparators
}

func (m *MockProvider) RootDirectory() webvfs.Directory {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.Directory)
}

func (m *MockProvider) GetFile(virtualPath string) webvfs.File {
	args := m.Called(virtualPath)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.File)
}

func (m *MockProvider) GetDirectory(virtualPath string) webvfs.Directory {
	args := m.Called(virtualPath)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(webvfs.Directory)
}

func (m *MockProvider) FileExists(virtualPath string) bool {
	return m.Called(virtualPath).Bool(0)
}

func (m *MockProvider) DirectoryExists(virtualPath string) bool {
	return m.Called(virtualPath).Bool(0)
}

func (m *MockProvider) AllFiles() []webvfs.File {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]webvfs.File)
}

var _ webvfs.PathProvider = (*MockProvider)(nil)
