// Package webvfs contains core domain types and interfaces for the virtual path
// provider framework
package webvfs

import "errors"

var (
	// ErrInvalidArgument is returned when a node or provider is constructed
	// without a required collaborator
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotExist is returned by write operations targeting a missing node
	ErrNotExist = errors.New("node does not exist")
)

// DirectoryPathProvider is the capability nodes are constructed with to resolve
// their own paths. It supplies the separator for each path flavor.
type DirectoryPathProvider interface {
	// VirtualPathSeparator is the delimiter of virtual paths, normally "/"
	VirtualPathSeparator() string

	// RealPathSeparator is the delimiter native to the backing store
	RealPathSeparator() string
}

// PathProvider exposes a virtual tree of nodes backed by some storage
// (memory, a local directory, embedded assets, ...)
type PathProvider interface {
	DirectoryPathProvider

	RootDirectory() Directory

	// GetFile returns the file at virtualPath or nil if there is none
	GetFile(virtualPath string) File

	// GetDirectory returns the directory at virtualPath or nil if there is none
	GetDirectory(virtualPath string) Directory

	FileExists(virtualPath string) bool
	DirectoryExists(virtualPath string) bool

	// AllFiles returns every file reachable from the root, depth-first in name order
	AllFiles() []File
}

// Writer is implemented by providers that accept content changes
type Writer interface {
	WriteFile(virtualPath string, data []byte) error
	DeleteFile(virtualPath string) error
}
