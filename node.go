package webvfs

import (
	"io"
	"time"
)

// Node is a file or directory entry in a provider's virtual tree
type Node interface {
	// Name returns the node's name (last path component)
	Name() string

	// VirtualPath returns the logical slash-delimited path from the provider root
	VirtualPath() string

	// RealPath returns the physical storage path in its native separator convention
	RealPath() string

	IsDirectory() bool

	LastModified() time.Time

	// Directory returns the parent directory; nil only for the root
	Directory() Directory
}

// File is a leaf [Node] with readable content
type File interface {
	Node

	// Extension returns the text after the last '.' in the name
	Extension() string

	// Length returns the content size in bytes
	Length() int64

	// OpenRead opens the content for reading. Callers must Close it.
	OpenRead() (io.ReadCloser, error)

	// OpenText opens the content as text without a leading UTF-8 byte order mark
	OpenText() (io.ReadCloser, error)

	// FileHash returns the hex MD5 digest of the content
	FileHash() (string, error)

	ReadAllText() (string, error)
	ReadAllBytes() ([]byte, error)
}

// Directory is a [Node] containing files and other directories.
// Children are listed in name order.
type Directory interface {
	Node
	Files() []File
	Directories() []Directory

	// GetFile returns the file at the virtual path relative to this directory or nil
	GetFile(relPath string) File

	// GetDirectory returns the directory at the virtual path relative to this directory or nil
	GetDirectory(relPath string) Directory
}

// Refresher is implemented by nodes whose metadata (modification time, length)
// can be reloaded from the backing store
type Refresher interface {
	Refresh()
}
