package filesystem

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/brettbedarf/webvfs"
)

// OpenFunc opens a file's content for reading
type OpenFunc func() (io.ReadCloser, error)

// NodeBase carries what every node is constructed with: its name, the owning
// provider's separators and a non-owning reference to the parent directory.
// Concrete providers embed [FileBase] or [DirectoryBase] rather than this type.
type NodeBase struct {
	name     string
	realName string // differs from name only for roots
	provider webvfs.DirectoryPathProvider
	parent   webvfs.Directory
}

// Name returns the node's immutable name.
func (n *NodeBase) Name() string {
	return n.name
}

// Directory returns the parent directory or nil for a root
func (n *NodeBase) Directory() webvfs.Directory {
	return n.parent
}

// Provider returns the separators the node was constructed with
func (n *NodeBase) Provider() webvfs.DirectoryPathProvider {
	return n.provider
}

// VirtualPath walks the parent chain joining names with the virtual separator
func (n *NodeBase) VirtualPath() string {
	return ResolvePath(n.name, n.parent, n.provider.VirtualPathSeparator(), webvfs.Directory.VirtualPath)
}

// RealPath walks the parent chain joining names with the real separator
func (n *NodeBase) RealPath() string {
	return ResolvePath(n.realName, n.parent, n.provider.RealPathSeparator(), webvfs.Directory.RealPath)
}

// FileBase provides the default [webvfs.File] behavior on top of an [OpenFunc].
// Embedders supply LastModified and Length.
type FileBase struct {
	NodeBase
	open OpenFunc
}

// NewFileBase fails with [webvfs.ErrInvalidArgument] if the provider, the parent
// directory or open is missing.
func NewFileBase(provider webvfs.DirectoryPathProvider, dir webvfs.Directory, name string, open OpenFunc) (FileBase, error) {
	if provider == nil {
		return FileBase{}, fmt.Errorf("file %q: nil owning provider: %w", name, webvfs.ErrInvalidArgument)
	}
	if dir == nil {
		return FileBase{}, fmt.Errorf("file %q: nil directory: %w", name, webvfs.ErrInvalidArgument)
	}
	if open == nil {
		return FileBase{}, fmt.Errorf("file %q: nil open func: %w", name, webvfs.ErrInvalidArgument)
	}
	return FileBase{
		NodeBase: NodeBase{name: name, realName: name, provider: provider, parent: dir},
		open:     open,
	}, nil
}

func (f *FileBase) IsDirectory() bool {
	return false
}

// Extension returns the text after the last '.', or the whole name if there is none
func (f *FileBase) Extension() string {
	if i := strings.LastIndexByte(f.name, '.'); i >= 0 {
		return f.name[i+1:]
	}
	return f.name
}

func (f *FileBase) OpenRead() (io.ReadCloser, error) {
	return f.open()
}

// Hash returns the hex encoded MD5 digest of data, in the format of [FileBase.FileHash]
func Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileHash returns the hex encoded MD5 digest of the content
func (f *FileBase) FileHash() (string, error) {
	r, err := f.open()
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", f.name, err)
	}
	defer r.Close()

	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash %s: %w", f.name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (f *FileBase) ReadAllBytes() ([]byte, error) {
	r, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.name, err)
	}
	return data, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader reads text with any leading UTF-8 byte order mark removed and
// closes the underlying content
type textReader struct {
	*bufio.Reader
	io.Closer
}

// OpenText opens the content for reading as text. A leading UTF-8 byte order
// mark is skipped. Callers must Close it.
func (f *FileBase) OpenText() (io.ReadCloser, error) {
	r, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.name, err)
	}
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return textReader{Reader: br, Closer: r}, nil
}

// ReadAllText returns the content as a string with any UTF-8 byte order mark removed
func (f *FileBase) ReadAllText() (string, error) {
	data, err := f.ReadAllBytes()
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// DirectoryBase provides name and path behavior for [webvfs.Directory] embedders
type DirectoryBase struct {
	NodeBase
}

// NewDirectoryBase creates the base of a non-root directory. Both the provider
// and the parent are required.
func NewDirectoryBase(provider webvfs.DirectoryPathProvider, parent webvfs.Directory, name string) (DirectoryBase, error) {
	if provider == nil {
		return DirectoryBase{}, fmt.Errorf("directory %q: nil owning provider: %w", name, webvfs.ErrInvalidArgument)
	}
	if parent == nil {
		return DirectoryBase{}, fmt.Errorf("directory %q: nil parent: %w", name, webvfs.ErrInvalidArgument)
	}
	return DirectoryBase{NodeBase{name: name, realName: name, provider: provider, parent: parent}}, nil
}

// NewRootDirectoryBase creates the base of a provider's root directory. Its
// virtual path is the bare virtual separator and its real path is realRoot.
func NewRootDirectoryBase(provider webvfs.DirectoryPathProvider, realRoot string) (DirectoryBase, error) {
	if provider == nil {
		return DirectoryBase{}, fmt.Errorf("root directory: nil owning provider: %w", webvfs.ErrInvalidArgument)
	}
	return DirectoryBase{NodeBase{
		name:     provider.VirtualPathSeparator(),
		realName: realRoot,
		provider: provider,
	}}, nil
}

func (d *DirectoryBase) IsDirectory() bool {
	return true
}

// IsRoot reports whether the directory has no parent
func (d *DirectoryBase) IsRoot() bool {
	return d.parent == nil
}

// Equal reports whether a and b resolve to the same virtual path. Identity and
// real paths are not considered.
func Equal(a, b webvfs.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.VirtualPath() == b.VirtualPath()
}

// Key returns the value nodes are hashed by, for use as a map key
func Key(n webvfs.Node) string {
	return n.VirtualPath()
}

// String formats a node as "<real path> -> <virtual path>"
func String(n webvfs.Node) string {
	return fmt.Sprintf("%s -> %s", n.RealPath(), n.VirtualPath())
}

// Refresh reloads the file's metadata if it supports it and returns the file
func Refresh(f webvfs.File) webvfs.File {
	if r, ok := f.(webvfs.Refresher); ok {
		r.Refresh()
	}
	return f
}

// SplitPath splits a virtual path into its non-empty segments, ignoring "."
// segments. It returns ok=false for paths with ".." segments so lookups can never
// climb above the directory they start from.
func SplitPath(p, separator string) (segs []string, ok bool) {
	for _, s := range strings.Split(p, separator) {
		switch s {
		case "", ".":
			continue
		case "..":
			return nil, false
		}
		segs = append(segs, s)
	}
	return segs, true
}
