// Package memory implements a writable in-memory [webvfs.PathProvider]
package memory

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
)

// Separator is both the virtual and the real separator of memory providers
const Separator = "/"

type Provider struct {
	root *Directory
}

var (
	_ webvfs.PathProvider = (*Provider)(nil)
	_ webvfs.Writer       = (*Provider)(nil)
)

// New creates an empty provider whose real paths mirror its virtual paths
func New() *Provider {
	p := &Provider{}
	base, _ := filesystem.NewRootDirectoryBase(p, Separator) // p is never nil
	p.root = newDirectory(base)
	return p
}

func (p *Provider) VirtualPathSeparator() string { return Separator }
func (p *Provider) RealPathSeparator() string    { return Separator }

func (p *Provider) RootDirectory() webvfs.Directory {
	return p.root
}

func (p *Provider) GetFile(virtualPath string) webvfs.File {
	return p.root.GetFile(virtualPath)
}

func (p *Provider) GetDirectory(virtualPath string) webvfs.Directory {
	return p.root.GetDirectory(virtualPath)
}

func (p *Provider) FileExists(virtualPath string) bool {
	return p.root.GetFile(virtualPath) != nil
}

func (p *Provider) DirectoryExists(virtualPath string) bool {
	return p.root.GetDirectory(virtualPath) != nil
}

func (p *Provider) AllFiles() []webvfs.File {
	return filesystem.AllFiles(p.root)
}

// WriteFile stores data at virtualPath. It creates any missing directories in the
// path, equivalent to `mkdir -p`, and replaces the content of an existing file.
func (p *Provider) WriteFile(virtualPath string, data []byte) error {
	logger := util.GetLogger("memory.WriteFile")

	segs, ok := filesystem.SplitPath(virtualPath, Separator)
	if !ok || len(segs) == 0 {
		return fmt.Errorf("write %q: not a file path: %w", virtualPath, webvfs.ErrInvalidArgument)
	}
	dirSegs, name := segs[:len(segs)-1], segs[len(segs)-1]

	// Traverse the path until we get to existing dir and make
	// any missing along the way
	cur := p.root
	newCnt := 0
	for _, seg := range dirSegs {
		if _, isFile := cur.files.Load(seg); isFile {
			return fmt.Errorf("write %q: %s is a file: %w", virtualPath, seg, webvfs.ErrInvalidArgument)
		}
		base, err := filesystem.NewDirectoryBase(p, cur, seg)
		if err != nil {
			return err
		}
		child, loaded := cur.dirs.LoadOrStore(seg, newDirectory(base))
		if !loaded {
			newCnt++
			cur.touch()
		}
		cur = child
	}
	if newCnt > 0 {
		logger.Info().Str("path", virtualPath).Msg(fmt.Sprintf("Created %d new dir(s)", newCnt))
	}

	if _, isDir := cur.dirs.Load(name); isDir {
		return fmt.Errorf("write %q: is a directory: %w", virtualPath, webvfs.ErrInvalidArgument)
	}
	f := &File{stat: filesystem.NewStat(time.Now(), int64(len(data))), data: bytes.Clone(data)}
	base, err := filesystem.NewFileBase(p, cur, name, f.open)
	if err != nil {
		return err
	}
	f.FileBase = base

	if existing, loaded := cur.files.LoadOrStore(name, f); loaded {
		existing.set(data)
		logger.Debug().Str("path", virtualPath).Int("size", len(data)).Msg("Replaced file content")
		return nil
	}
	cur.touch()
	logger.Debug().Str("path", virtualPath).Int("size", len(data)).Msg("Added new file node")
	return nil
}

// DeleteFile removes the file at virtualPath
func (p *Provider) DeleteFile(virtualPath string) error {
	logger := util.GetLogger("memory.DeleteFile")

	segs, ok := filesystem.SplitPath(virtualPath, Separator)
	if !ok || len(segs) == 0 {
		return fmt.Errorf("delete %q: not a file path: %w", virtualPath, webvfs.ErrInvalidArgument)
	}
	dir := p.root.lookupDir(segs[:len(segs)-1])
	if dir == nil {
		return fmt.Errorf("delete %q: %w", virtualPath, webvfs.ErrNotExist)
	}
	if _, exists := dir.files.LoadAndDelete(segs[len(segs)-1]); !exists {
		return fmt.Errorf("delete %q: %w", virtualPath, webvfs.ErrNotExist)
	}
	dir.touch()
	logger.Debug().Str("path", virtualPath).Msg("Deleted file node")
	return nil
}

// Directory is an in-memory directory. Children are kept in lock-free maps so
// concurrent writers and readers never block each other.
type Directory struct {
	filesystem.DirectoryBase
	stat  *filesystem.Stat
	dirs  *xsync.Map[string, *Directory]
	files *xsync.Map[string, *File]
}

func newDirectory(base filesystem.DirectoryBase) *Directory {
	return &Directory{
		DirectoryBase: base,
		stat:          filesystem.NewStat(time.Now(), 0),
		dirs:          xsync.NewMap[string, *Directory](),
		files:         xsync.NewMap[string, *File](),
	}
}

func (d *Directory) LastModified() time.Time {
	return d.stat.ModTime()
}

func (d *Directory) touch() {
	d.stat.Update(func(modTime *time.Time, _ *int64) { *modTime = time.Now() })
}

func (d *Directory) Files() []webvfs.File {
	files := make([]webvfs.File, 0, d.files.Size())
	d.files.Range(func(_ string, f *File) bool {
		files = append(files, f)
		return true
	})
	filesystem.SortByName(files)
	return files
}

func (d *Directory) Directories() []webvfs.Directory {
	dirs := make([]webvfs.Directory, 0, d.dirs.Size())
	d.dirs.Range(func(_ string, sub *Directory) bool {
		dirs = append(dirs, sub)
		return true
	})
	filesystem.SortByName(dirs)
	return dirs
}

func (d *Directory) GetFile(relPath string) webvfs.File {
	segs, ok := filesystem.SplitPath(relPath, Separator)
	if !ok || len(segs) == 0 {
		return nil
	}
	dir := d.lookupDir(segs[:len(segs)-1])
	if dir == nil {
		return nil
	}
	if f, ok := dir.files.Load(segs[len(segs)-1]); ok {
		return f
	}
	return nil
}

func (d *Directory) GetDirectory(relPath string) webvfs.Directory {
	segs, ok := filesystem.SplitPath(relPath, Separator)
	if !ok {
		return nil
	}
	if dir := d.lookupDir(segs); dir != nil {
		return dir
	}
	return nil
}

func (d *Directory) lookupDir(segs []string) *Directory {
	cur := d
	for _, seg := range segs {
		child, ok := cur.dirs.Load(seg)
		if !ok {
			return nil
		}
		cur = child
	}
	return cur
}

// File is an in-memory file. Content is copied on write and served from a
// snapshot on read.
type File struct {
	filesystem.FileBase
	stat *filesystem.Stat
	mu   sync.RWMutex
	data []byte
}

func (f *File) LastModified() time.Time {
	return f.stat.ModTime()
}

func (f *File) Length() int64 {
	return f.stat.Size()
}

func (f *File) open() (io.ReadCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *File) set(data []byte) {
	f.mu.Lock()
	f.data = bytes.Clone(data)
	f.mu.Unlock()
	f.stat.Update(func(modTime *time.Time, size *int64) {
		*modTime = time.Now()
		*size = int64(len(data))
	})
}

// WriteFiles is a convenience for seeding a provider from a path -> content map
func (p *Provider) WriteFiles(files map[string]string) error {
	for path, content := range files {
		if err := p.WriteFile(path, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}
