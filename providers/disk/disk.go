// Package disk implements a read-only [webvfs.PathProvider] over a local directory.
// Children are read on demand so changes on disk show up on the next listing.
package disk

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/brettbedarf/webvfs/internal/util"
)

const virtualSeparator = "/"

type Provider struct {
	rootDir  string // absolute
	realRoot string // rootDir with symlinks evaluated, for containment checks
	root     *Directory
}

var _ webvfs.PathProvider = (*Provider)(nil)

// New creates a provider rooted at rootDir, which must be an existing directory
func New(rootDir string) (*Provider, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("disk provider: empty root: %w", webvfs.ErrInvalidArgument)
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("disk provider: %s is not a directory: %w", abs, webvfs.ErrInvalidArgument)
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	p := &Provider{rootDir: abs, realRoot: realRoot}
	base, err := filesystem.NewRootDirectoryBase(p, abs)
	if err != nil {
		return nil, err
	}
	p.root = &Directory{DirectoryBase: base, p: p, stat: filesystem.NewStat(info.ModTime(), 0)}
	return p, nil
}

func (p *Provider) VirtualPathSeparator() string { return virtualSeparator }
func (p *Provider) RealPathSeparator() string    { return string(filepath.Separator) }

// RootDir returns the absolute directory the provider serves
func (p *Provider) RootDir() string {
	return p.rootDir
}

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

// stat returns the info of the named entry under dir, following symlinks only
// when their target stays inside the provider root
func (p *Provider) stat(dir, name string) (fs.FileInfo, bool) {
	logger := util.GetLogger("disk.stat")

	full := filepath.Join(dir, name)
	info, err := os.Lstat(full)
	if err != nil {
		return nil, false
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return info, true
	}

	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		logger.Debug().Err(err).Str("path", full).Msg("Skipping broken symlink")
		return nil, false
	}
	if !p.contains(target) {
		logger.Warn().Str("path", full).Str("target", target).Msg("Skipping symlink outside of root")
		return nil, false
	}
	if info, err = os.Stat(full); err != nil {
		return nil, false
	}
	return info, true
}

func (p *Provider) contains(target string) bool {
	if target == p.realRoot {
		return true
	}
	prefix := p.realRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

type Directory struct {
	filesystem.DirectoryBase
	p    *Provider
	stat *filesystem.Stat
}

func (d *Directory) LastModified() time.Time {
	return d.stat.ModTime()
}

func (d *Directory) newDirectory(name string, info fs.FileInfo) *Directory {
	base, _ := filesystem.NewDirectoryBase(d.p, d, name) // d and d.p are never nil
	return &Directory{DirectoryBase: base, p: d.p, stat: filesystem.NewStat(info.ModTime(), 0)}
}

func (d *Directory) newFile(name string, info fs.FileInfo) *File {
	f := &File{stat: filesystem.NewStat(info.ModTime(), info.Size())}
	f.FileBase, _ = filesystem.NewFileBase(d.p, d, name, f.open)
	return f
}

// entries lists the directory on disk, calling fn for every visible child
func (d *Directory) entries(fn func(name string, info fs.FileInfo)) {
	logger := util.GetLogger("disk.Directory")

	dirPath := d.RealPath()
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", dirPath).Msg("Failed to read directory")
		return
	}
	// os.ReadDir sorts by filename
	for _, e := range entries {
		if info, ok := d.p.stat(dirPath, e.Name()); ok {
			fn(e.Name(), info)
		}
	}
}

func (d *Directory) Files() []webvfs.File {
	var files []webvfs.File
	d.entries(func(name string, info fs.FileInfo) {
		if info.Mode().IsRegular() {
			files = append(files, d.newFile(name, info))
		}
	})
	return files
}

func (d *Directory) Directories() []webvfs.Directory {
	var dirs []webvfs.Directory
	d.entries(func(name string, info fs.FileInfo) {
		if info.IsDir() {
			dirs = append(dirs, d.newDirectory(name, info))
		}
	})
	return dirs
}

func (d *Directory) lookupDir(segs []string) *Directory {
	cur := d
	for _, seg := range segs {
		info, ok := d.p.stat(cur.RealPath(), seg)
		if !ok || !info.IsDir() {
			return nil
		}
		cur = cur.newDirectory(seg, info)
	}
	return cur
}

func (d *Directory) GetFile(relPath string) webvfs.File {
	segs, ok := filesystem.SplitPath(relPath, virtualSeparator)
	if !ok || len(segs) == 0 {
		return nil
	}
	dir := d.lookupDir(segs[:len(segs)-1])
	if dir == nil {
		return nil
	}
	name := segs[len(segs)-1]
	info, ok := d.p.stat(dir.RealPath(), name)
	if !ok || !info.Mode().IsRegular() {
		return nil
	}
	return dir.newFile(name, info)
}

func (d *Directory) GetDirectory(relPath string) webvfs.Directory {
	segs, ok := filesystem.SplitPath(relPath, virtualSeparator)
	if !ok {
		return nil
	}
	if dir := d.lookupDir(segs); dir != nil {
		return dir
	}
	return nil
}

type File struct {
	filesystem.FileBase
	stat *filesystem.Stat
}

var _ webvfs.Refresher = (*File)(nil)

func (f *File) LastModified() time.Time {
	return f.stat.ModTime()
}

func (f *File) Length() int64 {
	return f.stat.Size()
}

func (f *File) open() (io.ReadCloser, error) {
	file, err := os.Open(f.RealPath())
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Refresh re-reads the file's size and modification time from disk
func (f *File) Refresh() {
	logger := util.GetLogger("disk.Refresh")

	info, err := os.Stat(f.RealPath())
	if err != nil {
		logger.Debug().Err(err).Str("path", f.RealPath()).Msg("Failed to refresh file stats")
		return
	}
	f.stat.Update(func(modTime *time.Time, size *int64) {
		*modTime = info.ModTime()
		*size = info.Size()
	})
}
