// Package embedded implements a read-only [webvfs.PathProvider] over an [fs.FS],
// typically an embed.FS compiled into the host binary.
package embedded

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/brettbedarf/webvfs/internal/util"
)

const separator = "/"

type Provider struct {
	fsys fs.FS
	root *Directory
}

var _ webvfs.PathProvider = (*Provider)(nil)

// New creates a provider over fsys. name prefixes real paths (i.e. "assets" gives
// "assets/css/site.css"); an empty name leaves real paths relative to fsys.
func New(fsys fs.FS, name string) (*Provider, error) {
	if fsys == nil {
		return nil, fmt.Errorf("embedded provider %q: nil fs: %w", name, webvfs.ErrInvalidArgument)
	}
	p := &Provider{fsys: fsys}
	base, err := filesystem.NewRootDirectoryBase(p, name)
	if err != nil {
		return nil, err
	}
	p.root = &Directory{DirectoryBase: base, p: p}
	return p, nil
}

func (p *Provider) VirtualPathSeparator() string { return separator }
func (p *Provider) RealPathSeparator() string    { return separator }

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

// fsPath converts a virtual path into the path fs.FS expects
func fsPath(virtualPath string) string {
	if p := strings.TrimPrefix(virtualPath, separator); p != "" {
		return p
	}
	return "."
}

type Directory struct {
	filesystem.DirectoryBase
	p *Provider
}

// LastModified is the zero time; embedded directories carry no timestamps
func (d *Directory) LastModified() time.Time {
	return time.Time{}
}

func (d *Directory) newDirectory(name string) *Directory {
	base, _ := filesystem.NewDirectoryBase(d.p, d, name)
	return &Directory{DirectoryBase: base, p: d.p}
}

func (d *Directory) newFile(name string, info fs.FileInfo) *File {
	f := &File{fsys: d.p.fsys, modTime: info.ModTime(), size: info.Size()}
	f.FileBase, _ = filesystem.NewFileBase(d.p, d, name, f.open)
	return f
}

func (d *Directory) entries() []fs.DirEntry {
	entries, err := fs.ReadDir(d.p.fsys, fsPath(d.VirtualPath()))
	if err != nil {
		logger := util.GetLogger("embedded.Directory")
		logger.Warn().Err(err).Str("path", d.VirtualPath()).Msg("Failed to read directory")
		return nil
	}
	return entries
}

func (d *Directory) Files() []webvfs.File {
	var files []webvfs.File
	for _, e := range d.entries() {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, d.newFile(e.Name(), info))
	}
	return files
}

func (d *Directory) Directories() []webvfs.Directory {
	var dirs []webvfs.Directory
	for _, e := range d.entries() {
		if e.IsDir() {
			dirs = append(dirs, d.newDirectory(e.Name()))
		}
	}
	return dirs
}

func (d *Directory) lookupDir(segs []string) *Directory {
	cur := d
	for _, seg := range segs {
		info, err := fs.Stat(d.p.fsys, path.Join(fsPath(cur.VirtualPath()), seg))
		if err != nil || !info.IsDir() {
			return nil
		}
		cur = cur.newDirectory(seg)
	}
	return cur
}

func (d *Directory) GetFile(relPath string) webvfs.File {
	segs, ok := filesystem.SplitPath(relPath, separator)
	if !ok || len(segs) == 0 {
		return nil
	}
	dir := d.lookupDir(segs[:len(segs)-1])
	if dir == nil {
		return nil
	}
	name := segs[len(segs)-1]
	info, err := fs.Stat(d.p.fsys, path.Join(fsPath(dir.VirtualPath()), name))
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	return dir.newFile(name, info)
}

func (d *Directory) GetDirectory(relPath string) webvfs.Directory {
	segs, ok := filesystem.SplitPath(relPath, separator)
	if !ok {
		return nil
	}
	if dir := d.lookupDir(segs); dir != nil {
		return dir
	}
	return nil
}

// File content is immutable, so its stats are captured once at lookup
type File struct {
	filesystem.FileBase
	fsys    fs.FS
	modTime time.Time
	size    int64
}

func (f *File) LastModified() time.Time {
	return f.modTime
}

func (f *File) Length() int64 {
	return f.size
}

func (f *File) open() (io.ReadCloser, error) {
	file, err := f.fsys.Open(fsPath(f.VirtualPath()))
	if err != nil {
		return nil, err
	}
	return file, nil
}
