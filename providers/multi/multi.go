// Package multi overlays several providers into one tree. Lookups go through the
// layers in order and the first hit wins, so earlier layers shadow later ones.
package multi

import (
	"fmt"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
)

type Provider struct {
	layers []webvfs.PathProvider
	root   *Directory
}

var _ webvfs.PathProvider = (*Provider)(nil)

// New overlays layers, highest priority first. All layers must share a virtual separator.
func New(layers ...webvfs.PathProvider) (*Provider, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("multi provider: no layers: %w", webvfs.ErrInvalidArgument)
	}
	for i, l := range layers {
		if l == nil {
			return nil, fmt.Errorf("multi provider: nil layer %d: %w", i, webvfs.ErrInvalidArgument)
		}
		if sep := l.VirtualPathSeparator(); sep != layers[0].VirtualPathSeparator() {
			return nil, fmt.Errorf("multi provider: layer %d virtual separator %q differs from %q: %w",
				i, sep, layers[0].VirtualPathSeparator(), webvfs.ErrInvalidArgument)
		}
	}

	p := &Provider{layers: layers}
	base, err := filesystem.NewRootDirectoryBase(p, layers[0].RootDirectory().RealPath())
	if err != nil {
		return nil, err
	}
	roots := make([]webvfs.Directory, len(layers))
	for i, l := range layers {
		roots[i] = l.RootDirectory()
	}
	p.root = &Directory{DirectoryBase: base, p: p, layers: roots}
	return p, nil
}

// Layers returns the overlaid providers in lookup order
func (p *Provider) Layers() []webvfs.PathProvider {
	return p.layers
}

func (p *Provider) VirtualPathSeparator() string { return p.layers[0].VirtualPathSeparator() }

// RealPathSeparator is the first layer's; real paths of files come from the layer
// that serves them.
func (p *Provider) RealPathSeparator() string { return p.layers[0].RealPathSeparator() }

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
	return p.GetFile(virtualPath) != nil
}

func (p *Provider) DirectoryExists(virtualPath string) bool {
	return p.root.GetDirectory(virtualPath) != nil
}

// AllFiles returns the union of the layers' files. A file shadowed by an earlier
// layer at the same virtual path is left out.
func (p *Provider) AllFiles() []webvfs.File {
	return filesystem.AllFiles(p.root)
}

// Directory merges the same virtual directory of every layer that has it
type Directory struct {
	filesystem.DirectoryBase
	p      *Provider
	layers []webvfs.Directory // non-empty, in lookup order
}

// RealPath is the real path of the first layer holding the directory
func (d *Directory) RealPath() string {
	return d.layers[0].RealPath()
}

func (d *Directory) LastModified() time.Time {
	return d.layers[0].LastModified()
}

// children lists the merged entries. A name belongs to the first layer that has
// it, as a file or a directory; entries of the other kind in later layers are
// shadowed. Directories of the same name are merged across layers.
func (d *Directory) children() ([]webvfs.File, []webvfs.Directory) {
	isDir := map[string]bool{}
	var files []webvfs.File
	var names []string
	dirLayers := map[string][]webvfs.Directory{}

	for _, l := range d.layers {
		for _, f := range l.Files() {
			if _, claimed := isDir[f.Name()]; !claimed {
				isDir[f.Name()] = false
				files = append(files, f)
			}
		}
		for _, sub := range l.Directories() {
			dir, claimed := isDir[sub.Name()]
			if !claimed {
				isDir[sub.Name()] = true
				names = append(names, sub.Name())
			} else if !dir {
				continue
			}
			dirLayers[sub.Name()] = append(dirLayers[sub.Name()], sub)
		}
	}

	dirs := make([]webvfs.Directory, 0, len(names))
	for _, name := range names {
		dirs = append(dirs, d.newDirectory(name, dirLayers[name]))
	}
	filesystem.SortByName(files)
	filesystem.SortByName(dirs)
	return files, dirs
}

func (d *Directory) Files() []webvfs.File {
	files, _ := d.children()
	return files
}

func (d *Directory) Directories() []webvfs.Directory {
	_, dirs := d.children()
	return dirs
}

func (d *Directory) newDirectory(name string, layers []webvfs.Directory) *Directory {
	base, _ := filesystem.NewDirectoryBase(d.p, d, name) // d and d.p are never nil
	return &Directory{DirectoryBase: base, p: d.p, layers: layers}
}

func (d *Directory) GetFile(relPath string) webvfs.File {
	segs, ok := filesystem.SplitPath(relPath, d.p.VirtualPathSeparator())
	if !ok || len(segs) == 0 {
		return nil
	}
	dir := d.lookupDir(segs[:len(segs)-1])
	if dir == nil {
		return nil
	}
	name := segs[len(segs)-1]
	for _, l := range dir.layers {
		if f := l.GetFile(name); f != nil {
			return f
		}
		if l.GetDirectory(name) != nil {
			return nil
		}
	}
	return nil
}

func (d *Directory) GetDirectory(relPath string) webvfs.Directory {
	segs, ok := filesystem.SplitPath(relPath, d.p.VirtualPathSeparator())
	if !ok {
		return nil
	}
	if dir := d.lookupDir(segs); dir != nil {
		return dir
	}
	return nil
}

// lookupDir walks segs merging each level across layers. A file in an earlier
// layer hides directories of the same name below it.
func (d *Directory) lookupDir(segs []string) *Directory {
	cur := d
	for _, seg := range segs {
		var next []webvfs.Directory
		for _, l := range cur.layers {
			if sub := l.GetDirectory(seg); sub != nil {
				next = append(next, sub)
			} else if len(next) == 0 && l.GetFile(seg) != nil {
				return nil
			}
		}
		if len(next) == 0 {
			return nil
		}
		cur = cur.newDirectory(seg, next)
	}
	return cur
}
