// Package remote implements a read-only [webvfs.PathProvider] whose files are
// fetched over HTTP. HTTP has no directory listing, so the tree is built from an
// explicit map of virtual paths to URLs.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/brettbedarf/webvfs/internal/util"
)

const separator = "/"

// DefaultTimeout bounds every request made by the default client
const DefaultTimeout = 30 * time.Second

// Client is the subset of *http.Client the provider uses
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source contains http-specific source fields
type Source struct {
	webvfs.SourceConfig
	// Files maps virtual paths to absolute http(s) URLs
	Files   map[string]string `json:"files" validate:"required,min=1,dive,keys,required,endkeys,required,http_url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type Provider struct {
	client  Client
	headers map[string]string
	root    *Directory
}

var _ webvfs.PathProvider = (*Provider)(nil)

// New builds the tree of files from src. A nil client uses an http.Client with
// [DefaultTimeout].
func New(client Client, src Source) (*Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	p := &Provider{client: client, headers: src.Headers}
	base, err := filesystem.NewRootDirectoryBase(p, "")
	if err != nil {
		return nil, err
	}
	p.root = newDirectory(base)

	for virtualPath, url := range src.Files {
		if err := p.add(virtualPath, url); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// add places a file at virtualPath creating missing directories on the way
func (p *Provider) add(virtualPath, url string) error {
	segs, ok := filesystem.SplitPath(virtualPath, separator)
	if !ok || len(segs) == 0 {
		return fmt.Errorf("remote file %q: not a file path: %w", virtualPath, webvfs.ErrInvalidArgument)
	}
	cur := p.root
	for _, seg := range segs[:len(segs)-1] {
		if _, isFile := cur.files[seg]; isFile {
			return fmt.Errorf("remote file %q: %s is a file: %w", virtualPath, seg, webvfs.ErrInvalidArgument)
		}
		next, ok := cur.dirs[seg]
		if !ok {
			base, _ := filesystem.NewDirectoryBase(p, cur, seg) // p and cur are never nil
			next = newDirectory(base)
			cur.dirs[seg] = next
		}
		cur = next
	}

	name := segs[len(segs)-1]
	if _, isDir := cur.dirs[name]; isDir {
		return fmt.Errorf("remote file %q: is a directory: %w", virtualPath, webvfs.ErrInvalidArgument)
	}
	f := &File{p: p, url: url, stat: filesystem.NewStat(time.Time{}, -1)}
	f.FileBase, _ = filesystem.NewFileBase(p, cur, name, f.open)
	cur.files[name] = f
	return nil
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

func (p *Provider) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// do sends the request and fails on any non 2xx status
func (p *Provider) do(method, url string) (*http.Response, error) {
	req, err := p.newRequest(context.Background(), method, url)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		err = fmt.Errorf("%s %s: %s", method, url, resp.Status)
		if resp.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", err, webvfs.ErrNotExist)
		}
		return nil, err
	}
	return resp, nil
}

// Directory children are fixed once the provider is built, so plain maps are safe
// for concurrent reads
type Directory struct {
	filesystem.DirectoryBase
	files map[string]*File
	dirs  map[string]*Directory
}

func newDirectory(base filesystem.DirectoryBase) *Directory {
	return &Directory{DirectoryBase: base, files: map[string]*File{}, dirs: map[string]*Directory{}}
}

// LastModified is the zero time; remote directories carry no timestamps
func (d *Directory) LastModified() time.Time {
	return time.Time{}
}

func (d *Directory) Files() []webvfs.File {
	files := make([]webvfs.File, 0, len(d.files))
	for _, f := range d.files {
		files = append(files, f)
	}
	filesystem.SortByName(files)
	return files
}

func (d *Directory) Directories() []webvfs.Directory {
	dirs := make([]webvfs.Directory, 0, len(d.dirs))
	for _, sub := range d.dirs {
		dirs = append(dirs, sub)
	}
	filesystem.SortByName(dirs)
	return dirs
}

func (d *Directory) lookupDir(segs []string) *Directory {
	cur := d
	for _, seg := range segs {
		next, ok := cur.dirs[seg]
		if !ok {
			return nil
		}
		cur = next
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
	if f, ok := dir.files[segs[len(segs)-1]]; ok {
		return f
	}
	return nil
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

// File stats come from a HEAD request made on first use
type File struct {
	filesystem.FileBase
	p    *Provider
	url  string
	once sync.Once
	stat *filesystem.Stat
}

var _ webvfs.Refresher = (*File)(nil)

// RealPath is the URL the file is fetched from
func (f *File) RealPath() string {
	return f.url
}

func (f *File) LastModified() time.Time {
	f.once.Do(f.Refresh)
	return f.stat.ModTime()
}

// Length is -1 when the server does not report a content length
func (f *File) Length() int64 {
	f.once.Do(f.Refresh)
	return f.stat.Size()
}

func (f *File) open() (io.ReadCloser, error) {
	resp, err := f.p.do(http.MethodGet, f.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Refresh re-reads size and modification time with a HEAD request
func (f *File) Refresh() {
	logger := util.GetLogger("remote.Refresh")

	resp, err := f.p.do(http.MethodHead, f.url)
	if err != nil {
		logger.Debug().Err(err).Str("url", f.url).Msg("Failed to refresh file stats")
		return
	}
	resp.Body.Close()

	modTime, err := http.ParseTime(resp.Header.Get("Last-Modified"))
	if err != nil {
		modTime = time.Time{}
	}
	f.stat.Update(func(mt *time.Time, size *int64) {
		*mt = modTime
		*size = resp.ContentLength
	})
}
