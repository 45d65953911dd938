package server

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/config"
	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/scan"
)

// FuseServer mounts a read-only view of a provider tree
type FuseServer struct {
	provider webvfs.PathProvider
	cfg      *config.Config
	server   *fuse.Server
}

// NewFuseServer creates a FuseServer for provider given your config.
func NewFuseServer(provider webvfs.PathProvider, cfg *config.Config) (*FuseServer, error) {
	if provider == nil {
		return nil, fmt.Errorf("fuse server: nil provider: %w", webvfs.ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &FuseServer{provider: provider, cfg: cfg}, nil
}

func secondsToDuration(s float64) *time.Duration {
	d := time.Duration(s * float64(time.Second))
	return &d
}

// Serve mounts the filesystem at the given mountPoint and returns once the
// mount is ready.
func (s *FuseServer) Serve(mountPoint string) error {
	root := &dirNode{dir: s.provider.RootDirectory(), rules: s.cfg.SkipRules()}
	opts := s.cfg.MountOptions
	srv, err := fs.Mount(mountPoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
		},
		AttrTimeout:  secondsToDuration(s.cfg.AttrTimeout),
		EntryTimeout: secondsToDuration(s.cfg.EntryTimeout),
	})
	if err != nil {
		return err
	}
	s.server = srv
	return nil
}

func (s *FuseServer) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted
func (s *FuseServer) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (s *FuseServer) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}

const (
	dirMode  = 0o555
	fileMode = 0o444
)

func setAttr(n webvfs.Node, out *fuse.Attr) {
	mtime := n.LastModified()
	out.SetTimes(nil, &mtime, &mtime)
	if f, ok := n.(webvfs.File); ok {
		out.Mode = fuse.S_IFREG | fileMode
		// Unknown lengths (-1) are reported as empty, see fileNode.Open
		out.Size = uint64(max(f.Length(), 0))
		return
	}
	out.Mode = fuse.S_IFDIR | dirMode
}

// dirNode exposes a directory. Children are looked up in the provider when the
// kernel asks for them, so nothing is read ahead of use.
type dirNode struct {
	fs.Inode
	dir   webvfs.Directory
	rules scan.SkipRules
}

var (
	_ fs.NodeLookuper  = (*dirNode)(nil)
	_ fs.NodeReaddirer = (*dirNode)(nil)
	_ fs.NodeGetattrer = (*dirNode)(nil)
)

func (n *dirNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	setAttr(n.dir, &out.Attr)
	return 0
}

func (n *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	logger := util.GetLogger("Fuse.Lookup")

	if f := n.dir.GetFile(name); f != nil && !scan.ShouldSkipPath(f, n.rules) {
		setAttr(f, &out.Attr)
		return n.NewInode(ctx, &fileNode{file: f}, fs.StableAttr{Mode: fuse.S_IFREG}), 0
	}
	if d := n.dir.GetDirectory(name); d != nil && !scan.ShouldSkipPath(d, n.rules) {
		setAttr(d, &out.Attr)
		return n.NewInode(ctx, &dirNode{dir: d, rules: n.rules}, fs.StableAttr{Mode: fuse.S_IFDIR}), 0
	}
	logger.Trace().Str("parent", n.dir.VirtualPath()).Str("name", name).Msg("No such entry")
	return nil, syscall.ENOENT
}

func (n *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	return fs.NewListDirStream(n.entries()), 0
}

func (n *dirNode) entries() []fuse.DirEntry {
	var entries []fuse.DirEntry
	for _, d := range n.dir.Directories() {
		if !scan.ShouldSkipPath(d, n.rules) {
			entries = append(entries, fuse.DirEntry{Name: d.Name(), Mode: fuse.S_IFDIR})
		}
	}
	for _, f := range n.dir.Files() {
		if !scan.ShouldSkipPath(f, n.rules) {
			entries = append(entries, fuse.DirEntry{Name: f.Name(), Mode: fuse.S_IFREG})
		}
	}
	return entries
}

// fileNode exposes a file. Content is loaded in full on open.
type fileNode struct {
	fs.Inode
	file webvfs.File
}

var (
	_ fs.NodeGetattrer = (*fileNode)(nil)
	_ fs.NodeOpener    = (*fileNode)(nil)
	_ fs.NodeReader    = (*fileNode)(nil)
)

// fileHandle holds the content read on open
type fileHandle struct {
	data []byte
}

func (n *fileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	setAttr(n.file, &out.Attr)
	return 0
}

func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	logger := util.GetLogger("Fuse.Open")

	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_APPEND|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	data, err := n.file.ReadAllBytes()
	if err != nil {
		logger.Error().Err(err).Str("path", n.file.VirtualPath()).Msg("Failed to read file")
		return nil, 0, syscall.EIO
	}
	// Without a known length the kernel can't bound reads by the file size,
	// so they bypass the page cache and end at the loaded content
	if n.file.Length() < 0 {
		return &fileHandle{data: data}, fuse.FOPEN_DIRECT_IO, 0
	}
	return &fileHandle{data: data}, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *fileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h, ok := fh.(*fileHandle)
	if !ok {
		return nil, syscall.EBADF
	}
	if off >= int64(len(h.data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := min(off+int64(len(dest)), int64(len(h.data)))
	return fuse.ReadResultData(h.data[off:end]), 0
}
