package server

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/internal/mocks"
	"github.com/brettbedarf/webvfs/providers/memory"
	"github.com/brettbedarf/webvfs/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTree(t *testing.T) *memory.Provider {
	t.Helper()
	p := memory.New()
	require.NoError(t, p.WriteFiles(map[string]string{
		"/hello.txt":      "hello",
		"/css/site.css":   "body{}",
		"/secret/key.pem": "private",
	}))
	return p
}

func TestNewFuseServer_NilProvider(t *testing.T) {
	t.Parallel()

	_, err := NewFuseServer(nil, nil)
	assert.ErrorIs(t, err, webvfs.ErrInvalidArgument)

	s, err := NewFuseServer(memory.New(), nil)
	require.NoError(t, err)
	assert.NoError(t, s.Unmount(), "unmounting before serving is a no-op")
}

func TestDirNode_Entries(t *testing.T) {
	t.Parallel()

	p := createTree(t)
	n := &dirNode{dir: p.RootDirectory(), rules: scan.SkipRules{Prefixes: []string{"/secret"}}}

	assert.Equal(t, []fuse.DirEntry{
		{Name: "css", Mode: fuse.S_IFDIR},
		{Name: "hello.txt", Mode: fuse.S_IFREG},
	}, n.entries())

	var out fuse.AttrOut
	assert.Equal(t, syscall.Errno(0), n.Getattr(context.Background(), nil, &out))
	assert.Equal(t, uint32(fuse.S_IFDIR|dirMode), out.Mode)
}

func TestFileNode_Read(t *testing.T) {
	t.Parallel()

	p := createTree(t)
	n := &fileNode{file: p.GetFile("/hello.txt")}
	ctx := context.Background()

	var out fuse.AttrOut
	require.Equal(t, syscall.Errno(0), n.Getattr(ctx, nil, &out))
	assert.Equal(t, uint32(fuse.S_IFREG|fileMode), out.Mode)
	assert.Equal(t, uint64(5), out.Size)

	fh, flags, errno := n.Open(ctx, syscall.O_RDONLY)
	require.Equal(t, syscall.Errno(0), errno)
	assert.Equal(t, uint32(fuse.FOPEN_KEEP_CACHE), flags)

	tests := []struct {
		name string
		off  int64
		size int
		want string
	}{
		{"Whole", 0, 16, "hello"},
		{"Middle", 1, 3, "ell"},
		{"PastEnd", 10, 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, errno := n.Read(ctx, fh, make([]byte, tt.size), tt.off)
			require.Equal(t, syscall.Errno(0), errno)
			data, status := res.Bytes(make([]byte, tt.size))
			require.Equal(t, fuse.OK, status)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestFileNode_OpenWriteIsReadOnly(t *testing.T) {
	t.Parallel()

	p := createTree(t)
	n := &fileNode{file: p.GetFile("/hello.txt")}

	for _, flags := range []uint32{syscall.O_WRONLY, syscall.O_RDWR, syscall.O_RDONLY | syscall.O_TRUNC} {
		_, _, errno := n.Open(context.Background(), flags)
		assert.Equal(t, syscall.EROFS, errno)
	}
}

func TestFileNode_UnknownLength(t *testing.T) {
	t.Parallel()

	f := &mocks.MockFile{}
	f.On("LastModified").Return(time.Time{})
	f.On("Length").Return(int64(-1))
	f.On("ReadAllBytes").Return([]byte("streamed"), nil)
	n := &fileNode{file: f}
	ctx := context.Background()

	var out fuse.AttrOut
	require.Equal(t, syscall.Errno(0), n.Getattr(ctx, nil, &out))
	assert.Equal(t, uint64(0), out.Size, "unknown length must not wrap around")

	fh, flags, errno := n.Open(ctx, syscall.O_RDONLY)
	require.Equal(t, syscall.Errno(0), errno)
	assert.Equal(t, uint32(fuse.FOPEN_DIRECT_IO), flags)

	res, errno := n.Read(ctx, fh, make([]byte, 64), 0)
	require.Equal(t, syscall.Errno(0), errno)
	data, status := res.Bytes(make([]byte, 64))
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, "streamed", string(data))
}
