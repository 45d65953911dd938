package embedded

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func createProvider(t *testing.T, name string) *Provider {
	t.Helper()
	fsys := fstest.MapFS{
		"index.html":       {Data: []byte("<h1>home</h1>"), ModTime: modTime},
		"css/site.css":     {Data: []byte("body{}"), ModTime: modTime},
		"img/logo/a.svg":   {Data: []byte("<svg/>"), ModTime: modTime},
		"docs/readme.md":   {Data: []byte("# readme"), ModTime: modTime},
		"docs/guide/a.txt": {Data: []byte("a"), ModTime: modTime},
	}
	p, err := New(fsys, name)
	require.NoError(t, err)
	return p
}

func TestNew_NilFS(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "assets")
	assert.ErrorIs(t, err, webvfs.ErrInvalidArgument)
}

func TestProvider_Paths(t *testing.T) {
	t.Parallel()

	t.Run("named", func(t *testing.T) {
		t.Parallel()
		p := createProvider(t, "assets")

		f := p.GetFile("/css/site.css")
		require.NotNil(t, f)
		assert.Equal(t, "/css/site.css", f.VirtualPath())
		assert.Equal(t, "assets/css/site.css", f.RealPath())
		assert.Equal(t, "assets", p.RootDirectory().RealPath())
	})

	t.Run("unnamed", func(t *testing.T) {
		t.Parallel()
		p := createProvider(t, "")

		f := p.GetFile("/css/site.css")
		require.NotNil(t, f)
		assert.Equal(t, "css/site.css", f.RealPath(), "empty real root keeps paths relative")
	})
}

func TestProvider_Read(t *testing.T) {
	t.Parallel()

	p := createProvider(t, "assets")
	f := p.GetFile("/index.html")
	require.NotNil(t, f)

	text, err := f.ReadAllText()
	require.NoError(t, err)
	assert.Equal(t, "<h1>home</h1>", text)
	assert.Equal(t, int64(13), f.Length())
	assert.True(t, modTime.Equal(f.LastModified()))
}

func TestProvider_Listing(t *testing.T) {
	t.Parallel()

	p := createProvider(t, "assets")

	var paths []string
	for _, f := range p.AllFiles() {
		paths = append(paths, f.VirtualPath())
	}
	assert.Equal(t, []string{
		"/index.html",
		"/css/site.css",
		"/docs/readme.md",
		"/docs/guide/a.txt",
		"/img/logo/a.svg",
	}, paths)

	docs := p.GetDirectory("/docs")
	require.NotNil(t, docs)
	require.Len(t, docs.Directories(), 1)
	assert.Equal(t, "/docs/guide", docs.Directories()[0].VirtualPath())
}

func TestProvider_Lookup(t *testing.T) {
	t.Parallel()

	p := createProvider(t, "")

	assert.True(t, p.DirectoryExists("/img/logo"))
	assert.False(t, p.FileExists("/img/logo"))
	assert.False(t, p.FileExists("/nope.txt"))
	assert.Nil(t, p.GetFile("/css/../index.html"))
	assert.Same(t, p.RootDirectory(), p.GetDirectory("/"))
}

func TestProvider_ValidFS(t *testing.T) {
	t.Parallel()

	p := createProvider(t, "")
	require.NoError(t, fstest.TestFS(p.fsys, "index.html", "css/site.css"))

	_, err := fs.Stat(p.fsys, "css")
	require.NoError(t, err)
}
