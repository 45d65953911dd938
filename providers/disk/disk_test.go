package disk

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTree writes files (slash separated relative paths) under a new temp dir
func createTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func createProvider(t *testing.T, files map[string]string) *Provider {
	t.Helper()
	p, err := New(createTree(t, files))
	require.NoError(t, err)
	return p
}

func TestNew_InvalidRoot(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.ErrorIs(t, err, webvfs.ErrInvalidArgument)

	_, err = New(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)

	file := filepath.Join(createTree(t, map[string]string{"f.txt": ""}), "f.txt")
	_, err = New(file)
	assert.ErrorIs(t, err, webvfs.ErrInvalidArgument)
}

func TestProvider_Paths(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{"a/b.txt": "b"})

	f := p.GetFile("/a/b.txt")
	require.NotNil(t, f)
	assert.Equal(t, "/a/b.txt", f.VirtualPath())
	assert.Equal(t, filepath.Join(p.RootDir(), "a", "b.txt"), f.RealPath())
	assert.Equal(t, string(filepath.Separator), p.RealPathSeparator())

	root := p.RootDirectory()
	assert.Equal(t, "/", root.VirtualPath())
	assert.Equal(t, p.RootDir(), root.RealPath())
}

func TestProvider_Listing(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{
		"index.html":    "<h1>hi</h1>",
		"css/site.css":  "body{}",
		"css/reset.css": "",
		"js/app.js":     "",
	})

	root := p.RootDirectory()
	require.Len(t, root.Files(), 1)
	assert.Equal(t, "index.html", root.Files()[0].Name())

	var dirNames []string
	for _, d := range root.Directories() {
		dirNames = append(dirNames, d.Name())
	}
	assert.Equal(t, []string{"css", "js"}, dirNames)

	var paths []string
	for _, f := range p.AllFiles() {
		paths = append(paths, f.VirtualPath())
	}
	assert.Equal(t, []string{"/index.html", "/css/reset.css", "/css/site.css", "/js/app.js"}, paths)
}

func TestProvider_Lookup(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{"css/site.css": "body{}"})

	assert.True(t, p.FileExists("/css/site.css"))
	assert.True(t, p.DirectoryExists("/css"))
	assert.False(t, p.FileExists("/css"), "directory is not a file")
	assert.False(t, p.DirectoryExists("/css/site.css"), "file is not a directory")
	assert.Nil(t, p.GetFile("/css/../../etc/passwd"))
	assert.Nil(t, p.GetFile("/missing.txt"))

	css := p.GetDirectory("css")
	require.NotNil(t, css)
	f := css.GetFile("site.css")
	require.NotNil(t, f)
	assert.True(t, filesystem.Equal(f, p.GetFile("/css/site.css")), "lookups from any directory resolve the same node")
}

func TestFile_ReadAndHash(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{"hello.txt": "hello"})
	f := p.GetFile("/hello.txt")
	require.NotNil(t, f)

	text, err := f.ReadAllText()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, int64(5), f.Length())

	hash, err := f.FileHash()
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", hash)
}

func TestFile_ReadErrorAfterRemoval(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{"gone.txt": "x"})
	f := p.GetFile("/gone.txt")
	require.NotNil(t, f)
	require.NoError(t, os.Remove(f.RealPath()))

	_, err := f.ReadAllBytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist, "stream errors must surface unchanged")
}

func TestFile_Refresh(t *testing.T) {
	t.Parallel()

	p := createProvider(t, map[string]string{"grow.txt": "a"})
	f := p.GetFile("/grow.txt")
	require.NotNil(t, f)

	later := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, os.WriteFile(f.RealPath(), []byte("abc"), 0o644))
	require.NoError(t, os.Chtimes(f.RealPath(), later, later))
	assert.Equal(t, int64(1), f.Length(), "stats are cached until refreshed")

	filesystem.Refresh(f)

	assert.Equal(t, int64(3), f.Length())
	assert.True(t, later.Equal(f.LastModified()))
}

func TestProvider_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	t.Parallel()

	outside := createTree(t, map[string]string{"secret.txt": "secret"})
	root := createTree(t, map[string]string{"real/inside.txt": "inside"})
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "escape.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))

	p, err := New(root)
	require.NoError(t, err)

	assert.Nil(t, p.GetFile("/escape.txt"), "links leaving the root are skipped")
	f := p.GetFile("/alias/inside.txt")
	require.NotNil(t, f, "links inside the root are followed")
	assert.Equal(t, "/alias/inside.txt", f.VirtualPath())
}
