package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var (
	webvfsBin string
	projRoot  string
	testEnv   *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	var err error

	// Build WebVFS binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "webvfs-bin")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpBinDir); err != nil {
			panic(err)
		}
	}()

	webvfsBin = filepath.Join(tmpBinDir, "webvfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	// Build with debug symbols
	cmd := exec.Command("go", "build", "-o", webvfsBin, "-gcflags=all=-N -l", "./cmd")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	// Create shared test environment
	testEnv, err = NewE2ETestEnvironment(webvfsBin)
	if err != nil {
		panic(err)
	}
	defer testEnv.Close()

	// Run tests
	code := m.Run()
	os.Exit(code)
}

func TestE2ELs(t *testing.T) {
	root := testEnv.CreateTree(t, map[string]string{
		"index.html":     "<h1>Hello, WebVFS!</h1>",
		"css/site.css":   "body{}",
		"secret/key.pem": "private",
	})
	cfg := testEnv.WriteConfig(t, "webvfs.yaml", "scan_skip_paths: [\"/secret\"]\n")

	out, err := exec.Command(testEnv.WebVFSBin, "ls", "--root", root, "--config", cfg, "-v", "1").CombinedOutput()
	if err != nil {
		t.Fatalf("ls failed: %v\n%s", err, out)
	}

	for _, want := range []string{"/index.html", "/css/site.css", "2 files"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("ls output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(string(out), "key.pem") {
		t.Fatalf("ls output lists a skipped path:\n%s", out)
	}
}

func TestE2EHash(t *testing.T) {
	root := testEnv.CreateTree(t, map[string]string{"hello.txt": "hello"})

	out, err := exec.Command(testEnv.WebVFSBin, "hash", "/hello.txt", "--root", root, "-v", "1").Output()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	expected := "5d41402abc4b2a76b9719d911017c592  /hello.txt\n"
	if string(out) != expected {
		t.Fatalf("hash mismatch:\nexpected: %q\ngot:      %q", expected, string(out))
	}
}

func TestE2EServe(t *testing.T) {
	content := strings.Repeat("ABCDEFGHIJ", 100) // 1000 bytes
	root := testEnv.CreateTree(t, map[string]string{
		"index.html": "<h1>home</h1>",
		"large.txt":  content,
	})
	addr := freeAddr(t)

	webvfs := testEnv.Start(t, "serve", "--root", root, "--addr", addr, "-v", "4")
	defer webvfs.Stop()

	baseURL := "http://" + addr
	if err := webvfs.WaitFor(15*time.Second, func() bool {
		resp, err := http.Get(baseURL + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}); err != nil {
		_, stderr := webvfs.GetLogs()
		t.Fatalf("server not ready: %v\n%s", err, stderr)
	}

	resp, err := http.Get(baseURL + "/large.txt")
	if err != nil {
		t.Fatalf("failed to get file: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(data) != content {
		t.Fatalf("content mismatch")
	}
	if resp.Header.Get("ETag") == "" {
		t.Fatalf("missing ETag header")
	}

	// Conditional request with the returned ETag
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/large.txt", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	cached, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional request failed: %v", err)
	}
	cached.Body.Close()
	if cached.StatusCode != http.StatusNotModified {
		t.Fatalf("status mismatch: expected 304, got %d", cached.StatusCode)
	}
}

func TestE2EMountAndRead(t *testing.T) {
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("FUSE not available")
	}
	if _, err := exec.LookPath("fusermount"); err != nil {
		t.Skip("fusermount not installed")
	}

	root := testEnv.CreateTree(t, map[string]string{
		"test.txt":       "Hello, WebVFS! This is a simple test file.",
		"nested/bin.bin": string(binaryContent(512)),
	})
	mountDir := filepath.Join(testEnv.BaseDir, "mount-"+strings.ReplaceAll(t.Name(), "/", "_"))
	if err := os.MkdirAll(mountDir, 0o755); err != nil {
		t.Fatalf("Failed to create mount dir: %v", err)
	}

	webvfs := testEnv.Start(t, "mount", mountDir, "--root", root, "-v", "4")
	defer webvfs.Stop()

	if err := webvfs.WaitFor(15*time.Second, func() bool {
		files, err := os.ReadDir(mountDir)
		return err == nil && len(files) > 0
	}); err != nil {
		_, stderr := webvfs.GetLogs()
		t.Fatalf("WebVFS mount failed: %v\n%s", err, stderr)
	}

	data, err := os.ReadFile(filepath.Join(mountDir, "test.txt"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	expected := "Hello, WebVFS! This is a simple test file."
	if string(data) != expected {
		t.Fatalf("content mismatch:\nexpected: %q\ngot:      %q", expected, string(data))
	}

	binaryData, err := os.ReadFile(filepath.Join(mountDir, "nested", "bin.bin"))
	if err != nil {
		t.Fatalf("failed to read binary file: %v", err)
	}
	if !bytes.Equal(binaryData, binaryContent(512)) {
		t.Fatalf("binary content mismatch")
	}

	// Writes are rejected on a read-only mount
	if err := os.WriteFile(filepath.Join(mountDir, "test.txt"), []byte("x"), 0o644); err == nil {
		t.Fatalf("expected write to fail")
	}
}

func binaryContent(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i % 256)
	}
	return b
}

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

// E2ETestEnvironment manages shared resources for all e2e tests
type E2ETestEnvironment struct {
	WebVFSBin string
	BaseDir   string
}

// WebVFSInstance represents a running WebVFS process for testing
type WebVFSInstance struct {
	cmd    *exec.Cmd
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// NewE2ETestEnvironment creates a shared test environment
func NewE2ETestEnvironment(webvfsBinary string) (*E2ETestEnvironment, error) {
	baseDir, err := os.MkdirTemp("", "webvfs-e2e-tests")
	if err != nil {
		return nil, err
	}
	return &E2ETestEnvironment{WebVFSBin: webvfsBinary, BaseDir: baseDir}, nil
}

// Close cleans up the test environment
func (env *E2ETestEnvironment) Close() {
	if env.BaseDir != "" {
		_ = os.RemoveAll(env.BaseDir) // Best effort cleanup
	}
}

// CreateTree writes files (slash separated relative paths) under a new directory
func (env *E2ETestEnvironment) CreateTree(t *testing.T, files map[string]string) string {
	dir := filepath.Join(env.BaseDir, "tree-"+strings.ReplaceAll(t.Name(), "/", "_"))
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
	return dir
}

// WriteConfig writes a config file for the current test
func (env *E2ETestEnvironment) WriteConfig(t *testing.T, name, content string) string {
	path := filepath.Join(env.BaseDir, fmt.Sprintf("%s-%s", strings.ReplaceAll(t.Name(), "/", "_"), name))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// Start runs the WebVFS binary with args in the background
func (env *E2ETestEnvironment) Start(t *testing.T, args ...string) *WebVFSInstance {
	cmd := exec.Command(env.WebVFSBin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start WebVFS: %v", err)
	}
	return &WebVFSInstance{cmd: cmd, stdout: &stdout, stderr: &stderr}
}

// Stop gracefully stops the WebVFS instance
func (w *WebVFSInstance) Stop() {
	if w.cmd == nil || w.cmd.Process == nil {
		return
	}
	// Send interrupt signal
	_ = w.cmd.Process.Signal(os.Interrupt) // Process may have already exited

	// Wait for graceful shutdown with timeout
	done := make(chan error, 1)
	go func() {
		done <- w.cmd.Wait()
	}()

	select {
	case <-done:
		// Graceful shutdown completed
	case <-time.After(5 * time.Second):
		// Force kill if graceful shutdown takes too long
		_ = w.cmd.Process.Kill() // Process may have already exited
		<-done
	}
}

// WaitFor polls ready until it returns true or timeout passes
func (w *WebVFSInstance) WaitFor(timeout time.Duration, ready func() bool) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if ready() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("timeout waiting for WebVFS to be ready")
}

// GetLogs returns the stdout and stderr from the WebVFS process
func (w *WebVFSInstance) GetLogs() (stdout, stderr string) {
	return w.stdout.String(), w.stderr.String()
}
