package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/config"
	"github.com/brettbedarf/webvfs/filesystem"
	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/scan"
)

// RequestIDHeader carries the id each response is logged under
const RequestIDHeader = "X-Request-Id"

// sniffLen is the most filetype needs to match any type
const sniffLen = 262

// HandlerOptions configures a [Handler]
type HandlerOptions struct {
	IndexFile string // served for directory requests (Default "index.html")
	SkipRules scan.SkipRules
}

// Handler serves the files of a provider at their virtual paths
type Handler struct {
	provider webvfs.PathProvider
	opts     HandlerOptions
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(provider webvfs.PathProvider, opts HandlerOptions) (*Handler, error) {
	if provider == nil {
		return nil, fmt.Errorf("http handler: nil provider: %w", webvfs.ErrInvalidArgument)
	}
	if opts.IndexFile == "" {
		opts.IndexFile = config.DefaultIndexFile
	}
	return &Handler{provider: provider, opts: opts}, nil
}

// statusRecorder keeps the response status for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := util.GetLogger("server.http")
	start := time.Now()

	reqID := uuid.NewString()
	w.Header().Set(RequestIDHeader, reqID)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	h.serve(rec, r)

	logger.Info().
		Str("request_id", reqID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Int("size", rec.size).
		Dur("duration", time.Since(start)).
		Msg("Request served")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	logger := util.GetLogger("server.http")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	f := h.resolve(path.Clean("/" + r.URL.Path))
	if f == nil {
		http.NotFound(w, r)
		return
	}

	// Content is read once so the ETag always describes the bytes sent
	data, err := f.ReadAllBytes()
	if err != nil {
		logger.Error().Err(err).Str("path", f.VirtualPath()).Msg("Failed to read file")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", `"`+filesystem.Hash(data)+`"`)
	if ct := contentType(f, data); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	// ServeContent handles Range, If-None-Match and If-Modified-Since
	http.ServeContent(w, r, f.Name(), f.LastModified(), bytes.NewReader(data))
}

// resolve finds the file served for virtualPath: the file itself, or the index
// file of a directory. Skipped paths resolve to nil.
func (h *Handler) resolve(virtualPath string) webvfs.File {
	if scan.ShouldSkipVirtualPath(virtualPath, h.opts.SkipRules) {
		return nil
	}
	if f := h.provider.GetFile(virtualPath); f != nil {
		return f
	}
	dir := h.provider.GetDirectory(virtualPath)
	if dir == nil {
		return nil
	}
	f := dir.GetFile(h.opts.IndexFile)
	if f == nil || scan.ShouldSkipPath(f, h.opts.SkipRules) {
		return nil
	}
	return f
}

// contentType picks the type from the file extension, then from the content's
// magic numbers. An empty result leaves the choice to http.ServeContent.
func contentType(f webvfs.File, data []byte) string {
	if strings.Contains(f.Name(), ".") {
		if ct := mime.TypeByExtension("." + f.Extension()); ct != "" {
			return ct
		}
	}
	kind, err := filetype.Match(data[:min(len(data), sniffLen)])
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	logger := util.GetLogger("server.ListenAndServe")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          util.NewLogLogger("server.http", util.ErrorLevel),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("HTTP server stopped")
	return nil
}
