// Package web serves the checkout page's static assets.
package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

const (
	indexFile = "index.html"

	notFoundBody   = "resource not found"
	badRequestBody = "invalid request"
)

// Handler serves files from a read-only file system.
type Handler struct {
	files  fs.FS
	logger *slog.Logger
}

// NewHandler creates a Handler serving files. Paths are resolved relative to
// the root of files.
func NewHandler(files fs.FS, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{files: files, logger: logger}
}

// AssetsFS returns the file system to serve static assets from: dir on disk,
// or the embedded assets when dir is empty.
func AssetsFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(StaticFS, "static")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: errors.New("not a directory")}
	}
	return os.DirFS(dir), nil
}

// ServeFile looks up the request path in the file system. "/" serves
// index.html. Missing files and directories are 404.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	if hasTraversal(r) {
		http.Error(w, badRequestBody, http.StatusBadRequest)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" {
		name = indexFile
	}
	if !fs.ValidPath(name) {
		http.Error(w, notFoundBody, http.StatusNotFound)
		return
	}

	info, err := fs.Stat(h.files, name)
	if err != nil || info.IsDir() {
		http.Error(w, notFoundBody, http.StatusNotFound)
		return
	}

	data, err := fs.ReadFile(h.files, name)
	if err != nil {
		h.logger.Error("failed to read static file", "path", name, "error", err)
		http.Error(w, notFoundBody, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ContentType(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// NotFound answers every request that no other route claims.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, notFoundBody, http.StatusNotFound)
}

// hasTraversal reports whether the request path, raw or decoded, contains "..".
func hasTraversal(r *http.Request) bool {
	return strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.RawPath, "..")
}

// TraversalGuard rejects any path containing ".." before next sees it.
// http.ServeMux would otherwise clean such paths and redirect. GET and HEAD
// get 400; other methods get the same 404 as any unrouted request.
func TraversalGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasTraversal(r) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				http.Error(w, badRequestBody, http.StatusBadRequest)
			} else {
				NotFound(w, r)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}
