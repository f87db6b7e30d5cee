// Package playback streams local media files to the review UI. The
// in-browser player scrubs by issuing partial requests, so the server
// honors single byte ranges with 206/416 handling.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/clickwonder/broll-reviewer/internal/project"
)

type Server struct {
	repo   project.Repository
	logger *slog.Logger
}

func NewServer(repo project.Repository, logger *slog.Logger) *Server {
	return &Server{repo: repo, logger: logger}
}

// ServeAsset resolves an asset to its local file and streams it. Assets
// still downloading or failed are reported as missing rather than leaking
// half-written files to the player.
func (s *Server) ServeAsset(w http.ResponseWriter, r *http.Request, assetID string) error {
	a, err := s.repo.GetAsset(r.Context(), assetID)
	if err != nil {
		return fmt.Errorf("failed to load asset: %w", err)
	}
	if a == nil || a.Status != project.AssetStatusReady || a.LocalPath == "" {
		http.Error(w, "asset not available", http.StatusNotFound)
		return nil
	}
	return s.ServeFile(w, r, a.LocalPath)
}

// ServeFile streams a local file with single-range support. Export
// artifacts are served through here directly.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))

	rng, err := ParseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	if err != nil {
		// A malformed Range header gets the full file, per RFC 7233.
		rng = nil
	}

	if rng == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		if _, err := io.Copy(w, file); err != nil {
			s.logger.Debug("playback copy aborted", "path", filePath, "error", err)
		}
		return nil
	}

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(rng.ContentLength(), 10))
	w.Header().Set("Content-Range", rng.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := io.CopyN(w, file, rng.ContentLength()); err != nil {
		s.logger.Debug("playback copy aborted", "path", filePath, "error", err)
	}
	return nil
}
