// Package assets manages the local media files behind cutaways: where
// they live on disk, how they get fetched, and how they are mirrored to
// remote storage.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps asset files in a flat directory, one file per asset ID.
type DiskStore struct {
	root   string
	logger *slog.Logger
}

func NewDiskStore(root string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("cannot create asset store dir: %w", err)
	}
	return &DiskStore{root: root, logger: logger}, nil
}

func (s *DiskStore) Dir() string {
	return s.root
}

// Path returns where an asset file lives. ext includes the dot.
func (s *DiskStore) Path(assetID, ext string) string {
	return filepath.Join(s.root, assetID+ext)
}

// Save streams r into the store. A partial file left by a failed copy is
// removed.
func (s *DiskStore) Save(assetID, ext string, r io.Reader) (string, int64, error) {
	path := s.Path(assetID, ext)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("cannot create asset file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("cannot write asset file: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("asset stored", "asset_id", assetID, "bytes", n)
	}
	return path, n, nil
}

// Remove deletes an asset file. Paths outside the store root are refused.
func (s *DiskStore) Remove(path string) error {
	if !s.contains(path) {
		return fmt.Errorf("path %s is outside the asset store", filepath.Base(path))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the file at path is still present on disk.
func (s *DiskStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Sweep removes files in the store that are not in keep, returning how
// many were deleted. keep maps absolute paths.
func (s *DiskStore) Sweep(keep map[string]struct{}) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("cannot read asset store dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.root, e.Name())
		if _, ok := keep[path]; ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to remove orphan asset file", "file", e.Name(), "error", err)
			}
			continue
		}
		removed++
	}

	if removed > 0 && s.logger != nil {
		s.logger.Info("asset store swept", "removed", removed)
	}
	return removed, nil
}

func (s *DiskStore) contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
