// Package watcher registers media dropped into per-project upload
// folders as ready assets.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

// DefaultInterval is how often the drop folder is rescanned.
const DefaultInterval = 2 * time.Second

var mediaExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true,
	".png": true, ".jpg": true, ".jpeg": true,
	".mp3": true, ".wav": true, ".m4a": true,
}

// Watcher polls a drop folder laid out as <root>/<projectID>/<file> and
// registers each new file as a ready upload asset. A file is registered
// only once its size holds still across two scans, so half-copied media
// never enters the catalog.
type Watcher struct {
	repo     project.Repository
	probe    media.FFmpeg
	root     string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	sizes  map[string]int64
	known  map[string]struct{}
	primed bool
}

func New(repo project.Repository, probe media.FFmpeg, root string, logger *slog.Logger) *Watcher {
	return &Watcher{
		repo:     repo,
		probe:    probe,
		root:     root,
		interval: DefaultInterval,
		logger:   logger,
		sizes:    make(map[string]int64),
		known:    make(map[string]struct{}),
	}
}

// Start scans on a ticker until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("upload watcher started", "dir", w.root)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("upload watcher stopped")
			return
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				w.logger.Error("upload scan failed", "error", err)
			}
		}
	}
}

// Scan walks the drop folder once. Exported so startup and tests can
// trigger a pass without waiting for the ticker.
func (w *Watcher) Scan(ctx context.Context) error {
	if err := w.prime(ctx); err != nil {
		return err
	}

	dirs, err := os.ReadDir(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		projectID := d.Name()
		proj, err := w.repo.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if proj == nil {
			// Folder without a matching project; leave it alone.
			continue
		}
		if err := w.scanProjectDir(ctx, projectID, filepath.Join(w.root, projectID)); err != nil {
			return err
		}
	}
	return nil
}

// prime loads paths already in the catalog so a restart does not
// re-register files from earlier sessions.
func (w *Watcher) prime(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.primed {
		return nil
	}
	paths, err := w.repo.ListAssetPaths(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		w.known[p] = struct{}{}
	}
	w.primed = true
	return nil
}

func (w *Watcher) scanProjectDir(ctx context.Context, projectID, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !mediaExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())

		w.mu.Lock()
		if _, seen := w.known[path]; seen {
			w.mu.Unlock()
			continue
		}
		last, tracked := w.sizes[path]
		w.sizes[path] = info.Size()
		w.mu.Unlock()

		if !tracked || last != info.Size() {
			// First sighting or still growing: settle first.
			continue
		}

		if err := w.register(ctx, projectID, path); err != nil {
			w.logger.Error("failed to register upload", "path", path, "error", err)
		}
	}
	return nil
}

func (w *Watcher) register(ctx context.Context, projectID, path string) error {
	asset := &project.Asset{
		ID:        project.NewID(),
		ProjectID: projectID,
		Kind:      project.AssetKindUpload,
		LocalPath: path,
		Keyword:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Status:    project.AssetStatusReady,
		CreatedAt: time.Now(),
	}

	// Probe is best effort; an unreadable file still lands in the
	// catalog and playback reports the real problem.
	if res, err := w.probe.Probe(ctx, path); err == nil {
		asset.Width = res.Width
		asset.Height = res.Height
		asset.Duration = res.Duration
	}

	if err := w.repo.CreateAsset(ctx, asset); err != nil {
		return err
	}

	w.mu.Lock()
	w.known[path] = struct{}{}
	delete(w.sizes, path)
	w.mu.Unlock()

	w.logger.Info("registered upload",
		"asset_id", asset.ID, "project_id", projectID, "file", filepath.Base(path))
	return nil
}
