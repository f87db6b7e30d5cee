package assets

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

const maxConcurrentDownloads = 4

// Downloader fetches remote media into the local store and probes it.
type Downloader struct {
	store  *DiskStore
	probe  media.FFmpeg
	client *http.Client
	logger *slog.Logger
}

func NewDownloader(store *DiskStore, probe media.FFmpeg, logger *slog.Logger) *Downloader {
	return &Downloader{
		store: store,
		probe: probe,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// Download fetches url into the store under assetID. Probe failures are
// tolerated: the file is kept with zero metadata.
func (d *Downloader) Download(ctx context.Context, url, assetID string) (project.AssetFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return project.AssetFile{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return project.AssetFile{}, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return project.AssetFile{}, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	ext := fileExt(url, resp.Header.Get("Content-Type"))
	localPath, size, err := d.store.Save(assetID, ext, resp.Body)
	if err != nil {
		return project.AssetFile{}, err
	}

	if d.logger != nil {
		d.logger.Info("asset downloaded", "asset_id", assetID, "bytes", size)
	}

	file := project.AssetFile{Path: localPath}
	if d.probe != nil {
		if info, err := d.probe.Probe(ctx, localPath); err != nil {
			if d.logger != nil {
				d.logger.Warn("downloaded asset probe failed", "asset_id", assetID, "error", err)
			}
		} else {
			file.Width = info.Width
			file.Height = info.Height
			file.Duration = info.Duration
		}
	}
	return file, nil
}

// BatchItem names one download in a batch.
type BatchItem struct {
	AssetID string
	URL     string
}

// DownloadBatch fetches all items concurrently. The first failure cancels
// the remaining downloads; results holds the files that finished.
func (d *Downloader) DownloadBatch(ctx context.Context, items []BatchItem) (map[string]project.AssetFile, error) {
	results := make(map[string]project.AssetFile, len(items))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for _, item := range items {
		g.Go(func() error {
			file, err := d.Download(gctx, item.URL, item.AssetID)
			if err != nil {
				return fmt.Errorf("asset %s: %w", item.AssetID, err)
			}
			mu.Lock()
			results[item.AssetID] = file
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// fileExt picks a file extension from the URL path, falling back to the
// response content type.
func fileExt(url, contentType string) string {
	base := path.Base(strings.SplitN(url, "?", 2)[0])
	if ext := path.Ext(base); ext != "" && len(ext) <= 5 {
		return ext
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "video/mp4":
			return ".mp4"
		case "video/quicktime":
			return ".mov"
		case "video/webm":
			return ".webm"
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/webp":
			return ".webp"
		}
	}
	return ".bin"
}
