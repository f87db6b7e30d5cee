package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clickwonder/broll-reviewer/internal/db"
	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

func setupWatcher(t *testing.T) (*Watcher, project.Repository, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.New(filepath.Join(tmpDir, "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := project.NewRepository(database.Conn())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := filepath.Join(tmpDir, "uploads")

	return New(repo, media.NewStubFFmpeg(logger), root, logger), repo, root
}

func seedWatcherProject(t *testing.T, repo project.Repository, id string) {
	t.Helper()

	now := time.Now().UTC()
	p := &project.Project{
		ID:        id,
		Name:      "Launch Video",
		Status:    project.ProjectStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
}

func dropFile(t *testing.T, root, projectID, name, contents string) string {
	t.Helper()

	dir := filepath.Join(root, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create drop dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write upload: %v", err)
	}
	return path
}

func TestScan_RegistersSettledFile(t *testing.T) {
	w, repo, root := setupWatcher(t)
	ctx := context.Background()

	seedWatcherProject(t, repo, "p1")
	path := dropFile(t, root, "p1", "drone-shot.mp4", "fake mp4 bytes")

	// First scan only records the size.
	if err := w.Scan(ctx); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	assets, err := repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("expected no assets after first scan, got %d", len(assets))
	}

	// Second scan sees a stable size and registers.
	if err := w.Scan(ctx); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	assets, err = repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset after second scan, got %d", len(assets))
	}

	a := assets[0]
	if a.Kind != project.AssetKindUpload {
		t.Errorf("expected kind %q, got %q", project.AssetKindUpload, a.Kind)
	}
	if a.Status != project.AssetStatusReady {
		t.Errorf("expected status %q, got %q", project.AssetStatusReady, a.Status)
	}
	if a.LocalPath != path {
		t.Errorf("expected local path %q, got %q", path, a.LocalPath)
	}
	if a.Keyword != "drone-shot" {
		t.Errorf("expected keyword drone-shot, got %q", a.Keyword)
	}
}

func TestScan_WaitsForGrowingFile(t *testing.T) {
	w, repo, root := setupWatcher(t)
	ctx := context.Background()

	seedWatcherProject(t, repo, "p1")
	path := dropFile(t, root, "p1", "clip.mp4", "partial")

	if err := w.Scan(ctx); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	// The copy is still in flight.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to reopen upload: %v", err)
	}
	if _, err := f.WriteString(" more bytes"); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	f.Close()

	if err := w.Scan(ctx); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	assets, err := repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("expected growing file to stay unregistered, got %d assets", len(assets))
	}

	if err := w.Scan(ctx); err != nil {
		t.Fatalf("third scan failed: %v", err)
	}
	assets, err = repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset once the size settled, got %d", len(assets))
	}
}

func TestScan_IgnoresUnknownProjectDir(t *testing.T) {
	w, repo, root := setupWatcher(t)
	ctx := context.Background()

	dropFile(t, root, "ghost", "clip.mp4", "fake mp4 bytes")

	for i := 0; i < 2; i++ {
		if err := w.Scan(ctx); err != nil {
			t.Fatalf("scan %d failed: %v", i+1, err)
		}
	}

	paths, err := repo.ListAssetPaths(ctx)
	if err != nil {
		t.Fatalf("failed to list asset paths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no assets for unknown project dir, got %d", len(paths))
	}
}

func TestScan_IgnoresNonMedia(t *testing.T) {
	w, repo, root := setupWatcher(t)
	ctx := context.Background()

	seedWatcherProject(t, repo, "p1")
	dropFile(t, root, "p1", "notes.txt", "shot list")

	for i := 0; i < 2; i++ {
		if err := w.Scan(ctx); err != nil {
			t.Fatalf("scan %d failed: %v", i+1, err)
		}
	}

	assets, err := repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 0 {
		t.Fatalf("expected non-media files to be skipped, got %d assets", len(assets))
	}
}

func TestScan_SkipsPathsAlreadyInCatalog(t *testing.T) {
	w, repo, root := setupWatcher(t)
	ctx := context.Background()

	seedWatcherProject(t, repo, "p1")
	path := dropFile(t, root, "p1", "clip.mp4", "fake mp4 bytes")

	existing := &project.Asset{
		ID:        "a1",
		ProjectID: "p1",
		Kind:      project.AssetKindUpload,
		LocalPath: path,
		Status:    project.AssetStatusReady,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateAsset(ctx, existing); err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := w.Scan(ctx); err != nil {
			t.Fatalf("scan %d failed: %v", i+1, err)
		}
	}

	assets, err := repo.ListAssetsByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected the catalog entry to survive alone, got %d assets", len(assets))
	}
	if assets[0].ID != "a1" {
		t.Errorf("expected asset a1, got %q", assets[0].ID)
	}
}

func TestScan_MissingRootOK(t *testing.T) {
	w, _, _ := setupWatcher(t)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan of absent root should be a no-op, got %v", err)
	}
}
