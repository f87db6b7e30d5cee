package assets

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/clickwonder/broll-reviewer/internal/media"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDownloader_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake mp4 payload"))
	}))
	defer server.Close()

	store, _ := NewDiskStore(t.TempDir(), nil)
	dl := NewDownloader(store, media.NewStubFFmpeg(testLogger()), testLogger())

	file, err := dl.Download(context.Background(), server.URL+"/clips/skyline.mp4", "asset-1")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if !store.Exists(file.Path) {
		t.Error("downloaded file missing from store")
	}
	data, _ := os.ReadFile(file.Path)
	if string(data) != "fake mp4 payload" {
		t.Errorf("file content = %q", string(data))
	}
}

func TestDownloader_Download_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store, _ := NewDiskStore(t.TempDir(), nil)
	dl := NewDownloader(store, nil, testLogger())

	_, err := dl.Download(context.Background(), server.URL+"/missing.mp4", "asset-1")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDownloader_Download_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer server.Close()

	store, _ := NewDiskStore(t.TempDir(), nil)
	dl := NewDownloader(store, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dl.Download(ctx, server.URL+"/clip.mp4", "asset-1")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDownloader_DownloadBatch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("payload for " + r.URL.Path))
	}))
	defer server.Close()

	store, _ := NewDiskStore(t.TempDir(), nil)
	dl := NewDownloader(store, nil, testLogger())

	items := []BatchItem{
		{AssetID: "a1", URL: server.URL + "/1.mp4"},
		{AssetID: "a2", URL: server.URL + "/2.mp4"},
		{AssetID: "a3", URL: server.URL + "/3.mp4"},
	}

	results, err := dl.DownloadBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("DownloadBatch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if requests.Load() != 3 {
		t.Errorf("server requests = %d, want 3", requests.Load())
	}

	for _, item := range items {
		file, ok := results[item.AssetID]
		if !ok {
			t.Errorf("missing result for %s", item.AssetID)
			continue
		}
		if !store.Exists(file.Path) {
			t.Errorf("file for %s missing from store", item.AssetID)
		}
	}
}

func TestDownloader_DownloadBatch_FirstErrorWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.mp4" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	store, _ := NewDiskStore(t.TempDir(), nil)
	dl := NewDownloader(store, nil, testLogger())

	_, err := dl.DownloadBatch(context.Background(), []BatchItem{
		{AssetID: "good", URL: server.URL + "/good.mp4"},
		{AssetID: "bad", URL: server.URL + "/bad.mp4"},
	})
	if err == nil {
		t.Fatal("expected error when one download fails")
	}
}

func TestFileExt(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		want        string
	}{
		{"from url", "https://cdn.example.com/clips/video.mp4", "", ".mp4"},
		{"from url with query", "https://cdn.example.com/video.mov?token=abc", "", ".mov"},
		{"from content type", "https://cdn.example.com/download/8271", "video/mp4", ".mp4"},
		{"content type with params", "https://cdn.example.com/x", "image/jpeg; charset=binary", ".jpg"},
		{"png", "https://cdn.example.com/x", "image/png", ".png"},
		{"unknown", "https://cdn.example.com/x", "application/octet-stream", ".bin"},
		{"no hints", "https://cdn.example.com/x", "", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fileExt(tt.url, tt.contentType); got != tt.want {
				t.Errorf("fileExt(%q, %q) = %q, want %q", tt.url, tt.contentType, got, tt.want)
			}
		})
	}
}
