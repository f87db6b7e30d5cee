package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestStockSearch(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodGet, "/api/stock/search?query=ocean", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	videos := body["videos"].([]interface{})
	if len(videos) == 0 {
		t.Fatal("stub provider returned no videos")
	}
	first := videos[0].(map[string]interface{})
	if first["id"] != "stub-ocean-1" {
		t.Errorf("video id = %v, want stub-ocean-1", first["id"])
	}

	t.Run("missing query", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/stock/search", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestAddStock(t *testing.T) {
	f := setupAPI(t)
	p := f.seedProject(t)

	rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stock", AddStockRequest{
		URL:      "https://cdn.example.com/ocean.mp4",
		Keyword:  "ocean",
		Width:    1920,
		Height:   1080,
		Duration: 12,
		Target:   &InsertTargetRequest{SceneID: "intro", StartTime: 6, Duration: 3},
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusAccepted, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	jobID, _ := body["job_id"].(string)
	assetID, _ := body["asset_id"].(string)
	if jobID == "" || assetID == "" {
		t.Fatalf("response = %v, want job_id and asset_id", body)
	}

	t.Run("job is queued", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/jobs/"+jobID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		job := decodeJSONBody(t, rr)
		if job["type"] != "download" {
			t.Errorf("type = %v, want download", job["type"])
		}
		if job["status"] != "pending" {
			t.Errorf("status = %v, want pending", job["status"])
		}
	})

	t.Run("asset is pending without file url", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/assets", nil)
		body := decodeJSONBody(t, rr)
		assets := body["assets"].([]interface{})
		if len(assets) != 1 {
			t.Fatalf("assets = %d, want 1", len(assets))
		}
		asset := assets[0].(map[string]interface{})
		if asset["status"] != "pending" {
			t.Errorf("status = %v, want pending", asset["status"])
		}
		if _, ok := asset["file_url"]; ok {
			t.Error("pending asset must not expose a file_url")
		}
	})

	t.Run("missing url", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stock", AddStockRequest{Keyword: "ocean"})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})

	t.Run("missing project", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/projects/nope/stock", AddStockRequest{
			URL: "https://cdn.example.com/ocean.mp4",
		})
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})
}

func TestGenerate(t *testing.T) {
	f := setupAPI(t)
	p := f.seedProject(t)

	rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/generate", GenerateRequest{
		Prompt: "drone shot of a container port at dawn",
		Kind:   "image",
		Target: &InsertTargetRequest{SceneID: "body", StartTime: 2, Duration: 4},
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusAccepted, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["job_id"] == "" || body["asset_id"] == "" {
		t.Fatalf("response = %v, want job_id and asset_id", body)
	}

	t.Run("missing prompt", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/generate", GenerateRequest{Kind: "image"})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
		b := decodeJSONBody(t, rr)
		if b["error"] != "prompt required" {
			t.Errorf("error = %v, want prompt required", b["error"])
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/generate", GenerateRequest{
			Prompt: "anything",
			Kind:   "hologram",
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestGetJob_Missing(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodGet, "/api/jobs/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListProjectJobs(t *testing.T) {
	f := setupAPI(t)
	p := f.seedProject(t)

	f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stock", AddStockRequest{
		URL:    "https://cdn.example.com/ocean.mp4",
		Target: &InsertTargetRequest{SceneID: "intro", StartTime: 6, Duration: 3},
	})

	rr := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/jobs", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if jobs := body["jobs"].([]interface{}); len(jobs) != 1 {
		t.Errorf("jobs = %d, want 1", len(jobs))
	}
}

func TestAssetFile(t *testing.T) {
	f := setupAPI(t)
	p := f.seedProject(t)

	rr := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/stock", AddStockRequest{
		URL:    "https://cdn.example.com/ocean.mp4",
		Target: &InsertTargetRequest{SceneID: "intro", StartTime: 6, Duration: 3},
	})
	body := decodeJSONBody(t, rr)
	assetID := body["asset_id"].(string)

	t.Run("not ready yet", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/assets/"+assetID+"/file", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})

	clip := filepath.Join(t.TempDir(), "ocean.mp4")
	if err := os.WriteFile(clip, []byte("stub mp4 payload"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	if err := f.repo.UpdateAssetReady(context.Background(), assetID, clip, 1920, 1080, 12); err != nil {
		t.Fatalf("UpdateAssetReady() error = %v", err)
	}

	t.Run("ready asset exposes file url", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/assets", nil)
		body := decodeJSONBody(t, rr)
		asset := body["assets"].([]interface{})[0].(map[string]interface{})
		if asset["file_url"] != "/api/assets/"+assetID+"/file" {
			t.Errorf("file_url = %v, want /api/assets/%s/file", asset["file_url"], assetID)
		}
	})

	t.Run("full body", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/assets/"+assetID+"/file", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		if got := rr.Body.String(); got != "stub mp4 payload" {
			t.Errorf("body = %q, want stub mp4 payload", got)
		}
	})

	t.Run("range request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/assets/"+assetID+"/file", nil)
		req.Header.Set("Authorization", "Bearer "+testToken)
		req.Header.Set("Range", "bytes=0-3")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		if rr.Code != http.StatusPartialContent {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusPartialContent)
		}
		if got := rr.Body.String(); got != "stub" {
			t.Errorf("body = %q, want stub", got)
		}
		if cr := rr.Header().Get("Content-Range"); cr != "bytes 0-3/16" {
			t.Errorf("Content-Range = %q, want bytes 0-3/16", cr)
		}
	})
}
