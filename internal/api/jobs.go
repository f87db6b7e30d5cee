package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/stock"
)

func stockSearchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			WriteError(w, http.StatusBadRequest, "query is required", "BAD_REQUEST")
			return
		}

		opts := stock.SearchOptions{Orientation: r.URL.Query().Get("orientation")}
		if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
			opts.PerPage = perPage
		}
		if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
			opts.Page = page
		}

		result, err := cfg.Stock.SearchVideos(r.Context(), query, opts)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "UPSTREAM_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, result)
	}
}

func addStockHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var req AddStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !projectExists(w, r, cfg, projectID) {
			return
		}

		pick := project.StockPick{
			URL:      req.URL,
			Keyword:  req.Keyword,
			Width:    req.Width,
			Height:   req.Height,
			Duration: req.Duration,
		}
		asset, job, err := cfg.Service.AddStockCutaway(r.Context(), projectID, pick, insertTarget(req.Target))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, EnqueuedResponse{JobID: job.ID, AssetID: asset.ID})
	}
}

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !projectExists(w, r, cfg, projectID) {
			return
		}

		asset, job, err := cfg.Service.GenerateCutaway(r.Context(), projectID, req.Prompt, req.Kind, insertTarget(req.Target))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, EnqueuedResponse{JobID: job.ID, AssetID: asset.ID})
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Service.Job(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func listProjectJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		jobs, err := cfg.Service.Jobs(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		assets, err := cfg.Service.Assets(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list assets", "INTERNAL_ERROR")
			return
		}

		resp := AssetsResponse{Assets: make([]AssetResponse, len(assets))}
		for i, a := range assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func assetFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "asset id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Playback.ServeAsset(w, r, id); err != nil {
			cfg.Logger.Error("playback error", "error", err, "asset_id", id)
		}
	}
}

// projectExists guards job-creating endpoints: queueing work against a
// deleted project would only fail later inside the runner.
func projectExists(w http.ResponseWriter, r *http.Request, cfg ServerConfig, projectID string) bool {
	p, err := cfg.Service.GetProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return false
	}
	if p == nil {
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		return false
	}
	return true
}

func insertTarget(req *InsertTargetRequest) project.InsertTarget {
	if req == nil {
		return project.InsertTarget{}
	}
	return project.InsertTarget{
		SceneID:   req.SceneID,
		StartTime: req.StartTime,
		Duration:  req.Duration,
	}
}
