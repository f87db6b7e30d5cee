package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clickwonder/broll-reviewer/internal/project"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !projectExists(w, r, cfg, projectID) {
			return
		}

		payload := project.RenderPayload{
			Format:       req.Format,
			Output:       req.Output,
			FrameRate:    req.FrameRate,
			Captions:     req.Captions,
			CaptionStyle: req.CaptionStyle,
		}
		job, err := cfg.Service.RequestRender(r.Context(), projectID, payload)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportResponse{JobID: job.ID})
	}
}

// exportEDLHandler cuts the EDL synchronously and streams it as a
// download. Renders that need ffmpeg go through the job queue instead.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")

		frameRate := 0.0
		if raw := r.URL.Query().Get("frame_rate"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "frame_rate must be a number", "BAD_REQUEST")
				return
			}
			frameRate = parsed
		}

		scenes, err := cfg.Service.Scenes(r.Context(), projectID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		edl, filename, err := cfg.Exporter.EDL(r.Context(), projectID, scenes, frameRate)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}
