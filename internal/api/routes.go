package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clickwonder/broll-reviewer/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		// Mounted subrouters resolve their own misses, so unknown API
		// paths answer JSON here instead of falling through to the SPA.
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusNotFound, "unknown endpoint", "NOT_FOUND")
		})

		r.Get("/status", statusHandler(cfg))
		r.Get("/ws", wsHandler(cfg))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", listProjectsHandler(cfg))
			r.Post("/", createProjectHandler(cfg))

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", getProjectHandler(cfg))
				r.Patch("/", updateProjectHandler(cfg))
				r.Delete("/", deleteProjectHandler(cfg))

				r.Put("/scenes", replaceScenesHandler(cfg))
				r.Post("/scenes/{sceneID}/cutaways", insertCutawayHandler(cfg))
				r.Patch("/scenes/{sceneID}/cutaways/{index}", editCutawayHandler(cfg))
				r.Delete("/scenes/{sceneID}/cutaways/{index}", deleteCutawayHandler(cfg))

				r.Get("/timeline", timelineHandler(cfg))
				r.Get("/timeline/at", playheadHandler(cfg))
				r.Post("/editor/pointer", pointerHandler(cfg))

				r.Post("/stock", addStockHandler(cfg))
				r.Post("/generate", generateHandler(cfg))
				r.Get("/jobs", listProjectJobsHandler(cfg))
				r.Get("/assets", listAssetsHandler(cfg))

				r.Post("/export", exportHandler(cfg))
				r.Get("/export/edl", exportEDLHandler(cfg))
			})
		})

		r.Get("/stock/search", stockSearchHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/assets/{id}/file", assetFileHandler(cfg))
	})

	if cfg.UI != nil {
		r.NotFound(spaHandler(cfg.UI))
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  "0.1.0",
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.Service.ListProjects(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			ProjectsCount: len(projects),
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		}

		if cfg.Hub != nil {
			resp.ClientsCount = cfg.Hub.ClientCount()
		}

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(ctx)
			if err == nil && caps != nil {
				resp.Media = &MediaStatusResponse{
					HasFFmpeg:     caps.HasFFmpeg,
					HasFFprobe:    caps.HasFFprobe,
					FFmpegVersion: caps.FFmpegVersion,
					CanRender:     caps.CanRender(),
					LastProbeAt:   caps.ProbedAt.Format(time.RFC3339),
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func wsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Hub.HandleWS(w, r)
	}
}

// spaFileSystem serves index.html for any path the bundle does not
// contain, so browser-side routes survive a reload.
type spaFileSystem struct {
	root http.FileSystem
}

func (s spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return s.root.Open("index.html")
	}
	return f, err
}

func spaHandler(ui fs.FS) http.HandlerFunc {
	files := http.FileServer(spaFileSystem{http.FS(ui)})
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			WriteError(w, http.StatusNotFound, "unknown endpoint", "NOT_FOUND")
			return
		}
		files.ServeHTTP(w, r)
	}
}
