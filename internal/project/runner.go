package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// AssetFile describes a fetched or generated media file on local disk.
type AssetFile struct {
	Path     string
	Width    int
	Height   int
	Duration float64
}

// Downloader fetches a remote asset to local disk.
type Downloader interface {
	Download(ctx context.Context, url, assetID string) (AssetFile, error)
}

// Generator produces a cutaway asset from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, kind, assetID string) (AssetFile, error)
}

// Renderer produces an export artifact for a project and returns its path.
type Renderer interface {
	Render(ctx context.Context, projectID string, scenes []timeline.Scene, p RenderPayload) (string, error)
}

// Mirror uploads a finished artifact to remote storage. Optional; mirror
// failures are logged but never fail the job.
type Mirror interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

type Runner struct {
	service      *Service
	repo         Repository
	downloader   Downloader
	generator    Generator
	renderer     Renderer
	mirror       Mirror
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, downloader Downloader, generator Generator, renderer Renderer, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		downloader:   downloader,
		generator:    generator,
		renderer:     renderer,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

// SetMirror enables artifact mirroring to remote storage.
func (r *Runner) SetMirror(m Mirror) {
	r.mirror = m
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeDownload:
		r.processDownloadJob(ctx, job)

	case JobTypeGenerate:
		r.processGenerateJob(ctx, job)

	case JobTypeRender:
		r.processRenderJob(ctx, job)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processDownloadJob(ctx context.Context, job *Job) {
	if r.downloader == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "downloader not configured")
		return
	}

	var payload DownloadPayload
	if err := decodePayload(job, &payload); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	r.repo.UpdateJobProgress(ctx, job.ID, 10)

	file, err := r.downloader.Download(ctx, payload.URL, payload.AssetID)
	if err != nil {
		r.failAsset(ctx, job, payload.AssetID, fmt.Sprintf("download error: %v", err))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 80)
	r.finishAsset(ctx, job, payload.AssetID, file, payload.SceneID, payload.StartTime, payload.Duration)
	r.logger.Info("download job completed", "job_id", job.ID, "asset_id", payload.AssetID)
}

func (r *Runner) processGenerateJob(ctx context.Context, job *Job) {
	if r.generator == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "generator not configured")
		return
	}

	var payload GeneratePayload
	if err := decodePayload(job, &payload); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	r.repo.UpdateJobProgress(ctx, job.ID, 10)

	file, err := r.generator.Generate(ctx, payload.Prompt, payload.Kind, payload.AssetID)
	if err != nil {
		r.failAsset(ctx, job, payload.AssetID, fmt.Sprintf("generation error: %v", err))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 80)
	r.finishAsset(ctx, job, payload.AssetID, file, payload.SceneID, payload.StartTime, payload.Duration)
	r.logger.Info("generate job completed", "job_id", job.ID, "asset_id", payload.AssetID)
}

func (r *Runner) processRenderJob(ctx context.Context, job *Job) {
	if r.renderer == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "renderer not configured")
		return
	}

	var payload RenderPayload
	if err := decodePayload(job, &payload); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	scenes, err := r.service.Scenes(ctx, job.ProjectID)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("failed to load scenes: %v", err))
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	r.repo.UpdateJobProgress(ctx, job.ID, 10)

	path, err := r.renderer.Render(ctx, job.ProjectID, scenes, payload)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("render error: %v", err))
		return
	}

	result := path
	if r.mirror != nil {
		r.repo.UpdateJobProgress(ctx, job.ID, 90)
		key := fmt.Sprintf("exports/%s/%s", job.ProjectID, job.ID)
		remote, err := r.mirror.Upload(ctx, path, key)
		if err != nil {
			r.logger.Error("mirror upload failed", "job_id", job.ID, "error", err)
		} else {
			result = remote
		}
	}

	r.repo.UpdateJobResult(ctx, job.ID, result)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.notifyJob(ctx, job.ID)
	r.logger.Info("render job completed", "job_id", job.ID, "output", result)
}

// finishAsset marks the asset ready and, when the payload carries a
// placement, inserts the cutaway onto the timeline. A placement that no
// longer fits fails the job but keeps the asset usable.
func (r *Runner) finishAsset(ctx context.Context, job *Job, assetID string, file AssetFile, sceneID string, start, duration float64) {
	if err := r.repo.UpdateAssetReady(ctx, assetID, file.Path, file.Width, file.Height, file.Duration); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("failed to update asset: %v", err))
		return
	}

	if sceneID != "" {
		if duration < timeline.MinCutawayDuration {
			duration = file.Duration
		}
		if duration < timeline.MinCutawayDuration {
			duration = timeline.DefaultSceneDuration
		}
		_, err := r.service.InsertCutaway(ctx, job.ProjectID, sceneID, timeline.Cutaway{
			AssetRef:  assetID,
			StartTime: start,
			Duration:  duration,
		})
		if err != nil {
			r.repo.UpdateJobResult(ctx, job.ID, file.Path)
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("asset ready but placement failed: %v", err))
			r.notifyJob(ctx, job.ID)
			return
		}
	}

	r.repo.UpdateJobResult(ctx, job.ID, file.Path)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.notifyJob(ctx, job.ID)
}

func (r *Runner) failAsset(ctx context.Context, job *Job, assetID, reason string) {
	r.repo.UpdateAssetStatus(ctx, assetID, AssetStatusFailed)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, reason)
	r.notifyJob(ctx, job.ID)
	r.logger.Error("job failed", "job_id", job.ID, "error", reason)
}

func (r *Runner) notifyJob(ctx context.Context, jobID string) {
	job, err := r.repo.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return
	}
	r.service.notifier.JobUpdated(job)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
