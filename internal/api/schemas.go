package api

import (
	"time"

	"github.com/clickwonder/broll-reviewer/internal/editor"
	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string               `json:"state"`
	LastError     string               `json:"last_error,omitempty"`
	ProjectsCount int                  `json:"projects_count"`
	JobsRunning   int                  `json:"jobs_running"`
	ClientsCount  int                  `json:"clients_count"`
	ActiveJob     *JobResponse         `json:"active_job,omitempty"`
	Media         *MediaStatusResponse `json:"media,omitempty"`
}

type MediaStatusResponse struct {
	HasFFmpeg     bool   `json:"has_ffmpeg"`
	HasFFprobe    bool   `json:"has_ffprobe"`
	FFmpegVersion string `json:"ffmpeg_version,omitempty"`
	CanRender     bool   `json:"can_render"`
	LastProbeAt   string `json:"last_probe_at,omitempty"`
}

type CreateProjectRequest struct {
	Name         string           `json:"name"`
	NarrationRef string           `json:"narration_ref,omitempty"`
	Scenes       []timeline.Scene `json:"scenes,omitempty"`
}

// UpdateProjectRequest patches project metadata. Empty fields keep their
// current value.
type UpdateProjectRequest struct {
	Name         string `json:"name,omitempty"`
	NarrationRef string `json:"narration_ref,omitempty"`
	Status       string `json:"status,omitempty"`
}

type ProjectResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	NarrationRef string           `json:"narration_ref,omitempty"`
	Status       string           `json:"status"`
	Scenes       []timeline.Scene `json:"scenes"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ScenesRequest struct {
	Scenes []timeline.Scene `json:"scenes"`
}

type ScenesResponse struct {
	Scenes []timeline.Scene `json:"scenes"`
}

// EditRequest is a committed cutaway window change.
type EditRequest struct {
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

type TimelineResponse struct {
	Blocks        []timeline.Block `json:"blocks"`
	TotalDuration float64          `json:"total_duration"`
}

// PointerRequest is one step of a drag gesture against the editor
// session. Geometry, when present, is applied before the event.
type PointerRequest struct {
	Type     string           `json:"type"` // down, move, up or cancel
	X        float64          `json:"x"`
	Geometry *editor.Geometry `json:"geometry,omitempty"`
}

type PointerResponse struct {
	Dragging bool             `json:"dragging"`
	Preview  *PreviewResponse `json:"preview,omitempty"`
	Result   *ResultResponse  `json:"result,omitempty"`
}

type PreviewResponse struct {
	SceneID   string  `json:"scene_id"`
	Index     int     `json:"index"`
	Mode      string  `json:"mode"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

type ResultResponse struct {
	Kind          string       `json:"kind"`
	SeekTo        float64      `json:"seek_to,omitempty"`
	InsertSceneID string       `json:"insert_scene_id,omitempty"`
	InsertAt      float64      `json:"insert_at,omitempty"`
	SceneID       string       `json:"scene_id,omitempty"`
	Index         int          `json:"index,omitempty"`
	Applied       *AppliedEdit `json:"applied,omitempty"`
}

type AppliedEdit struct {
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// InsertTargetRequest places a finished asset on the timeline once its
// job completes. Omitted, the asset is only added to the project bin.
type InsertTargetRequest struct {
	SceneID   string  `json:"scene_id"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

type AddStockRequest struct {
	URL      string               `json:"url"`
	Keyword  string               `json:"keyword,omitempty"`
	Width    int                  `json:"width,omitempty"`
	Height   int                  `json:"height,omitempty"`
	Duration float64              `json:"duration,omitempty"`
	Target   *InsertTargetRequest `json:"target,omitempty"`
}

type GenerateRequest struct {
	Prompt string               `json:"prompt"`
	Kind   string               `json:"kind"` // image or clip
	Target *InsertTargetRequest `json:"target,omitempty"`
}

// EnqueuedResponse acknowledges an accepted background job.
type EnqueuedResponse struct {
	JobID   string `json:"job_id"`
	AssetID string `json:"asset_id,omitempty"`
}

type JobResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type AssetResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Kind      string  `json:"kind"`
	Status    string  `json:"status"`
	SourceURL string  `json:"source_url,omitempty"`
	Keyword   string  `json:"keyword,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	FileURL   string  `json:"file_url,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type ExportRequest struct {
	Format       string  `json:"format"` // edl or mp4
	Output       string  `json:"output,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	Captions     bool    `json:"captions,omitempty"`
	CaptionStyle string  `json:"caption_style,omitempty"`
}

type ExportResponse struct {
	JobID string `json:"job_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		NarrationRef: p.NarrationRef,
		Status:       p.Status,
		Scenes:       p.Scenes,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		ProjectID: j.ProjectID,
		Type:      j.Type,
		Status:    j.Status,
		Progress:  j.Progress,
		Result:    j.Result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

// AssetToResponse maps an asset for the UI. Local paths stay server-side;
// ready assets carry the streaming URL instead.
func AssetToResponse(a *project.Asset) AssetResponse {
	resp := AssetResponse{
		ID:        a.ID,
		ProjectID: a.ProjectID,
		Kind:      a.Kind,
		Status:    a.Status,
		SourceURL: a.SourceURL,
		Keyword:   a.Keyword,
		Width:     a.Width,
		Height:    a.Height,
		Duration:  a.Duration,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.Status == project.AssetStatusReady && a.LocalPath != "" {
		resp.FileURL = "/api/assets/" + a.ID + "/file"
	}
	return resp
}

func PreviewToResponse(p editor.Preview) PreviewResponse {
	return PreviewResponse{
		SceneID:   p.SceneID,
		Index:     p.Index,
		Mode:      p.Mode.String(),
		StartTime: p.Proposal.StartTime,
		Duration:  p.Proposal.Duration,
	}
}

func ResultToResponse(res editor.Result) ResultResponse {
	r := ResultResponse{Kind: resultKindName(res.Kind)}
	switch res.Kind {
	case editor.ResultSeek:
		r.SeekTo = res.SeekTo
	case editor.ResultInsert:
		r.InsertSceneID = res.InsertSceneID
		r.InsertAt = res.InsertAt
	case editor.ResultCommitted:
		r.SceneID = res.SceneID
		r.Index = res.Index
		r.Applied = &AppliedEdit{StartTime: res.Applied.StartTime, Duration: res.Applied.Duration}
	}
	return r
}

func resultKindName(k editor.ResultKind) string {
	switch k {
	case editor.ResultSeek:
		return "seek"
	case editor.ResultInsert:
		return "insert"
	case editor.ResultCommitted:
		return "committed"
	default:
		return "none"
	}
}
