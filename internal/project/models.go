package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// ErrNotFound marks lookups for projects, jobs, or assets that do not exist.
var ErrNotFound = errors.New("not found")

type Project struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	NarrationRef string           `json:"narration_ref,omitempty"`
	Status       string           `json:"status"`
	Scenes       []timeline.Scene `json:"scenes"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type Asset struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Kind      string    `json:"kind"`
	LocalPath string    `json:"local_path,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ProjectStatusDraft    = "draft"
	ProjectStatusReview   = "review"
	ProjectStatusApproved = "approved"

	AssetKindStock     = "stock"
	AssetKindGenerated = "generated"
	AssetKindUpload    = "upload"

	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"

	JobTypeDownload = "download"
	JobTypeGenerate = "generate"
	JobTypeRender   = "render"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Payload   string    `json:"payload,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DownloadPayload asks the runner to fetch a stock clip into the asset
// store. When SceneID is set the finished asset is also inserted as a
// cutaway at the given window.
type DownloadPayload struct {
	AssetID   string  `json:"asset_id"`
	URL       string  `json:"url"`
	SceneID   string  `json:"scene_id,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// GeneratePayload asks the runner to produce an AI image or motion clip.
type GeneratePayload struct {
	AssetID   string  `json:"asset_id"`
	Prompt    string  `json:"prompt"`
	Kind      string  `json:"kind"` // image or clip
	SceneID   string  `json:"scene_id,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

const (
	GenerateKindImage = "image"
	GenerateKindClip  = "clip"
)

// RenderPayload asks the runner to produce an export artifact.
type RenderPayload struct {
	Format       string  `json:"format"` // edl or mp4
	Output       string  `json:"output,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	Captions     bool    `json:"captions,omitempty"`
	CaptionStyle string  `json:"caption_style,omitempty"`
}

const (
	RenderFormatEDL = "edl"
	RenderFormatMP4 = "mp4"
)

func NewID() string {
	return uuid.New().String()
}

func marshalPayload(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}
	return string(b), nil
}

func decodePayload(j *Job, v any) error {
	if err := json.Unmarshal([]byte(j.Payload), v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", j.Type, err)
	}
	return nil
}
