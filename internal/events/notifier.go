package events

import (
	"github.com/clickwonder/broll-reviewer/internal/editor"
	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

const (
	TypeScenesChanged = "scenes_changed"
	TypeJobUpdated    = "job_updated"
	TypePreview       = "preview"
)

type scenesChangedEvent struct {
	ProjectID string           `json:"project_id"`
	Scenes    []timeline.Scene `json:"scenes"`
}

type previewEvent struct {
	ProjectID string  `json:"project_id"`
	SceneID   string  `json:"scene_id"`
	Index     int     `json:"index"`
	Mode      string  `json:"mode"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// ScenesChanged implements project.Notifier.
func (h *Hub) ScenesChanged(projectID string, scenes []timeline.Scene) {
	h.Broadcast(TypeScenesChanged, scenesChangedEvent{ProjectID: projectID, Scenes: scenes})
}

// JobUpdated implements project.Notifier.
func (h *Hub) JobUpdated(j *project.Job) {
	h.Broadcast(TypeJobUpdated, j)
}

// PreviewChanged pushes an in-flight drag proposal to all clients.
// Previews are transient; only the eventual commit touches the model.
func (h *Hub) PreviewChanged(projectID string, p editor.Preview) {
	h.Broadcast(TypePreview, previewEvent{
		ProjectID: projectID,
		SceneID:   p.SceneID,
		Index:     p.Index,
		Mode:      p.Mode.String(),
		StartTime: p.Proposal.StartTime,
		Duration:  p.Proposal.Duration,
	})
}
