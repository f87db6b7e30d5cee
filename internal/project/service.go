package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clickwonder/broll-reviewer/internal/editor"
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

const persistTimeout = 10 * time.Second

// Notifier receives model change events for fan-out to connected clients.
type Notifier interface {
	ScenesChanged(projectID string, scenes []timeline.Scene)
	JobUpdated(j *Job)
}

type noopNotifier struct{}

func (noopNotifier) ScenesChanged(string, []timeline.Scene) {}
func (noopNotifier) JobUpdated(*Job)                        {}

// Service owns project CRUD and the in-memory editing state of open
// projects. While a project is open its scene snapshot here is
// authoritative; edits update it synchronously and are persisted to the
// store asynchronously, fire-and-forget with logging. A persistence
// failure never rolls the in-memory model back.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	notifier Notifier

	mu   sync.Mutex
	open map[string]*OpenProject

	persists sync.WaitGroup
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		notifier: noopNotifier{},
		open:     make(map[string]*OpenProject),
	}
}

// SetNotifier wires the event fan-out. Must be called before serving.
func (s *Service) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// OpenProject is one project's live editing state: the authoritative scene
// snapshot and its drag session.
type OpenProject struct {
	projectID string
	svc       *Service

	mu      sync.Mutex
	scenes  []timeline.Scene
	session *editor.Session
}

// Scenes returns the current snapshot. Safe to hand out: edits replace the
// slice, they never mutate it.
func (o *OpenProject) Scenes() []timeline.Scene {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scenes
}

// ApplyEdit commits a proposal against the current snapshot and kicks off
// background persistence. Implements the drag session's model contract:
// on error the snapshot is unchanged.
func (o *OpenProject) ApplyEdit(sceneID string, index int, p timeline.Proposal) error {
	o.mu.Lock()
	next, err := timeline.ApplyEdit(o.scenes, sceneID, index, p)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.scenes = next
	o.mu.Unlock()

	o.svc.scenesUpdated(o.projectID, next)
	return nil
}

// Session returns the project's drag session.
func (o *OpenProject) Session() *editor.Session {
	return o.session
}

func (o *OpenProject) replace(scenes []timeline.Scene) {
	o.mu.Lock()
	o.scenes = scenes
	o.mu.Unlock()
}

// Open loads a project's scenes into memory and creates its drag session.
// Idempotent: an already open project keeps its state.
func (s *Service) Open(ctx context.Context, projectID string) (*OpenProject, error) {
	s.mu.Lock()
	if o, ok := s.open[projectID]; ok {
		s.mu.Unlock()
		return o, nil
	}
	s.mu.Unlock()

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.open[projectID]; ok {
		return o, nil
	}
	o := &OpenProject{projectID: projectID, svc: s, scenes: p.Scenes}
	o.session = editor.NewSession(o, editor.Geometry{TimelineWidthPx: 1000, VisibleDuration: timeline.TotalDuration(p.Scenes)})
	s.open[projectID] = o

	if s.logger != nil {
		s.logger.Info("project opened", "project_id", projectID, "scenes", len(p.Scenes))
	}
	return o, nil
}

// Close drops a project's in-memory state. Any live drag session dies with
// it; nothing uncommitted survives.
func (s *Service) Close(projectID string) {
	s.mu.Lock()
	o, ok := s.open[projectID]
	if ok {
		delete(s.open, projectID)
	}
	s.mu.Unlock()

	if ok {
		o.session.Cancel()
		if s.logger != nil {
			s.logger.Info("project closed", "project_id", projectID)
		}
	}
}

func (s *Service) opened(projectID string) (*OpenProject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.open[projectID]
	return o, ok
}

// scenesUpdated fans out a committed change and persists it in the
// background. The background write gets its own timeout; a failure is
// logged and surfaced through job/event channels, never rolled back.
func (s *Service) scenesUpdated(projectID string, scenes []timeline.Scene) {
	s.notifier.ScenesChanged(projectID, scenes)

	s.persists.Add(1)
	go func() {
		defer s.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.ReplaceScenes(ctx, projectID, scenes); err != nil && s.logger != nil {
			s.logger.Error("failed to persist scenes", "project_id", projectID, "error", err)
		}
	}()
}

// Shutdown blocks until in-flight background persists have finished.
func (s *Service) Shutdown() {
	s.persists.Wait()
}

func (s *Service) CreateProject(ctx context.Context, name, narrationRef string, scenes []timeline.Scene) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name required")
	}
	scenes = normalizeScenes(scenes)
	if err := timeline.ValidateScenes(scenes); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Project{
		ID:           NewID(),
		Name:         name,
		NarrationRef: narrationRef,
		Status:       ProjectStatusDraft,
		Scenes:       scenes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "name", name)
	}
	return p, nil
}

// GetProject reads a project; for an open project the in-memory scenes
// override whatever the store has, since background persistence may lag.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if o, ok := s.opened(id); ok {
		p.Scenes = o.Scenes()
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) UpdateProjectMeta(ctx context.Context, id, name, narrationRef, status string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}

	if name != "" {
		p.Name = name
	}
	if narrationRef != "" {
		p.NarrationRef = narrationRef
	}
	if status != "" {
		switch status {
		case ProjectStatusDraft, ProjectStatusReview, ProjectStatusApproved:
			p.Status = status
		default:
			return nil, fmt.Errorf("unknown project status %q", status)
		}
	}

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return s.GetProject(ctx, id)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	s.Close(id)
	return s.repo.DeleteProject(ctx, id)
}

// Scenes returns the project's current scene list: the in-memory snapshot
// while open, the stored one otherwise.
func (s *Service) Scenes(ctx context.Context, projectID string) ([]timeline.Scene, error) {
	if o, ok := s.opened(projectID); ok {
		return o.Scenes(), nil
	}
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return p.Scenes, nil
}

// ReplaceScenes applies a full scene list replacement: the store contract
// is wholesale swap, idempotent on identical writes. The write here is
// synchronous; only editing commits persist in the background.
func (s *Service) ReplaceScenes(ctx context.Context, projectID string, scenes []timeline.Scene) ([]timeline.Scene, error) {
	scenes = normalizeScenes(scenes)
	if err := timeline.ValidateScenes(scenes); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceScenes(ctx, projectID, scenes); err != nil {
		return nil, err
	}
	if o, ok := s.opened(projectID); ok {
		o.replace(scenes)
	}
	s.notifier.ScenesChanged(projectID, scenes)
	return scenes, nil
}

// InsertCutaway adds a cutaway to an open project and persists in the
// background.
func (s *Service) InsertCutaway(ctx context.Context, projectID, sceneID string, c timeline.Cutaway) ([]timeline.Scene, error) {
	o, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	next, err := timeline.InsertCutaway(o.scenes, sceneID, c)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.scenes = next
	o.mu.Unlock()

	s.scenesUpdated(projectID, next)
	return next, nil
}

// DeleteCutaway removes a cutaway by index against the current snapshot.
func (s *Service) DeleteCutaway(ctx context.Context, projectID, sceneID string, index int) ([]timeline.Scene, error) {
	o, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	next, err := timeline.DeleteCutaway(o.scenes, sceneID, index)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.scenes = next
	o.mu.Unlock()

	s.scenesUpdated(projectID, next)
	return next, nil
}

// CommitEdit applies a move/resize result through the open project,
// rounding at this boundary.
func (s *Service) CommitEdit(ctx context.Context, projectID, sceneID string, index int, p timeline.Proposal) ([]timeline.Scene, error) {
	o, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := o.ApplyEdit(sceneID, index, p.Rounded()); err != nil {
		return nil, err
	}
	return o.Scenes(), nil
}

// Session returns the drag session for pointer event routing, opening the
// project as needed.
func (s *Service) Session(ctx context.Context, projectID string) (*editor.Session, error) {
	o, err := s.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return o.Session(), nil
}

// PlayheadState answers "what plays at absolute time t".
type PlayheadState struct {
	Absolute     float64 `json:"absolute"`
	Active       bool    `json:"active"`
	SceneID      string  `json:"scene_id,omitempty"`
	SceneIndex   int     `json:"scene_index"`
	Relative     float64 `json:"relative"`
	CutawayIndex int     `json:"cutaway_index"`
	AssetRef     string  `json:"asset_ref,omitempty"`
}

// At maps an absolute time to the owning scene and active cutaway. A time
// outside the timeline yields Active=false, which is a normal result.
func (s *Service) At(ctx context.Context, projectID string, t float64) (PlayheadState, error) {
	scenes, err := s.Scenes(ctx, projectID)
	if err != nil {
		return PlayheadState{}, err
	}

	state := PlayheadState{Absolute: t, SceneIndex: -1, CutawayIndex: -1}
	hit, ok := timeline.SceneAt(scenes, t)
	if !ok {
		return state, nil
	}
	state.Active = true
	state.SceneID = hit.Scene.ID
	state.SceneIndex = hit.SceneIndex
	state.Relative = hit.RelativeTime
	if idx, ok := timeline.ActiveCutaway(hit.Scene, hit.RelativeTime); ok {
		state.CutawayIndex = idx
		state.AssetRef = hit.Scene.Cutaways[idx].AssetRef
	}
	return state, nil
}

// Blocks returns the flattened absolute-time view plus the total duration.
func (s *Service) Blocks(ctx context.Context, projectID string) ([]timeline.Block, float64, error) {
	scenes, err := s.Scenes(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	return timeline.Flatten(scenes), timeline.Round(timeline.TotalDuration(scenes)), nil
}

// StockPick identifies a stock search result chosen for download.
type StockPick struct {
	URL      string
	Keyword  string
	Width    int
	Height   int
	Duration float64
}

// InsertTarget optionally places a finished asset on the timeline. An
// empty SceneID means download only.
type InsertTarget struct {
	SceneID   string
	StartTime float64
	Duration  float64
}

// AddStockCutaway registers a pending stock asset and queues its download.
func (s *Service) AddStockCutaway(ctx context.Context, projectID string, pick StockPick, target InsertTarget) (*Asset, *Job, error) {
	if pick.URL == "" {
		return nil, nil, fmt.Errorf("stock pick URL required")
	}

	asset := &Asset{
		ID:        NewID(),
		ProjectID: projectID,
		Kind:      AssetKindStock,
		SourceURL: pick.URL,
		Keyword:   pick.Keyword,
		Width:     pick.Width,
		Height:    pick.Height,
		Duration:  pick.Duration,
		Status:    AssetStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, nil, err
	}

	job, err := s.enqueue(ctx, projectID, JobTypeDownload, DownloadPayload{
		AssetID:   asset.ID,
		URL:       pick.URL,
		SceneID:   target.SceneID,
		StartTime: target.StartTime,
		Duration:  target.Duration,
	})
	if err != nil {
		return nil, nil, err
	}
	return asset, job, nil
}

// GenerateCutaway registers a pending generated asset and queues the
// generation call.
func (s *Service) GenerateCutaway(ctx context.Context, projectID, prompt, kind string, target InsertTarget) (*Asset, *Job, error) {
	if prompt == "" {
		return nil, nil, fmt.Errorf("prompt required")
	}
	if kind != GenerateKindImage && kind != GenerateKindClip {
		return nil, nil, fmt.Errorf("unknown generate kind %q", kind)
	}

	asset := &Asset{
		ID:        NewID(),
		ProjectID: projectID,
		Kind:      AssetKindGenerated,
		Keyword:   prompt,
		Status:    AssetStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, nil, err
	}

	job, err := s.enqueue(ctx, projectID, JobTypeGenerate, GeneratePayload{
		AssetID:   asset.ID,
		Prompt:    prompt,
		Kind:      kind,
		SceneID:   target.SceneID,
		StartTime: target.StartTime,
		Duration:  target.Duration,
	})
	if err != nil {
		return nil, nil, err
	}
	return asset, job, nil
}

// RequestRender queues an export job.
func (s *Service) RequestRender(ctx context.Context, projectID string, p RenderPayload) (*Job, error) {
	if p.Format != RenderFormatEDL && p.Format != RenderFormatMP4 {
		return nil, fmt.Errorf("unknown render format %q", p.Format)
	}
	return s.enqueue(ctx, projectID, JobTypeRender, p)
}

func (s *Service) enqueue(ctx context.Context, projectID, jobType string, payload any) (*Job, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		ProjectID: projectID,
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("job queued", "job_id", job.ID, "type", jobType, "project_id", projectID)
	}
	return job, nil
}

func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) Jobs(ctx context.Context, projectID string) ([]*Job, error) {
	return s.repo.ListJobsByProject(ctx, projectID)
}

func (s *Service) Assets(ctx context.Context, projectID string) ([]*Asset, error) {
	return s.repo.ListAssetsByProject(ctx, projectID)
}

func (s *Service) Asset(ctx context.Context, id string) (*Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

func normalizeScenes(scenes []timeline.Scene) []timeline.Scene {
	if scenes == nil {
		return []timeline.Scene{}
	}
	out := make([]timeline.Scene, len(scenes))
	copy(out, scenes)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = NewID()
		}
		if out[i].Cutaways == nil {
			out[i].Cutaways = []timeline.Cutaway{}
		}
	}
	return out
}
