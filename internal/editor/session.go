package editor

import (
	"sync"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// Mode is the edit a drag gesture performs.
type Mode int

const (
	ModeNone Mode = iota
	ModeMove
	ModeResizeLeft
	ModeResizeRight
)

func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeResizeLeft:
		return "resize_left"
	case ModeResizeRight:
		return "resize_right"
	default:
		return "none"
	}
}

func modeFor(r Region) Mode {
	switch r {
	case RegionBody:
		return ModeMove
	case RegionLeftHandle:
		return ModeResizeLeft
	case RegionRightHandle:
		return ModeResizeRight
	default:
		return ModeNone
	}
}

// Model is the authoritative scene state a session edits against. ApplyEdit
// must re-resolve the target against the current snapshot and leave the
// model unchanged on failure.
type Model interface {
	Scenes() []timeline.Scene
	ApplyEdit(sceneID string, index int, p timeline.Proposal) error
}

type ResultKind int

const (
	// ResultNone: the gesture ended without an edit, a seek, or an insert.
	ResultNone ResultKind = iota
	// ResultSeek: a click on a cutaway body; seek playback to SeekTo.
	ResultSeek
	// ResultInsert: a click on empty track; open the insert flow.
	ResultInsert
	// ResultCommitted: a drag was applied to the model.
	ResultCommitted
)

// Result is what a finished gesture asks the caller to do.
type Result struct {
	Kind ResultKind

	// SeekTo is the absolute time to seek to (ResultSeek).
	SeekTo float64

	// InsertSceneID and InsertAt locate the insert flow (ResultInsert).
	// InsertAt is scene-relative and rounded.
	InsertSceneID string
	InsertAt      float64

	// SceneID, Index and Applied describe the committed edit
	// (ResultCommitted).
	SceneID string
	Index   int
	Applied timeline.Proposal
}

// Preview is the uncommitted proposal a renderer paints during a drag,
// rounded for display.
type Preview struct {
	SceneID  string
	Index    int
	Mode     Mode
	Proposal timeline.Proposal
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateDragging
)

// Session turns a pointer event stream into at most one committed edit per
// gesture. Exactly one gesture is live at a time: a pointer-down while
// dragging is ignored until the current gesture resolves. Nothing reaches
// the model before pointer-up, so a cancel at any point has no side
// effects. All methods are safe for concurrent use; the preview has one
// writer and any number of readers.
type Session struct {
	model Model

	mu       sync.Mutex
	geo      Geometry
	state    sessionState
	mode     Mode
	target   Hit
	originX  float64
	moved    bool
	original timeline.Cutaway
	sceneDur float64
	preview  *timeline.Proposal
}

func NewSession(model Model, geo Geometry) *Session {
	return &Session{model: model, geo: geo}
}

// SetGeometry updates the pixel mapping after a viewport resize or zoom.
// Ignored mid-drag so a gesture's delta math stays consistent.
func (s *Session) SetGeometry(geo Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateDragging {
		return
	}
	s.geo = geo
}

// Dragging reports whether an edit drag is live. A press on empty track
// keeps a gesture open for the click-to-insert path but drags nothing.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateDragging && s.mode != ModeNone
}

// PointerDown starts a gesture at x. The affected cutaway's start and
// duration are captured from the model at this instant; moves propose
// against these originals, never against intermediate previews. Returns
// false when a gesture is already live.
func (s *Session) PointerDown(x float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDragging {
		return false
	}

	scenes := s.model.Scenes()
	hit := HitTest(scenes, s.geo, x)

	s.state = stateDragging
	s.target = hit
	s.mode = modeFor(hit.Region)
	s.originX = x
	s.moved = false
	s.preview = nil

	if s.mode != ModeNone {
		if ok := s.capture(scenes, hit); !ok {
			s.mode = ModeNone
			s.target = Hit{Region: RegionTrack}
		}
	}
	return true
}

func (s *Session) capture(scenes []timeline.Scene, hit Hit) bool {
	for _, sc := range scenes {
		if sc.ID != hit.SceneID {
			continue
		}
		if hit.Index < 0 || hit.Index >= len(sc.Cutaways) {
			return false
		}
		s.original = sc.Cutaways[hit.Index]
		s.sceneDur = sc.Duration()
		return true
	}
	return false
}

// PointerMove recomputes the live preview from the gesture's original
// values and the total pixel delta. Last write wins: stale intermediate
// positions are discarded, never queued. Positions outside the timeline
// element still land here so the gesture stays responsive at the edges.
func (s *Session) PointerMove(x float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateDragging {
		return
	}
	if abs(x-s.originX) >= ClickThresholdPx {
		s.moved = true
	}
	if s.mode == ModeNone {
		return
	}
	p := s.propose(x)
	s.preview = &p
}

func (s *Session) propose(x float64) timeline.Proposal {
	delta := s.geo.DeltaTime(x - s.originX)
	switch s.mode {
	case ModeResizeLeft:
		return timeline.ProposeResizeLeft(s.original, s.sceneDur, delta)
	case ModeResizeRight:
		return timeline.ProposeResizeRight(s.original, s.sceneDur, delta)
	default:
		return timeline.ProposeMove(s.original, s.sceneDur, delta)
	}
}

// PointerUp finishes the gesture. Net movement under ClickThresholdPx is a
// click: on a cutaway body it becomes a seek to the cutaway's absolute
// start, on empty track it opens the insert flow at the clicked time, on a
// handle it does nothing. Anything else commits the proposal at the final
// pointer position, rounded, through the model. On a failed commit the
// model is untouched and the preview is discarded, so the renderer snaps
// the bar back to the model's last good state; the error is returned for
// user-visible feedback, never retried here.
func (s *Session) PointerUp(x float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateDragging {
		return Result{}, nil
	}
	if abs(x-s.originX) >= ClickThresholdPx {
		s.moved = true
	}

	mode, target, moved := s.mode, s.target, s.moved
	var final timeline.Proposal
	if mode != ModeNone {
		final = s.propose(x)
	}
	downX := s.originX
	s.reset()

	if !moved {
		return s.click(target, downX)
	}
	if mode == ModeNone {
		return Result{Kind: ResultNone}, nil
	}

	applied := final.Rounded()
	if err := s.model.ApplyEdit(target.SceneID, target.Index, applied); err != nil {
		return Result{Kind: ResultNone}, err
	}
	return Result{
		Kind:    ResultCommitted,
		SceneID: target.SceneID,
		Index:   target.Index,
		Applied: applied,
	}, nil
}

func (s *Session) click(target Hit, x float64) (Result, error) {
	switch target.Region {
	case RegionBody:
		abs, err := timeline.AbsoluteStart(s.model.Scenes(), target.SceneID, target.Index)
		if err != nil {
			// Target vanished between down and up; nothing to seek to.
			return Result{Kind: ResultNone}, nil
		}
		return Result{Kind: ResultSeek, SeekTo: timeline.Round(abs)}, nil
	case RegionTrack:
		hit, ok := timeline.SceneAt(s.model.Scenes(), s.geo.TimeAt(x))
		if !ok {
			return Result{Kind: ResultNone}, nil
		}
		return Result{
			Kind:          ResultInsert,
			InsertSceneID: hit.Scene.ID,
			InsertAt:      timeline.Round(hit.RelativeTime),
		}, nil
	default:
		return Result{Kind: ResultNone}, nil
	}
}

// Cancel abandons the gesture without touching the model.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = stateIdle
	s.mode = ModeNone
	s.target = Hit{}
	s.moved = false
	s.preview = nil
}

// Preview returns the live proposal for rendering, rounded to display
// granularity. False when no drag is active or nothing has moved yet.
func (s *Session) Preview() (Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateDragging || s.preview == nil || s.mode == ModeNone {
		return Preview{}, false
	}
	return Preview{
		SceneID:  s.target.SceneID,
		Index:    s.target.Index,
		Mode:     s.mode,
		Proposal: s.preview.Rounded(),
	}, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
