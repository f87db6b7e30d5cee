// Package timeline holds the interval model for narration scenes and their
// B-roll cutaway overlays. Everything here is pure: no I/O, no pointer state,
// no clocks. Edits return new slices and never mutate their inputs, so a
// caller can hold the previous snapshot for cancel/rollback.
package timeline

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinCutawayDuration keeps an overlay visible and draggable.
	MinCutawayDuration = 0.5

	// DefaultSceneDuration is the floor for a derived scene duration.
	DefaultSceneDuration = 5.0
)

var (
	// ErrNotFound indicates a scene ID or cutaway index that does not exist
	// in the snapshot being queried. Callers must re-resolve indices against
	// the current snapshot after any mutation instead of caching them.
	ErrNotFound = errors.New("scene or cutaway not found")

	// ErrInvalidRange indicates an insert or edit that would violate the
	// [0, scene duration] bound under a pinned scene duration.
	ErrInvalidRange = errors.New("cutaway outside scene bounds")
)

type Cutaway struct {
	AssetRef     string  `json:"asset_ref"`
	StartTime    float64 `json:"start_time"`
	Duration     float64 `json:"duration"`
	TrimStart    float64 `json:"trim_start,omitempty"`
	PlaybackRate float64 `json:"playback_rate,omitempty"`
	Style        string  `json:"style,omitempty"`
}

// End returns the scene-relative end of the cutaway's half-open window.
func (c Cutaway) End() float64 {
	return c.StartTime + c.Duration
}

// Rate returns the playback rate, treating the zero value as 1.0.
func (c Cutaway) Rate() float64 {
	if c.PlaybackRate <= 0 {
		return 1.0
	}
	return c.PlaybackRate
}

type Scene struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// PinnedDuration is the externally supplied scene length, e.g. from the
	// narration audio track. Zero means the duration is derived from the
	// cutaways instead.
	PinnedDuration float64 `json:"pinned_duration,omitempty"`

	Cutaways []Cutaway `json:"cutaways"`
}

// Duration is the single derivation point for a scene's effective length:
// the pinned value when present, otherwise the furthest cutaway end with
// DefaultSceneDuration as the floor. Every consumer (clamp bounds, renderer
// widths, total-duration sums) must go through here.
func (s Scene) Duration() float64 {
	if s.PinnedDuration > 0 {
		return s.PinnedDuration
	}
	d := DefaultSceneDuration
	for _, c := range s.Cutaways {
		if end := c.End(); end > d {
			d = end
		}
	}
	return d
}

// Pinned reports whether the scene duration is externally supplied.
func (s Scene) Pinned() bool {
	return s.PinnedDuration > 0
}

// TotalDuration sums the effective durations of all scenes.
func TotalDuration(scenes []Scene) float64 {
	var total float64
	for _, s := range scenes {
		total += s.Duration()
	}
	return total
}

// AbsoluteStart computes the project-wide start of a cutaway: the durations
// of all preceding scenes plus the cutaway's scene-relative start. It is
// computed on demand and never stored.
func AbsoluteStart(scenes []Scene, sceneID string, index int) (float64, error) {
	var offset float64
	for _, s := range scenes {
		if s.ID == sceneID {
			if index < 0 || index >= len(s.Cutaways) {
				return 0, fmt.Errorf("cutaway %d in scene %q: %w", index, sceneID, ErrNotFound)
			}
			return offset + s.Cutaways[index].StartTime, nil
		}
		offset += s.Duration()
	}
	return 0, fmt.Errorf("scene %q: %w", sceneID, ErrNotFound)
}

// SceneHit locates an absolute time within the concatenated timeline.
type SceneHit struct {
	Scene      Scene
	SceneIndex int
	// RelativeTime is the offset into the hit scene.
	RelativeTime float64
}

// SceneAt walks cumulative durations and returns the first scene whose
// half-open [start, start+duration) window contains t. A miss (t outside
// [0, total)) is a normal result, not an error.
func SceneAt(scenes []Scene, t float64) (SceneHit, bool) {
	if t < 0 {
		return SceneHit{}, false
	}
	var offset float64
	for i, s := range scenes {
		d := s.Duration()
		if t < offset+d {
			return SceneHit{Scene: s, SceneIndex: i, RelativeTime: t - offset}, true
		}
		offset += d
	}
	return SceneHit{}, false
}

// ActiveCutaway returns the index of the first cutaway (in stored order)
// whose [start, start+duration) window contains the scene-relative time.
// Overlapping cutaways are legal; the earlier index wins the overlap.
func ActiveCutaway(s Scene, rel float64) (int, bool) {
	for i, c := range s.Cutaways {
		if rel >= c.StartTime && rel < c.End() {
			return i, true
		}
	}
	return 0, false
}

// Round snaps a seconds value to 0.1s granularity. Applied once when a
// proposal is displayed or committed; drag arithmetic stays unrounded to
// avoid cumulative snapping error.
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func findScene(scenes []Scene, sceneID string) (int, error) {
	for i, s := range scenes {
		if s.ID == sceneID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("scene %q: %w", sceneID, ErrNotFound)
}
