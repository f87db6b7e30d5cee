package timeline

import (
	"fmt"
	"sort"
)

// Proposal is a candidate (start, duration) pair produced while a drag is in
// flight. Values are unrounded; Round is applied at the commit boundary.
type Proposal struct {
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// Rounded returns the proposal snapped to 0.1s for display or commit.
func (p Proposal) Rounded() Proposal {
	return Proposal{StartTime: Round(p.StartTime), Duration: Round(p.Duration)}
}

// ProposeMove shifts the cutaway by delta seconds, keeping the duration and
// clamping the start into [0, sceneDuration-duration]. When the scene is
// shorter than the cutaway the clamp range collapses to [0, 0].
func ProposeMove(c Cutaway, sceneDuration, delta float64) Proposal {
	start := clamp(c.StartTime+delta, 0, sceneDuration-c.Duration)
	return Proposal{StartTime: start, Duration: c.Duration}
}

// ProposeResizeLeft moves the left edge by delta seconds. The right edge
// (start+duration) is invariant under this operation: delta is clamped to
// [-start, duration-MinCutawayDuration] and applied to both fields.
func ProposeResizeLeft(c Cutaway, sceneDuration, delta float64) Proposal {
	d := clamp(delta, -c.StartTime, c.Duration-MinCutawayDuration)
	return Proposal{StartTime: c.StartTime + d, Duration: c.Duration - d}
}

// ProposeResizeRight grows or shrinks the duration by delta seconds. The
// start is invariant; the duration is clamped to
// [MinCutawayDuration, sceneDuration-start].
func ProposeResizeRight(c Cutaway, sceneDuration, delta float64) Proposal {
	d := clamp(c.Duration+delta, MinCutawayDuration, sceneDuration-c.StartTime)
	return Proposal{StartTime: c.StartTime, Duration: d}
}

// ApplyEdit returns a new scene slice with the targeted cutaway's start and
// duration replaced. The input slice is never mutated. A derived scene
// duration recomputes automatically; under a pinned duration an edit that
// would land outside [0, duration] fails with ErrInvalidRange and the
// snapshot is unchanged.
func ApplyEdit(scenes []Scene, sceneID string, index int, p Proposal) ([]Scene, error) {
	si, err := findScene(scenes, sceneID)
	if err != nil {
		return nil, err
	}
	s := scenes[si]
	if index < 0 || index >= len(s.Cutaways) {
		return nil, fmt.Errorf("cutaway %d in scene %q: %w", index, sceneID, ErrNotFound)
	}
	if err := validateWindow(s, p.StartTime, p.Duration); err != nil {
		return nil, err
	}

	next := make([]Scene, len(scenes))
	copy(next, scenes)
	cutaways := make([]Cutaway, len(s.Cutaways))
	copy(cutaways, s.Cutaways)
	cutaways[index].StartTime = p.StartTime
	cutaways[index].Duration = p.Duration
	next[si].Cutaways = cutaways
	return next, nil
}

// InsertCutaway appends a cutaway to the named scene and re-sorts that
// scene's cutaways by start time ascending (stable: equal starts keep
// insertion order). A derived scene duration expands to fit; a pinned one
// rejects an out-of-bounds insert with ErrInvalidRange.
func InsertCutaway(scenes []Scene, sceneID string, c Cutaway) ([]Scene, error) {
	si, err := findScene(scenes, sceneID)
	if err != nil {
		return nil, err
	}
	s := scenes[si]
	if err := validateWindow(s, c.StartTime, c.Duration); err != nil {
		return nil, err
	}
	if c.PlaybackRate <= 0 {
		c.PlaybackRate = 1.0
	}

	next := make([]Scene, len(scenes))
	copy(next, scenes)
	cutaways := make([]Cutaway, len(s.Cutaways), len(s.Cutaways)+1)
	copy(cutaways, s.Cutaways)
	cutaways = append(cutaways, c)
	sort.SliceStable(cutaways, func(i, j int) bool {
		return cutaways[i].StartTime < cutaways[j].StartTime
	})
	next[si].Cutaways = cutaways
	return next, nil
}

// DeleteCutaway removes the cutaway at index from the named scene. Deletion
// is by position, so it must be applied against a single current snapshot;
// a stale index fails with ErrNotFound.
func DeleteCutaway(scenes []Scene, sceneID string, index int) ([]Scene, error) {
	si, err := findScene(scenes, sceneID)
	if err != nil {
		return nil, err
	}
	s := scenes[si]
	if index < 0 || index >= len(s.Cutaways) {
		return nil, fmt.Errorf("cutaway %d in scene %q: %w", index, sceneID, ErrNotFound)
	}

	next := make([]Scene, len(scenes))
	copy(next, scenes)
	cutaways := make([]Cutaway, 0, len(s.Cutaways)-1)
	cutaways = append(cutaways, s.Cutaways[:index]...)
	cutaways = append(cutaways, s.Cutaways[index+1:]...)
	next[si].Cutaways = cutaways
	return next, nil
}

// ValidateScenes checks a full scene list: unique non-empty scene IDs,
// non-negative pinned durations, and every cutaway window inside its
// scene's bounds.
func ValidateScenes(scenes []Scene) error {
	seen := make(map[string]bool, len(scenes))
	for _, s := range scenes {
		if s.ID == "" {
			return fmt.Errorf("scene %q has no id", s.Title)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate scene id %q", s.ID)
		}
		seen[s.ID] = true
		if s.PinnedDuration < 0 {
			return fmt.Errorf("scene %q pinned duration %.3f: %w", s.ID, s.PinnedDuration, ErrInvalidRange)
		}
		for i, c := range s.Cutaways {
			if err := validateWindow(s, c.StartTime, c.Duration); err != nil {
				return fmt.Errorf("scene %q cutaway %d: %w", s.ID, i, err)
			}
		}
	}
	return nil
}

func validateWindow(s Scene, start, duration float64) error {
	if start < 0 {
		return fmt.Errorf("start %.3f before scene start: %w", start, ErrInvalidRange)
	}
	if duration < MinCutawayDuration {
		return fmt.Errorf("duration %.3f below minimum %.1f: %w", duration, MinCutawayDuration, ErrInvalidRange)
	}
	if s.Pinned() && start+duration > s.PinnedDuration {
		return fmt.Errorf("window [%.3f, %.3f) past scene end %.3f: %w", start, start+duration, s.PinnedDuration, ErrInvalidRange)
	}
	return nil
}
