package editor

import (
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

const (
	// HandleWidthPx is the grab strip at each end of a cutaway bar.
	HandleWidthPx = 10.0

	// ClickThresholdPx separates a click from a drag: net pointer movement
	// below this is a click.
	ClickThresholdPx = 3.0
)

// Geometry maps between pixels on the timeline strip and seconds. The strip
// shows VisibleDuration seconds starting at VisibleStart, so a zoomed or
// scrolled view only changes these two numbers.
type Geometry struct {
	TimelineWidthPx float64 `json:"timeline_width_px"`
	VisibleStart    float64 `json:"visible_start"`
	VisibleDuration float64 `json:"visible_duration"`
}

// DeltaTime converts a pixel delta to seconds at the current scale.
func (g Geometry) DeltaTime(deltaPx float64) float64 {
	if g.TimelineWidthPx <= 0 {
		return 0
	}
	return deltaPx / g.TimelineWidthPx * g.VisibleDuration
}

// TimeAt converts an x position to absolute seconds.
func (g Geometry) TimeAt(x float64) float64 {
	return g.VisibleStart + g.DeltaTime(x)
}

// XAt converts absolute seconds to an x position.
func (g Geometry) XAt(t float64) float64 {
	if g.VisibleDuration <= 0 {
		return 0
	}
	return (t - g.VisibleStart) / g.VisibleDuration * g.TimelineWidthPx
}

// Region classifies what part of the timeline a pointer position lands on.
type Region int

const (
	RegionTrack Region = iota
	RegionBody
	RegionLeftHandle
	RegionRightHandle
)

func (r Region) String() string {
	switch r {
	case RegionBody:
		return "body"
	case RegionLeftHandle:
		return "left_handle"
	case RegionRightHandle:
		return "right_handle"
	default:
		return "track"
	}
}

// Hit identifies the cutaway (if any) under a pointer position.
type Hit struct {
	Region  Region
	SceneID string
	Index   int
}

// HitTest resolves an x position against the cutaway bars. Bars are checked
// in scene order then stored cutaway order, so overlapping bars resolve to
// the lower index, matching ActiveCutaway. Within a bar the outer
// HandleWidthPx strips select the resize handles and the interior selects
// move; the handle wins at the exact seam. Anything that misses every bar
// is the empty track.
func HitTest(scenes []timeline.Scene, g Geometry, x float64) Hit {
	var offset float64
	for _, s := range scenes {
		d := s.Duration()
		for i, c := range s.Cutaways {
			left := g.XAt(offset + c.StartTime)
			right := g.XAt(offset + c.End())
			if x < left || x > right {
				continue
			}
			h := Hit{SceneID: s.ID, Index: i}
			switch {
			case x <= left+HandleWidthPx:
				h.Region = RegionLeftHandle
			case x >= right-HandleWidthPx:
				h.Region = RegionRightHandle
			default:
				h.Region = RegionBody
			}
			return h
		}
		offset += d
	}
	return Hit{Region: RegionTrack}
}
