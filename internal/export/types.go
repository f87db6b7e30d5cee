package export

import "math"

// ResolvedClip is one event on the flattened single-track cut: a narration
// segment or a cutaway overlay window, in record order. Start/End are
// source times; an empty MediaPath marks an asset that could not be
// resolved to a local file.
type ResolvedClip struct {
	ClipName  string
	MediaPath string
	SceneID   string
	StartMs   int
	EndMs     int
	// Rate is the source playback speed. 1.0 plays realtime; 2.0 consumes
	// two source seconds per record second.
	Rate float64
}

func (c ResolvedClip) rate() float64 {
	if c.Rate <= 0 {
		return 1.0
	}
	return c.Rate
}

// RecordMs is the event's length on the record timeline.
func (c ResolvedClip) RecordMs() int {
	return int(math.Round(float64(c.EndMs-c.StartMs) / c.rate()))
}

// CutList is a project's flattened playback sequence plus the asset refs
// that had no local file at build time.
type CutList struct {
	Clips      []ResolvedClip
	Unresolved []string
}
