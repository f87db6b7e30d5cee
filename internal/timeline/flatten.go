package timeline

// Overlay is a cutaway placed on the absolute project timeline.
type Overlay struct {
	SceneID       string  `json:"scene_id"`
	Index         int     `json:"index"`
	AssetRef      string  `json:"asset_ref"`
	AbsoluteStart float64 `json:"absolute_start"`
	Duration      float64 `json:"duration"`
	TrimStart     float64 `json:"trim_start,omitempty"`
	PlaybackRate  float64 `json:"playback_rate,omitempty"`
	Style         string  `json:"style,omitempty"`
}

// Block is one scene's window on the absolute timeline together with its
// overlays.
type Block struct {
	SceneID       string    `json:"scene_id"`
	Title         string    `json:"title"`
	AbsoluteStart float64   `json:"absolute_start"`
	Duration      float64   `json:"duration"`
	Overlays      []Overlay `json:"overlays"`
}

// Flatten projects the scene sequence onto the absolute timeline: one block
// per scene, each carrying its overlays at absolute offsets. Consumers
// (renderers, exporters) read this instead of summing durations themselves
// so the arithmetic lives in one place. Times are rounded to the display
// granularity.
func Flatten(scenes []Scene) []Block {
	blocks := make([]Block, 0, len(scenes))
	var offset float64
	for _, s := range scenes {
		d := s.Duration()
		b := Block{
			SceneID:       s.ID,
			Title:         s.Title,
			AbsoluteStart: Round(offset),
			Duration:      Round(d),
			Overlays:      make([]Overlay, 0, len(s.Cutaways)),
		}
		for i, c := range s.Cutaways {
			b.Overlays = append(b.Overlays, Overlay{
				SceneID:       s.ID,
				Index:         i,
				AssetRef:      c.AssetRef,
				AbsoluteStart: Round(offset + c.StartTime),
				Duration:      Round(c.Duration),
				TrimStart:     c.TrimStart,
				PlaybackRate:  c.Rate(),
				Style:         c.Style,
			})
		}
		blocks = append(blocks, b)
		offset += d
	}
	return blocks
}
