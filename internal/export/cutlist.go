package export

import (
	"math"
	"sort"
	"strings"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// minSegment drops slivers below a millisecond so duplicate cut points
// never become events.
const minSegment = 0.001

// Resolver maps an asset ref to a local media path.
type Resolver func(ref string) (string, bool)

// BuildCutList flattens scenes into a single-track event sequence. Each
// instant belongs to the first cutaway covering it, or to the narration
// track; narration source time equals absolute project time.
func BuildCutList(scenes []timeline.Scene, narrationPath string, resolve Resolver) CutList {
	var list CutList
	reported := make(map[string]bool)

	var offset float64
	for _, s := range scenes {
		for _, seg := range segmentScene(s) {
			length := seg.end - seg.start

			if seg.cutaway < 0 {
				list.Clips = append(list.Clips, ResolvedClip{
					ClipName:  narrationName(s),
					MediaPath: narrationPath,
					SceneID:   s.ID,
					StartMs:   toMs(offset + seg.start),
					EndMs:     toMs(offset + seg.end),
					Rate:      1.0,
				})
				continue
			}

			c := s.Cutaways[seg.cutaway]
			path, ok := resolve(c.AssetRef)
			if !ok && !reported[c.AssetRef] {
				reported[c.AssetRef] = true
				list.Unresolved = append(list.Unresolved, c.AssetRef)
			}

			srcIn := c.TrimStart + (seg.start-c.StartTime)*c.Rate()
			list.Clips = append(list.Clips, ResolvedClip{
				ClipName:  c.AssetRef,
				MediaPath: path,
				SceneID:   s.ID,
				StartMs:   toMs(srcIn),
				EndMs:     toMs(srcIn + length*c.Rate()),
				Rate:      c.Rate(),
			})
		}
		offset += s.Duration()
	}
	return list
}

type segment struct {
	start, end float64
	// cutaway indexes into the scene's cutaways; -1 means narration.
	cutaway int
}

// segmentScene slices a scene at every cutaway boundary and assigns each
// slice an owner. Sampling the midpoint against ActiveCutaway keeps the
// first-index-wins rule in one place; adjacent slices with the same owner
// merge back, so a later cutaway's edge inside an earlier one's window
// never splits the earlier event.
func segmentScene(s timeline.Scene) []segment {
	d := s.Duration()
	cuts := []float64{0, d}
	for _, c := range s.Cutaways {
		for _, t := range []float64{c.StartTime, c.End()} {
			if t > 0 && t < d {
				cuts = append(cuts, t)
			}
		}
	}
	sort.Float64s(cuts)

	var segs []segment
	for i := 0; i+1 < len(cuts); i++ {
		a, b := cuts[i], cuts[i+1]
		if b-a < minSegment {
			continue
		}

		owner := -1
		if idx, ok := timeline.ActiveCutaway(s, (a+b)/2); ok {
			owner = idx
		}

		if n := len(segs); n > 0 && segs[n-1].cutaway == owner && segs[n-1].end == a {
			segs[n-1].end = b
			continue
		}
		segs = append(segs, segment{start: a, end: b, cutaway: owner})
	}
	return segs
}

func narrationName(s timeline.Scene) string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	return "Narration"
}

func toMs(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
