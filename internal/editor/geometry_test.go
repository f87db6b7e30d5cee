package editor

import (
	"math"
	"testing"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// 1000px across 100s: 10px per second.
func testGeo() Geometry {
	return Geometry{TimelineWidthPx: 1000, VisibleDuration: 100}
}

func TestGeometryDeltaTime(t *testing.T) {
	g := testGeo()

	tests := []struct {
		deltaPx float64
		want    float64
	}{
		{0, 0},
		{10, 1.0},
		{-10, -1.0},
		{1000, 100.0},
		{5, 0.5},
	}
	for _, tt := range tests {
		if got := g.DeltaTime(tt.deltaPx); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DeltaTime(%v) = %v, want %v", tt.deltaPx, got, tt.want)
		}
	}

	zero := Geometry{TimelineWidthPx: 0, VisibleDuration: 100}
	if got := zero.DeltaTime(50); got != 0 {
		t.Errorf("DeltaTime with zero width = %v, want 0", got)
	}
}

func TestGeometryTimeAtXAtRoundTrip(t *testing.T) {
	g := Geometry{TimelineWidthPx: 800, VisibleStart: 30, VisibleDuration: 60}

	for _, x := range []float64{0, 100, 400, 799} {
		tm := g.TimeAt(x)
		if got := g.XAt(tm); math.Abs(got-x) > 1e-9 {
			t.Errorf("XAt(TimeAt(%v)) = %v, want %v", x, got, x)
		}
	}
	if got := g.TimeAt(0); got != 30 {
		t.Errorf("TimeAt(0) = %v, want visible start 30", got)
	}
}

func TestHitTest(t *testing.T) {
	// One pinned 100s scene, cutaway [20s, 50s) -> bar [200px, 500px].
	scenes := []timeline.Scene{{
		ID:             "s1",
		PinnedDuration: 100,
		Cutaways:       []timeline.Cutaway{{AssetRef: "a", StartTime: 20, Duration: 30}},
	}}
	g := testGeo()

	tests := []struct {
		name       string
		x          float64
		wantRegion Region
		wantIndex  int
	}{
		{"empty track before bar", 100, RegionTrack, 0},
		{"empty track after bar", 600, RegionTrack, 0},
		{"left edge", 200, RegionLeftHandle, 0},
		{"inside left handle", 205, RegionLeftHandle, 0},
		{"left handle seam goes to handle", 210, RegionLeftHandle, 0},
		{"body", 300, RegionBody, 0},
		{"right handle seam goes to handle", 490, RegionRightHandle, 0},
		{"inside right handle", 495, RegionRightHandle, 0},
		{"right edge", 500, RegionRightHandle, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := HitTest(scenes, g, tt.x)
			if hit.Region != tt.wantRegion {
				t.Errorf("HitTest(%v) region = %v, want %v", tt.x, hit.Region, tt.wantRegion)
			}
			if hit.Region != RegionTrack && (hit.SceneID != "s1" || hit.Index != tt.wantIndex) {
				t.Errorf("HitTest(%v) = %s[%d], want s1[%d]", tt.x, hit.SceneID, hit.Index, tt.wantIndex)
			}
		})
	}
}

func TestHitTestNarrowBarPrefersLeftHandle(t *testing.T) {
	// 1.5s cutaway -> 15px bar; the handle strips overlap in the middle.
	scenes := []timeline.Scene{{
		ID:             "s1",
		PinnedDuration: 100,
		Cutaways:       []timeline.Cutaway{{AssetRef: "a", StartTime: 20, Duration: 1.5}},
	}}

	hit := HitTest(scenes, testGeo(), 207)
	if hit.Region != RegionLeftHandle {
		t.Errorf("overlapping handles at x=207 = %v, want left handle", hit.Region)
	}
	hit = HitTest(scenes, testGeo(), 212)
	if hit.Region != RegionRightHandle {
		t.Errorf("x=212 = %v, want right handle", hit.Region)
	}
}

func TestHitTestOverlapLowerIndexWins(t *testing.T) {
	scenes := []timeline.Scene{{
		ID:             "s1",
		PinnedDuration: 100,
		Cutaways: []timeline.Cutaway{
			{AssetRef: "a", StartTime: 20, Duration: 30}, // bar [200, 500]
			{AssetRef: "b", StartTime: 40, Duration: 30}, // bar [400, 700]
		},
	}}

	hit := HitTest(scenes, testGeo(), 450)
	if hit.Index != 0 || hit.Region != RegionBody {
		t.Errorf("HitTest(450) = %s[%d] %v, want s1[0] body", hit.SceneID, hit.Index, hit.Region)
	}
	hit = HitTest(scenes, testGeo(), 550)
	if hit.Index != 1 {
		t.Errorf("HitTest(550) index = %d, want 1", hit.Index)
	}
}

func TestHitTestSecondScene(t *testing.T) {
	scenes := []timeline.Scene{
		{ID: "s1", PinnedDuration: 40},
		{ID: "s2", PinnedDuration: 60, Cutaways: []timeline.Cutaway{{AssetRef: "a", StartTime: 10, Duration: 20}}},
	}

	// Absolute window [50s, 70s) -> bar [500px, 700px].
	hit := HitTest(scenes, testGeo(), 600)
	if hit.SceneID != "s2" || hit.Index != 0 || hit.Region != RegionBody {
		t.Errorf("HitTest(600) = %s[%d] %v, want s2[0] body", hit.SceneID, hit.Index, hit.Region)
	}
}
