package timeline

import (
	"errors"
	"math"
	"testing"
)

func testScenes() []Scene {
	return []Scene{
		{
			ID:             "s1",
			Title:          "Hook",
			PinnedDuration: 10.0,
			Cutaways: []Cutaway{
				{AssetRef: "a1", StartTime: 2.0, Duration: 3.0},
			},
		},
		{
			ID:             "s2",
			Title:          "Body",
			PinnedDuration: 15.0,
			Cutaways: []Cutaway{
				{AssetRef: "a2", StartTime: 5.0, Duration: 3.0},
				{AssetRef: "a3", StartTime: 6.0, Duration: 4.0},
			},
		},
		{
			ID:    "s3",
			Title: "Outro",
			Cutaways: []Cutaway{
				{AssetRef: "a4", StartTime: 1.0, Duration: 2.0},
			},
		},
	}
}

func TestSceneDuration(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		want  float64
	}{
		{"pinned wins", Scene{PinnedDuration: 12.0, Cutaways: []Cutaway{{StartTime: 10.0, Duration: 8.0}}}, 12.0},
		{"derived floor with no cutaways", Scene{}, DefaultSceneDuration},
		{"derived floor with short cutaways", Scene{Cutaways: []Cutaway{{StartTime: 1.0, Duration: 2.0}}}, DefaultSceneDuration},
		{"derived from furthest end", Scene{Cutaways: []Cutaway{{StartTime: 1.0, Duration: 2.0}, {StartTime: 4.0, Duration: 3.5}}}, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scene.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	// 10 + 15 + derived floor 5
	if got := TotalDuration(testScenes()); got != 30.0 {
		t.Errorf("TotalDuration() = %v, want 30.0", got)
	}
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v, want 0", got)
	}
}

func TestAbsoluteStart(t *testing.T) {
	scenes := testScenes()

	tests := []struct {
		name    string
		sceneID string
		index   int
		want    float64
		wantErr bool
	}{
		{"first scene", "s1", 0, 2.0, false},
		{"second scene offsets prior durations", "s2", 0, 15.0, false},
		{"second cutaway", "s2", 1, 16.0, false},
		{"derived scene offset", "s3", 0, 26.0, false},
		{"unknown scene", "sX", 0, 0, true},
		{"index out of range", "s1", 1, 0, true},
		{"negative index", "s1", -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AbsoluteStart(scenes, tt.sceneID, tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("AbsoluteStart() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AbsoluteStart() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AbsoluteStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSceneAt(t *testing.T) {
	scenes := testScenes()

	tests := []struct {
		name      string
		t         float64
		wantID    string
		wantIndex int
		wantRel   float64
		wantOK    bool
	}{
		{"start of timeline", 0.0, "s1", 0, 0.0, true},
		{"inside first scene", 9.999, "s1", 0, 9.999, true},
		{"boundary belongs to next scene", 10.0, "s2", 1, 0.0, true},
		{"inside second scene", 20.0, "s2", 1, 10.0, true},
		{"inside third scene", 26.5, "s3", 2, 1.5, true},
		{"total duration is outside", 30.0, "", 0, 0, false},
		{"past the end", 99.0, "", 0, 0, false},
		{"negative time", -0.1, "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := SceneAt(scenes, tt.t)
			if ok != tt.wantOK {
				t.Fatalf("SceneAt(%v) ok = %v, want %v", tt.t, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if hit.Scene.ID != tt.wantID || hit.SceneIndex != tt.wantIndex {
				t.Errorf("SceneAt(%v) = scene %s index %d, want %s index %d", tt.t, hit.Scene.ID, hit.SceneIndex, tt.wantID, tt.wantIndex)
			}
			if math.Abs(hit.RelativeTime-tt.wantRel) > 1e-9 {
				t.Errorf("SceneAt(%v) relative = %v, want %v", tt.t, hit.RelativeTime, tt.wantRel)
			}
		})
	}
}

func TestSceneAtRoundTripsAbsoluteStart(t *testing.T) {
	scenes := testScenes()

	for _, s := range scenes {
		for i := range s.Cutaways {
			abs, err := AbsoluteStart(scenes, s.ID, i)
			if err != nil {
				t.Fatalf("AbsoluteStart(%s, %d): %v", s.ID, i, err)
			}
			hit, ok := SceneAt(scenes, abs)
			if !ok {
				t.Fatalf("SceneAt(%v) missed for %s[%d]", abs, s.ID, i)
			}
			if hit.Scene.ID != s.ID {
				t.Errorf("SceneAt(AbsoluteStart(%s, %d)) = %s, want %s", s.ID, i, hit.Scene.ID, s.ID)
			}
		}
	}
}

func TestActiveCutaway(t *testing.T) {
	scene := Scene{
		ID:             "s",
		PinnedDuration: 20.0,
		Cutaways: []Cutaway{
			{AssetRef: "a", StartTime: 2.0, Duration: 4.0},  // [2, 6)
			{AssetRef: "b", StartTime: 5.0, Duration: 4.0},  // [5, 9) overlaps a
			{AssetRef: "c", StartTime: 12.0, Duration: 2.0}, // [12, 14)
		},
	}

	tests := []struct {
		name      string
		rel       float64
		wantIndex int
		wantOK    bool
	}{
		{"before any", 1.0, 0, false},
		{"first alone", 3.0, 0, true},
		{"overlap goes to lower index", 5.5, 0, true},
		{"second after first ends", 6.0, 1, true},
		{"half-open end excluded", 9.0, 0, false},
		{"gap", 10.0, 0, false},
		{"third", 12.0, 2, true},
		{"exact start inclusive", 2.0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ActiveCutaway(scene, tt.rel)
			if ok != tt.wantOK {
				t.Fatalf("ActiveCutaway(%v) ok = %v, want %v", tt.rel, ok, tt.wantOK)
			}
			if ok && got != tt.wantIndex {
				t.Errorf("ActiveCutaway(%v) = %d, want %d", tt.rel, got, tt.wantIndex)
			}
		})
	}
}

func TestActiveCutawayTieBreakStable(t *testing.T) {
	scene := Scene{
		ID:             "s",
		PinnedDuration: 10.0,
		Cutaways: []Cutaway{
			{AssetRef: "a", StartTime: 1.0, Duration: 5.0},
			{AssetRef: "b", StartTime: 1.0, Duration: 5.0},
		},
	}

	// Identical windows: every query in the overlap returns index 0, every time.
	for i := 0; i < 50; i++ {
		for _, rel := range []float64{1.0, 2.5, 5.999} {
			got, ok := ActiveCutaway(scene, rel)
			if !ok || got != 0 {
				t.Fatalf("ActiveCutaway(%v) = %d ok=%v, want 0 true", rel, got, ok)
			}
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.0, 0.0},
		{1.04, 1.0},
		{1.05, 1.1},
		{1.999, 2.0},
		{-0.24, -0.2},
		{12.34999, 12.3},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
