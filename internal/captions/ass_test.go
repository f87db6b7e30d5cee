package captions

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{3.5, "0:00:03.50"},
		{65.25, "0:01:05.25"},
		{125.75, "0:02:05.75"},
		{3600, "1:00:00.00"},
	}

	for _, tt := range tests {
		if got := formatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestWriteASS(t *testing.T) {
	lines := []Line{
		{Text: "Opening", Start: 0, End: 5},
		{Text: "The harbor", Start: 5, End: 10, Style: "Accent"},
	}

	var buf bytes.Buffer
	if err := WriteASS(&buf, DefaultStyles(), lines); err != nil {
		t.Fatalf("WriteASS error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"[Script Info]",
		"PlayResX: 1920",
		"[V4+ Styles]",
		"Style: Default,Arial,48,&H00FFFFFF",
		"Style: Accent,Arial,48,&H0000FFFF",
		"[Events]",
		"Dialogue: 0,0:00:00.00,0:00:05.00,Default,,0,0,0,,Opening",
		"Dialogue: 0,0:00:05.00,0:00:10.00,Accent,,0,0,0,,The harbor",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestWriteASS_SortsByStart(t *testing.T) {
	lines := []Line{
		{Text: "second", Start: 10, End: 12},
		{Text: "first", Start: 2, End: 4},
	}

	var buf bytes.Buffer
	if err := WriteASS(&buf, DefaultStyles(), lines); err != nil {
		t.Fatalf("WriteASS error: %v", err)
	}
	out := buf.String()

	if strings.Index(out, ",first") > strings.Index(out, ",second") {
		t.Errorf("dialogue lines not sorted by start:\n%s", out)
	}
}

func TestWriteASS_SkipsEmptyWindows(t *testing.T) {
	lines := []Line{
		{Text: "kept", Start: 0, End: 3},
		{Text: "zero", Start: 5, End: 5},
		{Text: "inverted", Start: 9, End: 7},
	}

	var buf bytes.Buffer
	if err := WriteASS(&buf, DefaultStyles(), lines); err != nil {
		t.Fatalf("WriteASS error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, ",kept") {
		t.Error("valid line dropped")
	}
	if strings.Contains(out, ",zero") || strings.Contains(out, ",inverted") {
		t.Errorf("empty windows should be skipped:\n%s", out)
	}
}

func TestWriteASS_UnknownStyleFallsBack(t *testing.T) {
	lines := []Line{{Text: "hello", Start: 0, End: 2, Style: "Neon"}}

	var buf bytes.Buffer
	if err := WriteASS(&buf, DefaultStyles(), lines); err != nil {
		t.Fatalf("WriteASS error: %v", err)
	}

	if !strings.Contains(buf.String(), "Default,,0,0,0,,hello") {
		t.Errorf("unknown style should fall back to default:\n%s", buf.String())
	}
}

func TestEscapeText(t *testing.T) {
	got := escapeText("two\nlines {x}")
	if got != "two\\Nlines (x)" {
		t.Errorf("escapeText = %q, want %q", got, "two\\Nlines (x)")
	}
}

func TestFromScenes(t *testing.T) {
	scenes := []timeline.Scene{
		{ID: "intro", Title: "Opening", PinnedDuration: 10},
		{ID: "gap", PinnedDuration: 5},
		{ID: "close", Title: "  Wrap up  ", PinnedDuration: 8},
	}

	lines := FromScenes(scenes)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Text != "Opening" || lines[0].Start != 0 || lines[0].End != 10 {
		t.Errorf("lines[0] = %+v, want Opening over [0,10)", lines[0])
	}
	if lines[1].Text != "Wrap up" || lines[1].Start != 15 || lines[1].End != 23 {
		t.Errorf("lines[1] = %+v, want Wrap up over [15,23)", lines[1])
	}
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions", "p1.ass")

	err := Generate(path, DefaultStyles(), []Line{{Text: "hi", Start: 0, End: 1}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("caption file not written: %v", err)
	}
	if !strings.Contains(string(data), "[Events]") {
		t.Error("caption file missing events section")
	}
}
