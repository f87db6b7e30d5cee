package captions

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

// Line is one caption to burn in, in absolute project seconds.
type Line struct {
	Text  string
	Start float64
	End   float64
	// Style names a preset from the StyleSet; empty means the default.
	Style string
}

// FromScenes derives one caption per titled scene, spanning the scene's
// absolute window.
func FromScenes(scenes []timeline.Scene) []Line {
	var lines []Line
	var offset float64
	for _, s := range scenes {
		d := s.Duration()
		if title := strings.TrimSpace(s.Title); title != "" {
			lines = append(lines, Line{Text: title, Start: offset, End: offset + d})
		}
		offset += d
	}
	return lines
}

// WriteASS writes a complete ASS script: header, one Style per preset and
// one Dialogue event per line, sorted by start time.
func WriteASS(w io.Writer, set StyleSet, lines []Line) error {
	fmt.Fprintln(w, "[Script Info]")
	fmt.Fprintln(w, "Title: broll-reviewer captions")
	fmt.Fprintln(w, "ScriptType: v4.00+")
	fmt.Fprintf(w, "PlayResX: %d\n", set.PlayResX)
	fmt.Fprintf(w, "PlayResY: %d\n", set.PlayResY)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[V4+ Styles]")
	fmt.Fprintln(w, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")

	for _, st := range set.Styles {
		bold := 0
		if st.Bold {
			bold = -1
		}
		fmt.Fprintf(w, "Style: %s,%s,%d,%s,%s,%s,&H00000000,%d,0,0,0,100,100,0,0,1,3,0,%d,40,40,%d,1\n",
			st.Name, st.Font, st.Size, st.Primary, st.Primary, st.Outline, bold, st.Alignment, st.MarginV)
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[Events]")
	fmt.Fprintln(w, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for _, line := range sorted {
		if line.End <= line.Start {
			continue
		}
		style := line.Style
		if style == "" || !set.has(style) {
			style = set.Default()
		}
		fmt.Fprintf(w, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatTimestamp(line.Start),
			formatTimestamp(line.End),
			style,
			escapeText(line.Text))
	}
	return nil
}

// Generate writes the ASS script to a file, creating parent directories.
func Generate(path string, set StyleSet, lines []Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create caption dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create caption file: %w", err)
	}
	defer file.Close()

	return WriteASS(file, set, lines)
}

// formatTimestamp converts seconds to the ASS h:mm:ss.cc format.
func formatTimestamp(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	centisecs := int((seconds - float64(int(seconds))) * 100)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}

// escapeText keeps dialogue on one event line. ASS uses \N for hard
// breaks; braces would otherwise open an override block.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\n", "\\N")
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	return text
}
