package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	"github.com/clickwonder/broll-reviewer/internal/captions"
	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

const (
	renderWidth  = 1920
	renderHeight = 1080

	// segmentConcurrency bounds parallel ffmpeg segment encodes.
	segmentConcurrency = 2
)

// segmentSpec describes one normalized video segment of the final cut.
type segmentSpec struct {
	// Source is the media path; empty renders black.
	Source    string
	SourceSec float64
	Rate      float64
	LengthSec float64
}

// planSegments decides what each cut-list event plays: its own media, the
// narration at the record window when the media is missing, or black when
// there is nothing to fall back to. Record timing is preserved either
// way, so the narration audio never drifts.
func planSegments(list CutList, narrationPath string) []segmentSpec {
	specs := make([]segmentSpec, 0, len(list.Clips))
	recMs := 0
	for _, clip := range list.Clips {
		recordMs := clip.RecordMs()
		spec := segmentSpec{
			Source:    clip.MediaPath,
			SourceSec: float64(clip.StartMs) / 1000,
			Rate:      clip.rate(),
			LengthSec: float64(recordMs) / 1000,
		}
		if spec.Source == "" {
			spec = segmentSpec{
				Source:    narrationPath,
				SourceSec: float64(recMs) / 1000,
				Rate:      1.0,
				LengthSec: float64(recordMs) / 1000,
			}
		}
		if spec.LengthSec > 0 {
			specs = append(specs, spec)
		}
		recMs += recordMs
	}
	return specs
}

func (e *Exporter) renderMP4(ctx context.Context, scenes []timeline.Scene, list CutList, narrationPath string, p project.RenderPayload, frameRate float64, outPath string) error {
	specs := planSegments(list, narrationPath)
	if len(specs) == 0 {
		return fmt.Errorf("nothing to render")
	}

	workDir, err := os.MkdirTemp("", "broll-render-*")
	if err != nil {
		return fmt.Errorf("cannot create render work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	segPaths := make([]string, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(segmentConcurrency)
	for i, spec := range specs {
		segPath := filepath.Join(workDir, fmt.Sprintf("seg_%03d.mp4", i))
		segPaths[i] = segPath
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := renderSegment(spec, segPath, fps); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var assPath string
	if p.Captions {
		if lines := captionLines(scenes, p.CaptionStyle); len(lines) > 0 {
			assPath = filepath.Join(workDir, "captions.ass")
			if err := captions.Generate(assPath, e.styles, lines); err != nil {
				return err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return assemble(segPaths, narrationPath, assPath, outPath)
}

// renderSegment encodes one normalized segment: fixed size, square
// pixels, constant frame rate, no audio.
func renderSegment(spec segmentSpec, outPath string, fps int) error {
	var input *ffmpeg.Stream
	if spec.Source == "" {
		input = ffmpeg.Input(
			fmt.Sprintf("color=black:s=%dx%d:r=%d", renderWidth, renderHeight, fps),
			ffmpeg.KwArgs{"f": "lavfi"})
	} else {
		input = ffmpeg.Input(spec.Source, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", spec.SourceSec)})
	}

	stream := ffmpeg.Filter([]*ffmpeg.Stream{input}, "scale",
		ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", renderWidth, renderHeight)}).
		Filter("pad", ffmpeg.Args{fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", renderWidth, renderHeight)}).
		Filter("setsar", ffmpeg.Args{"1"})
	if spec.Rate > 0 && spec.Rate != 1.0 {
		stream = stream.Filter("setpts", ffmpeg.Args{fmt.Sprintf("PTS/%.4f", spec.Rate)})
	}
	stream = stream.Filter("fps", ffmpeg.Args{strconv.Itoa(fps)})

	return ffmpeg.Output([]*ffmpeg.Stream{stream}, outPath, ffmpeg.KwArgs{
		"t":       fmt.Sprintf("%.3f", spec.LengthSec),
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"an":      "",
	}).OverWriteOutput().Run()
}

// assemble concatenates the segments, burns captions when present, and
// muxes the narration audio underneath.
func assemble(segPaths []string, narrationPath, assPath, outPath string) error {
	streams := make([]*ffmpeg.Stream, len(segPaths))
	for i, p := range segPaths {
		streams[i] = ffmpeg.Input(p)
	}

	video := ffmpeg.Filter(streams, "concat", ffmpeg.Args{fmt.Sprintf("n=%d:v=1:a=0", len(streams))})
	if assPath != "" {
		video = video.Filter("ass", ffmpeg.Args{escapeFilterPath(assPath)})
	}

	outStreams := []*ffmpeg.Stream{video}
	kwargs := ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"preset":  "medium",
	}
	if narrationPath != "" {
		audio := ffmpeg.Filter([]*ffmpeg.Stream{ffmpeg.Input(narrationPath)}, "anull", ffmpeg.Args{})
		outStreams = append(outStreams, audio)
		kwargs["c:a"] = "aac"
		kwargs["shortest"] = ""
	}

	return ffmpeg.Output(outStreams, outPath, kwargs).OverWriteOutput().Run()
}

// escapeFilterPath makes a filesystem path safe inside a filter argument.
func escapeFilterPath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), ":", "\\:")
}
