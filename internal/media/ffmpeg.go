package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegRunner is the production implementation of FFmpeg backed by the
// ffmpeg and ffprobe binaries on PATH.
type FFmpegRunner struct {
	logger *slog.Logger
}

func NewFFmpegRunner(logger *slog.Logger) *FFmpegRunner {
	return &FFmpegRunner{logger: logger}
}

func (f *FFmpegRunner) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := ffmpeg.Probe(filePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", filepath.Base(filePath), err)
	}

	result, err := parseProbe(raw)
	if err != nil {
		return nil, err
	}

	f.logger.Info("probed media file",
		"file", filepath.Base(filePath),
		"duration", result.Duration,
		"codec", result.Codec,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (f *FFmpegRunner) GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("cannot create thumbnail dir: %w", err)
	}

	err := ffmpeg.Input(filePath, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", timeOffset)}).
		Output(outputPath, ffmpeg.KwArgs{
			"vframes": "1",
			"q:v":     "4",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}

	f.logger.Info("thumbnail generated", "output", filepath.Base(outputPath), "offset", timeOffset)
	return nil
}

func (f *FFmpegRunner) ExtractClip(ctx context.Context, filePath, outputPath string, start, duration float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("cannot create clip dir: %w", err)
	}

	err := ffmpeg.Input(filePath, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", start)}).
		Output(outputPath, ffmpeg.KwArgs{
			"t":   fmt.Sprintf("%.3f", duration),
			"c:v": "libx264",
			"c:a": "aac",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	f.logger.Info("clip extracted",
		"output", filepath.Base(outputPath), "start", start, "duration", duration)
	return nil
}

const (
	stillWidth  = 1920
	stillHeight = 1080
	stillFPS    = 30
)

// AnimateStill turns a single image into a video clip with a slow centered
// zoom, so generated stills cut into a timeline without looking frozen.
func (f *FFmpegRunner) AnimateStill(ctx context.Context, imagePath, outputPath string, duration float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("cannot create clip dir: %w", err)
	}

	err := ffmpeg.Input(imagePath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":      buildStillFilter(stillWidth, stillHeight, stillFPS, duration),
			"t":       fmt.Sprintf("%.3f", duration),
			"c:v":     "libx264",
			"pix_fmt": "yuv420p",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("still animation failed: %w", err)
	}

	f.logger.Info("still animated",
		"output", filepath.Base(outputPath), "duration", duration)
	return nil
}

// buildStillFilter scales the image to twice the target size before zoompan
// to avoid jitter, then zooms toward the center over the clip duration.
func buildStillFilter(width, height, fps int, duration float64) string {
	frames := int(duration * float64(fps))
	if frames < 1 {
		frames = 1
	}

	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width*2, height*2, width*2, height*2,
	)
	zoomFilter := fmt.Sprintf(
		"zoompan=z='min(zoom+0.0008,1.5)':d=%d:s=%dx%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':fps=%d",
		frames, width, height, fps,
	)
	return fmt.Sprintf("%s,%s", aspectFilter, zoomFilter)
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	SampleRate string `json:"sample_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

func parseProbe(raw string) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	result.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	result.Bitrate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.Codec == "" {
				result.Codec = s.CodecName
				result.Width = s.Width
				result.Height = s.Height
				result.FrameRate = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
				result.AudioSample, _ = strconv.Atoi(s.SampleRate)
			}
		}
	}
	return result, nil
}

// parseFrameRate converts ffprobe's fractional rate ("30000/1001") to fps.
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(rate, 64)
		return v
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
