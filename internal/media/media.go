// Package media wraps the local ffmpeg toolchain used for probing,
// thumbnails, clip extraction and capability checks.
package media

import (
	"context"
	"log/slog"
)

type FFmpeg interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
	GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64) error
	ExtractClip(ctx context.Context, filePath, outputPath string, start, duration float64) error
	AnimateStill(ctx context.Context, imagePath, outputPath string, duration float64) error
}

type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	Codec       string
	Bitrate     int64
	FrameRate   float64
	AudioCodec  string
	AudioSample int
}

type StubFFmpeg struct {
	logger *slog.Logger
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{logger: logger}
}

func (f *StubFFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	f.logger.Info("ffmpeg stub: probe requested", "path", filePath)
	return &ProbeResult{}, nil
}

func (f *StubFFmpeg) GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64) error {
	f.logger.Info("ffmpeg stub: thumbnail requested",
		"input", filePath, "output", outputPath, "offset", timeOffset)
	return nil
}

func (f *StubFFmpeg) ExtractClip(ctx context.Context, filePath, outputPath string, start, duration float64) error {
	f.logger.Info("ffmpeg stub: clip extraction requested",
		"input", filePath, "output", outputPath, "start", start, "duration", duration)
	return nil
}

func (f *StubFFmpeg) AnimateStill(ctx context.Context, imagePath, outputPath string, duration float64) error {
	f.logger.Info("ffmpeg stub: still animation requested",
		"input", imagePath, "output", outputPath, "duration", duration)
	return nil
}
