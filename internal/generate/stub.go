package generate

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/clickwonder/broll-reviewer/internal/assets"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

// Stub satisfies project.Generator without calling any API. It writes a
// small placeholder image so the rest of the pipeline keeps working when
// no Gemini key is configured.
type Stub struct {
	store  *assets.DiskStore
	logger *slog.Logger
}

func NewStub(store *assets.DiskStore, logger *slog.Logger) *Stub {
	return &Stub{store: store, logger: logger}
}

func (s *Stub) Generate(ctx context.Context, prompt, kind, assetID string) (project.AssetFile, error) {
	s.logger.Info("generate stub: generation requested (no gemini key configured)",
		"kind", kind, "asset_id", assetID, "prompt", prompt)

	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 38, G: 38, B: 42, A: 255}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return project.AssetFile{}, err
	}

	path, _, err := s.store.Save(assetID, ".png", &buf)
	if err != nil {
		return project.AssetFile{}, err
	}
	return project.AssetFile{Path: path, Width: 16, Height: 9}, nil
}
