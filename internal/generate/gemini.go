// Package generate produces cutaway assets from text prompts through the
// Gemini API. Stills come straight from the model; clips are stills
// animated with a slow zoom so they hold up on a timeline.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/clickwonder/broll-reviewer/internal/assets"
	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/project"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-image"

// DefaultClipDuration is how long an animated still runs. The placement
// duration on the timeline is decided separately by the job payload.
const DefaultClipDuration = 5.0

// Client generates images and clips via Gemini and stores them locally.
type Client struct {
	genaiClient *genai.Client
	model       string
	store       *assets.DiskStore
	ffmpeg      media.FFmpeg
	logger      *slog.Logger
}

func NewClient(apiKey, model string, store *assets.DiskStore, ffmpeg media.FFmpeg, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genaiClient: client,
		model:       model,
		store:       store,
		ffmpeg:      ffmpeg,
		logger:      logger,
	}, nil
}

// Generate implements project.Generator.
func (c *Client) Generate(ctx context.Context, prompt, kind, assetID string) (project.AssetFile, error) {
	switch kind {
	case project.GenerateKindImage:
		return c.generateImage(ctx, prompt, assetID)
	case project.GenerateKindClip:
		return c.generateClip(ctx, prompt, assetID)
	default:
		return project.AssetFile{}, fmt.Errorf("unknown generation kind %q", kind)
	}
}

func (c *Client) generateImage(ctx context.Context, prompt, assetID string) (project.AssetFile, error) {
	data, mimeType, err := c.generateStill(ctx, prompt)
	if err != nil {
		return project.AssetFile{}, err
	}

	path, size, err := c.store.Save(assetID, extForMIME(mimeType), bytes.NewReader(data))
	if err != nil {
		return project.AssetFile{}, err
	}

	file := project.AssetFile{Path: path}
	if probe, err := c.ffmpeg.Probe(ctx, path); err != nil {
		c.logger.Warn("could not probe generated image", "asset_id", assetID, "error", err)
	} else {
		file.Width = probe.Width
		file.Height = probe.Height
	}

	c.logger.Info("image generated",
		"asset_id", assetID, "bytes", size, "model", c.model)
	return file, nil
}

func (c *Client) generateClip(ctx context.Context, prompt, assetID string) (project.AssetFile, error) {
	data, mimeType, err := c.generateStill(ctx, prompt)
	if err != nil {
		return project.AssetFile{}, err
	}

	stillPath, _, err := c.store.Save(assetID, extForMIME(mimeType), bytes.NewReader(data))
	if err != nil {
		return project.AssetFile{}, err
	}
	defer c.store.Remove(stillPath)

	clipPath := c.store.Path(assetID, ".mp4")
	if err := c.ffmpeg.AnimateStill(ctx, stillPath, clipPath, DefaultClipDuration); err != nil {
		return project.AssetFile{}, err
	}

	file := project.AssetFile{Path: clipPath, Duration: DefaultClipDuration}
	if probe, err := c.ffmpeg.Probe(ctx, clipPath); err != nil {
		c.logger.Warn("could not probe generated clip", "asset_id", assetID, "error", err)
	} else {
		file.Width = probe.Width
		file.Height = probe.Height
		if probe.Duration > 0 {
			file.Duration = probe.Duration
		}
	}

	c.logger.Info("clip generated", "asset_id", assetID, "model", c.model)
	return file, nil
}

// generateStill asks the model for a single image and returns its raw bytes.
func (c *Client) generateStill(ctx context.Context, prompt string) ([]byte, string, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, "", fmt.Errorf("generate image error: %w", err)
	}

	return firstImagePart(resp)
}

func firstImagePart(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", fmt.Errorf("no candidates returned")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}
	return nil, "", fmt.Errorf("response contained no image data")
}

func extForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
