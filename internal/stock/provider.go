package stock

import (
	"context"
	"fmt"
	"log/slog"
)

// Video is one stock footage result.
type Video struct {
	ID           string      `json:"id"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Duration     float64     `json:"duration"`
	PreviewImage string      `json:"preview_image"`
	Credit       string      `json:"credit"`
	Files        []VideoFile `json:"files"`
}

// VideoFile is one downloadable rendition of a video.
type VideoFile struct {
	Quality  string  `json:"quality"`
	FileType string  `json:"file_type"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	URL      string  `json:"url"`
}

// BestFile picks the widest rendition that fits maxWidth. With no
// rendition under the cap it falls back to the narrowest available.
func (v Video) BestFile(maxWidth int) (VideoFile, bool) {
	if len(v.Files) == 0 {
		return VideoFile{}, false
	}

	best := -1
	narrowest := 0
	for i, f := range v.Files {
		if f.Width < v.Files[narrowest].Width {
			narrowest = i
		}
		if f.Width <= maxWidth && (best == -1 || f.Width > v.Files[best].Width) {
			best = i
		}
	}
	if best == -1 {
		return v.Files[narrowest], true
	}
	return v.Files[best], true
}

type SearchOptions struct {
	PerPage     int
	Page        int
	Orientation string
}

type SearchResult struct {
	Videos       []Video `json:"videos"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
}

// Provider searches a stock footage catalog.
type Provider interface {
	SearchVideos(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
	PopularVideos(ctx context.Context, opts SearchOptions) (*SearchResult, error)
}

// StubProvider returns canned results so the rest of the app works
// without an API key.
type StubProvider struct {
	logger *slog.Logger
}

func NewStubProvider(logger *slog.Logger) *StubProvider {
	return &StubProvider{logger: logger}
}

func (s *StubProvider) SearchVideos(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	if s.logger != nil {
		s.logger.Info("stock stub: search requested", "query", query)
	}
	return &SearchResult{
		Videos: []Video{
			{
				ID:       fmt.Sprintf("stub-%s-1", query),
				Width:    1920,
				Height:   1080,
				Duration: 12,
				Credit:   "Stub Footage",
				Files: []VideoFile{
					{Quality: "hd", FileType: "video/mp4", Width: 1920, Height: 1080, FPS: 25, URL: "https://stub.invalid/clip.mp4"},
				},
			},
		},
		Page:         1,
		PerPage:      1,
		TotalResults: 1,
	}, nil
}

func (s *StubProvider) PopularVideos(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	return s.SearchVideos(ctx, "popular", opts)
}
