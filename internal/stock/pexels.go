package stock

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.pexels.com"

// APIError represents a non-2xx response from the stock API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stock search failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and rate limiting.
// Other client errors (4xx) are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// PexelsClient talks to the Pexels video API. Any service exposing the
// same wire format works by pointing baseURL elsewhere.
type PexelsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPexelsClient(baseURL, apiKey string, logger *slog.Logger) *PexelsClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &PexelsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type wireUser struct {
	Name string `json:"name"`
}

type wireFile struct {
	ID       int     `json:"id"`
	Quality  string  `json:"quality"`
	FileType string  `json:"file_type"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Link     string  `json:"link"`
}

type wireVideo struct {
	ID       int        `json:"id"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Duration float64    `json:"duration"`
	Image    string     `json:"image"`
	User     wireUser   `json:"user"`
	Files    []wireFile `json:"video_files"`
}

type wireSearchResponse struct {
	Page         int         `json:"page"`
	PerPage      int         `json:"per_page"`
	TotalResults int         `json:"total_results"`
	Videos       []wireVideo `json:"videos"`
}

func (c *PexelsClient) SearchVideos(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search query required")
	}

	params := url.Values{}
	params.Set("query", query)
	c.applyOptions(params, opts)

	return c.get(ctx, "/videos/search", params)
}

func (c *PexelsClient) PopularVideos(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	params := url.Values{}
	c.applyOptions(params, opts)

	return c.get(ctx, "/videos/popular", params)
}

func (c *PexelsClient) applyOptions(params url.Values, opts SearchOptions) {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	params.Set("per_page", strconv.Itoa(perPage))
	if opts.Page > 1 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}
}

func (c *PexelsClient) get(ctx context.Context, path string, params url.Values) (*SearchResult, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("X-Request-Id", generateRequestID())

	if c.logger != nil {
		c.logger.Info("stock search", "path", path, "query", params.Get("query"))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var wire wireSearchResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &SearchResult{
		Page:         wire.Page,
		PerPage:      wire.PerPage,
		TotalResults: wire.TotalResults,
		Videos:       make([]Video, 0, len(wire.Videos)),
	}
	for _, v := range wire.Videos {
		result.Videos = append(result.Videos, Video{
			ID:           strconv.Itoa(v.ID),
			Width:        v.Width,
			Height:       v.Height,
			Duration:     v.Duration,
			PreviewImage: v.Image,
			Credit:       v.User.Name,
			Files:        mapFiles(v.Files),
		})
	}

	if c.logger != nil {
		c.logger.Info("stock search completed", "path", path, "results", len(result.Videos), "total", result.TotalResults)
	}
	return result, nil
}

func mapFiles(files []wireFile) []VideoFile {
	out := make([]VideoFile, 0, len(files))
	for _, f := range files {
		out = append(out, VideoFile{
			Quality:  f.Quality,
			FileType: f.FileType,
			Width:    f.Width,
			Height:   f.Height,
			FPS:      f.FPS,
			URL:      f.Link,
		})
	}
	return out
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
