package media

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Capabilities describes the locally available media toolchain.
type Capabilities struct {
	FFmpegPath    string    `json:"ffmpeg_path"`
	FFprobePath   string    `json:"ffprobe_path"`
	FFmpegVersion string    `json:"ffmpeg_version"`
	HasFFmpeg     bool      `json:"has_ffmpeg"`
	HasFFprobe    bool      `json:"has_ffprobe"`
	ProbedAt      time.Time `json:"probed_at"`
}

// CanRender reports whether full render jobs can run on this machine.
func (c *Capabilities) CanRender() bool {
	return c.HasFFmpeg && c.HasFFprobe
}

// Prober checks which media tools are installed.
type Prober interface {
	RunDoctor(ctx context.Context) (*Capabilities, error)
}

// CachedDoctor wraps a Prober to cache probe results with a TTL, so the
// toolchain is not re-checked on every job.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(prober Prober, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		prober: prober,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness. On probe
// failure a stale cache is returned if available.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.RunDoctor(ctx)
	if err != nil {
		d.logger.Warn("toolchain probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

// RunDoctor probes PATH for ffmpeg and ffprobe and captures the ffmpeg
// version banner.
func (f *FFmpegRunner) RunDoctor(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{ProbedAt: time.Now()}

	if p, err := exec.LookPath("ffmpeg"); err == nil {
		caps.FFmpegPath = p
		caps.HasFFmpeg = true
		caps.FFmpegVersion = ffmpegVersion(ctx, p)
	}
	if p, err := exec.LookPath("ffprobe"); err == nil {
		caps.FFprobePath = p
		caps.HasFFprobe = true
	}

	f.logger.Info("toolchain probe complete",
		"ffmpeg", caps.HasFFmpeg,
		"ffprobe", caps.HasFFprobe,
		"version", caps.FFmpegVersion,
	)
	return caps, nil
}

func ffmpegVersion(ctx context.Context, bin string) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}

	// First line looks like "ffmpeg version 6.1.1 Copyright ...".
	line, _, _ := strings.Cut(out.String(), "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return strings.TrimSpace(line)
}
