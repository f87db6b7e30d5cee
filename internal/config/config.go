// Package config provides configuration management for the studio agent.
// Configuration is loaded from environment variables with sensible defaults;
// a .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8791
	DefaultLogLevel = "info"
	DefaultDataDir  = ".broll-studio"

	// Environment variable names
	EnvPort          = "STUDIO_PORT"
	EnvLogLevel      = "STUDIO_LOG_LEVEL"
	EnvDataDir       = "STUDIO_DATA_DIR"
	EnvFFmpegBin     = "STUDIO_FFMPEG"
	EnvPexelsKey     = "STUDIO_PEXELS_API_KEY"
	EnvGeminiKey     = "STUDIO_GEMINI_API_KEY"
	EnvS3Bucket      = "STUDIO_S3_BUCKET"
	EnvS3Region      = "STUDIO_S3_REGION"
	EnvCaptionStyles = "STUDIO_CAPTION_STYLES"
	EnvHeadless      = "STUDIO_HEADLESS"

	// Database filename
	DBFilename = "studio.db"

	// External call budgets
	DefaultStockSearchTimeout = 15   // seconds
	DefaultDownloadTimeout    = 300  // 5 minutes
	DefaultGenerateTimeout    = 120  // 2 minutes
	DefaultRenderTimeout      = 1800 // 30 minutes
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	AssetsDir() string
	ExportsDir() string
	UploadsDir() string
	FFmpegBin() string
	PexelsAPIKey() string
	GeminiAPIKey() string
	S3Bucket() string
	S3Region() string
	CaptionStylesPath() string
	Headless() bool
	StockSearchTimeout() time.Duration
	DownloadTimeout() time.Duration
	GenerateTimeout() time.Duration
	RenderTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	ffmpegBin     string
	pexelsKey     string
	geminiKey     string
	s3Bucket      string
	s3Region      string
	captionStyles string
	headless      bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffmpegBin = os.Getenv(EnvFFmpegBin)
	cfg.pexelsKey = os.Getenv(EnvPexelsKey)
	cfg.geminiKey = os.Getenv(EnvGeminiKey)
	cfg.s3Bucket = os.Getenv(EnvS3Bucket)
	cfg.s3Region = os.Getenv(EnvS3Region)
	cfg.captionStyles = os.Getenv(EnvCaptionStyles)

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// AssetsDir returns the directory downloaded and generated media lands in
func (c *EnvConfig) AssetsDir() string {
	return filepath.Join(c.dataDir, "assets")
}

// ExportsDir returns the directory finished exports are written to
func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// UploadsDir returns the drop folder watched for per-project uploads
func (c *EnvConfig) UploadsDir() string {
	return filepath.Join(c.dataDir, "uploads")
}

// FFmpegBin returns the ffmpeg binary to invoke, empty for PATH lookup
func (c *EnvConfig) FFmpegBin() string {
	if c.ffmpegBin != "" {
		return c.ffmpegBin
	}
	return "ffmpeg"
}

// PexelsAPIKey returns the stock footage API key, empty when unset
func (c *EnvConfig) PexelsAPIKey() string {
	return c.pexelsKey
}

// GeminiAPIKey returns the generation API key, empty when unset
func (c *EnvConfig) GeminiAPIKey() string {
	return c.geminiKey
}

// S3Bucket returns the mirror bucket name, empty when mirroring is disabled
func (c *EnvConfig) S3Bucket() string {
	return c.s3Bucket
}

// S3Region returns the mirror bucket region, empty for the SDK default chain
func (c *EnvConfig) S3Region() string {
	return c.s3Region
}

// CaptionStylesPath returns the caption style preset file
func (c *EnvConfig) CaptionStylesPath() string {
	if c.captionStyles != "" {
		return c.captionStyles
	}
	return filepath.Join(c.dataDir, "caption_styles.yaml")
}

func (c *EnvConfig) StockSearchTimeout() time.Duration {
	return time.Duration(DefaultStockSearchTimeout) * time.Second
}

func (c *EnvConfig) DownloadTimeout() time.Duration {
	return time.Duration(DefaultDownloadTimeout) * time.Second
}

func (c *EnvConfig) GenerateTimeout() time.Duration {
	return time.Duration(DefaultGenerateTimeout) * time.Second
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return time.Duration(DefaultRenderTimeout) * time.Second
}

// Headless disables the system tray, for servers and CI
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
