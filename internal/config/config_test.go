package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvFFmpegBin)
	os.Unsetenv(EnvPexelsKey)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.FFmpegBin() != "ffmpeg" {
		t.Errorf("FFmpegBin() = %q, want ffmpeg", cfg.FFmpegBin())
	}
	if cfg.PexelsAPIKey() != "" {
		t.Errorf("PexelsAPIKey() = %q, want empty", cfg.PexelsAPIKey())
	}
}

func TestPortFromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9000")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9000 {
		t.Errorf("Port() = %d, want 9000", cfg.Port())
	}
}

func TestInvalidPort(t *testing.T) {
	tests := []struct {
		name string
		val  string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"too large", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv(EnvPort, tt.val)
			defer os.Unsetenv(EnvPort)

			if _, err := New(); err == nil {
				t.Errorf("New() with %s = %q succeeded, want error", EnvPort, tt.val)
			}
		})
	}
}

func TestDataDirPaths(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/studio-test")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != filepath.Join("/tmp/studio-test", DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.AssetsDir() != filepath.Join("/tmp/studio-test", "assets") {
		t.Errorf("AssetsDir() = %q", cfg.AssetsDir())
	}
	if cfg.ExportsDir() != filepath.Join("/tmp/studio-test", "exports") {
		t.Errorf("ExportsDir() = %q", cfg.ExportsDir())
	}
	if cfg.UploadsDir() != filepath.Join("/tmp/studio-test", "uploads") {
		t.Errorf("UploadsDir() = %q", cfg.UploadsDir())
	}
	if cfg.CaptionStylesPath() != filepath.Join("/tmp/studio-test", "caption_styles.yaml") {
		t.Errorf("CaptionStylesPath() = %q", cfg.CaptionStylesPath())
	}
}

func TestHeadless(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Headless() {
		t.Error("Headless() = true, want false by default")
	}

	os.Setenv(EnvHeadless, "true")
	defer os.Unsetenv(EnvHeadless)
	cfg, err = New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true")
	}

	os.Setenv(EnvHeadless, "sideways")
	if _, err := New(); err == nil {
		t.Errorf("New() with %s = sideways succeeded, want error", EnvHeadless)
	}
}

func TestAPIKeysFromEnv(t *testing.T) {
	os.Setenv(EnvPexelsKey, "px-key")
	os.Setenv(EnvGeminiKey, "gm-key")
	os.Setenv(EnvS3Bucket, "studio-mirror")
	defer func() {
		os.Unsetenv(EnvPexelsKey)
		os.Unsetenv(EnvGeminiKey)
		os.Unsetenv(EnvS3Bucket)
	}()

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PexelsAPIKey() != "px-key" {
		t.Errorf("PexelsAPIKey() = %q, want px-key", cfg.PexelsAPIKey())
	}
	if cfg.GeminiAPIKey() != "gm-key" {
		t.Errorf("GeminiAPIKey() = %q, want gm-key", cfg.GeminiAPIKey())
	}
	if cfg.S3Bucket() != "studio-mirror" {
		t.Errorf("S3Bucket() = %q, want studio-mirror", cfg.S3Bucket())
	}
}
