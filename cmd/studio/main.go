package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clickwonder/broll-reviewer/internal/api"
	"github.com/clickwonder/broll-reviewer/internal/assets"
	"github.com/clickwonder/broll-reviewer/internal/captions"
	"github.com/clickwonder/broll-reviewer/internal/config"
	"github.com/clickwonder/broll-reviewer/internal/db"
	"github.com/clickwonder/broll-reviewer/internal/events"
	"github.com/clickwonder/broll-reviewer/internal/export"
	"github.com/clickwonder/broll-reviewer/internal/generate"
	"github.com/clickwonder/broll-reviewer/internal/logging"
	"github.com/clickwonder/broll-reviewer/internal/media"
	"github.com/clickwonder/broll-reviewer/internal/playback"
	"github.com/clickwonder/broll-reviewer/internal/project"
	"github.com/clickwonder/broll-reviewer/internal/stock"
	"github.com/clickwonder/broll-reviewer/internal/ui"
	"github.com/clickwonder/broll-reviewer/internal/watcher"
	"github.com/clickwonder/broll-reviewer/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.AssetsDir(), cfg.ExportsDir(), cfg.UploadsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting b-roll studio", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   B-ROLL STUDIO v0.1.0                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Studio URL: http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	svc := project.NewService(repo, logger)
	hub := events.NewHub(logger)
	svc.SetNotifier(hub)

	store, err := assets.NewDiskStore(cfg.AssetsDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}

	ffmpeg := media.NewFFmpegRunner(logger)
	doctor := media.NewCachedDoctor(ffmpeg, logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()
	if caps, err := doctor.Refresh(initCtx); err != nil {
		logger.Warn("initial media probe failed", "error", err)
	} else {
		logger.Info("media capabilities detected",
			"ffmpeg", caps.HasFFmpeg,
			"ffprobe", caps.HasFFprobe,
			"version", caps.FFmpegVersion,
		)
	}

	downloader := assets.NewDownloader(store, ffmpeg, logger)

	var generator project.Generator
	if key := cfg.GeminiAPIKey(); key != "" {
		gc, err := generate.NewClient(key, "", store, ffmpeg, logger)
		if err != nil {
			return fmt.Errorf("failed to create generation client: %w", err)
		}
		generator = gc
		logger.Info("cutaway generation enabled", "model", generate.DefaultModel)
	} else {
		generator = generate.NewStub(store, logger)
	}

	var stockProvider stock.Provider
	if key := cfg.PexelsAPIKey(); key != "" {
		stockProvider = stock.NewPexelsClient(stock.DefaultBaseURL, key, logger)
		logger.Info("stock search enabled", "provider", "pexels")
	} else {
		stockProvider = stock.NewStubProvider(logger)
	}

	stylesPath := cfg.CaptionStylesPath()
	if _, err := os.Stat(stylesPath); os.IsNotExist(err) {
		stylesPath = ""
	}
	styles, err := captions.LoadStyles(stylesPath)
	if err != nil {
		return fmt.Errorf("failed to load caption styles: %w", err)
	}

	exporter, err := export.NewExporter(repo, styles, cfg.ExportsDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := project.NewRunner(svc, repo, downloader, generator, exporter, logger)
	if bucket := cfg.S3Bucket(); bucket != "" {
		mirror, err := assets.NewS3Store(ctx, assets.S3Config{Bucket: bucket, Region: cfg.S3Region()}, logger)
		if err != nil {
			logger.Warn("asset mirror unavailable", "error", err)
		} else {
			runner.SetMirror(mirror)
			logger.Info("asset mirror enabled", "bucket", bucket)
		}
	}
	go runner.Start(ctx)

	uploadWatcher := watcher.New(repo, ffmpeg, cfg.UploadsDir(), logger)
	go uploadWatcher.Start(ctx)

	janitor := cron.New()
	if _, err := janitor.AddFunc("@daily", func() { runJanitor(ctx, repo, store, logger) }); err != nil {
		return fmt.Errorf("failed to schedule janitor: %w", err)
	}
	janitor.Start()

	playbackSvc := playback.NewServer(repo, logger)

	uiFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to load embedded UI: %w", err)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Service:    svc,
		Repository: repo,
		Runner:     runner,
		Stock:      stockProvider,
		Hub:        hub,
		Playback:   playbackSvc,
		Exporter:   exporter,
		Doctor:     doctor,
		UI:         uiFS,
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	studioURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port())

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner: runner,
			Logger: logger,
			OnOpen: func() error {
				return openBrowser(studioURL)
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	svc.Shutdown()
	hub.Close()

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}

// jobRetention is how long finished jobs stay queryable.
const jobRetention = 30 * 24 * time.Hour

// runJanitor clears store files no catalog row references and finished
// jobs past the retention window.
func runJanitor(ctx context.Context, repo project.Repository, store *assets.DiskStore, logger *slog.Logger) {
	paths, err := repo.ListAssetPaths(ctx)
	if err != nil {
		logger.Error("janitor: failed to list asset paths", "error", err)
		return
	}
	keep := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		keep[p] = struct{}{}
	}

	removed, err := store.Sweep(keep)
	if err != nil {
		logger.Error("janitor: asset sweep failed", "error", err)
	} else if removed > 0 {
		logger.Info("janitor removed orphaned asset files", "count", removed)
	}

	pruned, err := repo.PruneJobs(ctx, jobRetention)
	if err != nil {
		logger.Error("janitor: job prune failed", "error", err)
	} else if pruned > 0 {
		logger.Info("janitor pruned finished jobs", "count", pruned)
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
