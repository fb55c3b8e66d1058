package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backup-media-sync/internal/cdn"
	"backup-media-sync/internal/cleanup"
	"backup-media-sync/internal/config"
	"backup-media-sync/internal/coordinator"
	"backup-media-sync/internal/database"
	"backup-media-sync/internal/device"
	"backup-media-sync/internal/downloader"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/progress"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/uploader"
	"backup-media-sync/internal/web"
	"backup-media-sync/internal/web/handlers"
	"backup-media-sync/pkg/models"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// app holds every long-lived component
type app struct {
	db               *database.DB
	bus              *events.Bus
	downloadStatus   *status.Manager
	uploadStatus     *status.Manager
	downloadProgress *progress.Download
	downloads        *downloader.Manager
	uploads          *uploader.Manager
	coordinator      *coordinator.Coordinator
	server           *web.Server
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting Backup Media Sync", "version", "1.0.0", "primary", cfg.IsPrimaryDevice)

	if err := os.MkdirAll(cfg.MediaPath, 0o755); err != nil {
		return fmt.Errorf("failed to create media path: %w", err)
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	a := newApp(cfg, db, slog.Default())
	defer a.close()

	return runServer(a)
}

// newApp wires the components in dependency order
func newApp(cfg *config.Config, db *database.DB, logger *slog.Logger) *app {
	bus := events.NewBus(logger)

	downloadStatus := status.New(status.Options{
		Kind:   models.QueueDownload,
		Store:  downloader.StatusStore(db),
		Source: newSignalSource(cfg, logger),
		Bus:    bus,
		DiskSpace: func() (uint64, error) {
			return device.DiskSpace(cfg.MediaPath)
		},
		RequiredDiskSpace:    uint64(cfg.RequiredDiskSpace()),
		TrackAppBackgrounded: true,
		Logger:               logger,
	})
	uploadStatus := status.New(status.Options{
		Kind:                  models.QueueUpload,
		Store:                 uploader.StatusStore(db),
		Source:                newSignalSource(cfg, logger),
		Bus:                   bus,
		TrackAppBackgrounded:  true,
		TrackConsumedCapacity: true,
		RequirePaidPlan:       true,
		Logger:                logger,
	})

	downloadProgress := progress.NewDownload(db, bus, logger)
	uploadProgress := progress.NewUpload(db, logger)

	client := cdn.New(cfg.CDNBaseURL, cfg.CDNAPIKey, cfg.MediaPath, cfg.CDNRequestsPerSecond, logger)
	listMedia := listmedia.New(db, client, logger)

	uploads := uploader.New(uploader.Options{
		Store:                db,
		Uploader:             client,
		Auth:                 client,
		Status:               uploadStatus,
		Progress:             uploadProgress,
		ListMedia:            listMedia,
		Bus:                  bus,
		IsPrimaryDevice:      cfg.IsPrimaryDevice,
		FullsizeConcurrency:  cfg.UploadFullsizeConcurrency,
		ThumbnailConcurrency: cfg.UploadThumbnailConcurrency,
		MaxRetries:           cfg.MaxRetries,
		Logger:               logger,
	})
	downloads := downloader.New(downloader.Options{
		Store:                db,
		Downloader:           client,
		Status:               downloadStatus,
		Progress:             downloadProgress,
		ListMedia:            listMedia,
		Uploads:              uploads,
		Bus:                  bus,
		IsPrimaryDevice:      cfg.IsPrimaryDevice,
		RemoteConfig:         cfg.RemoteConfig(),
		FullsizeConcurrency:  cfg.DownloadFullsizeConcurrency,
		ThumbnailConcurrency: cfg.DownloadThumbnailConcurrency,
		MaxRetries:           cfg.MaxRetries,
		Logger:               logger,
	})

	offloader := cleanup.NewService(db, cfg.MediaPath, cfg.OffloadingThreshold, logger)
	coord := coordinator.New(coordinator.Options{
		Restorer:  downloads,
		Backups:   uploads,
		Offloader: offloader,
		Bus:       bus,
		Interval:  cfg.CoordinatorInterval,
		Logger:    logger,
	})

	h := handlers.NewHandlers(handlers.Options{
		Store:            db,
		DownloadStatus:   downloadStatus,
		UploadStatus:     uploadStatus,
		Downloads:        downloads,
		Uploads:          uploads,
		DownloadProgress: downloadProgress,
		Coordinator:      coord,
		Offloader:        offloader,
		IsPrimaryDevice:  cfg.IsPrimaryDevice,
		Logger:           logger,
	})

	return &app{
		db:               db,
		bus:              bus,
		downloadStatus:   downloadStatus,
		uploadStatus:     uploadStatus,
		downloadProgress: downloadProgress,
		downloads:        downloads,
		uploads:          uploads,
		coordinator:      coord,
		server:           web.NewServer(cfg.ServerPort, h, logger),
	}
}

// newSignalSource returns a file-backed source when SIGNALS_PATH is set. Each status manager gets its own.
func newSignalSource(cfg *config.Config, logger *slog.Logger) device.Source {
	if cfg.SignalsPath != "" {
		return device.NewFileSource(cfg.SignalsPath, logger)
	}
	return &device.StaticSource{Signals: device.DefaultSignals()}
}

func (a *app) close() {
	a.downloads.Stop()
	a.uploads.Stop()
	a.downloadStatus.Close()
	a.uploadStatus.Close()
	a.bus.Close()
}

func runServer(a *app) error {
	// Create main context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Clear progress left over from a previous session
	if err := resetStaleProgress(ctx, a.db, a.downloadProgress); err != nil {
		slog.Error("Failed to reset stale progress", "error", err)
	}

	a.downloads.Start(ctx)
	a.uploads.Start(ctx)
	go a.coordinator.Run(ctx)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	}

	// Cancel context to stop the queues and the coordinator
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// progressResetter is the part of the download progress engine used on boot
type progressResetter interface {
	DidEmpty(ctx context.Context) error
}

// resetStaleProgress sweeps done markers for queues that have nothing left to do
func resetStaleProgress(ctx context.Context, db *database.DB, downloadProgress progressResetter) error {
	pendingDownloads, err := db.HasPendingDownloads(ctx, models.ModeFullsize)
	if err != nil {
		return fmt.Errorf("failed to check pending downloads: %w", err)
	}
	if !pendingDownloads {
		if err := downloadProgress.DidEmpty(ctx); err != nil {
			return err
		}
		swept, err := db.DeleteAllDoneDownloads(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			slog.Info("Swept finished downloads from previous session", "count", swept)
		}
	}

	for _, mode := range models.AllModes {
		pending, err := db.HasPendingUploads(ctx, mode)
		if err != nil {
			return fmt.Errorf("failed to check pending uploads: %w", err)
		}
		if pending {
			return nil
		}
	}
	swept, err := db.DeleteAllDoneUploads(ctx)
	if err != nil {
		return err
	}
	if swept > 0 {
		slog.Info("Swept finished uploads from previous session", "count", swept)
	}
	return nil
}

// setupLogging configures structured logging based on the log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
