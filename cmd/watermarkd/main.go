package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KaustubhAChavan/watermark-app/internal/api"
	"github.com/KaustubhAChavan/watermark-app/internal/api/websocket"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/imaging"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/jobs"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/media"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/pipeline"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/watch"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/logging"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/metrics"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/storage"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const jobHistoryCapacity = 200

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting watermark daemon",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("environment", cfg.Environment),
	)

	// Initialize metrics
	m := metrics.New()

	// Initialize watch folders
	store, err := storage.NewService(cfg.Folders)
	if err != nil {
		logger.Fatal("Failed to initialize watch folders", zap.Error(err))
	}

	// Initialize the video processor and probe for ffmpeg. A missing binary
	// degrades the daemon to image-only mode instead of stopping it.
	processor := media.NewProcessor(cfg.FFmpegPath, cfg.FFprobePath, cfg.VideoTimeout, logger)
	videoEnabled := processor.Available()
	if !videoEnabled {
		logger.Warn("ffmpeg not found, video processing disabled",
			zap.String("ffmpeg_path", cfg.FFmpegPath),
		)
	}

	// Initialize the image compositor
	compositor, err := imaging.NewCompositor(cfg.Watermark, logger)
	if err != nil {
		logger.Fatal("Failed to initialize image compositor", zap.Error(err))
	}

	// Initialize WebSocket hub and job history
	wsHub := websocket.NewHub(logger, m)
	go wsHub.Run()
	recorder := jobs.NewRecorder(jobHistoryCapacity, wsHub, logger)

	// Build the processing pipeline
	pipe := pipeline.New(pipeline.Options{
		Config:       cfg,
		Store:        store,
		Classifier:   pipeline.NewClassifier(cfg.SupportedFormats),
		Images:       compositor,
		Video:        processor,
		VideoEnabled: videoEnabled,
		Recorder:     recorder,
		Metrics:      m,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Process the backlog before the watcher takes over, so files dropped
	// while the daemon was down are not missed.
	pipe.ProcessExisting(ctx)

	// Initialize the filesystem watcher
	watcher, err := watch.New(logger, m)
	if err != nil {
		logger.Fatal("Failed to initialize watcher", zap.Error(err))
	}
	watchDirs := []string{cfg.Folders.InputImages, cfg.Folders.InputVideos}
	if cfg.Folders.InputAudio != "" {
		watchDirs = append(watchDirs, cfg.Folders.InputAudio)
	}
	for _, dir := range watchDirs {
		if err := watcher.Add(dir); err != nil {
			logger.Fatal("Failed to watch input folder", zap.Error(err))
		}
	}

	dispatcher := watch.NewDispatcher(watcher.Events(), cfg.SettleDelay, func(ctx context.Context, path string) {
		pipe.Process(ctx, path)
	}, logger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	// Create the status API server
	server := api.NewServer(api.ServerConfig{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Storage:      store,
		Recorder:     recorder,
		WSHub:        wsHub,
		VideoEnabled: videoEnabled,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Status API listening", zap.Int("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Daemon stopped")
}
