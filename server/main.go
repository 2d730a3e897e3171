package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/shape-crop/internal/config"
	"github.com/phambaophuc/shape-crop/internal/http/handlers"
	"github.com/phambaophuc/shape-crop/internal/http/routes"
	"github.com/phambaophuc/shape-crop/internal/services/capture"
	"github.com/phambaophuc/shape-crop/internal/services/processor"
	"github.com/phambaophuc/shape-crop/internal/services/queue"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Load the mask once; every capture is cut with it
	source, err := cfg.MaskSource()
	if err != nil {
		logger.Fatal("Failed to load mask", zap.Error(err))
	}
	mask, err := processor.ParsePathData(source)
	if err != nil {
		logger.Fatal("Failed to parse mask path data", zap.Error(err))
	}

	imageProcessor, err := processor.NewImageProcessor(mask, processor.Options{
		Quality:   cfg.Pipeline.Quality,
		Format:    cfg.Pipeline.OutputFormat,
		Antialias: cfg.Pipeline.Antialias,
		MaxPixels: cfg.Pipeline.MaxPixels,
	})
	if err != nil {
		logger.Fatal("Failed to initialize image processor", zap.Error(err))
	}

	// Initialize services
	pictures, err := storage.NewPictureStore(cfg.Storage.PicturesDir, cfg.Storage.FilePrefix)
	if err != nil {
		logger.Fatal("Failed to initialize picture store", zap.Error(err))
	}

	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}

	captureService := capture.NewService(imageProcessor, pictures, logger, capture.Options{
		Index:  storageService,
		Cache:  storageService,
		Mirror: storageService,
		Variant: fmt.Sprintf("%s|%s|%d|%t",
			source, imageProcessor.Format(), cfg.Pipeline.Quality, cfg.Pipeline.Antialias),
	})

	deps := handlers.Dependencies{
		Captures:      captureService,
		Validator:     imageProcessor,
		Pictures:      pictures,
		Jobs:          storageService,
		Media:         storageService,
		Mirror:        storageService,
		StorageStatus: storageService,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	queueService, err := queue.NewQueueService(
		cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, captureService, storageService, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without queue service; synchronous captures still work
	} else {
		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(workerCtx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
		deps.Publisher = queueService
		deps.QueueStatus = queueService
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(deps, logger, cfg)

	router := routes.NewRouter(imageHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("pictures_dir", pictures.Dir()),
			zap.Bool("mirror", storageService.MirrorEnabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorkers()
	if queueService != nil {
		queueService.Close()
	}
	if err := storageService.Close(); err != nil {
		logger.Warn("Failed to close storage service", zap.Error(err))
	}

	logger.Info("Server exited")
}
