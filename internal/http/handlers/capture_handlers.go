package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/shape-crop/internal/config"
	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"go.uber.org/zap"
)

const (
	imageParamKey    = "image"
	rotationParamKey = "rotation"
	defaultListLimit = 50
	maxListLimit     = 500
)

type CaptureService interface {
	Capture(ctx context.Context, data []byte, rotation int) (*models.CaptureResult, error)
}

type CaptureValidator interface {
	ValidateCapture(data []byte, maxSize int64) error
}

type JobPublisher interface {
	PublishJob(ctx context.Context, job *models.CaptureJob) error
}

type JobReader interface {
	GetJobStatus(ctx context.Context, id string) (*models.CaptureJob, error)
}

type MediaIndex interface {
	ListMedia(ctx context.Context, limit int) ([]models.MediaEntry, error)
	RemoveMedia(ctx context.Context, filename string) error
}

type MirrorRemover interface {
	Delete(ctx context.Context, filename string) error
}

type StorageStatus interface {
	HealthCheck(ctx context.Context) map[string]string
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
}

type QueueStatus interface {
	HealthCheck() string
	GetQueueStats(ctx context.Context) (map[string]interface{}, error)
}

// Dependencies lists what ImageHandler needs. Everything after Pictures
// is optional.
type Dependencies struct {
	Captures      CaptureService
	Validator     CaptureValidator
	Pictures      *storage.PictureStore
	Publisher     JobPublisher
	Jobs          JobReader
	Media         MediaIndex
	Mirror        MirrorRemover
	StorageStatus StorageStatus
	QueueStatus   QueueStatus
}

type ImageHandler struct {
	deps   Dependencies
	logger *zap.Logger
	config *config.Config
}

func NewImageHandler(deps Dependencies, logger *zap.Logger, cfg *config.Config) *ImageHandler {
	return &ImageHandler{
		deps:   deps,
		logger: logger,
		config: cfg,
	}
}

// === MAIN API ENDPOINTS ===

// Capture crops an uploaded capture synchronously and returns the saved
// picture's path.
func (h *ImageHandler) Capture(c *gin.Context) {
	data, rotation, ok := h.readCapture(c)
	if !ok {
		return
	}

	result, err := h.deps.Captures.Capture(c.Request.Context(), data, rotation)
	if err != nil {
		h.respondCaptureError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    result,
	})
}

// CaptureAsync queues a capture and answers immediately with the job id.
func (h *ImageHandler) CaptureAsync(c *gin.Context) {
	if h.deps.Publisher == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Queue service unavailable")
		return
	}

	data, rotation, ok := h.readCapture(c)
	if !ok {
		return
	}

	job := &models.CaptureJob{
		ID:        uuid.New().String(),
		Rotation:  rotation,
		Image:     data,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := h.deps.Publisher.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to publish capture job", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to queue capture")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data: gin.H{
			"job_id": job.ID,
			"status": job.Status,
		},
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.deps.Jobs == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Job store unavailable")
		return
	}

	job, err := h.deps.Jobs.GetJobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to read job status", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to read job status")
		return
	}
	if job == nil {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{}
	if h.deps.StorageStatus != nil {
		for name, status := range h.deps.StorageStatus.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}
	if h.deps.QueueStatus != nil {
		services["rabbitmq"] = h.deps.QueueStatus.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

// GetStats reports cache and queue counters. A backend that cannot be
// inspected is reported with its error instead of failing the request.
func (h *ImageHandler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if h.deps.StorageStatus != nil {
		cacheStats, err := h.deps.StorageStatus.GetCacheStats(c.Request.Context())
		if err != nil {
			stats["cache"] = gin.H{"error": err.Error()}
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.deps.QueueStatus != nil {
		queueStats, err := h.deps.QueueStatus.GetQueueStats(c.Request.Context())
		if err != nil {
			stats["queue"] = gin.H{"error": err.Error()}
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
