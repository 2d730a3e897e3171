package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/phambaophuc/shape-crop/internal/services/processor"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"github.com/phambaophuc/shape-crop/pkg/utils"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the image itself
const formOverhead = 1 << 20

// === REQUEST PARSING ===

// readCapture extracts the image bytes and rotation from a multipart
// request. It writes the error response itself and reports ok=false.
func (h *ImageHandler) readCapture(c *gin.Context) ([]byte, int, bool) {
	maxSize := h.config.Storage.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+formOverhead)

	file, _, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, http.StatusRequestEntityTooLarge, "Image exceeds maximum allowed size")
			return nil, 0, false
		}
		h.respondError(c, http.StatusBadRequest, "No image file provided")
		return nil, 0, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Failed to read image")
		return nil, 0, false
	}
	if int64(len(data)) > maxSize {
		h.respondError(c, http.StatusRequestEntityTooLarge, "Image exceeds maximum allowed size")
		return nil, 0, false
	}

	rotation, err := h.parseRotation(c.PostForm(rotationParamKey))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}

	if contentType := utils.DetectImageType(data); !utils.IsValidImageType(contentType, h.config.Storage.AllowedTypes) {
		h.respondError(c, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported image type: %s", contentType))
		return nil, 0, false
	}

	if err := h.deps.Validator.ValidateCapture(data, maxSize); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid image: %v", err))
		return nil, 0, false
	}

	return data, rotation, true
}

func (h *ImageHandler) parseRotation(value string) (int, error) {
	if value == "" {
		return h.config.Pipeline.DefaultRotation, nil
	}

	rotation, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid rotation: must be a number")
	}
	if rotation%90 != 0 {
		return 0, fmt.Errorf("rotation must be a multiple of 90")
	}
	return rotation, nil
}

func (h *ImageHandler) parseLimit(value string) int {
	if value == "" {
		return defaultListLimit
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ImageHandler) respondCaptureError(c *gin.Context, err error) {
	var (
		decodeErr *processor.DecodeError
		encodeErr *processor.EncodeError
		ioErr     *storage.IOError
	)

	switch {
	case errors.As(err, &decodeErr):
		h.respondError(c, http.StatusBadRequest, "Failed to decode image")
	case errors.Is(err, processor.ErrInvalidRotation):
		h.respondError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &encodeErr):
		h.respondError(c, http.StatusInternalServerError, "Failed to encode image")
	case errors.As(err, &ioErr):
		h.respondError(c, http.StatusInternalServerError, "Failed to save picture")
	default:
		h.logger.Error("Capture failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to process capture")
	}
}

// === UTILITY METHODS ===

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
