package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"go.uber.org/zap"
)

// ListGallery returns saved pictures newest first, from the media index
// when it is reachable and from the pictures directory otherwise.
func (h *ImageHandler) ListGallery(c *gin.Context) {
	limit := h.parseLimit(c.Query("limit"))

	var (
		entries []models.MediaEntry
		err     error
	)
	if h.deps.Media != nil {
		entries, err = h.deps.Media.ListMedia(c.Request.Context(), limit)
		if err != nil {
			h.logger.Warn("Media index unavailable, listing pictures directory", zap.Error(err))
		}
	}
	if h.deps.Media == nil || err != nil {
		entries, err = h.deps.Pictures.List(limit)
		if err != nil {
			h.logger.Error("Failed to list pictures", zap.Error(err))
			h.respondError(c, http.StatusInternalServerError, "Failed to list pictures")
			return
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    entries,
	})
}

// GetPicture serves one saved picture by filename.
func (h *ImageHandler) GetPicture(c *gin.Context) {
	path, err := h.deps.Pictures.Resolve(c.Param("filename"))
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilename) {
			h.respondError(c, http.StatusBadRequest, "Invalid filename")
			return
		}
		h.respondError(c, http.StatusInternalServerError, "Failed to resolve picture")
		return
	}

	if !h.deps.Pictures.Exists(path) {
		h.respondError(c, http.StatusNotFound, "Picture not found")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.File(path)
}

// DeletePicture removes a picture from disk, then drops it from the media
// index and the remote mirror.
func (h *ImageHandler) DeletePicture(c *gin.Context) {
	filename := c.Param("filename")

	if err := h.deps.Pictures.Remove(filename); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidFilename):
			h.respondError(c, http.StatusBadRequest, "Invalid filename")
		case errors.Is(err, fs.ErrNotExist):
			h.respondError(c, http.StatusNotFound, "Picture not found")
		default:
			h.logger.Error("Failed to remove picture", zap.String("filename", filename), zap.Error(err))
			h.respondError(c, http.StatusInternalServerError, "Failed to remove picture")
		}
		return
	}

	ctx := c.Request.Context()
	if h.deps.Media != nil {
		if err := h.deps.Media.RemoveMedia(ctx, filename); err != nil {
			h.logger.Warn("Failed to remove media entry", zap.String("filename", filename), zap.Error(err))
		}
	}
	if h.deps.Mirror != nil {
		if err := h.deps.Mirror.Delete(ctx, filename); err != nil {
			h.logger.Warn("Failed to remove mirrored picture", zap.String("filename", filename), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    gin.H{"filename": filename},
	})
}
