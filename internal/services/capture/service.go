package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/phambaophuc/shape-crop/internal/services/processor"
	"github.com/phambaophuc/shape-crop/internal/services/storage"
	"go.uber.org/zap"
)

type PictureWriter interface {
	Save(ctx context.Context, data []byte, ext string) (*models.StoredPicture, error)
	Exists(path string) bool
}

type MediaIndex interface {
	RegisterMedia(ctx context.Context, entry models.MediaEntry) error
}

type ResultCache interface {
	GetFromCache(ctx context.Context, cacheKey string) ([]byte, error)
	SetCache(ctx context.Context, cacheKey string, data []byte) error
}

type Mirror interface {
	Upload(ctx context.Context, buffer *bytes.Buffer, filename, contentType string) (string, error)
}

// Service turns one capture into a persisted, indexed picture. Index,
// cache and mirror are optional; their failures are logged and never fail
// a capture whose picture is already on disk.
type Service struct {
	processor *processor.ImageProcessor
	pictures  PictureWriter
	index     MediaIndex
	cache     ResultCache
	mirror    Mirror
	logger    *zap.Logger

	// identifies mask and encoder settings inside cache keys
	variant string
}

type Options struct {
	Index   MediaIndex
	Cache   ResultCache
	Mirror  Mirror
	Variant string
}

func NewService(proc *processor.ImageProcessor, pictures PictureWriter, logger *zap.Logger, opts Options) *Service {
	return &Service{
		processor: proc,
		pictures:  pictures,
		index:     opts.Index,
		cache:     opts.Cache,
		mirror:    opts.Mirror,
		logger:    logger,
		variant:   opts.Variant,
	}
}

// Capture runs the shape-crop pipeline on a raw capture and persists the
// result. Errors are *processor.DecodeError, *processor.EncodeError or
// *storage.IOError; nothing is written when the pipeline fails.
// Every call is a new shutter press and writes a new picture.
func (s *Service) Capture(ctx context.Context, data []byte, rotation int) (*models.CaptureResult, error) {
	start := time.Now()
	cropped, err := s.processor.Process(data, rotation)
	if err != nil {
		s.logger.Error("Capture processing failed", zap.Int("rotation", rotation), zap.Error(err))
		return nil, err
	}

	stored, err := s.pictures.Save(ctx, cropped.Data, processor.Extension(cropped.Format))
	if err != nil {
		s.logger.Error("Failed to persist capture", zap.Error(err))
		return nil, err
	}

	result := &models.CaptureResult{
		ID:         uuid.New().String(),
		Filename:   stored.Filename,
		Path:       stored.Path,
		Format:     cropped.Format,
		Width:      cropped.Width,
		Height:     cropped.Height,
		Rotation:   rotation,
		FileSize:   stored.Size,
		CapturedAt: stored.CreatedAt,
	}

	if s.mirror != nil {
		url, err := s.mirror.Upload(ctx, bytes.NewBuffer(cropped.Data), stored.Filename, processor.ContentType(cropped.Format))
		if err != nil {
			s.logger.Warn("Failed to mirror capture", zap.String("filename", stored.Filename), zap.Error(err))
		}
		result.URL = url
	}

	if s.index != nil {
		entry := models.MediaEntry{
			Filename:   result.Filename,
			Path:       result.Path,
			MimeType:   processor.ContentType(result.Format),
			Width:      result.Width,
			Height:     result.Height,
			FileSize:   result.FileSize,
			URL:        result.URL,
			CapturedAt: result.CapturedAt,
		}
		if err := s.index.RegisterMedia(ctx, entry); err != nil {
			s.logger.Warn("Failed to register capture in media index", zap.String("filename", stored.Filename), zap.Error(err))
		}
	}

	s.logger.Info("Capture saved",
		zap.String("path", result.Path),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.Int64("file_size", result.FileSize),
		zap.Duration("took", time.Since(start)))

	return result, nil
}

// CaptureJob runs a queued capture. The result is cached under the job id,
// so a redelivered message returns the picture already saved for that job
// instead of writing a second one.
func (s *Service) CaptureJob(ctx context.Context, jobID string, data []byte, rotation int) (*models.CaptureResult, error) {
	cacheKey := storage.GenerateCacheKey(data, rotation, s.variant+"|job:"+jobID)
	if cached := s.lookup(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	result, err := s.Capture(ctx, data, rotation)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, result)
	return result, nil
}

func (s *Service) lookup(ctx context.Context, cacheKey string) *models.CaptureResult {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.GetFromCache(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("Cache lookup failed", zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var cached models.CaptureResult
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("Failed to unmarshal cached capture", zap.Error(err))
		return nil
	}
	// the picture may have been removed since it was cached
	if !s.pictures.Exists(cached.Path) {
		return nil
	}

	cached.Cached = true
	s.logger.Info("Cache hit", zap.String("path", cached.Path))
	return &cached
}

func (s *Service) store(ctx context.Context, cacheKey string, result *models.CaptureResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.SetCache(ctx, cacheKey, data); err != nil {
		s.logger.Warn("Failed to cache capture result", zap.Error(err))
	}
}
