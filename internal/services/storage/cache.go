package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/redis/go-redis/v9"
)

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// GenerateCacheKey hashes the capture bytes together with everything that
// identifies the result. Queued captures put their job id in variant.
func GenerateCacheKey(capture []byte, rotation int, variant string) string {
	hash := sha256.New()
	hash.Write(capture)
	hash.Write([]byte{0})
	hash.Write([]byte(strconv.Itoa(rotation)))
	hash.Write([]byte{0})
	hash.Write([]byte(variant))

	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}

// SetJobStatus stores the latest state of an asynchronous capture job and
// counts the transition under its status. The raw image is dropped before
// storing.
func (s *StorageService) SetJobStatus(ctx context.Context, job *models.CaptureJob) error {
	stored := *job
	stored.Image = nil

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, JobKeyPrefix+job.ID, data, s.cacheDuration)
		pipe.HIncrBy(ctx, JobCountsKey, job.Status, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}
	return nil
}

// JobCounts returns how many jobs have reached each status.
func (s *StorageService) JobCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := s.redisClient.HGetAll(ctx, JobCountsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job counts: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for status, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, nil
}

func (s *StorageService) GetJobStatus(ctx context.Context, id string) (*models.CaptureJob, error) {
	data, err := s.GetFromCache(ctx, JobKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var job models.CaptureJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	pipeline := s.redisClient.Pipeline()

	infoCmd := pipeline.Info(ctx, "memory")
	dbSizeCmd := pipeline.DBSize(ctx)
	mediaCmd := pipeline.ZCard(ctx, MediaTimelineKey)

	_, err := pipeline.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	stats := map[string]interface{}{
		"db_keys":     dbSizeCmd.Val(),
		"media_count": mediaCmd.Val(),
		"info":        infoCmd.Val(),
		"checked_at":  time.Now(),
	}

	return stats, nil
}
