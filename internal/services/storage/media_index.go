package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/redis/go-redis/v9"
)

// RegisterMedia adds a persisted picture to the media index. The timeline
// is a sorted set scored by capture time; entry metadata lives in a hash
// keyed by filename.
func (s *StorageService) RegisterMedia(ctx context.Context, entry models.MediaEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal media entry: %w", err)
	}

	_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, MediaEntriesKey, entry.Filename, data)
		pipe.ZAdd(ctx, MediaTimelineKey, redis.Z{
			Score:  float64(entry.CapturedAt.UnixMilli()),
			Member: entry.Filename,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register media: %w", err)
	}
	return nil
}

// ListMedia returns up to limit indexed pictures, newest first.
func (s *StorageService) ListMedia(ctx context.Context, limit int) ([]models.MediaEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	names, err := s.redisClient.ZRevRange(ctx, MediaTimelineKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read media timeline: %w", err)
	}
	if len(names) == 0 {
		return []models.MediaEntry{}, nil
	}

	values, err := s.redisClient.HMGet(ctx, MediaEntriesKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read media entries: %w", err)
	}

	entries := make([]models.MediaEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry models.MediaEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *StorageService) RemoveMedia(ctx context.Context, filename string) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, MediaEntriesKey, filename)
		pipe.ZRem(ctx, MediaTimelineKey, filename)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove media: %w", err)
	}
	return nil
}
