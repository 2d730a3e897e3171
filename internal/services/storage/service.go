package storage

import (
	"time"

	"github.com/phambaophuc/shape-crop/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

// StorageService groups the networked stores: the redis-backed media
// index, result cache and job status, plus the optional Supabase mirror.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
}

type ServiceOptions struct {
	CacheDuration time.Duration
	MaxRetries    int
	Timeout       time.Duration
}

var DefaultOptions = ServiceOptions{
	CacheDuration: 24 * time.Hour,
	MaxRetries:    3,
	Timeout:       5 * time.Second,
}

const (
	CacheKeyPrefix      = "capture_cache:"
	JobKeyPrefix        = "capture_job:"
	JobCountsKey        = "capture_jobs:counts"
	MediaTimelineKey    = "media_index:timeline"
	MediaEntriesKey     = "media_index:entries"
	mirrorKeyPrefix     = "captures"
	healthStatusHealthy = "healthy"
)

func NewStorageService(cfg *config.Config, opts ...ServiceOptions) (*StorageService, error) {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	if cfg.Storage.CacheDuration > 0 {
		options.CacheDuration = cfg.Storage.CacheDuration
	}

	var sbClient *storage_go.Client
	if cfg.Supabase.Enabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   options.MaxRetries,
		DialTimeout:  options.Timeout,
		ReadTimeout:  options.Timeout,
		WriteTimeout: options.Timeout,
	})

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: options.CacheDuration,
	}, nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
