package storage

import (
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck checks Redis + Supabase
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = healthStatusHealthy
	}

	if !s.MirrorEnabled() {
		status["supabase"] = "not configured"
		return status
	}

	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	if err != nil {
		status["supabase"] = "unhealthy: " + fmt.Sprintf("%v", err)
	} else {
		status["supabase"] = healthStatusHealthy
	}

	return status
}
