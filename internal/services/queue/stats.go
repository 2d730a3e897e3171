package queue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var errChannelUnavailable = errors.New("channel not available")

// GetQueueStats reports the broker's view of the capture queue together
// with how many jobs reached each status.
func (q *QueueService) GetQueueStats(ctx context.Context) (map[string]interface{}, error) {
	if q.channel == nil {
		return nil, errChannelUnavailable
	}

	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return map[string]interface{}{
		"name":      queueInfo.Name,
		"pending":   queueInfo.Messages,
		"consumers": queueInfo.Consumers,
		"jobs":      q.jobCounts(ctx),
	}, nil
}

// jobCounts is empty when no job store is configured or it cannot be read.
func (q *QueueService) jobCounts(ctx context.Context) map[string]int64 {
	if q.jobs == nil {
		return map[string]int64{}
	}

	counts, err := q.jobs.JobCounts(ctx)
	if err != nil {
		q.logger.Warn("Failed to read job counts", zap.Error(err))
		return map[string]int64{}
	}
	return counts
}

// HealthCheck reports whether captures can be queued.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: " + errChannelUnavailable.Error()
	default:
		return "healthy"
	}
}
