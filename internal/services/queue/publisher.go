package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const captureMessageType = "capture"

// PublishJob queues a capture and records it as pending. The job id is
// the message id, so a redelivered message resolves to the same job.
func (q *QueueService) PublishJob(ctx context.Context, job *models.CaptureJob) error {
	if q.channel == nil {
		return errChannelUnavailable
	}

	job.Status = models.StatusPending
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         captureMessageType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    job.ID,
			Headers:      amqp.Table{"rotation": int32(job.Rotation)},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish capture job: %w", err)
	}

	q.updateStatus(ctx, job)
	q.logger.Info("Capture job queued",
		zap.String("job_id", job.ID),
		zap.Int("rotation", job.Rotation),
		zap.Int("image_bytes", len(job.Image)))
	return nil
}
