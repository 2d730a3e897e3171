package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/shape-crop/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Capturer runs one queued capture. It must return the same picture when
// the same job id is delivered twice.
type Capturer interface {
	CaptureJob(ctx context.Context, jobID string, data []byte, rotation int) (*models.CaptureResult, error)
}

// JobStore keeps the latest status of each asynchronous job.
type JobStore interface {
	SetJobStatus(ctx context.Context, job *models.CaptureJob) error
	JobCounts(ctx context.Context) (map[string]int64, error)
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	captures  Capturer
	jobs      JobStore
}

func NewQueueService(
	rabbitmqURL string,
	queueName string,
	captures Capturer,
	jobs JobStore,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// one unacked capture per consumer; pictures are large
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		captures:  captures,
		jobs:      jobs,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
