package scheduler

import (
	"context"
	"fmt"
	"time"

	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues deferred tasks. It implements the notification module's
// Scheduler interface.
type Client struct {
	client *asynq.Client
	queue  string
	logger *logger.Logger
}

// NewClient connects to Redis from the scheduler configuration. Returns nil
// when no Redis URL is configured; callers treat a nil client as scheduling
// disabled.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		logger: log,
	}, nil
}

// EnqueueFollowUpReminder schedules delivery of one reminder at the given
// time.
func (c *Client) EnqueueFollowUpReminder(_ context.Context, notificacionID int64, at time.Time) error {
	payload, err := FollowUpPayload{NotificacionID: notificacionID}.Marshal()
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskFollowUpReminder, payload)
	info, err := c.client.Enqueue(task,
		asynq.ProcessAt(at),
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("encolar recordatorio: %w", err)
	}
	c.logger.Debug("recordatorio encolado", "task_id", info.ID, "notificacion_id", notificacionID, "at", at)
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
