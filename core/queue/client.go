package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer is the slice of the queue the services depend on.
type Enqueuer interface {
	EnqueuePartyExpiry(ctx context.Context, partyID uuid.UUID, deadline time.Time) error
	EnqueueNotificationDelivery(ctx context.Context, notificationID, userID uuid.UUID) error
}

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

// EnqueuePartyExpiry schedules the durable expiry trigger for a party.
// The task id encodes the deadline, so a restore that moves expires_at
// forward schedules a distinct task and the old one is rejected by the
// deadline guard when it fires.
func (c *Client) EnqueuePartyExpiry(ctx context.Context, partyID uuid.UUID, deadline time.Time) error {
	task, err := NewPartyExpireTask(partyID, deadline)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(deadline),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TypePartyExpire, partyID, deadline.Unix())),
		asynq.MaxRetry(3),
	)
	if err != nil && err != asynq.ErrTaskIDConflict {
		return err
	}
	return nil
}

func (c *Client) EnqueueNotificationDelivery(ctx context.Context, notificationID, userID uuid.UUID) error {
	task, err := NewNotificationDeliverTask(notificationID, userID)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.MaxRetry(2))
	if err != nil {
		logger.Error("Queue:EnqueueNotificationDelivery:Error", "notification_id", notificationID, "error", err)
	}
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}
