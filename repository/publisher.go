package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"civicsync-workflow/models"

	"github.com/redis/go-redis/v9"
)

// RedisNotificationPublisher pushes stored notifications to live listeners
// over Redis pub/sub.
type RedisNotificationPublisher struct {
	client *redis.Client
}

func NewRedisNotificationPublisher(client *redis.Client) *RedisNotificationPublisher {
	return &RedisNotificationPublisher{client: client}
}

// NotificationChannel is the pub/sub channel a recipient subscribes to.
func NotificationChannel(recipient models.Party) string {
	return fmt.Sprintf("notifications:%s:%s", recipient.Kind, recipient.ID.Hex())
}

func (p *RedisNotificationPublisher) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := p.client.Publish(ctx, NotificationChannel(n.Recipient), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
