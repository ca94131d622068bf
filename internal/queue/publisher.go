package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/toggle-audit-pipeline/internal/domain"
)

// NotificationPublisher сериализует NotificationMessage и кладет его в очередь.
// Реализует service.EventPublisher.
type NotificationPublisher struct {
	client *Client
	queue  string
}

func NewNotificationPublisher(client *Client, queue string) *NotificationPublisher {
	return &NotificationPublisher{client: client, queue: queue}
}

func (p *NotificationPublisher) Publish(ctx context.Context, msg domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to encode notification: %w", err)
	}
	return p.client.Publish(ctx, p.queue, body)
}
