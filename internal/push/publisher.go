package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Publisher delivers a payload to a per-recipient push channel. Delivery is fire-and-forget:
// a nil error only means the transport accepted the message.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload domain.PushPayload) error
}

// ErrNotConfigured is returned when no transport client is available.
var ErrNotConfigured = errors.New("push transport not configured")

// RedisPublisher publishes JSON payloads with Redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps a go-redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends payload to channel.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload domain.PushPayload) error {
	if p == nil || p.client == nil {
		return ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// ChannelFor returns the push channel scoped to one employee.
func ChannelFor(prefix, employeeID string) string {
	return prefix + employeeID
}
