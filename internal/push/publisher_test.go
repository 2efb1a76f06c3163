package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "helpdesk:notifications:E-100", ChannelFor("helpdesk:notifications:", "E-100"))
}

func TestRedisPublisherWithoutClient(t *testing.T) {
	var p *RedisPublisher
	err := p.Publish(context.Background(), "c", domain.PushPayload{})
	require.ErrorIs(t, err, ErrNotConfigured)

	err = NewRedisPublisher(nil).Publish(context.Background(), "c", domain.PushPayload{})
	require.ErrorIs(t, err, ErrNotConfigured)
}
