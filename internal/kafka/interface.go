package kafka

import (
	"context"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

// ChatProducer hands accepted chat messages to the persistence pipeline.
// The producer is optional: when Kafka is unavailable at startup the service
// runs without it and chat stays live-only plus the Redis mirror.
type ChatProducer interface {
	ProduceChatMessage(ctx context.Context, roomID string, msg domain.ChatMessage) error
	Close() error
}
