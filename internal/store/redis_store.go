package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

// RedisConfig holds Redis connection configuration for the live-state store.
type RedisConfig struct {
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ChatTTL    time.Duration `mapstructure:"chat_ttl"`
	ChatMaxLen int           `mapstructure:"chat_max_len"`
}

// redisStore implements LiveStateStore using Redis.
type redisStore struct {
	client     *redis.Client
	chatTTL    time.Duration
	chatMaxLen int64
}

// NewRedisStore creates a new Redis-backed live-state store. It fails if the
// Redis server cannot be reached, which keeps the service from starting
// without its shared store.
func NewRedisStore(cfg RedisConfig) (LiveStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	chatTTL := cfg.ChatTTL
	if chatTTL <= 0 {
		chatTTL = 24 * time.Hour
	}
	chatMaxLen := int64(cfg.ChatMaxLen)
	if chatMaxLen <= 0 {
		chatMaxLen = 500
	}

	return &redisStore{
		client:     client,
		chatTTL:    chatTTL,
		chatMaxLen: chatMaxLen,
	}, nil
}

// Redis key patterns:
// room:{room_id}:viewers   SET<user_id>   - distinct identities present
// room:{room_id}:chat      LIST<json>     - chat log, capped, 24h TTL
// room:{room_id}:queue     LIST<json>     - waiting queue, append-only

func roomViewersKey(roomID string) string {
	return fmt.Sprintf("room:%s:viewers", roomID)
}

func roomChatKey(roomID string) string {
	return fmt.Sprintf("room:%s:chat", roomID)
}

func roomQueueKey(roomID string) string {
	return fmt.Sprintf("room:%s:queue", roomID)
}

func (s *redisStore) AddViewer(ctx context.Context, roomID, userID string) error {
	return s.client.SAdd(ctx, roomViewersKey(roomID), userID).Err()
}

func (s *redisStore) RemoveViewer(ctx context.Context, roomID, userID string) error {
	return s.client.SRem(ctx, roomViewersKey(roomID), userID).Err()
}

func (s *redisStore) ViewerCount(ctx context.Context, roomID string) (int, error) {
	n, err := s.client.SCard(ctx, roomViewersKey(roomID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *redisStore) ClearViewers(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, roomViewersKey(roomID)).Err()
}

func (s *redisStore) AppendChat(ctx context.Context, roomID string, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := roomChatKey(roomID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.chatMaxLen, -1)
	pipe.Expire(ctx, key, s.chatTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) ChatHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = int(s.chatMaxLen)
	}

	raw, err := s.client.LRange(ctx, roomChatKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *redisStore) AppendQueue(ctx context.Context, roomID string, entry domain.QueueEntry) (int, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal queue entry: %w", err)
	}

	n, err := s.client.RPush(ctx, roomQueueKey(roomID), data).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *redisStore) QueueEntries(ctx context.Context, roomID string) ([]domain.QueueEntry, error) {
	raw, err := s.client.LRange(ctx, roomQueueKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.QueueEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.QueueEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
