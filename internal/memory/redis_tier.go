package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// RedisTier is the fast cache tier: a bounded, TTL-refreshed list per
// conversation, newest entry at the head.
type RedisTier struct {
	client *redis.Client
}

// NewRedisTier connects to Redis and verifies the connection.
func NewRedisTier(redisURL string, timeout time.Duration) (*RedisTier, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTier{client: client}, nil
}

func (r *RedisTier) Name() string { return "redis" }

// Client exposes the underlying connection so the session manager can
// share it for session hashes.
func (r *RedisTier) Client() *redis.Client {
	return r.client
}

// AppendOrdered pushes the message to the head of the list, trims the
// list to trimTo entries and refreshes the TTL.
func (r *RedisTier) AppendOrdered(ctx context.Context, key string, msg models.Message, trimTo int, ttl time.Duration) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(trimTo-1))
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to Redis list: %w", err)
	}
	return nil
}

// ReadRange reads the newest limit entries and reverses them to
// chronological order.
func (r *RedisTier) ReadRange(ctx context.Context, key string, limit int) ([]models.Message, error) {
	raw, err := r.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read Redis list: %w", err)
	}

	messages := make([]models.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg models.Message
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			log.Printf("skipping malformed cache entry on %s: %v", key, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisTier) DeleteKey(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (r *RedisTier) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisTier) Close() error {
	return r.client.Close()
}
