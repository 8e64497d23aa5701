// Package session tracks per-user chat session metadata with a TTL
// independent from message storage. Records live in the cache tier as
// Redis hashes; expiry is enforced by Redis itself.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// HistoryReader is the conversation read path used to approximate
// session existence when the cache tier is unreachable.
type HistoryReader interface {
	History(ctx context.Context, userID string, limit int) ([]models.Message, error)
}

// Manager owns session lifecycle: lazy creation on first activity,
// counter and TTL refresh on every save, recreation after expiry.
// The message counter is advisory; concurrent touches for the same
// user are last-write-wins.
type Manager struct {
	client  *redis.Client // nil when Redis is not configured
	ttl     time.Duration
	history HistoryReader
}

func NewManager(client *redis.Client, ttl time.Duration, history HistoryReader) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{client: client, ttl: ttl, history: history}
}

// SessionKey returns the storage key for a user's session record.
func SessionKey(userID string) string {
	return "session:" + userID
}

// Touch refreshes the session on a saved message: if a live session
// exists its counter and activity are updated, otherwise a new session
// is created with a count of one.
func (m *Manager) Touch(ctx context.Context, userID string) error {
	if m.client == nil {
		return nil
	}
	key := SessionKey(userID)

	exists, err := m.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session existence: %w", err)
	}

	if exists == 0 {
		_, err := m.create(ctx, userID)
		return err
	}

	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, key, "last_activity", time.Now().UTC().Format(time.RFC3339))
	pipe.HIncrBy(ctx, key, "messages_count", 1)
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// Get returns the user's live session, or nil when none exists.
// When the cache tier is unreachable, existence is approximated as
// "a session exists if the conversation is non-empty".
func (m *Manager) Get(ctx context.Context, userID string) (*models.Session, error) {
	if m.client == nil {
		return m.approximate(ctx, userID)
	}

	data, err := m.client.HGetAll(ctx, SessionKey(userID)).Result()
	if err != nil {
		return m.approximate(ctx, userID)
	}
	if len(data) == 0 {
		return nil, nil
	}

	sess := &models.Session{
		SessionID: data["session_id"],
		UserID:    data["user_id"],
		IsActive:  data["is_active"] == "true",
	}
	if t, err := time.Parse(time.RFC3339, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, data["last_activity"]); err == nil {
		sess.LastActivity = t
	}
	if n, err := strconv.Atoi(data["messages_count"]); err == nil {
		sess.MessageCount = n
	}
	return sess, nil
}

// Clear removes the session record. A missing record is not an error.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Del(ctx, SessionKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (m *Manager) create(ctx context.Context, userID string) (*models.Session, error) {
	now := time.Now().UTC()
	sess := &models.Session{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		MessageCount: 1,
		IsActive:     true,
	}

	key := SessionKey(userID)
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"session_id":     sess.SessionID,
		"user_id":        sess.UserID,
		"created_at":     sess.CreatedAt.Format(time.RFC3339),
		"last_activity":  sess.LastActivity.Format(time.RFC3339),
		"messages_count": sess.MessageCount,
		"is_active":      "true",
	})
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// approximate synthesizes a session from conversation state when the
// cache tier cannot answer. Accuracy is traded for availability; the
// counter reflects only what the read path returned.
func (m *Manager) approximate(ctx context.Context, userID string) (*models.Session, error) {
	if m.history == nil {
		return nil, nil
	}

	msgs, err := m.history.History(ctx, userID, 50)
	if err != nil || len(msgs) == 0 {
		return nil, nil
	}

	last := msgs[len(msgs)-1]
	return &models.Session{
		SessionID:    userID + "_fallback",
		UserID:       userID,
		CreatedAt:    last.CreatedAt,
		LastActivity: last.CreatedAt,
		MessageCount: len(msgs),
		IsActive:     true,
	}, nil
}
