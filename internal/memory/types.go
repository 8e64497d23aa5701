// Package memory persists conversations across three storage tiers
// (Redis cache, MongoDB durable store, bounded in-process fallback)
// with a fixed fallback chain for writes and reads.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// ErrAllTiersFailed is returned when a write was rejected by every
// configured tier, including the local fallback. The turn is not
// recorded anywhere.
var ErrAllTiersFailed = errors.New("memory: all storage tiers failed")

// Tier is one storage backend for conversation state. The conversation
// itself is the logical entity; tiers are replicas of varying
// durability and recency guarantees.
type Tier interface {
	// Name identifies the tier in logs and health reports.
	Name() string

	// AppendOrdered appends a message to the ordered list stored under
	// key. Tiers with bounded storage honor trimTo (keep the newest
	// trimTo entries) and ttl; unbounded tiers may ignore both.
	AppendOrdered(ctx context.Context, key string, msg models.Message, trimTo int, ttl time.Duration) error

	// ReadRange returns up to limit messages for key in chronological
	// order, ending with the newest message.
	ReadRange(ctx context.Context, key string, limit int) ([]models.Message, error)

	// DeleteKey removes all messages stored under key.
	DeleteKey(ctx context.Context, key string) error

	// Ping reports whether the tier is reachable.
	Ping(ctx context.Context) error
}

// ConversationKey returns the storage key for a user's conversation.
func ConversationKey(userID string) string {
	return "conversation:" + userID
}
