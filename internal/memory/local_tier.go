package memory

import (
	"context"
	"sync"
	"time"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// localMaxEntries bounds the fallback list per conversation.
const localMaxEntries = 50

// LocalTier is the process-local fallback tier, used only when both
// the cache and durable tiers are unavailable. Contents are lost on
// restart.
type LocalTier struct {
	mu    sync.Mutex
	lists map[string][]models.Message
}

func NewLocalTier() *LocalTier {
	return &LocalTier{
		lists: make(map[string][]models.Message),
	}
}

func (l *LocalTier) Name() string { return "memory" }

// AppendOrdered appends the message and keeps the newest
// localMaxEntries entries. trimTo and ttl are ignored: the fallback
// has its own fixed bound and no expiry.
func (l *LocalTier) AppendOrdered(ctx context.Context, key string, msg models.Message, trimTo int, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append(l.lists[key], msg)
	if len(list) > localMaxEntries {
		list = list[len(list)-localMaxEntries:]
	}
	l.lists[key] = list
	return nil
}

func (l *LocalTier) ReadRange(ctx context.Context, key string, limit int) ([]models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.lists[key]
	if len(list) > limit {
		list = list[len(list)-limit:]
	}

	out := make([]models.Message, len(list))
	copy(out, list)
	return out, nil
}

func (l *LocalTier) DeleteKey(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.lists, key)
	return nil
}

func (l *LocalTier) Ping(ctx context.Context) error { return nil }
