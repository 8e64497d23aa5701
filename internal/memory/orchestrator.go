package memory

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// Toucher receives session lifecycle notifications from the
// orchestrator's write path.
type Toucher interface {
	Touch(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

// Orchestrator coordinates conversation writes and reads across the
// cache, durable and local fallback tiers. It owns the fallback chain:
// writes go to cache and durable independently, landing in the local
// tier only when both are down; reads return the first non-empty tier
// and never merge tiers, so a partially written tier cannot introduce
// duplicate or out-of-order entries.
type Orchestrator struct {
	cache    Tier // may be nil when Redis is not configured
	durable  Tier // may be nil when MongoDB is not configured
	fallback *LocalTier

	cacheDown   atomic.Bool
	durableDown atomic.Bool

	trimTo      int
	ttl         time.Duration
	callTimeout time.Duration

	sessions Toucher
}

// Options configures the orchestrator.
type Options struct {
	// MaxContextMessages bounds the context window. The cache list is
	// trimmed to twice this value (user + assistant turns).
	MaxContextMessages int

	// SessionTTL is the cache-entry lifetime, refreshed on every write.
	SessionTTL time.Duration

	// CallTimeout bounds each individual tier call. A timed-out call is
	// treated the same as an unreachable tier for that invocation.
	CallTimeout time.Duration
}

// NewOrchestrator creates the orchestrator. cache and durable may be
// nil; the local fallback tier is always present.
func NewOrchestrator(cache, durable Tier, opts Options) *Orchestrator {
	if opts.MaxContextMessages <= 0 {
		opts.MaxContextMessages = 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 5 * time.Second
	}

	return &Orchestrator{
		cache:       cache,
		durable:     durable,
		fallback:    NewLocalTier(),
		trimTo:      opts.MaxContextMessages * 2,
		ttl:         opts.SessionTTL,
		callTimeout: opts.CallTimeout,
	}
}

// SetSessions wires the session manager. Set after construction
// because the manager reads conversation state back through the
// orchestrator.
func (o *Orchestrator) SetSessions(s Toucher) {
	o.sessions = s
}

// Save writes the message to every reachable tier. The cache write and
// the durable write are independent; the local fallback only takes the
// message when both failed. Session metadata is touched on any
// accepted write. ErrAllTiersFailed is returned when no tier accepted
// the message.
func (o *Orchestrator) Save(ctx context.Context, msg models.Message) error {
	key := ConversationKey(msg.UserID)

	// Both tier writes are detached from the caller's context so a
	// disconnect neither aborts an append already in flight nor gets a
	// healthy tier marked down over a context.Canceled error.
	durableCh := make(chan bool, 1)
	go func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.callTimeout)
		defer cancel()
		durableCh <- o.tryAppend(dctx, o.durable, &o.durableDown, key, msg)
	}()

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.callTimeout)
	cacheOK := o.tryAppend(cctx, o.cache, &o.cacheDown, key, msg)
	cancel()

	durableOK := <-durableCh

	stored := cacheOK || durableOK
	if !stored {
		if err := o.fallback.AppendOrdered(ctx, key, msg, o.trimTo, o.ttl); err == nil {
			stored = true
			log.Printf("message for %s stored in local fallback only", msg.UserID)
		}
	}
	if !stored {
		return ErrAllTiersFailed
	}

	if o.sessions != nil {
		if err := o.sessions.Touch(ctx, msg.UserID); err != nil {
			log.Printf("session touch failed for %s: %v", msg.UserID, err)
		}
	}
	return nil
}

// History returns up to limit messages in chronological order, served
// by the first tier in the chain (cache, durable, local) that yields a
// non-empty result.
func (o *Orchestrator) History(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = o.trimTo
	}
	key := ConversationKey(userID)

	if msgs, ok := o.tryRead(ctx, o.cache, &o.cacheDown, key, limit); ok && len(msgs) > 0 {
		return msgs, nil
	}
	if msgs, ok := o.tryRead(ctx, o.durable, &o.durableDown, key, limit); ok && len(msgs) > 0 {
		return msgs, nil
	}

	return o.fallback.ReadRange(ctx, key, limit)
}

// Clear removes the conversation and session record from every
// reachable tier. Unreachable tiers are skipped without error.
func (o *Orchestrator) Clear(ctx context.Context, userID string) error {
	key := ConversationKey(userID)

	o.tryDelete(ctx, o.cache, &o.cacheDown, key)
	o.tryDelete(ctx, o.durable, &o.durableDown, key)
	if err := o.fallback.DeleteKey(ctx, key); err != nil {
		log.Printf("fallback clear failed for %s: %v", userID, err)
	}

	if o.sessions != nil {
		if err := o.sessions.Clear(ctx, userID); err != nil {
			log.Printf("session clear failed for %s: %v", userID, err)
		}
	}
	return nil
}

// Ping re-checks every configured tier and resets the down flag of any
// tier that answers. Intended for startup and external health probes;
// the regular request path never retries a down tier.
func (o *Orchestrator) Ping(ctx context.Context) map[string]bool {
	status := map[string]bool{"memory": true}

	status["redis"] = o.pingTier(ctx, o.cache, &o.cacheDown)
	status["mongodb"] = o.pingTier(ctx, o.durable, &o.durableDown)
	return status
}

func (o *Orchestrator) pingTier(ctx context.Context, tier Tier, down *atomic.Bool) bool {
	if tier == nil {
		return false
	}

	pctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	if err := tier.Ping(pctx); err != nil {
		down.Store(true)
		return false
	}
	if down.Swap(false) {
		log.Printf("%s tier recovered", tier.Name())
	}
	return true
}

func (o *Orchestrator) tryAppend(ctx context.Context, tier Tier, down *atomic.Bool, key string, msg models.Message) bool {
	if tier == nil || down.Load() {
		return false
	}
	if err := tier.AppendOrdered(ctx, key, msg, o.trimTo, o.ttl); err != nil {
		log.Printf("%s tier write failed, marking down: %v", tier.Name(), err)
		down.Store(true)
		return false
	}
	return true
}

func (o *Orchestrator) tryRead(ctx context.Context, tier Tier, down *atomic.Bool, key string, limit int) ([]models.Message, bool) {
	if tier == nil || down.Load() {
		return nil, false
	}

	rctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	msgs, err := tier.ReadRange(rctx, key, limit)
	if err != nil {
		// A failure caused by the caller's own cancellation says nothing
		// about tier health.
		if ctx.Err() != nil {
			log.Printf("%s tier read aborted: %v", tier.Name(), err)
			return nil, false
		}
		log.Printf("%s tier read failed, marking down: %v", tier.Name(), err)
		down.Store(true)
		return nil, false
	}
	return msgs, true
}

func (o *Orchestrator) tryDelete(ctx context.Context, tier Tier, down *atomic.Bool, key string) {
	if tier == nil || down.Load() {
		return
	}

	dctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	if err := tier.DeleteKey(dctx, key); err != nil {
		if ctx.Err() != nil {
			log.Printf("%s tier clear aborted: %v", tier.Name(), err)
			return
		}
		log.Printf("%s tier clear failed, marking down: %v", tier.Name(), err)
		down.Store(true)
	}
}
