package common

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/charity/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// KeyExtractor derives an idempotency key from an event. An empty key
// disables the check for that event.
type KeyExtractor func(eventbus.Event) string

const (
	// DefaultIdempotencyTTL outlasts the providers' webhook retry windows.
	DefaultIdempotencyTTL = 72 * time.Hour
	DefaultIdempotencyMax = 10000
)

type seenKey struct {
	key string
	at  time.Time
}

// IdempotencyTracker remembers which keys were handled successfully. Keys
// are forgotten after the TTL, and the oldest go first once more than max
// are held.
type IdempotencyTracker struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu        sync.Mutex
	processed map[string]time.Time
	order     []seenKey
	inflight  singleflight.Group
}

// TrackerOption configures an IdempotencyTracker.
type TrackerOption func(*IdempotencyTracker)

func WithTTL(ttl time.Duration) TrackerOption {
	return func(t *IdempotencyTracker) { t.ttl = ttl }
}

func WithMaxKeys(n int) TrackerOption {
	return func(t *IdempotencyTracker) { t.max = n }
}

func NewIdempotencyTracker(opts ...TrackerOption) *IdempotencyTracker {
	t := &IdempotencyTracker{
		ttl:       DefaultIdempotencyTTL,
		max:       DefaultIdempotencyMax,
		now:       time.Now,
		processed: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Seen reports whether key was handled successfully within the TTL.
func (t *IdempotencyTracker) Seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.processed[key]
	return ok && t.now().Sub(at) < t.ttl
}

// Len reports how many keys are held.
func (t *IdempotencyTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processed)
}

func (t *IdempotencyTracker) mark(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.processed[key] = now
	t.order = append(t.order, seenKey{key: key, at: now})
	t.prune(now)
}

// prune drops expired keys and the oldest beyond max. order is sorted by
// insertion time, so expired entries sit at its front.
func (t *IdempotencyTracker) prune(now time.Time) {
	i := 0
	for ; i < len(t.order); i++ {
		head := t.order[i]
		if now.Sub(head.at) < t.ttl && len(t.processed) <= t.max {
			break
		}
		// a re-marked key has a newer entry further back
		if t.processed[head.key].Equal(head.at) {
			delete(t.processed, head.key)
		}
	}
	if i > 0 {
		t.order = append(t.order[:0:0], t.order[i:]...)
	}
}

// WithIdempotency runs handler at most once per key. Concurrent deliveries
// of the same key share one execution; a failed execution is not
// remembered, so a later delivery retries it.
func WithIdempotency(
	handler eventbus.HandlerFunc,
	tracker *IdempotencyTracker,
	keyExtractor KeyExtractor,
	handlerName string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e eventbus.Event) error {
		key := keyExtractor(e)
		if key == "" {
			return handler(ctx, e)
		}
		log := logger.With("handler", handlerName, "event_type", e.Type(), "idempotency_key", key)

		if tracker.Seen(key) {
			log.Info("🔁 [SKIP] Event already processed")
			return nil
		}
		_, err, shared := tracker.inflight.Do(key, func() (any, error) {
			if tracker.Seen(key) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.mark(key)
			return nil, nil
		})
		if shared {
			log.Debug("joined in-flight execution")
		}
		return err
	}
}
