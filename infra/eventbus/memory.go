package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/google/uuid"
)

const (
	defaultDeadLetterCapacity = 500
	defaultQueueSize          = 100
)

// ErrQueueFull is recorded as the cause when the async bus drops an event.
var ErrQueueFull = errors.New("event queue full")

// deadLetterLog is a bounded in-process dead-letter store.
type deadLetterLog struct {
	mu       sync.Mutex
	capacity int
	entries  []eventbus.DeadLetter
}

func newDeadLetterLog(capacity int) *deadLetterLog {
	if capacity <= 0 {
		capacity = defaultDeadLetterCapacity
	}
	return &deadLetterLog{capacity: capacity}
}

func (l *deadLetterLog) add(event eventbus.Event, cause error) eventbus.DeadLetter {
	payload, err := json.Marshal(event)
	if err != nil {
		payload, _ = json.Marshal(fmt.Sprintf("%+v", event))
	}
	dl := eventbus.DeadLetter{
		ID:        uuid.NewString(),
		EventType: event.Type(),
		Payload:   payload,
		Error:     cause.Error(),
		FailedAt:  time.Now().UTC(),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, dl)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append([]eventbus.DeadLetter(nil), l.entries[over:]...)
	}
	return dl
}

func (l *deadLetterLog) list(limit int) []eventbus.DeadLetter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]eventbus.DeadLetter, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// runHandler calls h, turning a panic into an error.
func runHandler(ctx context.Context, h eventbus.HandlerFunc, e eventbus.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, e)
}

// MemoryEventBus dispatches events synchronously to in-process handlers.
// Handler failures never reach the emitter; they are logged and recorded
// as dead letters.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	dlq       *deadLetterLog
	published []eventbus.Event
}

// NewWithMemory creates a synchronous in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
		dlq:      newDeadLetterLog(defaultDeadLetterCapacity),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type()]...)
	b.published = append(b.published, event)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := runHandler(ctx, handler, event); err != nil {
			dl := b.dlq.add(event, err)
			b.logger.Warn("event handler failed, dead-lettered",
				"type", event.Type(), "dead_letter_id", dl.ID, "error", err)
		}
	}
	return nil
}

// Published returns the events emitted so far.
func (b *MemoryEventBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.Event(nil), b.published...)
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

func (b *MemoryEventBus) DeadLetters(_ context.Context, limit int) ([]eventbus.DeadLetter, error) {
	return b.dlq.list(limit), nil
}

type queued struct {
	ctx   context.Context
	event eventbus.Event
}

// MemoryAsyncEventBus queues events and runs handlers on a worker pool.
type MemoryAsyncEventBus struct {
	handlers map[string][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan queued
	wg       sync.WaitGroup
	inflight sync.WaitGroup
	once     sync.Once
	logger   *slog.Logger
	dlq      *deadLetterLog
}

// NewWithMemoryAsync creates an asynchronous in-memory bus with the given
// number of workers.
func NewWithMemoryAsync(logger *slog.Logger, workers int) *MemoryAsyncEventBus {
	if workers <= 0 {
		workers = 4
	}
	b := &MemoryAsyncEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		eventCh:  make(chan queued, defaultQueueSize),
		logger:   logger.With("bus", "memory-async"),
		dlq:      newDeadLetterLog(defaultDeadLetterCapacity),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.process()
	}
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit queues the event without blocking. The handler context is detached
// from the caller's cancellation so a finished HTTP request does not abort
// delivery. When the queue is full the event is dead-lettered instead.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.inflight.Add(1)
	select {
	case b.eventCh <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		b.inflight.Done()
		dl := b.dlq.add(event, ErrQueueFull)
		b.logger.Warn("event queue full, dead-lettered",
			"type", event.Type(), "dead_letter_id", dl.ID)
		return nil
	}
}

func (b *MemoryAsyncEventBus) process() {
	defer b.wg.Done()
	for w := range b.eventCh {
		b.mu.RLock()
		handlers := append([]eventbus.HandlerFunc(nil), b.handlers[w.event.Type()]...)
		b.mu.RUnlock()
		for _, handler := range handlers {
			if err := runHandler(w.ctx, handler, w.event); err != nil {
				dl := b.dlq.add(w.event, err)
				b.logger.Warn("event handler failed, dead-lettered",
					"type", w.event.Type(), "dead_letter_id", dl.ID, "error", err)
			}
		}
		b.inflight.Done()
	}
}

// Drain blocks until every queued event has been handled.
func (b *MemoryAsyncEventBus) Drain() { b.inflight.Wait() }

// Close stops accepting events and waits for the workers to finish.
func (b *MemoryAsyncEventBus) Close() error {
	b.once.Do(func() {
		close(b.eventCh)
		b.wg.Wait()
	})
	return nil
}

func (b *MemoryAsyncEventBus) DeadLetters(_ context.Context, limit int) ([]eventbus.DeadLetter, error) {
	return b.dlq.list(limit), nil
}

var (
	_ eventbus.Bus              = (*MemoryEventBus)(nil)
	_ eventbus.DeadLetterReader = (*MemoryEventBus)(nil)
	_ eventbus.Bus              = (*MemoryAsyncEventBus)(nil)
	_ eventbus.DeadLetterReader = (*MemoryAsyncEventBus)(nil)
)
