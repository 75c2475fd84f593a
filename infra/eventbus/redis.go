package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RedisEventBusConfig tunes the stream consumers.
type RedisEventBusConfig struct {
	KeyPrefix string
	// Block is how long one XREADGROUP call waits for new entries.
	Block     time.Duration
	DLQMaxLen int64
}

func DefaultRedisEventBusConfig() *RedisEventBusConfig {
	return &RedisEventBusConfig{
		KeyPrefix: "charity:",
		Block:     2 * time.Second,
		DLQMaxLen: 10000,
	}
}

// RedisEventBus delivers events through one Redis stream per event type,
// consumed by a group so each event is handled once across instances.
// Failed events go to a dead-letter stream.
type RedisEventBus struct {
	client    redis.UniversalClient
	factories eventbus.Factories
	config    *RedisEventBusConfig
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a Redis-backed event bus on an existing client.
func NewWithRedis(
	client redis.UniversalClient,
	factories eventbus.Factories,
	logger *slog.Logger,
	config *RedisEventBusConfig,
) (*RedisEventBus, error) {
	if client == nil {
		return nil, errors.New("redis event bus: client is required")
	}
	if config == nil {
		config = DefaultRedisEventBusConfig()
	}
	if config.Block <= 0 {
		config.Block = 2 * time.Second
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:    client,
		factories: factories,
		config:    config,
		logger:    logger.With("bus", "redis"),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Emit appends the event to its type's stream.
func (b *RedisEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("redis event bus: envelope marshal failed: %w", err)
	}
	stream := streamNameFor(b.config.KeyPrefix, event.Type())
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type(), "stream", stream)
	return nil
}

// Register starts a group consumer for eventType calling handler per entry.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	stream := streamNameFor(b.config.KeyPrefix, eventType)
	group := groupNameFor(b.config.KeyPrefix, eventType)
	consumer := fmt.Sprintf("consumer-%s", uuid.NewString())

	if err := b.client.XGroupCreateMkStream(b.ctx, stream, group, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "error", err, "stream", stream)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(stream, group, consumer, eventType, handler)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "consumer", consumer)
}

func (b *RedisEventBus) consume(stream, group, consumer, eventType string, handler eventbus.HandlerFunc) {
	for {
		if b.ctx.Err() != nil {
			return
		}
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.config.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("error reading from stream", "error", err, "stream", stream)
			time.Sleep(250 * time.Millisecond)
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(eventType, msg, handler)
				if err := b.client.XAck(b.ctx, stream, group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
				}
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(eventType string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	raw, _ := msg.Values["event"].(string)
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.pushToDLQ(eventType, json.RawMessage(fmt.Sprintf("%q", raw)), fmt.Errorf("bad envelope: %w", err))
		return
	}
	constructor, ok := b.factories[env.Type]
	if !ok {
		b.pushToDLQ(env.Type, env.Payload, fmt.Errorf("unknown event type %q", env.Type))
		return
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		b.pushToDLQ(env.Type, env.Payload, fmt.Errorf("bad payload: %w", err))
		return
	}
	if err := runHandler(b.ctx, handler, evt); err != nil {
		b.pushToDLQ(env.Type, env.Payload, err)
	}
}

func (b *RedisEventBus) pushToDLQ(eventType string, payload json.RawMessage, cause error) {
	dlq := dlqStreamName(b.config.KeyPrefix)
	args := &redis.XAddArgs{
		Stream: dlq,
		Values: map[string]any{
			"type":      eventType,
			"payload":   string(payload),
			"error":     cause.Error(),
			"failed_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	if b.config.DLQMaxLen > 0 {
		args.MaxLen = b.config.DLQMaxLen
		args.Approx = true
	}
	if err := b.client.XAdd(context.WithoutCancel(b.ctx), args).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq, "type", eventType, "error", cause)
}

// DeadLetters reads the newest entries of the dead-letter stream.
func (b *RedisEventBus) DeadLetters(ctx context.Context, limit int) ([]eventbus.DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	msgs, err := b.client.XRevRangeN(ctx, dlqStreamName(b.config.KeyPrefix), "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis event bus: read DLQ: %w", err)
	}
	out := make([]eventbus.DeadLetter, 0, len(msgs))
	for _, m := range msgs {
		dl := eventbus.DeadLetter{ID: m.ID}
		dl.EventType, _ = m.Values["type"].(string)
		dl.Error, _ = m.Values["error"].(string)
		if p, ok := m.Values["payload"].(string); ok && json.Valid([]byte(p)) {
			dl.Payload = json.RawMessage(p)
		}
		if ts, ok := m.Values["failed_at"].(string); ok {
			dl.FailedAt, _ = time.Parse(time.RFC3339Nano, ts)
		}
		out = append(out, dl)
	}
	return out, nil
}

// Close stops all consumers.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

var (
	_ eventbus.Bus              = (*RedisEventBus)(nil)
	_ eventbus.DeadLetterReader = (*RedisEventBus)(nil)
)
