package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestEvent struct {
	Message string `json:"message"`
}

func (e *TestEvent) Type() string { return "test.event" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupRedisBus(t *testing.T) (*RedisEventBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus, err := NewWithRedis(client, eventbus.Factories{
		"test.event": func() eventbus.Event { return &TestEvent{} },
	}, testLogger(), &RedisEventBusConfig{KeyPrefix: "test:", Block: 100 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus, mr
}

func TestRedisBusHandlerReceivesEvent(t *testing.T) {
	bus, _ := setupRedisBus(t)

	received := make(chan string, 1)
	bus.Register("test.event", func(ctx context.Context, e eventbus.Event) error {
		received <- e.(*TestEvent).Message
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), &TestEvent{Message: "hello"}))

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg)
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestRedisBusMultipleEvents(t *testing.T) {
	bus, _ := setupRedisBus(t)

	var count atomic.Int32
	done := make(chan struct{})
	bus.Register("test.event", func(ctx context.Context, e eventbus.Event) error {
		if count.Add(1) == 3 {
			close(done)
		}
		return nil
	})

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Emit(context.Background(), &TestEvent{Message: m}))
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all events were received")
	}
}

func TestRedisBusDLQ(t *testing.T) {
	bus, _ := setupRedisBus(t)

	bus.Register("test.event", func(ctx context.Context, e eventbus.Event) error {
		return errors.New("smtp unreachable")
	})
	require.NoError(t, bus.Emit(context.Background(), &TestEvent{Message: "to the DLQ"}))

	var letters []eventbus.DeadLetter
	require.Eventually(t, func() bool {
		var err error
		letters, err = bus.DeadLetters(context.Background(), 10)
		return err == nil && len(letters) == 1
	}, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, "test.event", letters[0].EventType)
	assert.Equal(t, "smtp unreachable", letters[0].Error)
	assert.JSONEq(t, `{"message":"to the DLQ"}`, string(letters[0].Payload))
	assert.False(t, letters[0].FailedAt.IsZero())
}

func TestRedisBusUnknownTypeIsDeadLettered(t *testing.T) {
	bus, _ := setupRedisBus(t)

	bus.Register("other.event", func(ctx context.Context, e eventbus.Event) error { return nil })
	require.NoError(t, bus.Emit(context.Background(), &otherEvent{}))

	require.Eventually(t, func() bool {
		letters, err := bus.DeadLetters(context.Background(), 10)
		return err == nil && len(letters) == 1 && letters[0].EventType == "other.event"
	}, 3*time.Second, 50*time.Millisecond)
}

type otherEvent struct{}

func (otherEvent) Type() string { return "other.event" }

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "p:events:contribution:created", streamNameFor("p:", "contribution.created"))
	assert.Equal(t, "p:group:notification:requested", groupNameFor("p:", "notification.requested"))
	assert.Equal(t, "p:dlq:events", dlqStreamName("p:"))
}

func TestNewWithRedis_RequiresClient(t *testing.T) {
	_, err := NewWithRedis(nil, nil, testLogger(), nil)
	assert.Error(t, err)
}
