//go:build kafka
// +build kafka

package eventbus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID      string
	TopicPrefix  string
	SASLUsername string
	SASLPassword string
	TLSEnabled   bool
}

func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{GroupID: "charity", TopicPrefix: "charity.events"}
}

// KafkaEventBus publishes one topic per event type. Failed events are
// written to "<prefix>.dlq.<type>" and kept in a local dead-letter log.
type KafkaEventBus struct {
	brokers   []string
	writer    *kafka.Writer
	dialer    *kafka.Dialer
	factories eventbus.Factories
	config    *KafkaEventBusConfig
	logger    *slog.Logger
	dlq       *deadLetterLog

	handlersMtx sync.RWMutex
	handlers    map[string][]eventbus.HandlerFunc
	readersMtx  sync.Mutex
	readers     map[string]*kafka.Reader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed bus. brokers is comma separated.
func NewWithKafka(
	brokers string,
	factories eventbus.Factories,
	logger *slog.Logger,
	config *KafkaEventBusConfig,
) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, errors.New("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = "charity.events"
	}
	if config.GroupID == "" {
		config.GroupID = "charity"
	}

	mechanism, err := saslMechanism(config)
	if err != nil {
		return nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, SASLMechanism: mechanism}
	transport := &kafka.Transport{SASL: mechanism}
	if config.TLSEnabled {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
		transport.TLS = dialer.TLS
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaEventBus{
		brokers: parsed,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(parsed...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
			Transport:              transport,
		},
		dialer:    dialer,
		factories: factories,
		config:    config,
		logger:    logger.With("bus", "kafka"),
		dlq:       newDeadLetterLog(defaultDeadLetterCapacity),
		handlers:  make(map[string][]eventbus.HandlerFunc),
		readers:   make(map[string]*kafka.Reader),
		ctx:       ctx,
		cancel:    cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", parsed[0])
	if err != nil {
		cancel()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	b.logger.Info("🚀 Kafka event bus initialized", "brokers", parsed, "group_id", config.GroupID)
	return b, nil
}

func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: marshal failed: %w", err)
	}
	value, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("kafka event bus: envelope marshal failed: %w", err)
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topicNameFor(b.config.TopicPrefix, event.Type()),
		Key:   []byte(event.Type()),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topicNameFor(b.config.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType string, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		b.process(msg.Value)
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// process decodes one message and runs every handler for its type.
func (b *KafkaEventBus) process(value []byte) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		b.logger.Error("failed to unmarshal envelope", "error", err)
		return
	}
	constructor, ok := b.factories[env.Type]
	if !ok {
		b.logger.Error("unknown event type", "type", env.Type)
		return
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		b.logger.Error("failed to unmarshal event payload", "error", err, "type", env.Type)
		return
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[env.Type]...)
	b.handlersMtx.RUnlock()

	for _, h := range handlers {
		if err := runHandler(b.ctx, h, evt); err != nil {
			dl := b.dlq.add(evt, err)
			b.logger.Warn("event handler failed, dead-lettered", "type", env.Type, "dead_letter_id", dl.ID, "error", err)
			b.publishToDLQ(env.Type, value)
		}
	}
}

func (b *KafkaEventBus) publishToDLQ(eventType string, raw []byte) {
	if b.writer == nil {
		return
	}
	topic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.writer.WriteMessages(context.WithoutCancel(b.ctx), kafka.Message{
		Topic: topic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		b.logger.Error("kafka event bus: dlq publish failed", "error", err, "topic", topic)
	}
}

func (b *KafkaEventBus) DeadLetters(_ context.Context, limit int) ([]eventbus.DeadLetter, error) {
	return b.dlq.list(limit), nil
}

// Close stops consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	if b.writer != nil {
		return b.writer.Close()
	}
	return nil
}

func saslMechanism(config *KafkaEventBusConfig) (sasl.Mechanism, error) {
	user, pass := strings.TrimSpace(config.SASLUsername), strings.TrimSpace(config.SASLPassword)
	if user == "" && pass == "" {
		return nil, nil
	}
	if user == "" || pass == "" {
		return nil, errors.New("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: user, Password: pass}, nil
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, p := range strings.Split(brokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType))
}

func dlqTopicNameFor(prefix, eventType string) string {
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType))
}

var (
	_ eventbus.Bus              = (*KafkaEventBus)(nil)
	_ eventbus.DeadLetterReader = (*KafkaEventBus)(nil)
)
