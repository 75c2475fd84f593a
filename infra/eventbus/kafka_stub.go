//go:build !kafka
// +build !kafka

package eventbus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/charity/pkg/eventbus"
)

var errKafkaDisabled = errors.New("kafka event bus: build with -tags kafka to enable")

type KafkaEventBusConfig struct {
	GroupID      string
	TopicPrefix  string
	SASLUsername string
	SASLPassword string
	TLSEnabled   bool
}

type KafkaEventBus struct{}

func NewWithKafka(
	brokers string,
	factories eventbus.Factories,
	logger *slog.Logger,
	config *KafkaEventBusConfig,
) (*KafkaEventBus, error) {
	return nil, errKafkaDisabled
}

func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {}

func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	return errKafkaDisabled
}

func (b *KafkaEventBus) DeadLetters(context.Context, int) ([]eventbus.DeadLetter, error) {
	return nil, errKafkaDisabled
}

func (b *KafkaEventBus) Close() error { return nil }

var _ eventbus.Bus = (*KafkaEventBus)(nil)
