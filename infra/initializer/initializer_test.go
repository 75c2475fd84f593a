package initializer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	infra_eventbus "github.com/amirasaad/charity/infra/eventbus"
	infra_lock "github.com/amirasaad/charity/infra/lock"
	infra_mail "github.com/amirasaad/charity/infra/mail"
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.App {
	return &config.App{
		Env:      "test",
		Log:      &config.Log{Level: 8, Format: "text"},
		DB:       &config.DB{},
		Auth:     &config.Auth{Jwt: &config.Jwt{}},
		Redis:    &config.Redis{KeyPrefix: "charity:", LockTTL: 5 * time.Second},
		EventBus: &config.EventBus{Driver: DriverMemory, Workers: 1},
		PaymentProviders: &config.PaymentProviders{
			Stripe:   &config.Stripe{},
			Paystack: &config.Paystack{},
		},
		Mail:         &config.Mail{},
		Exchange:     &config.Exchange{NGNPerUSD: "1500"},
		Notification: &config.Notification{},
	}
}

func TestInitializeDependencies_InProcessFallbacks(t *testing.T) {
	cfg := baseConfig()
	deps, cleanup, err := InitializeDependencies(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, deps.Store)
	assert.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, deps.EventBus)
	assert.NotNil(t, deps.DeadLetters)
	assert.IsType(t, &infra_lock.MemoryLocker{}, deps.Locker)
	assert.IsType(t, &infra_mail.LogMailer{}, deps.Mailer)
	assert.Empty(t, deps.Gateways.Methods())
	assert.Equal(t, "1500", deps.Converter.Rate().String())
}

func TestInitializeDependencies_MockGateways(t *testing.T) {
	cfg := baseConfig()
	cfg.PaymentProviders.Mock = true
	deps, cleanup, err := InitializeDependencies(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	_, ok := deps.Gateways.Gateway(string(contribution.MethodCard))
	assert.True(t, ok)
	_, ok = deps.Gateways.Gateway(string(contribution.MethodMobileMoney))
	assert.True(t, ok)
}

func TestInitializeDependencies_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	cfg.EventBus.Driver = DriverRedis

	deps, cleanup, err := InitializeDependencies(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &infra_eventbus.RedisEventBus{}, deps.EventBus)
	assert.IsType(t, &infra_lock.RedisLocker{}, deps.Locker)
}

func TestInitializeDependencies_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.App)
	}{
		{"redis driver without url", func(c *config.App) { c.EventBus.Driver = DriverRedis }},
		{"unknown driver", func(c *config.App) { c.EventBus.Driver = "carrier-pigeon" }},
		{"bad exchange rate", func(c *config.App) { c.Exchange.NGNPerUSD = "abc" }},
		{"unreachable redis", func(c *config.App) { c.Redis.URL = "redis://127.0.0.1:1/0" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(cfg)
			_, _, err := InitializeDependencies(context.Background(), cfg)
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Level: 0, Format: "json"})
	logger.Debug("hidden")
	logger.Info("shown", "service", "contribution")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"contribution"`)

	assert.NotNil(t, newLogger(io.Discard, nil))
	var _ *slog.Logger = newLogger(io.Discard, &config.Log{Format: "unknown"})
}
