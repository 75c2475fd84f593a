// Package initializer builds the process dependencies from configuration.
// Every optional integration falls back to an in-process implementation
// when its credentials are missing.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/charity/infra"
	infra_eventbus "github.com/amirasaad/charity/infra/eventbus"
	infra_lock "github.com/amirasaad/charity/infra/lock"
	infra_mail "github.com/amirasaad/charity/infra/mail"
	"github.com/amirasaad/charity/infra/provider/mockpayment"
	"github.com/amirasaad/charity/infra/provider/paystack"
	"github.com/amirasaad/charity/infra/provider/stripepayment"
	infra_repository "github.com/amirasaad/charity/infra/repository"
	"github.com/amirasaad/charity/infra/repository/memory"
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/amirasaad/charity/pkg/lock"
	"github.com/amirasaad/charity/pkg/provider/mail"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Event bus drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverKafka  = "kafka"
)

type closers []func() error

func (cs closers) close(logger *slog.Logger) {
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i](); err != nil {
			logger.Warn("Failed to release resource", "error", err)
		}
	}
}

// InitializeDependencies initializes all the application dependencies. The
// returned cleanup releases connections and stops bus consumers.
func InitializeDependencies(ctx context.Context, cfg *config.App) (
	deps *config.Deps,
	cleanup func(),
	err error,
) {
	logger := SetupLogger(cfg.Log)
	deps = &config.Deps{Logger: logger, Config: cfg}
	var cs closers
	defer func() {
		if err != nil {
			cs.close(logger)
		}
	}()

	rate, err := decimal.NewFromString(cfg.Exchange.NGNPerUSD)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid EXCHANGE_NGN_PER_USD %q: %w", cfg.Exchange.NGNPerUSD, err)
	}
	if deps.Converter, err = currency.NewConverter(rate); err != nil {
		return nil, nil, err
	}

	if deps.Store, err = newStore(cfg, logger, &cs); err != nil {
		return nil, nil, err
	}

	var client redis.UniversalClient
	if cfg.Redis.URL != "" {
		rc, err := infra.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cs = append(cs, rc.Close)
		client = rc
		logger.Info("✅ Connected to Redis")
	}
	deps.Locker = newLocker(cfg.Redis, client, logger)

	bus, reader, err := newEventBus(cfg, client, logger, &cs)
	if err != nil {
		return nil, nil, err
	}
	deps.EventBus, deps.DeadLetters = bus, reader

	if deps.Mailer, err = newMailer(cfg.Mail, logger); err != nil {
		return nil, nil, err
	}
	deps.Gateways = newGateways(cfg.PaymentProviders, logger)

	for _, f := range cfg.Features() {
		logger.Debug("Feature", "name", f.Name, "enabled", f.Enabled)
	}
	return deps, func() { cs.close(logger) }, nil
}

func newStore(cfg *config.App, logger *slog.Logger, cs *closers) (*repository.Store, error) {
	if cfg.DB.Url == "" {
		logger.Warn("DATABASE_URL is not set, records are kept in memory and lost on restart")
		return memory.NewStore(), nil
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	*cs = append(*cs, sqlDB.Close)
	if cfg.DB.AutoMigrate {
		if err := infra.RunMigrations(db, logger); err != nil {
			return nil, err
		}
	}
	logger.Info("✅ Connected to database")
	return infra_repository.NewStore(db), nil
}

func newLocker(cfg *config.Redis, client redis.UniversalClient, logger *slog.Logger) lock.Locker {
	if client == nil {
		return infra_lock.NewMemoryLocker()
	}
	return infra_lock.NewRedisLocker(client, cfg.KeyPrefix, cfg.LockTTL, logger)
}

func newEventBus(
	cfg *config.App,
	client redis.UniversalClient,
	logger *slog.Logger,
	cs *closers,
) (eventbus.Bus, eventbus.DeadLetterReader, error) {
	switch cfg.EventBus.Driver {
	case "", DriverMemory:
		bus := infra_eventbus.NewWithMemoryAsync(logger, cfg.EventBus.Workers)
		*cs = append(*cs, bus.Close)
		return bus, bus, nil
	case DriverRedis:
		if client == nil {
			return nil, nil, errors.New("event bus driver redis needs REDIS_URL")
		}
		rcfg := infra_eventbus.DefaultRedisEventBusConfig()
		if cfg.Redis.KeyPrefix != "" {
			rcfg.KeyPrefix = cfg.Redis.KeyPrefix
		}
		bus, err := infra_eventbus.NewWithRedis(client, notification.Factories(), logger, rcfg)
		if err != nil {
			return nil, nil, err
		}
		*cs = append(*cs, bus.Close)
		return bus, bus, nil
	case DriverKafka:
		bus, err := infra_eventbus.NewWithKafka(cfg.EventBus.KafkaBrokers, notification.Factories(), logger,
			&infra_eventbus.KafkaEventBusConfig{
				GroupID:      cfg.EventBus.GroupID,
				TopicPrefix:  cfg.EventBus.TopicPrefix,
				SASLUsername: cfg.EventBus.SASLUsername,
				SASLPassword: cfg.EventBus.SASLPassword,
				TLSEnabled:   cfg.EventBus.KafkaTLS,
			})
		if err != nil {
			return nil, nil, err
		}
		*cs = append(*cs, bus.Close)
		return bus, bus, nil
	default:
		return nil, nil, fmt.Errorf("unknown event bus driver %q", cfg.EventBus.Driver)
	}
}

func newMailer(cfg *config.Mail, logger *slog.Logger) (mail.Mailer, error) {
	if cfg.Host == "" {
		logger.Warn("MAIL_HOST is not set, notifications are only logged")
		return infra_mail.NewLogMailer(logger), nil
	}
	return infra_mail.NewSMTPMailer(cfg, logger)
}

func newGateways(cfg *config.PaymentProviders, logger *slog.Logger) *payment.Gateways {
	gws := payment.NewGateways()
	if cfg.Mock {
		logger.Warn("Mock payment gateways enabled, payments are simulated")
		gws.Register(mockpayment.NewMockPaymentProvider(string(contribution.MethodCard)))
		gws.Register(mockpayment.NewMockPaymentProvider(string(contribution.MethodMobileMoney)))
		return gws
	}
	if cfg.Stripe.ApiKey != "" {
		gws.Register(stripepayment.New(cfg.Stripe, logger))
	} else {
		logger.Warn("Stripe is not configured, card payments are unavailable")
	}
	if cfg.Paystack.SecretKey != "" {
		gws.Register(paystack.New(cfg.Paystack, logger))
	} else {
		logger.Warn("Paystack is not configured, mobile money payments are unavailable")
	}
	return gws
}
