package config

import (
	"log/slog"

	"github.com/amirasaad/charity/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFilePath (searching parent
// directories), falls back to ./.env, then processes the environment.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		logger.Info("Loaded environment from file", "path", foundPath)
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskOrEmpty(cfg.DB.Url),
		"redis", maskOrEmpty(cfg.Redis.URL),
		"event_bus", cfg.EventBus.Driver,
		"auth_jwt_secret", maskOrEmpty(cfg.Auth.Jwt.Secret),
		"auth_jwt_expiry", cfg.Auth.Jwt.Expiry,
		"stripe_api_key", maskOrEmpty(cfg.PaymentProviders.Stripe.ApiKey),
		"paystack_secret_key", maskOrEmpty(cfg.PaymentProviders.Paystack.SecretKey),
		"mail_host", cfg.Mail.Host,
		"ngn_per_usd", cfg.Exchange.NGNPerUSD,
	)
	return &cfg, nil
}

func maskOrEmpty(v string) string {
	if v == "" {
		return "<unset>"
	}
	return utils.MaskValue(v)
}
