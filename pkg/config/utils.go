package config

import (
	"os"
	"path/filepath"
)

// FindEnvFile walks up from the working directory looking for filename
// (".env" when empty) and returns the first match.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}
	curr, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(curr, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return "", os.ErrNotExist
		}
		curr = parent
	}
}

// Feature reports which optional features the configuration enables.
type Feature struct {
	Name    string
	Enabled bool
}

// Features lists optional integrations and whether their credentials are present.
func (a *App) Features() []Feature {
	return []Feature{
		{"database", a.DB.Url != ""},
		{"redis", a.Redis.URL != ""},
		{"auth", a.Auth.Jwt.Secret != ""},
		{"stripe", a.PaymentProviders.Stripe.ApiKey != ""},
		{"stripe-webhooks", a.PaymentProviders.Stripe.SigningSecret != ""},
		{"paystack", a.PaymentProviders.Paystack.SecretKey != ""},
		{"smtp", a.Mail.Host != ""},
		{"admin-notifications", a.Notification.AdminEmail != ""},
	}
}
