package config

import (
	"log/slog"

	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/amirasaad/charity/pkg/lock"
	"github.com/amirasaad/charity/pkg/provider/mail"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/amirasaad/charity/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Store       *repository.Store
	Gateways    payment.Registry
	Converter   *currency.Converter
	EventBus    eventbus.Bus
	DeadLetters eventbus.DeadLetterReader
	Locker      lock.Locker
	Mailer      mail.Mailer
	Logger      *slog.Logger
	Config      *App
}
