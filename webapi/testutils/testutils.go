// Package testutils runs the whole HTTP API in process: memory store,
// synchronous event bus, recording mailer and mock payment gateways.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	infra_eventbus "github.com/amirasaad/charity/infra/eventbus"
	infra_lock "github.com/amirasaad/charity/infra/lock"
	infra_mail "github.com/amirasaad/charity/infra/mail"
	"github.com/amirasaad/charity/infra/provider/mockpayment"
	"github.com/amirasaad/charity/infra/repository/memory"
	"github.com/amirasaad/charity/pkg/app"
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/amirasaad/charity/pkg/utils"
	"github.com/amirasaad/charity/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmail     = "admin@example.org"
	VolunteerEmail = "volunteer@example.org"
	Password       = "correct-horse"
)

// Config is a configuration with every integration in process.
func Config() *config.App {
	return &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Log:    &config.Log{Level: 8},
		DB:     &config.DB{},
		Auth: &config.Auth{
			Jwt:        &config.Jwt{Secret: "test-secret", Expiry: time.Hour, ResetExpiry: 30 * time.Minute, Issuer: "charity"},
			CookieName: "session",
			LoginPath:  "/login",
		},
		Redis:     &config.Redis{},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		EventBus:  &config.EventBus{Driver: "memory"},
		PaymentProviders: &config.PaymentProviders{
			Stripe:   &config.Stripe{},
			Paystack: &config.Paystack{},
			Mock:     true,
		},
		Mail:         &config.Mail{},
		Exchange:     &config.Exchange{NGNPerUSD: "1500"},
		Notification: &config.Notification{AdminEmail: "office@example.org", OrgName: "Test Charity", SiteURL: "http://localhost:3000"},
	}
}

// Env is one in-process instance of the API.
type Env struct {
	App    *app.App
	Fiber  *fiber.App
	Bus    *infra_eventbus.MemoryEventBus
	Mailer *infra_mail.Recorder
	Card   *mockpayment.MockPaymentProvider
	Mobile *mockpayment.MockPaymentProvider
}

// NewEnv builds the API on cfg.
func NewEnv(cfg *config.App) *Env {
	utils.PasswordCost = bcrypt.MinCost
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := infra_eventbus.NewWithMemory(logger)
	mailer := &infra_mail.Recorder{}
	card := mockpayment.NewMockPaymentProvider(string(contribution.MethodCard))
	mobile := mockpayment.NewMockPaymentProvider(string(contribution.MethodMobileMoney))
	converter, err := currency.NewConverter(decimal.RequireFromString(cfg.Exchange.NGNPerUSD))
	if err != nil {
		panic(err)
	}

	deps := &config.Deps{
		Store:       memory.NewStore(),
		Gateways:    payment.NewGateways(card, mobile),
		Converter:   converter,
		EventBus:    bus,
		DeadLetters: bus,
		Locker:      infra_lock.NewMemoryLocker(),
		Mailer:      mailer,
		Logger:      logger,
		Config:      cfg,
	}
	a := app.New(deps)
	return &Env{
		App:    a,
		Fiber:  webapi.SetupApp(a),
		Bus:    bus,
		Mailer: mailer,
		Card:   card,
		Mobile: mobile,
	}
}

// MakeRequest sends one request. token, when set, goes in the Authorization header.
func (e *Env) MakeRequest(method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.Fiber.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// E2ETestSuite gives every test a fresh Env with one administrator and
// one volunteer signed in.
type E2ETestSuite struct {
	suite.Suite
	Env            *Env
	AdminToken     string
	VolunteerToken string
}

func (s *E2ETestSuite) SetupTest() {
	s.Env = NewEnv(Config())
	s.AdminToken = s.createUser(AdminEmail, user.RoleAdmin)
	s.VolunteerToken = s.createUser(VolunteerEmail, user.RoleVolunteer)
}

func (s *E2ETestSuite) createUser(email string, role user.Role) string {
	ctx := context.Background()
	authSvc := s.Env.App.AuthService
	_, err := authSvc.CreateUser(ctx, email, string(role), Password, role)
	s.Require().NoError(err)
	res, err := authSvc.Login(ctx, email, Password)
	s.Require().NoError(err)
	return res.Token
}

// Request sends a request and closes the response, returning status and body.
func (s *E2ETestSuite) Request(method, path string, body any, token string) (int, []byte) {
	var raw string
	switch b := body.(type) {
	case nil:
	case string:
		raw = b
	default:
		buf, err := json.Marshal(b)
		s.Require().NoError(err)
		raw = string(buf)
	}
	resp := s.Env.MakeRequest(method, path, raw, token)
	defer resp.Body.Close() //nolint: errcheck
	out, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, out
}

// Data decodes the data field of a success envelope into out.
func (s *E2ETestSuite) Data(body []byte, out any) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(body, &envelope), string(body))
	s.Require().NoError(json.Unmarshal(envelope.Data, out), string(body))
}

// Problem decodes a problem details body.
func (s *E2ETestSuite) Problem(body []byte) map[string]any {
	var pd map[string]any
	s.Require().NoError(json.Unmarshal(body, &pd), string(body))
	return pd
}
