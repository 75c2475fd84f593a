package stripepayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const providerName = "stripe"

// StripePaymentProvider is the card gateway, backed by Stripe Checkout.
type StripePaymentProvider struct {
	client          *stripe.Client
	cfg             *config.Stripe
	logger          *slog.Logger
	webhookHandlers map[stripe.EventType]webhookHandler
}

type webhookHandler func(stripe.Event, *slog.Logger) (*payment.Verification, error)

// New creates the card gateway. Every request goes through an HTTP client
// bounded by cfg.HTTPTimeout and is not retried by the SDK.
func New(cfg *config.Stripe, logger *slog.Logger) *StripePaymentProvider {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.ApiURL != "" {
		backendCfg.URL = stripe.String(cfg.ApiURL)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	p := &StripePaymentProvider{
		client: stripe.NewClient(cfg.ApiKey, stripe.WithBackends(backends)),
		cfg:    cfg,
		logger: logger.With("provider", providerName),
	}
	p.webhookHandlers = map[stripe.EventType]webhookHandler{
		stripe.EventTypeCheckoutSessionCompleted:             p.handleCheckoutSession,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded: p.handleCheckoutSession,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:    p.handleCheckoutSession,
		stripe.EventTypeCheckoutSessionExpired:               p.handleCheckoutSession,
		stripe.EventTypePaymentIntentSucceeded:               p.handlePaymentIntent,
		stripe.EventTypePaymentIntentCanceled:                p.handlePaymentIntent,
	}
	return p
}

func (s *StripePaymentProvider) Method() string { return string(contribution.MethodCard) }

// Initiate creates a Checkout Session and returns its hosted URL.
func (s *StripePaymentProvider) Initiate(
	ctx context.Context,
	params *payment.InitiateParams,
) (*payment.InitiateResponse, error) {
	log := s.logger.With(
		"handler", "stripe.Initiate",
		"record_id", params.RecordID,
		"amount", params.AmountMinor,
		"currency", params.Currency,
	)
	log.Info("🛒 Creating checkout session")

	metadata := map[string]string{payment.MetadataRecordID: params.RecordID.String()}
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	description := params.Description
	if description == "" {
		description = "Contribution"
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.cfg.SuccessURL),
		CancelURL:          stripe.String(s.cfg.CancelURL),
		ClientReferenceID:  stripe.String(params.RecordID.String()),
		Metadata:           metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(params.Currency)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(description),
				},
				UnitAmount: stripe.Int64(params.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if params.Email != "" {
		sessionParams.CustomerEmail = stripe.String(params.Email)
	}

	session, err := s.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		log.Error("failed to create checkout session", "error", err)
		return nil, providerError("initiate", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, &domain.ProviderError{Provider: providerName, Op: "initiate", Err: errors.New("checkout session without id or url")}
	}

	log.Info("✅ Created checkout session", "session_id", session.ID)
	return &payment.InitiateResponse{Reference: session.ID, RedirectURL: session.URL}, nil
}

// Verify accepts a Checkout Session id (cs_) or a PaymentIntent id (pi_).
func (s *StripePaymentProvider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	log := s.logger.With("handler", "stripe.Verify", "reference", reference)
	if reference == "" {
		return nil, domain.NewValidationError("reference", "is required")
	}

	if strings.HasPrefix(reference, "pi_") {
		pi, err := s.client.V1PaymentIntents.Retrieve(ctx, reference, nil)
		if err != nil {
			log.Error("error retrieving payment intent", "error", err)
			return nil, providerError("verify", err)
		}
		return fromPaymentIntent(pi), nil
	}

	session, err := s.client.V1CheckoutSessions.Retrieve(ctx, reference, nil)
	if err != nil {
		log.Error("error retrieving checkout session", "error", err)
		return nil, providerError("verify", err)
	}
	v := fromCheckoutSession(session)
	log.Info("Verified checkout session", "status", v.Status)
	return v, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps the event.
func (s *StripePaymentProvider) ParseWebhook(
	ctx context.Context,
	payload []byte,
	signature string,
) (*payment.Verification, error) {
	log := s.logger.With("handler", "stripe.ParseWebhook")
	if s.cfg.SigningSecret == "" {
		return nil, fmt.Errorf("stripe webhook signing secret not configured: %w", domain.ErrProviderUnavailable)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn("Failed to verify webhook signature", "error", err)
		return nil, fmt.Errorf("%w: invalid stripe signature: %v", domain.ErrUnauthorized, err)
	}

	handler, ok := s.webhookHandlers[event.Type]
	if !ok {
		log.Debug("Ignoring webhook event", "type", event.Type)
		return nil, nil
	}
	log.Info("Received webhook event", "type", event.Type, "id", event.ID)
	return handler(event, log)
}

func (s *StripePaymentProvider) handleCheckoutSession(event stripe.Event, log *slog.Logger) (*payment.Verification, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, domain.NewValidationError("payload", fmt.Sprintf("parsing %s: %v", event.Type, err))
	}
	v := fromCheckoutSession(&session)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		v.Status = payment.PaymentFailed
	}
	log.Info("checkout session event", "session_id", session.ID, "status", v.Status)
	return v, nil
}

func (s *StripePaymentProvider) handlePaymentIntent(event stripe.Event, log *slog.Logger) (*payment.Verification, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, domain.NewValidationError("payload", fmt.Sprintf("parsing %s: %v", event.Type, err))
	}
	v := fromPaymentIntent(&pi)
	if v.RecordID == uuid.Nil {
		// Intents created outside Checkout carry no record id.
		log.Debug("payment intent without record id", "payment_intent_id", pi.ID)
		return nil, nil
	}
	return v, nil
}

func fromCheckoutSession(session *stripe.CheckoutSession) *payment.Verification {
	v := &payment.Verification{
		Reference:        session.ID,
		Status:           payment.PaymentPending,
		AmountMinor:      session.AmountTotal,
		Currency:         strings.ToUpper(string(session.Currency)),
		AttemptReference: session.ID,
		RecordID:         recordIDFrom(session.Metadata, session.ClientReferenceID),
		Raw: map[string]any{
			"status":         string(session.Status),
			"payment_status": string(session.PaymentStatus),
		},
	}
	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		v.Status = payment.PaymentCompleted
	case session.Status == stripe.CheckoutSessionStatusExpired:
		v.Status = payment.PaymentFailed
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		v.Raw["payment_intent"] = session.PaymentIntent.ID
	}
	return v
}

func fromPaymentIntent(pi *stripe.PaymentIntent) *payment.Verification {
	v := &payment.Verification{
		Reference:   pi.ID,
		Status:      payment.PaymentPending,
		AmountMinor: pi.Amount,
		Currency:    strings.ToUpper(string(pi.Currency)),
		RecordID:    recordIDFrom(pi.Metadata, ""),
		Raw:         map[string]any{"status": string(pi.Status)},
	}
	// A declined attempt leaves the intent in requires_payment_method and the
	// customer may retry in the same Checkout Session, so only canceled is final.
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		v.Status = payment.PaymentCompleted
	case stripe.PaymentIntentStatusCanceled:
		v.Status = payment.PaymentFailed
	}
	if pi.LastPaymentError != nil {
		v.Raw["last_payment_error"] = pi.LastPaymentError.Msg
	}
	return v
}

func recordIDFrom(metadata map[string]string, fallback string) uuid.UUID {
	raw := metadata[payment.MetadataRecordID]
	if raw == "" {
		raw = fallback
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func providerError(op string, err error) error {
	pe := &domain.ProviderError{Provider: providerName, Op: op, Err: err}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		pe.StatusCode = stripeErr.HTTPStatusCode
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pe.Timeout = true
	}
	return pe
}

var _ payment.Gateway = (*StripePaymentProvider)(nil)
