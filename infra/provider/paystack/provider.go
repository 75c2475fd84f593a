// Package paystack implements the mobile-money gateway on the Paystack
// transaction API.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/google/uuid"
)

const (
	providerName = "paystack"
	// SignatureHeader carries the HMAC-SHA512 of the raw webhook body.
	SignatureHeader = "x-paystack-signature"
	// anonymousEmailDomain is used when the contributor gave no address;
	// Paystack refuses to initialize a transaction without one.
	anonymousEmailDomain = "anonymous.invalid"
)

// Provider is the mobile-money gateway.
type Provider struct {
	secretKey   string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
	logger      *slog.Logger
}

func New(cfg *config.Paystack, logger *slog.Logger) *Provider {
	return &Provider{
		secretKey:   cfg.SecretKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:      logger.With("provider", providerName),
	}
}

func (p *Provider) Method() string { return string(contribution.MethodMobileMoney) }

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	Metadata  json.RawMessage `json:"metadata"`
}

type webhookEvent struct {
	Event string      `json:"event"`
	Data  transaction `json:"data"`
}

// Initiate initializes a transaction and returns the hosted authorization URL.
// Paystack rejects reused references, so each attempt gets the record id plus
// a random suffix.
func (p *Provider) Initiate(ctx context.Context, params *payment.InitiateParams) (*payment.InitiateResponse, error) {
	log := p.logger.With("handler", "paystack.Initiate", "record_id", params.RecordID)

	email := params.Email
	if email == "" {
		email = fmt.Sprintf("donor-%s@%s", params.RecordID, anonymousEmailDomain)
	}
	metadata := map[string]string{payment.MetadataRecordID: params.RecordID.String()}
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	body := initializeRequest{
		Email:       email,
		Amount:      params.AmountMinor,
		Currency:    strings.ToUpper(params.Currency),
		Reference:   newReference(params.RecordID),
		CallbackURL: p.callbackURL,
		Metadata:    metadata,
	}

	var data initializeData
	if err := p.do(ctx, "initiate", http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		log.Error("failed to initialize transaction", "error", err)
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, &domain.ProviderError{Provider: providerName, Op: "initiate", Err: errors.New("no authorization url returned")}
	}
	reference := data.Reference
	if reference == "" {
		reference = body.Reference
	}
	log.Info("✅ Initialized transaction", "reference", reference)
	return &payment.InitiateResponse{
		Reference:    reference,
		RedirectURL:  data.AuthorizationURL,
		ClientSecret: data.AccessCode,
	}, nil
}

// Verify looks the transaction up by reference.
func (p *Provider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	if reference == "" {
		return nil, domain.NewValidationError("reference", "is required")
	}
	var tx transaction
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.do(ctx, "verify", http.MethodGet, path, nil, &tx); err != nil {
		p.logger.Error("failed to verify transaction", "reference", reference, "error", err)
		return nil, err
	}
	return toVerification(&tx, reference), nil
}

// ParseWebhook checks the HMAC signature and maps charge events.
func (p *Provider) ParseWebhook(_ context.Context, payload []byte, signature string) (*payment.Verification, error) {
	log := p.logger.With("handler", "paystack.ParseWebhook")
	if p.secretKey == "" {
		return nil, fmt.Errorf("paystack secret key not configured: %w", domain.ErrProviderUnavailable)
	}
	if !p.validSignature(payload, signature) {
		log.Warn("Invalid webhook signature")
		return nil, fmt.Errorf("%w: invalid paystack signature", domain.ErrUnauthorized)
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, domain.NewValidationError("payload", err.Error())
	}
	switch evt.Event {
	case "charge.success", "charge.failed":
		log.Info("Received webhook event", "event", evt.Event, "reference", evt.Data.Reference)
		return toVerification(&evt.Data, evt.Data.Reference), nil
	default:
		log.Debug("Ignoring webhook event", "event", evt.Event)
		return nil, nil
	}
}

func newReference(recordID uuid.UUID) string {
	return recordID.String() + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Sign computes the signature Paystack sends for payload.
func Sign(secretKey string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *Provider) validSignature(payload []byte, signature string) bool {
	expected := Sign(p.secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (p *Provider) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return providerError(op, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return providerError(op, resp.StatusCode, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return providerError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return providerError(op, resp.StatusCode, errors.New(env.Message))
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return providerError(op, resp.StatusCode, fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

func toVerification(tx *transaction, reference string) *payment.Verification {
	v := &payment.Verification{
		Reference:        reference,
		Status:           payment.PaymentPending,
		AmountMinor:      tx.Amount,
		Currency:         strings.ToUpper(tx.Currency),
		AttemptReference: reference,
		Raw: map[string]any{
			"status":  tx.Status,
			"channel": tx.Channel,
			"id":      tx.ID,
		},
	}
	if tx.Reference != "" {
		v.Reference = tx.Reference
		v.AttemptReference = tx.Reference
	}
	switch tx.Status {
	case "success":
		v.Status = payment.PaymentCompleted
	case "failed", "abandoned", "reversed":
		v.Status = payment.PaymentFailed
	}
	// metadata is an object when set and an empty string otherwise.
	var metadata map[string]any
	if json.Unmarshal(tx.Metadata, &metadata) == nil {
		if raw, ok := metadata[payment.MetadataRecordID].(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				v.RecordID = id
			}
		}
	}
	if v.RecordID == uuid.Nil {
		if id, err := uuid.Parse(v.Reference); err == nil {
			v.RecordID = id
		}
	}
	return v
}

func providerError(op string, status int, err error) error {
	pe := &domain.ProviderError{Provider: providerName, Op: op, StatusCode: status, Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pe.Timeout = true
	}
	return pe
}

var _ payment.Gateway = (*Provider)(nil)
