package paystack

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_paystack"

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(&config.Paystack{
		SecretKey:   testSecret,
		BaseURL:     srv.URL + "/",
		CallbackURL: "http://localhost/verify",
		HTTPTimeout: 200 * time.Millisecond,
	}, logger)
}

func respond(w http.ResponseWriter, status int, ok bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": ok, "message": message, "data": data})
}

func TestInitiate(t *testing.T) {
	recordID := uuid.New()
	var got initializeRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer "+testSecret, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, http.StatusOK, true, "Authorization URL created", map[string]any{
			"authorization_url": "https://checkout.paystack.test/abc",
			"access_code":       "abc",
			"reference":         got.Reference,
		})
	})

	resp, err := p.Initiate(context.Background(), &payment.InitiateParams{
		RecordID:    recordID,
		AmountMinor: 500000,
		Currency:    "ngn",
		Email:       "ada@example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, got.Reference, resp.Reference)
	assert.True(t, strings.HasPrefix(resp.Reference, recordID.String()+"-"), resp.Reference)
	assert.Equal(t, "https://checkout.paystack.test/abc", resp.RedirectURL)
	assert.Equal(t, int64(500000), got.Amount)
	assert.Equal(t, "NGN", got.Currency)
	assert.Equal(t, recordID.String(), got.Metadata[payment.MetadataRecordID])
}

func TestInitiate_RetryUsesFreshReference(t *testing.T) {
	recordID := uuid.New()
	seen := map[string]bool{}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req initializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen[req.Reference] {
			respond(w, http.StatusBadRequest, false, "Duplicate Transaction Reference", nil)
			return
		}
		seen[req.Reference] = true
		respond(w, http.StatusOK, true, "Authorization URL created", map[string]any{
			"authorization_url": "https://checkout.paystack.test/" + req.Reference,
			"reference":         req.Reference,
		})
	})

	params := &payment.InitiateParams{RecordID: recordID, AmountMinor: 100000, Currency: "NGN", Email: "ada@example.org"}
	first, err := p.Initiate(context.Background(), params)
	require.NoError(t, err)
	second, err := p.Initiate(context.Background(), params)
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)
	assert.Len(t, seen, 2)
}

func TestInitiate_AnonymousGetsPlaceholderEmail(t *testing.T) {
	var got initializeRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, http.StatusOK, true, "ok", map[string]any{"authorization_url": "https://x"})
	})

	_, err := p.Initiate(context.Background(), &payment.InitiateParams{
		RecordID: uuid.New(), AmountMinor: 100, Currency: "NGN",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.Email, "@"+anonymousEmailDomain), got.Email)
}

func TestInitiate_Errors(t *testing.T) {
	t.Run("api rejects", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			respond(w, http.StatusBadRequest, false, "Invalid amount", nil)
		})
		_, err := p.Initiate(context.Background(), &payment.InitiateParams{RecordID: uuid.New(), AmountMinor: 1, Currency: "NGN"})
		var pe *domain.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
		assert.Contains(t, pe.Error(), "Invalid amount")
	})

	t.Run("timeout", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		})
		_, err := p.Initiate(context.Background(), &payment.InitiateParams{RecordID: uuid.New(), AmountMinor: 1, Currency: "NGN"})
		var pe *domain.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.True(t, pe.Timeout)
		assert.ErrorIs(t, err, domain.ErrProvider)
	})
}

func TestVerify(t *testing.T) {
	recordID := uuid.New()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/"+recordID.String(), r.URL.Path)
		respond(w, http.StatusOK, true, "Verification successful", map[string]any{
			"id":        42,
			"status":    "success",
			"reference": recordID.String(),
			"amount":    500000,
			"currency":  "NGN",
			"channel":   "mobile_money",
			"metadata":  "",
		})
	})

	v, err := p.Verify(context.Background(), recordID.String())
	require.NoError(t, err)
	assert.True(t, v.Succeeded())
	assert.Equal(t, recordID, v.RecordID)
	assert.Equal(t, int64(500000), v.AmountMinor)
}

func TestVerify_AbandonedIsFailed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, true, "ok", map[string]any{"status": "abandoned", "reference": "ref-1"})
	})
	v, err := p.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentFailed, v.Status)
	assert.Equal(t, uuid.Nil, v.RecordID)
}

func TestParseWebhook(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("webhooks must not call the API")
	})
	recordID := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"event": "charge.success",
		"data": map[string]any{
			"status":    "success",
			"reference": "PSK-123",
			"amount":    250000,
			"currency":  "NGN",
			"metadata":  map[string]any{"record_id": recordID.String()},
		},
	})
	require.NoError(t, err)

	v, err := p.ParseWebhook(context.Background(), payload, Sign(testSecret, payload))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Succeeded())
	assert.Equal(t, recordID, v.RecordID)
	assert.Equal(t, "PSK-123", v.Reference)

	_, err = p.ParseWebhook(context.Background(), payload, Sign("wrong", payload))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other := []byte(`{"event":"transfer.success","data":{}}`)
	v, err = p.ParseWebhook(context.Background(), other, Sign(testSecret, other))
	require.NoError(t, err)
	assert.Nil(t, v)
}
