package mockpayment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/google/uuid"
)

// Signature is the only webhook signature the mock accepts.
const Signature = "mock-signature"

type mockPayment struct {
	recordID    uuid.UUID
	amountMinor int64
	currency    string
	status      payment.PaymentStatus
}

// MockPaymentProvider simulates a payment gateway for tests and local
// development. Payments stay pending until Complete or Fail is called.
// Not for production use.
type MockPaymentProvider struct {
	method string

	mu       sync.Mutex
	payments map[string]*mockPayment
	nextErr  error
	calls    int
	attempts int
}

// NewMockPaymentProvider creates a mock serving the given payment method.
func NewMockPaymentProvider(method string) *MockPaymentProvider {
	return &MockPaymentProvider{
		method:   method,
		payments: make(map[string]*mockPayment),
	}
}

func (m *MockPaymentProvider) Method() string { return m.method }

// FailNext makes the next gateway call return err.
func (m *MockPaymentProvider) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextErr = err
}

// Calls reports how many Initiate and Verify calls were made.
func (m *MockPaymentProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete marks the payment behind reference as paid.
func (m *MockPaymentProvider) Complete(reference string) { m.set(reference, payment.PaymentCompleted) }

// Fail marks the payment behind reference as failed.
func (m *MockPaymentProvider) Fail(reference string) { m.set(reference, payment.PaymentFailed) }

func (m *MockPaymentProvider) set(reference string, status payment.PaymentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		p.status = status
		return
	}
	m.payments[reference] = &mockPayment{status: status}
}

func (m *MockPaymentProvider) takeErr() error {
	m.calls++
	err := m.nextErr
	m.nextErr = nil
	return err
}

func (m *MockPaymentProvider) Initiate(
	_ context.Context,
	params *payment.InitiateParams,
) (*payment.InitiateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	m.attempts++
	ref := fmt.Sprintf("mock_%s_%s_%d", m.method, params.RecordID, m.attempts)
	m.payments[ref] = &mockPayment{
		recordID:    params.RecordID,
		amountMinor: params.AmountMinor,
		currency:    params.Currency,
		status:      payment.PaymentPending,
	}
	return &payment.InitiateResponse{
		Reference:   ref,
		RedirectURL: "https://payments.mock/checkout/" + ref,
	}, nil
}

func (m *MockPaymentProvider) Verify(_ context.Context, reference string) (*payment.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	p, ok := m.payments[reference]
	if !ok {
		return nil, &domain.ProviderError{Provider: "mock", Op: "verify", StatusCode: 404,
			Err: fmt.Errorf("unknown reference %q", reference)}
	}
	return &payment.Verification{
		Reference:        reference,
		Status:           p.status,
		AmountMinor:      p.amountMinor,
		Currency:         p.currency,
		AttemptReference: reference,
		RecordID:         p.recordID,
	}, nil
}

// WebhookPayload is the body ParseWebhook understands.
type WebhookPayload struct {
	Reference string                `json:"reference"`
	Status    payment.PaymentStatus `json:"status"`
	RecordID  uuid.UUID             `json:"recordId"`
}

func (m *MockPaymentProvider) ParseWebhook(
	_ context.Context,
	payload []byte,
	signature string,
) (*payment.Verification, error) {
	if signature != Signature {
		return nil, fmt.Errorf("%w: invalid mock signature", domain.ErrUnauthorized)
	}
	var body WebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, domain.NewValidationError("payload", err.Error())
	}
	m.set(body.Reference, body.Status)
	return &payment.Verification{
		Reference:        body.Reference,
		Status:           body.Status,
		RecordID:         body.RecordID,
		AttemptReference: body.Reference,
	}, nil
}

var _ payment.Gateway = (*MockPaymentProvider)(nil)
