package payment

import (
	"sync"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment at the provider.
type PaymentStatus string

const (
	// PaymentPending indicates the payment is still pending.
	PaymentPending PaymentStatus = "pending"
	// PaymentCompleted indicates the payment has completed successfully.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentFailed indicates the payment has failed or was abandoned.
	PaymentFailed PaymentStatus = "failed"
)

// MetadataRecordID is the metadata key carrying the contribution id through
// the provider and back in webhooks.
const MetadataRecordID = "record_id"

// InitiateParams holds the parameters for Gateway.Initiate.
type InitiateParams struct {
	RecordID    uuid.UUID
	AmountMinor int64
	Currency    string
	Email       string
	Description string
	Metadata    map[string]string
}

// InitiateResponse is what the client needs to complete the payment.
type InitiateResponse struct {
	// Reference identifies the payment at the provider
	// (Checkout Session id, Paystack reference).
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Verification is the provider's answer about one payment.
type Verification struct {
	Reference   string
	Status      PaymentStatus
	AmountMinor int64
	Currency    string
	RecordID    uuid.UUID
	// AttemptReference is the InitiateResponse reference this answer
	// belongs to, when the provider reports it.
	AttemptReference string
	Raw              map[string]any
}

// Succeeded reports whether the provider confirmed the payment.
func (v *Verification) Succeeded() bool { return v != nil && v.Status == PaymentCompleted }

// Gateways is a Registry backed by a map. Methods without a configured
// gateway are simply absent.
type Gateways struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewGateways creates a registry holding gws.
func NewGateways(gws ...Gateway) *Gateways {
	r := &Gateways{gateways: make(map[string]Gateway, len(gws))}
	for _, g := range gws {
		r.Register(g)
	}
	return r
}

// Register adds or replaces the gateway for g.Method().
func (r *Gateways) Register(g Gateway) {
	if g == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Method()] = g
}

func (r *Gateways) Gateway(method string) (Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[method]
	return g, ok
}

// Methods lists the configured payment methods.
func (r *Gateways) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.gateways))
	for m := range r.gateways {
		out = append(out, m)
	}
	return out
}
