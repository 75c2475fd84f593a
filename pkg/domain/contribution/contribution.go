// Package contribution holds the donation/sponsorship record and its
// status lifecycle.
package contribution

import (
	"strings"
	"time"

	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a Record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no normal-flow transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Kind distinguishes donations from sponsorships.
type Kind string

const (
	KindDonation    Kind = "donation"
	KindSponsorship Kind = "sponsorship"
)

func (k Kind) Valid() bool { return k == KindDonation || k == KindSponsorship }

// PaymentMethod selects the payment rail used to settle a Record.
type PaymentMethod string

const (
	MethodCard        PaymentMethod = "card-gateway"
	MethodMobileMoney PaymentMethod = "mobile-money-gateway"
)

func (m PaymentMethod) Valid() bool { return m == MethodCard || m == MethodMobileMoney }

// Collection is the store collection name for contribution records.
const Collection = "contributions"

// Record is a donation or sponsorship and its settlement state.
type Record struct {
	domain.Entity
	ContributorName              string          `json:"contributorName" validate:"max=200"`
	ContributorEmail             *string         `json:"contributorEmail,omitempty" validate:"omitempty,email"`
	Anonymous                    bool            `json:"anonymous"`
	Kind                         Kind            `json:"kind" validate:"required,oneof=donation sponsorship"`
	Program                      string          `json:"program" gorm:"index" validate:"max=100"`
	BeneficiaryID                *uuid.UUID      `json:"beneficiaryId,omitempty" gorm:"type:uuid"`
	SponsoredItem                string          `json:"sponsoredItem,omitempty" validate:"max=200"`
	Message                      string          `json:"message,omitempty" validate:"max=2000"`
	Amount                       decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Currency                     currency.Code   `json:"currency" validate:"required,oneof=USD NGN"`
	PaymentMethod                PaymentMethod   `json:"paymentMethod" gorm:"index" validate:"required,oneof=card-gateway mobile-money-gateway"`
	Status                       Status          `json:"status" gorm:"index" validate:"required,oneof=pending completed failed cancelled"`
	PaymentReference             *string         `json:"paymentReference,omitempty" gorm:"index"`
	ProviderTransactionReference *string         `json:"providerTransactionReference,omitempty" gorm:"uniqueIndex"`
	FailureReason                string          `json:"failureReason,omitempty"`
	CompletedAt                  *time.Time      `json:"completedAt,omitempty"`
}

// TableName keeps the gorm table aligned with the collection name.
func (Record) TableName() string { return Collection }

// Email returns the contributor email or "" when absent.
func (r *Record) Email() string {
	if r.ContributorEmail == nil {
		return ""
	}
	return *r.ContributorEmail
}

// Reference returns the provider transaction reference or "".
func (r *Record) Reference() string {
	if r.ProviderTransactionReference == nil {
		return ""
	}
	return *r.ProviderTransactionReference
}

// DisplayName is what notifications address the contributor as.
func (r *Record) DisplayName() string {
	if r.Anonymous || strings.TrimSpace(r.ContributorName) == "" {
		return "Friend"
	}
	return r.ContributorName
}

// Draft is the contributor-supplied intent a Record is built from.
type Draft struct {
	ContributorName  string
	ContributorEmail string
	DonationMode     string
	Kind             Kind
	Program          string
	SponsoredItem    string
	Message          string
	Amount           decimal.Decimal
	Currency         currency.Code
	PaymentMethod    PaymentMethod
	BeneficiaryID    *uuid.UUID
}

// DonationModeAnonymous marks a contribution made without contributor identity.
const DonationModeAnonymous = "anonymous"

// New validates d and builds a pending Record. Nothing about the returned
// record is persisted.
func New(d Draft) (*Record, error) {
	if !d.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than zero")
	}
	if d.Kind == "" {
		return nil, domain.NewValidationError("kind", "is required")
	}
	if !d.Kind.Valid() {
		return nil, domain.NewValidationError("kind", "must be donation or sponsorship")
	}
	if d.PaymentMethod == "" {
		return nil, domain.NewValidationError("paymentMethod", "is required")
	}
	if !d.PaymentMethod.Valid() {
		return nil, domain.NewValidationError("paymentMethod", "must be card-gateway or mobile-money-gateway")
	}
	code := currency.Code(strings.ToUpper(string(d.Currency)))
	if code == "" {
		code = currency.USD
	}
	if !code.Supported() {
		return nil, domain.NewValidationError("currency", "must be USD or NGN")
	}
	if !d.Amount.Equal(d.Amount.Round(2)) {
		return nil, domain.NewValidationError("amount", "must have at most two decimal places")
	}

	anonymous := strings.EqualFold(d.DonationMode, DonationModeAnonymous)
	email := strings.TrimSpace(d.ContributorEmail)
	if email == "" && !anonymous {
		return nil, domain.NewValidationError("contributorEmail", "is required unless the contribution is anonymous")
	}
	if email != "" && !utils.IsEmail(email) {
		return nil, domain.NewValidationError("contributorEmail", "is not a valid email address")
	}

	r := &Record{
		ContributorName: strings.TrimSpace(d.ContributorName),
		Anonymous:       anonymous,
		Kind:            d.Kind,
		Program:         strings.TrimSpace(d.Program),
		BeneficiaryID:   d.BeneficiaryID,
		SponsoredItem:   strings.TrimSpace(d.SponsoredItem),
		Message:         strings.TrimSpace(d.Message),
		Amount:          d.Amount,
		Currency:        code,
		PaymentMethod:   d.PaymentMethod,
		Status:          StatusPending,
	}
	if email != "" {
		r.ContributorEmail = &email
	}
	return r, nil
}
