package payment

import "github.com/google/uuid"

// InitiateInput starts a payment for a pending contribution.
type InitiateInput struct {
	RecordID uuid.UUID `json:"recordId" validate:"required"`
}

// VerifyInput asks the provider about a payment. An empty reference uses
// the one stored when the payment was initiated.
type VerifyInput struct {
	RecordID  uuid.UUID `json:"recordId" validate:"required"`
	Reference string    `json:"reference" validate:"max=200"`
}
