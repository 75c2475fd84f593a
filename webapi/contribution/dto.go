package contribution

import "github.com/google/uuid"

// StatusInput is an administrative status override.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed cancelled"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// CancelInput explains why a pending record is withdrawn.
type CancelInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// BeneficiaryInput matches a sponsorship to a beneficiary.
type BeneficiaryInput struct {
	BeneficiaryID uuid.UUID `json:"beneficiaryId" validate:"required"`
}
