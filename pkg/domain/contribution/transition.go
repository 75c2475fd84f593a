package contribution

import (
	"fmt"
	"time"

	"github.com/amirasaad/charity/pkg/domain"
)

// transitions lists the normal-flow moves. Anything else needs an override.
var transitions = map[Status][]Status{
	StatusPending: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition reports whether from -> to is allowed without an override.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Complete moves a pending record to completed and stores the provider reference.
func (r *Record) Complete(reference string, at time.Time) error {
	if reference == "" {
		return domain.NewValidationError("providerReference", "is required")
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, r.Status, StatusCompleted)
	}
	r.Status = StatusCompleted
	r.ProviderTransactionReference = &reference
	r.CompletedAt = &at
	r.FailureReason = ""
	return nil
}

// Settle completes a failed record whose payment the provider has since
// confirmed. It bypasses the transition table, so the caller audits it.
func (r *Record) Settle(reference string, at time.Time) error {
	if reference == "" {
		return domain.NewValidationError("providerReference", "is required")
	}
	if r.Status != StatusFailed {
		return fmt.Errorf("%w: settle from %s", domain.ErrInvalidTransition, r.Status)
	}
	r.Status = StatusCompleted
	r.ProviderTransactionReference = &reference
	r.CompletedAt = &at
	r.FailureReason = ""
	return nil
}

// Fail moves a pending record to failed.
func (r *Record) Fail(reason string) error {
	if !CanTransition(r.Status, StatusFailed) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, r.Status, StatusFailed)
	}
	r.Status = StatusFailed
	r.FailureReason = reason
	return nil
}

// Cancel moves a pending record to cancelled.
func (r *Record) Cancel(reason string) error {
	if !CanTransition(r.Status, StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, r.Status, StatusCancelled)
	}
	r.Status = StatusCancelled
	r.FailureReason = reason
	return nil
}

// Override sets any status regardless of the transition table. The caller
// is responsible for auditing it. Leaving completed clears the completion
// timestamp but keeps the provider reference so it stays claimed.
func (r *Record) Override(to Status, reason string, at time.Time) error {
	if !to.Valid() {
		return domain.NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}
	if reason == "" {
		return domain.NewValidationError("reason", "is required for a status override")
	}
	r.Status = to
	switch to {
	case StatusCompleted:
		if r.CompletedAt == nil {
			r.CompletedAt = &at
		}
		r.FailureReason = ""
	case StatusPending:
		r.CompletedAt = nil
		r.FailureReason = ""
	default:
		r.CompletedAt = nil
		r.FailureReason = reason
	}
	return nil
}
