package contribution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
)

// VerifyResult is the record after a verification and what the provider said.
type VerifyResult struct {
	Record        *contribution.Record  `json:"record"`
	PaymentStatus payment.PaymentStatus `json:"paymentStatus"`
}

// InitiatePayment starts a payment for a pending record with the gateway of
// its payment method. On a provider error the record stays pending so the
// contributor can retry.
func (s *Service) InitiatePayment(ctx context.Context, id uuid.UUID) (*payment.InitiateResponse, error) {
	log := s.logger.With("handler", "InitiatePayment", "record_id", id)
	r, err := s.store.Contributions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != contribution.StatusPending {
		return nil, fmt.Errorf("%w: record is %s", domain.ErrInvalidTransition, r.Status)
	}
	gw, err := s.gateway(r.PaymentMethod)
	if err != nil {
		return nil, err
	}
	minor, err := currency.ToMinor(r.Amount, r.Currency)
	if err != nil {
		return nil, domain.NewValidationError("amount", err.Error())
	}

	resp, err := gw.Initiate(ctx, &payment.InitiateParams{
		RecordID:    r.ID,
		AmountMinor: minor,
		Currency:    r.Currency.String(),
		Email:       r.Email(),
		Description: description(r),
		Metadata: map[string]string{
			payment.MetadataRecordID: r.ID.String(),
			"kind":                   string(r.Kind),
			"program":                r.Program,
		},
	})
	if err != nil {
		log.Warn("Payment initiation failed", "method", r.PaymentMethod, "error", err)
		return nil, err
	}

	ref := resp.Reference
	if _, _, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		if r.Status != contribution.StatusPending {
			return false, fmt.Errorf("%w: record is %s", domain.ErrInvalidTransition, r.Status)
		}
		if r.PaymentReference != nil && *r.PaymentReference == ref {
			return false, nil
		}
		r.PaymentReference = &ref
		return true, nil
	}); err != nil {
		return nil, err
	}
	log.Info("🚀 Payment initiated", "method", r.PaymentMethod, "reference", ref)
	return resp, nil
}

// VerifyPayment asks the provider about reference and applies the answer to
// the record. An empty reference falls back to the one stored at initiation.
// A provider error about that stored reference fails the pending record and
// is returned. Any other reference cannot fail the record.
func (s *Service) VerifyPayment(ctx context.Context, recordID uuid.UUID, reference string) (*VerifyResult, error) {
	log := s.logger.With("handler", "VerifyPayment", "record_id", recordID)
	r, err := s.store.Contributions.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if reference == "" && r.PaymentReference != nil {
		reference = *r.PaymentReference
	}
	if reference == "" {
		return nil, domain.NewValidationError("reference", "is required")
	}
	gw, err := s.gateway(r.PaymentMethod)
	if err != nil {
		return nil, err
	}

	v, err := gw.Verify(ctx, reference)
	if err != nil {
		return nil, s.verifyFailed(ctx, r, reference, err)
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	if v.RecordID != uuid.Nil && v.RecordID != recordID {
		log.Warn("Reference belongs to another record", "reference", reference, "owner", v.RecordID)
		return nil, fmt.Errorf("%w: reference does not belong to this record", domain.ErrConflict)
	}
	updated, err := s.apply(ctx, r, v)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Record: updated, PaymentStatus: v.Status}, nil
}

// verifyFailed maps a verification error for r. Only the reference stored at
// initiation may fail the record; a reference the provider rejects with a
// 4xx is the caller's mistake.
func (s *Service) verifyFailed(ctx context.Context, r *contribution.Record, reference string, err error) error {
	log := s.logger.With("handler", "VerifyPayment", "record_id", r.ID, "reference", reference)
	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		return err
	}
	if r.PaymentReference == nil || *r.PaymentReference != reference {
		if perr.StatusCode >= 400 && perr.StatusCode < 500 {
			log.Info("Provider rejected reference", "error", err)
			return domain.NewValidationError("reference", "is not known to the payment provider")
		}
		log.Warn("Provider verification failed for a foreign reference", "error", err)
		return err
	}
	if r.Status == contribution.StatusPending {
		log.Warn("Provider verification failed, failing record", "error", err)
		if _, ferr := s.MarkFailed(ctx, r.ID, "verification failed: "+perr.Error()); ferr != nil {
			log.Error("Failed to mark record failed", "error", ferr)
		}
	}
	return err
}

// HandlePaymentEvent applies a verified webhook. The record is found by the
// record id carried in provider metadata, else by the initiation reference.
func (s *Service) HandlePaymentEvent(ctx context.Context, v *payment.Verification) (*contribution.Record, error) {
	if v == nil {
		return nil, nil
	}
	r, err := s.resolve(ctx, v)
	if err != nil {
		s.logger.Warn("Payment event for unknown record", "reference", v.Reference, "record_id", v.RecordID, "error", err)
		return nil, err
	}
	return s.apply(ctx, r, v)
}

func (s *Service) resolve(ctx context.Context, v *payment.Verification) (*contribution.Record, error) {
	if v.RecordID != uuid.Nil {
		return s.store.Contributions.Get(ctx, v.RecordID)
	}
	if v.Reference == "" {
		return nil, domain.NewValidationError("reference", "is required")
	}
	found, err := s.store.Contributions.List(ctx, repository.Filter{"paymentReference": v.Reference})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no record for reference %q", domain.ErrNotFound, v.Reference)
	}
	return found[0], nil
}

func (s *Service) apply(ctx context.Context, r *contribution.Record, v *payment.Verification) (*contribution.Record, error) {
	log := s.logger.With("record_id", r.ID, "reference", v.Reference, "provider_status", v.Status)
	switch v.Status {
	case payment.PaymentCompleted:
		if reason := mismatch(r, v); reason != "" {
			log.Warn("Verified payment does not match record", "reason", reason)
			if r.Status != contribution.StatusPending {
				return r, nil
			}
			return s.MarkFailed(ctx, r.ID, reason)
		}
		return s.MarkVerified(ctx, r.ID, v.Reference)
	case payment.PaymentFailed:
		if r.Status != contribution.StatusPending && r.Status != contribution.StatusFailed {
			log.Info("Ignoring failed payment for settled record", "status", r.Status)
			return r, nil
		}
		if r.PaymentReference != nil && v.AttemptReference != "" && v.AttemptReference != *r.PaymentReference {
			log.Info("Ignoring failed payment for a superseded attempt", "current", *r.PaymentReference)
			return r, nil
		}
		return s.MarkFailed(ctx, r.ID, "payment failed at provider")
	default:
		log.Debug("Payment still pending")
		return r, nil
	}
}

func (s *Service) gateway(method contribution.PaymentMethod) (payment.Gateway, error) {
	if s.gateways == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, method)
	}
	gw, ok := s.gateways.Gateway(string(method))
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, method)
	}
	return gw, nil
}

// mismatch reports why a verification cannot settle r, or "".
func mismatch(r *contribution.Record, v *payment.Verification) string {
	if v.Currency != "" && !strings.EqualFold(v.Currency, r.Currency.String()) {
		return fmt.Sprintf("currency mismatch: paid %s, expected %s", strings.ToUpper(v.Currency), r.Currency)
	}
	if v.AmountMinor == 0 {
		return ""
	}
	want, err := currency.ToMinor(r.Amount, r.Currency)
	if err != nil {
		return err.Error()
	}
	if v.AmountMinor != want {
		return fmt.Sprintf("amount mismatch: paid %d, expected %d minor units", v.AmountMinor, want)
	}
	return ""
}

func description(r *contribution.Record) string {
	switch {
	case r.Kind == contribution.KindSponsorship && r.SponsoredItem != "":
		return "Sponsorship: " + r.SponsoredItem
	case r.Program != "":
		return strings.ToUpper(string(r.Kind[:1])) + string(r.Kind[1:]) + " to " + r.Program
	default:
		return strings.ToUpper(string(r.Kind[:1])) + string(r.Kind[1:])
	}
}
