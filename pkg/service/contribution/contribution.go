// Package contribution provides the business operations on donation and
// sponsorship records: creation, payment initiation and verification,
// admin edits and overrides, and reporting totals.
//
// Every status change for a record runs under a per-record lock and is
// written with an optimistic version check, so webhook deliveries and
// client polls racing on the same payment settle it once.
package contribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/lock"
	"github.com/amirasaad/charity/pkg/provider/payment"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderActor is the audit actor for changes confirmed by a payment provider.
const ProviderActor = "payment-provider"

// Notifier is the part of the notification dispatcher the service needs.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message)
	NotifyAdmin(ctx context.Context, msg notification.Message)
}

// Service manages contribution records.
type Service struct {
	store     *repository.Store
	gateways  payment.Registry
	locker    lock.Locker
	converter *currency.Converter
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a contribution service from the shared dependencies.
func New(deps config.Deps, notifier Notifier) *Service {
	return &Service{
		store:     deps.Store,
		gateways:  deps.Gateways,
		locker:    deps.Locker,
		converter: deps.Converter,
		notifier:  notifier,
		logger:    deps.Logger.With("service", "contribution"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is a contributor's intent to give.
type CreateInput struct {
	ContributorName  string          `json:"contributorName"`
	ContributorEmail string          `json:"contributorEmail"`
	DonationMode     string          `json:"donationMode"`
	Kind             string          `json:"kind"`
	Program          string          `json:"program"`
	SponsoredItem    string          `json:"sponsoredItem"`
	Message          string          `json:"message"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentMethod    string          `json:"paymentMethod"`
	BeneficiaryID    *uuid.UUID      `json:"beneficiaryId"`
}

func (in CreateInput) draft() contribution.Draft {
	return contribution.Draft{
		ContributorName:  in.ContributorName,
		ContributorEmail: in.ContributorEmail,
		DonationMode:     in.DonationMode,
		Kind:             contribution.Kind(in.Kind),
		Program:          in.Program,
		SponsoredItem:    in.SponsoredItem,
		Message:          in.Message,
		Amount:           in.Amount,
		Currency:         currency.Code(in.Currency),
		PaymentMethod:    contribution.PaymentMethod(in.PaymentMethod),
		BeneficiaryID:    in.BeneficiaryID,
	}
}

// Create validates in and persists a pending record. Nothing is written
// when validation fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (*contribution.Record, error) {
	log := s.logger.With("handler", "Create")
	r, err := contribution.New(in.draft())
	if err != nil {
		log.Info("Contribution rejected", "error", err)
		return nil, err
	}
	if r.BeneficiaryID != nil {
		if _, err := s.beneficiary(ctx, *r.BeneficiaryID); err != nil {
			return nil, err
		}
	}
	if err := s.store.Contributions.Add(ctx, r); err != nil {
		log.Error("Failed to persist contribution", "error", err)
		return nil, err
	}
	log.Info("✅ Contribution created",
		"record_id", r.ID,
		"kind", r.Kind,
		"amount", r.Amount.StringFixed(2),
		"currency", r.Currency,
		"method", r.PaymentMethod,
	)

	data := recordData(r)
	if !r.Anonymous && r.Email() != "" {
		s.notify(ctx, notification.Message{
			Key:      r.ID.String(),
			Template: notification.ContributionCreated,
			To:       []string{r.Email()},
			Data:     data,
		})
	}
	if s.notifier != nil {
		s.notifier.NotifyAdmin(ctx, notification.Message{
			Key:      r.ID.String(),
			Template: notification.ContributionCreatedAdmin,
			Data:     data,
		})
	}
	return r, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*contribution.Record, error) {
	return s.store.Contributions.Get(ctx, id)
}

// List returns records matching filter, oldest first.
func (s *Service) List(ctx context.Context, filter repository.Filter) ([]*contribution.Record, error) {
	return s.store.Contributions.List(ctx, filter)
}

// Delete removes a record. Nothing that references it is touched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.store.Contributions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Contribution deleted", "record_id", id)
	return nil
}

// Update applies an admin edit of descriptive fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch repository.Patch) (*contribution.Record, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.store.Contributions.Update(ctx, id, patch)
}

// MarkVerified completes a pending record with the provider's transaction
// reference. Repeating it with the same reference returns the record
// unchanged; another reference is a conflict. A failed record is settled
// as well and the recovery is written to the audit log.
func (s *Service) MarkVerified(ctx context.Context, id uuid.UUID, reference string) (*contribution.Record, error) {
	if reference == "" {
		return nil, domain.NewValidationError("providerReference", "is required")
	}
	log := s.logger.With("handler", "MarkVerified", "record_id", id, "reference", reference)
	var from contribution.Status
	var failure string
	r, changed, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		from, failure = r.Status, r.FailureReason
		switch r.Status {
		case contribution.StatusCompleted:
			if r.Reference() == reference {
				return false, nil
			}
			return false, fmt.Errorf("%w: record %s already completed with another reference", domain.ErrConflict, id)
		case contribution.StatusFailed:
			return true, r.Settle(reference, s.now())
		}
		return true, r.Complete(reference, s.now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			err = fmt.Errorf("%w: reference %q is already used by another record", domain.ErrConflict, reference)
		}
		log.Warn("Verification not applied", "error", err)
		return nil, err
	}
	if !changed {
		log.Debug("Record already verified")
		return r, nil
	}
	if from == contribution.StatusFailed {
		log.Warn("⚠️ Failed contribution settled by provider confirmation", "failure_reason", failure)
		entry := &profile.AuditEntry{
			RecordID:   id,
			Collection: contribution.Collection,
			FromStatus: string(from),
			ToStatus:   string(contribution.StatusCompleted),
			Reason:     "payment confirmed by provider after failure: " + failure,
			Actor:      ProviderActor,
		}
		if err := s.store.Audit.Add(ctx, entry); err != nil {
			log.Error("Failed to write audit entry", "error", err)
		}
	}
	log.Info("✅ Contribution completed")
	if r.Email() != "" {
		data := recordData(r)
		data["reference"] = reference
		data["completedAt"] = r.CompletedAt.Format("2006-01-02 15:04 MST")
		s.notify(ctx, notification.Message{
			Key:      r.ID.String(),
			Template: notification.ContributionCompleted,
			To:       []string{r.Email()},
			Data:     data,
		})
	}
	return r, nil
}

// MarkFailed fails a pending record. A record that already failed is
// returned unchanged.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*contribution.Record, error) {
	r, changed, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		if r.Status == contribution.StatusFailed {
			return false, nil
		}
		return true, r.Fail(reason)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info("❌ Contribution failed", "record_id", id, "reason", reason)
	}
	return r, nil
}

// Cancel cancels a pending record on behalf of actor.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (*contribution.Record, error) {
	r, _, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		return true, r.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Contribution cancelled", "record_id", id, "reason", reason, "actor", actor)
	return r, nil
}

// AdminUpdateStatus sets any status, bypassing the transition table. Every
// override needs a reason and is written to the audit log.
func (s *Service) AdminUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status contribution.Status,
	reason, actor string,
) (*contribution.Record, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required for a status override")
	}
	var from contribution.Status
	r, _, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		from = r.Status
		return true, r.Override(status, reason, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn("⚠️ Contribution status overridden",
		"record_id", id,
		"from", from,
		"to", status,
		"normal_flow", contribution.CanTransition(from, status),
		"reason", reason,
		"actor", actor,
	)
	entry := &profile.AuditEntry{
		RecordID:   id,
		Collection: contribution.Collection,
		FromStatus: string(from),
		ToStatus:   string(status),
		Reason:     reason,
		Actor:      actor,
	}
	if err := s.store.Audit.Add(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit entry", "record_id", id, "error", err)
		return r, err
	}
	return r, nil
}

// MatchBeneficiary links a sponsorship to an existing beneficiary and tells
// the contributor.
func (s *Service) MatchBeneficiary(ctx context.Context, id, beneficiaryID uuid.UUID) (*contribution.Record, error) {
	b, err := s.beneficiary(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	r, changed, err := s.transition(ctx, id, func(r *contribution.Record) (bool, error) {
		if r.Kind != contribution.KindSponsorship {
			return false, domain.NewValidationError("kind", "only sponsorships can be matched to a beneficiary")
		}
		if r.BeneficiaryID != nil && *r.BeneficiaryID == beneficiaryID {
			return false, nil
		}
		r.BeneficiaryID = &beneficiaryID
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}
	s.logger.Info("Sponsorship matched", "record_id", id, "beneficiary_id", beneficiaryID)
	if r.Email() != "" {
		data := recordData(r)
		data["beneficiary"] = b.Name
		s.notify(ctx, notification.Message{
			Key:      r.ID.String() + ":" + beneficiaryID.String(),
			Template: notification.ContributionMatched,
			To:       []string{r.Email()},
			Data:     data,
		})
	}
	return r, nil
}

func (s *Service) beneficiary(ctx context.Context, id uuid.UUID) (*profile.Beneficiary, error) {
	b, err := s.store.Beneficiaries.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("beneficiaryId", "does not exist")
	}
	return b, err
}

// transition loads the record under its lock, lets apply change it and
// saves it. A lost version check is retried once against a fresh read.
func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	apply func(r *contribution.Record) (bool, error),
) (*contribution.Record, bool, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		r, err := s.store.Contributions.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		changed, err := apply(r)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return r, false, nil
		}
		err = s.store.Contributions.Save(ctx, r)
		if err == nil {
			return r, true, nil
		}
		if attempt == 0 && errors.Is(err, domain.ErrConflict) {
			s.logger.Debug("Version conflict, re-reading record", "record_id", id)
			continue
		}
		return nil, false, err
	}
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, msg)
	}
}

func lockKey(id uuid.UUID) string { return contribution.Collection + ":" + id.String() }

func recordData(r *contribution.Record) map[string]string {
	return map[string]string{
		"id":       r.ID.String(),
		"name":     r.DisplayName(),
		"amount":   r.Amount.StringFixed(2),
		"currency": r.Currency.String(),
		"kind":     string(r.Kind),
		"program":  r.Program,
		"method":   string(r.PaymentMethod),
	}
}
