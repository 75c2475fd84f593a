package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/repository"
)

// Assessments records skill assessments, checking what they refer to.
type Assessments struct {
	*Resource[profile.Assessment]
	beneficiaries repository.Collection[profile.Beneficiary]
	skills        repository.Collection[profile.Skill]
}

func NewAssessments(store *repository.Store, logger *slog.Logger) *Assessments {
	return &Assessments{
		Resource:      NewResource(store.Assessments, logger),
		beneficiaries: store.Beneficiaries,
		skills:        store.Skills,
	}
}

// Record stores a by actor. The beneficiary and skill must exist.
func (s *Assessments) Record(ctx context.Context, a *profile.Assessment, actor string) (*profile.Assessment, error) {
	if _, err := s.beneficiaries.Get(ctx, a.BeneficiaryID); err != nil {
		return nil, missing("beneficiaryId", err)
	}
	if _, err := s.skills.Get(ctx, a.SkillID); err != nil {
		return nil, missing("skillId", err)
	}
	if actor != "" {
		a.AssessedBy = actor
	}
	return s.Create(ctx, a)
}

func missing(field string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(field, "does not exist")
	}
	return err
}
