package memory

import (
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/repository"
)

// NewStore returns a Store whose collections all live in process memory.
func NewStore() *repository.Store {
	return &repository.Store{
		Contributions: NewCollection[contribution.Record](repository.ContributionSchema),
		Users:         NewCollection[user.User](repository.UserSchema),
		Beneficiaries: NewCollection[profile.Beneficiary](repository.BeneficiarySchema),
		Volunteers:    NewCollection[profile.Volunteer](repository.VolunteerSchema),
		Media:         NewCollection[profile.MediaAsset](repository.MediaSchema),
		Assessments:   NewCollection[profile.Assessment](repository.AssessmentSchema),
		Sessions:      NewCollection[profile.Session](repository.SessionSchema),
		Skills:        NewCollection[profile.Skill](repository.SkillSchema),
		Audit:         NewCollection[profile.AuditEntry](repository.AuditSchema),
	}
}

var _ repository.Collection[contribution.Record] = (*Collection[contribution.Record])(nil)
