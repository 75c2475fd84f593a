package repository

import (
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/repository"
	"gorm.io/gorm"
)

// NewStore wires every collection to the same GORM connection.
func NewStore(db *gorm.DB) *repository.Store {
	return &repository.Store{
		Contributions: NewCollection[contribution.Record](db, repository.ContributionSchema),
		Users:         NewCollection[user.User](db, repository.UserSchema),
		Beneficiaries: NewCollection[profile.Beneficiary](db, repository.BeneficiarySchema),
		Volunteers:    NewCollection[profile.Volunteer](db, repository.VolunteerSchema),
		Media:         NewCollection[profile.MediaAsset](db, repository.MediaSchema),
		Assessments:   NewCollection[profile.Assessment](db, repository.AssessmentSchema),
		Sessions:      NewCollection[profile.Session](db, repository.SessionSchema),
		Skills:        NewCollection[profile.Skill](db, repository.SkillSchema),
		Audit:         NewCollection[profile.AuditEntry](db, repository.AuditSchema),
	}
}

var _ repository.Collection[contribution.Record] = (*Collection[contribution.Record])(nil)
