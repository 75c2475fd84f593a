// Package profile holds the admin-managed entities contributions and
// volunteers refer to. They have no lifecycle beyond create, update and delete.
package profile

import (
	"time"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/google/uuid"
)

// Collection names.
const (
	BeneficiaryCollection = "boys"
	VolunteerCollection   = "volunteers"
	MediaCollection       = "media"
	AssessmentCollection  = "assessments"
	SessionCollection     = "sessions"
	SkillCollection       = "skills"
	AuditCollection       = "audit_log"
)

// Beneficiary is a program participant.
type Beneficiary struct {
	domain.Entity
	Name     string `json:"name" validate:"required,max=200"`
	Age      int    `json:"age" validate:"gte=0,lte=30"`
	Program  string `json:"program" validate:"max=100"`
	Bio      string `json:"bio" validate:"max=5000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
	Active   bool   `json:"active"`
}

func (Beneficiary) TableName() string { return BeneficiaryCollection }

// VolunteerStatus tracks a volunteer application.
type VolunteerStatus string

const (
	VolunteerApplied  VolunteerStatus = "applied"
	VolunteerApproved VolunteerStatus = "approved"
	VolunteerRejected VolunteerStatus = "rejected"
)

// Volunteer is a volunteer application or approved volunteer.
type Volunteer struct {
	domain.Entity
	Name         string          `json:"name" validate:"required,max=200"`
	Email        string          `json:"email" gorm:"uniqueIndex" validate:"required,email"`
	Phone        string          `json:"phone" validate:"max=40"`
	Skills       []string        `json:"skills" gorm:"serializer:json"`
	Availability string          `json:"availability" validate:"max=200"`
	Status       VolunteerStatus `json:"status" validate:"required,oneof=applied approved rejected"`
}

func (Volunteer) TableName() string { return VolunteerCollection }

// MediaKind is the type of a media asset.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is a hosted image or video referenced by URL.
type MediaAsset struct {
	domain.Entity
	Title         string     `json:"title" validate:"required,max=200"`
	URL           string     `json:"url" validate:"required,url"`
	Kind          MediaKind  `json:"kind" validate:"required,oneof=image video"`
	BeneficiaryID *uuid.UUID `json:"beneficiaryId,omitempty" gorm:"type:uuid"`
}

func (MediaAsset) TableName() string { return MediaCollection }

// Assessment scores a beneficiary on a skill.
type Assessment struct {
	domain.Entity
	BeneficiaryID uuid.UUID `json:"beneficiaryId" gorm:"type:uuid;index" validate:"required"`
	SkillID       uuid.UUID `json:"skillId" gorm:"type:uuid" validate:"required"`
	Score         int       `json:"score" validate:"gte=0,lte=100"`
	Notes         string    `json:"notes" validate:"max=5000"`
	AssessedBy    string    `json:"assessedBy" validate:"max=200"`
}

func (Assessment) TableName() string { return AssessmentCollection }

// Session is a scheduled program session.
type Session struct {
	domain.Entity
	Title           string     `json:"title" validate:"required,max=200"`
	Program         string     `json:"program" validate:"max=100"`
	ScheduledAt     time.Time  `json:"scheduledAt" validate:"required"`
	DurationMinutes int        `json:"durationMinutes" validate:"gte=0,lte=1440"`
	VolunteerID     *uuid.UUID `json:"volunteerId,omitempty" gorm:"type:uuid"`
}

func (Session) TableName() string { return SessionCollection }

// Skill is a skill taught in a program.
type Skill struct {
	domain.Entity
	Name        string `json:"name" gorm:"uniqueIndex" validate:"required,max=100"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func (Skill) TableName() string { return SkillCollection }

// AuditEntry records an administrative status override.
type AuditEntry struct {
	domain.Entity
	RecordID   uuid.UUID `json:"recordId" gorm:"type:uuid;index" validate:"required"`
	Collection string    `json:"collection" validate:"required"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus" validate:"required"`
	Reason     string    `json:"reason" validate:"required"`
	Actor      string    `json:"actor"`
}

func (AuditEntry) TableName() string { return AuditCollection }
