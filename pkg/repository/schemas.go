package repository

import (
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
)

// Schemas of every collection. Status, references, amount and currency of
// contributions only change through the contribution service.
var (
	ContributionSchema = Schema{
		Name:       contribution.Collection,
		Mutable:    []string{"contributorName", "program", "sponsoredItem", "message"},
		Filterable: []string{"program", "paymentMethod", "status", "kind", "currency", "paymentReference", "providerTransactionReference", "beneficiaryId"},
		Unique:     []string{"providerTransactionReference"},
	}
	UserSchema = Schema{
		Name:       user.Collection,
		Mutable:    []string{"name"},
		Filterable: []string{"email", "role"},
		Unique:     []string{"email"},
	}
	BeneficiarySchema = Schema{
		Name:       profile.BeneficiaryCollection,
		Mutable:    []string{"name", "age", "program", "bio", "imageUrl", "active"},
		Filterable: []string{"program", "active"},
	}
	VolunteerSchema = Schema{
		Name:       profile.VolunteerCollection,
		Mutable:    []string{"name", "phone", "skills", "availability"},
		Filterable: []string{"email", "status"},
		Unique:     []string{"email"},
	}
	MediaSchema = Schema{
		Name:       profile.MediaCollection,
		Mutable:    []string{"title", "url", "kind", "beneficiaryId"},
		Filterable: []string{"kind", "beneficiaryId"},
	}
	AssessmentSchema = Schema{
		Name:       profile.AssessmentCollection,
		Mutable:    []string{"score", "notes", "assessedBy"},
		Filterable: []string{"beneficiaryId", "skillId"},
	}
	SessionSchema = Schema{
		Name:       profile.SessionCollection,
		Mutable:    []string{"title", "program", "scheduledAt", "durationMinutes", "volunteerId"},
		Filterable: []string{"program", "volunteerId"},
	}
	SkillSchema = Schema{
		Name:       profile.SkillCollection,
		Mutable:    []string{"name", "category", "description"},
		Filterable: []string{"category", "name"},
		Unique:     []string{"name"},
	}
	AuditSchema = Schema{
		Name:       profile.AuditCollection,
		Filterable: []string{"recordId", "collection"},
	}
)
