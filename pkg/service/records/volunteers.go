package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/amirasaad/charity/pkg/utils"
	"github.com/google/uuid"
)

// Notifier is the part of the notification dispatcher the service needs.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message)
	NotifyAdmin(ctx context.Context, msg notification.Message)
}

// Application is a public volunteer application.
type Application struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Skills       []string `json:"skills"`
	Availability string   `json:"availability"`
}

// Volunteers handles volunteer applications on top of plain CRUD.
type Volunteers struct {
	*Resource[profile.Volunteer]
	notifier Notifier
}

func NewVolunteers(col repository.Collection[profile.Volunteer], notifier Notifier, logger *slog.Logger) *Volunteers {
	return &Volunteers{Resource: NewResource(col, logger), notifier: notifier}
}

// Apply stores an application in the applied state and tells the administrator.
func (v *Volunteers) Apply(ctx context.Context, a Application) (*profile.Volunteer, error) {
	email := utils.NormalizeEmail(a.Email)
	if !utils.IsEmail(email) {
		return nil, domain.NewValidationError("email", "is not a valid email address")
	}
	vol := &profile.Volunteer{
		Name:         strings.TrimSpace(a.Name),
		Email:        email,
		Phone:        strings.TrimSpace(a.Phone),
		Skills:       a.Skills,
		Availability: strings.TrimSpace(a.Availability),
		Status:       profile.VolunteerApplied,
	}
	if _, err := v.Create(ctx, vol); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: an application for this email already exists", domain.ErrAlreadyExists)
		}
		return nil, err
	}
	if v.notifier != nil {
		v.notifier.NotifyAdmin(ctx, notification.Message{
			Key:      vol.ID.String(),
			Template: notification.VolunteerApplied,
			Data:     map[string]string{"id": vol.ID.String(), "name": vol.Name, "email": vol.Email},
		})
	}
	return vol, nil
}

// Approve accepts an application and welcomes the volunteer. Approving an
// approved volunteer changes nothing.
func (v *Volunteers) Approve(ctx context.Context, id uuid.UUID) (*profile.Volunteer, error) {
	return v.setStatus(ctx, id, profile.VolunteerApproved)
}

// Reject declines an application.
func (v *Volunteers) Reject(ctx context.Context, id uuid.UUID) (*profile.Volunteer, error) {
	return v.setStatus(ctx, id, profile.VolunteerRejected)
}

func (v *Volunteers) setStatus(ctx context.Context, id uuid.UUID, status profile.VolunteerStatus) (*profile.Volunteer, error) {
	vol, err := v.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vol.Status == status {
		return vol, nil
	}
	vol.Status = status
	if err := v.col.Save(ctx, vol); err != nil {
		return nil, err
	}
	v.logger.Info("Volunteer status changed", "id", id, "status", status)
	if status == profile.VolunteerApproved && v.notifier != nil {
		v.notifier.Notify(ctx, notification.Message{
			Key:      vol.ID.String(),
			Template: notification.VolunteerApproved,
			To:       []string{vol.Email},
			Data:     map[string]string{"id": vol.ID.String(), "name": vol.Name, "email": vol.Email},
		})
	}
	return vol, nil
}
