// Package admin serves the administrator back office: CRUD over the
// referenced entities, volunteer approval, export, the override audit log
// and the notification dead letters.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirasaad/charity/pkg/app"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/amirasaad/charity/pkg/middleware"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/records"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultDeadLetterLimit = 50

func Routes(fiberApp *fiber.App, a *app.App) {
	g := fiberApp.Group("/admin",
		middleware.JwtProtected(a.AuthService.Guard(), a.Config.Auth),
		middleware.RequireRole(user.RoleAdmin),
	)

	mount(g, "/boys", a.Beneficiaries, nil)
	mount(g, "/volunteers", a.Volunteers, nil)
	mount(g, "/media", a.Media, nil)
	mount(g, "/assessments", a.Assessments, RecordAssessment(a.Assessments))
	mount(g, "/sessions", a.Sessions, nil)
	mount(g, "/skills", a.Skills, nil)

	g.Put("/volunteers/:id/approve", SetVolunteerStatus(a.Volunteers.Approve, "Volunteer approved"))
	g.Put("/volunteers/:id/reject", SetVolunteerStatus(a.Volunteers.Reject, "Volunteer rejected"))
	g.Get("/export", Export(a.Deps.Store))
	g.Get("/audit", Audit(a.Deps.Store))
	g.Get("/notifications/dead-letters", DeadLetters(a.Deps.DeadLetters))
}

// RecordAssessment stores an assessment attributed to the signed-in user.
func RecordAssessment(svc *records.Assessments) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a profile.Assessment
		if err := c.BodyParser(&a); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		var actor string
		if id, ok := middleware.Identity(c); ok {
			actor = id.Email
		}
		created, err := svc.Record(c.Context(), &a, actor)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Assessment recorded", created)
	}
}

func SetVolunteerStatus(
	set func(ctx context.Context, id uuid.UUID) (*profile.Volunteer, error),
	message string,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		v, err := set(c.Context(), id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, message, v)
	}
}

// Export downloads every collection as indented JSON.
func Export(store *repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := store.Export(c.Context())
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		body, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="charity-export-%s.json"`, time.Now().UTC().Format("20060102")))
		return c.Send(body)
	}
}

// Audit lists status overrides, filtered by the query string.
func Audit(store *repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := store.Audit.List(c.Context(), common.QueryFilter(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if entries == nil {
			entries = []*profile.AuditEntry{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit log fetched", entries)
	}
}

// DeadLetters lists notifications whose delivery failed, newest first.
func DeadLetters(reader eventbus.DeadLetterReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if reader == nil {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Dead letters fetched", []eventbus.DeadLetter{})
		}
		limit := c.QueryInt("limit", defaultDeadLetterLimit)
		if limit <= 0 || limit > 1000 {
			limit = defaultDeadLetterLimit
		}
		letters, err := reader.DeadLetters(c.Context(), limit)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if letters == nil {
			letters = []eventbus.DeadLetter{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dead letters fetched", letters)
	}
}
