// Package contribution serves the contribution records: public creation and
// the administrator views.
package contribution

import (
	"github.com/amirasaad/charity/pkg/config"
	domaincontribution "github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/middleware"
	"github.com/amirasaad/charity/pkg/repository"
	authsvc "github.com/amirasaad/charity/pkg/service/auth"
	contributionsvc "github.com/amirasaad/charity/pkg/service/contribution"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, svc *contributionsvc.Service, guard *authsvc.Guard, cfg *config.App) {
	protected := middleware.JwtProtected(guard, cfg.Auth)
	admin := middleware.RequireRole(user.RoleAdmin)

	app.Post("/contributions", Create(svc))
	app.Get("/contributions", protected, admin, List(svc))
	app.Get("/contributions/totals", protected, admin, Totals(svc))
	app.Get("/contributions/:id", protected, admin, Get(svc))
	app.Put("/contributions/:id", protected, admin, Update(svc))
	app.Delete("/contributions/:id", protected, admin, Delete(svc))
	app.Put("/contributions/:id/status", protected, admin, UpdateStatus(svc))
	app.Put("/contributions/:id/cancel", protected, admin, Cancel(svc))
	app.Put("/contributions/:id/beneficiary", protected, admin, MatchBeneficiary(svc))
}

// Create records a contributor's intent to give as a pending contribution.
func Create(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input contributionsvc.CreateInput
		if err := c.BodyParser(&input); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		r, err := svc.Create(c.Context(), input)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Contribution created", r)
	}
}

// List returns the records matching the query filters.
func List(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := svc.List(c.Context(), common.QueryFilter(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if records == nil {
			records = []*domaincontribution.Record{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contributions fetched", records)
	}
}

// Totals sums the matching records in USD. Only completed records count
// unless a status filter says otherwise.
func Totals(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		totals, err := svc.Totals(c.Context(), common.QueryFilter(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Totals computed", totals)
	}
}

func Get(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		r, err := svc.Get(c.Context(), id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contribution fetched", r)
	}
}

// Update changes descriptive fields. Status and payment fields are refused.
func Update(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		var patch repository.Patch
		if err := c.BodyParser(&patch); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		r, err := svc.Update(c.Context(), id, patch)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contribution updated", r)
	}
}

func Delete(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if err := svc.Delete(c.Context(), id); err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contribution deleted", nil)
	}
}

// UpdateStatus overrides the status of a record. The override is audited.
func UpdateStatus(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[StatusInput](c)
		if input == nil {
			return err
		}
		r, err := svc.AdminUpdateStatus(c.Context(), id, domaincontribution.Status(input.Status), input.Reason, actor(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contribution status updated", r)
	}
}

// Cancel cancels a pending record. Settled records answer 409.
func Cancel(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[CancelInput](c)
		if input == nil {
			return err
		}
		r, err := svc.Cancel(c.Context(), id, input.Reason, actor(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Contribution cancelled", r)
	}
}

func MatchBeneficiary(svc *contributionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		input, err := common.BindAndValidate[BeneficiaryInput](c)
		if input == nil {
			return err
		}
		r, err := svc.MatchBeneficiary(c.Context(), id, input.BeneficiaryID)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Sponsorship matched", r)
	}
}

func actor(c *fiber.Ctx) string {
	if id, ok := middleware.Identity(c); ok {
		return id.Email
	}
	return ""
}
