// Package volunteer serves volunteer applications and the read-mostly
// volunteer portal.
package volunteer

import (
	"github.com/amirasaad/charity/pkg/app"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/middleware"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/records"
	"github.com/amirasaad/charity/webapi/admin"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(fiberApp *fiber.App, a *app.App) {
	fiberApp.Post("/volunteers", Apply(a.Volunteers))

	portal := fiberApp.Group("/portal",
		middleware.JwtProtected(a.AuthService.Guard(), a.Config.Auth),
		middleware.RequireRole(user.RoleVolunteer),
	)
	portal.Get("/sessions", admin.List[profile.Session](a.Sessions))
	portal.Get("/skills", admin.List[profile.Skill](a.Skills))
	portal.Get("/boys", ActiveBeneficiaries(a.Beneficiaries))
	portal.Post("/assessments", admin.RecordAssessment(a.Assessments))
}

// Apply accepts a public volunteer application.
func Apply(svc *records.Volunteers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ApplicationInput](c)
		if input == nil {
			return err
		}
		v, err := svc.Apply(c.Context(), records.Application(*input))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Application received", v)
	}
}

// ActiveBeneficiaries lists the beneficiaries currently in a program.
func ActiveBeneficiaries(svc *records.Resource[profile.Beneficiary]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := common.QueryFilter(c)
		if filter == nil {
			filter = repository.Filter{}
		}
		filter["active"] = "true"
		docs, err := svc.List(c.Context(), filter)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if docs == nil {
			docs = []*profile.Beneficiary{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Beneficiaries fetched", docs)
	}
}
