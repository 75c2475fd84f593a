// Package webapi assembles the HTTP API. Route groups live in sub-packages:
// - contribution: contribution records and totals
// - payment: payment initiation, verification and provider webhooks
// - auth: sign in, sign out and password resets
// - admin: back-office CRUD, export, audit log and dead letters
// - volunteer: volunteer applications and the volunteer portal
package webapi

import (
	"errors"

	"github.com/amirasaad/charity/pkg/app"
	adminweb "github.com/amirasaad/charity/webapi/admin"
	authweb "github.com/amirasaad/charity/webapi/auth"
	"github.com/amirasaad/charity/webapi/common"
	contributionweb "github.com/amirasaad/charity/webapi/contribution"
	paymentweb "github.com/amirasaad/charity/webapi/payment"
	volunteerweb "github.com/amirasaad/charity/webapi/volunteer"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
		ProxyHeader:             a.Config.Server.ProxyHeader,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          a.Config.Server.TrustedProxies,
		EnableIPValidation:      true,
	})

	fiberApp.Use(limiter.New(limiter.Config{
		Max:          a.Config.RateLimit.MaxRequests,
		Expiration:   a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Charity API is running! 🚀")
	})

	contributionweb.Routes(fiberApp, a.ContributionService, a.AuthService.Guard(), a.Config)
	paymentweb.Routes(fiberApp, a.ContributionService, a.Deps.Gateways, a.Deps.Logger)
	authweb.Routes(fiberApp, a.AuthService, a.Config.Auth)
	adminweb.Routes(fiberApp, a)
	volunteerweb.Routes(fiberApp, a)
	return fiberApp
}
