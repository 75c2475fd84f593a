package auth

import (
	"time"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/middleware"
	authsvc "github.com/amirasaad/charity/pkg/service/auth"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
)

func Routes(app *fiber.App, authSvc *authsvc.Service, cfg *config.Auth) {
	app.Post("/auth/login", Login(authSvc, cfg))
	app.Post("/auth/logout", Logout(cfg))
	app.Get("/auth/me", middleware.OptionalIdentity(authSvc.Guard(), cfg), Me(authSvc))
	app.Post("/auth/password-reset", RequestPasswordReset(authSvc))
	app.Post("/auth/password-reset/confirm", ConfirmPasswordReset(authSvc))
}

// Login checks the credentials, sets the session cookie and returns the
// token for API clients.
func Login(authSvc *authsvc.Service, cfg *config.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		res, err := authSvc.Login(c.Context(), input.Email, input.Password)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid email or password", err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.ExpiresAt,
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", res)
	}
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
func Logout(cfg *config.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Logged out", nil)
	}
}

// Me returns the signed-in user, or null data when there is none.
func Me(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.Identity(c)
		if !ok {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Not signed in", nil)
		}
		u, err := authSvc.GetUser(c.Context(), id.UserID)
		if err != nil {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Not signed in", nil)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Signed in", u)
	}
}

// RequestPasswordReset always answers 202 so it does not reveal which
// accounts exist.
func RequestPasswordReset(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ResetRequestInput](c)
		if input == nil {
			return err
		}
		if err := authSvc.RequestPasswordReset(c.Context(), input.Email); err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted,
			"If the address belongs to an account, a reset link is on its way", nil)
	}
}

func ConfirmPasswordReset(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ResetConfirmInput](c)
		if input == nil {
			return err
		}
		if err := authSvc.ResetPassword(c.Context(), input.Token, input.Password); err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Password updated", nil)
	}
}
