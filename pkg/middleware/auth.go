// Package middleware guards fiber routes with session tokens.
package middleware

import (
	"strings"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/service/auth"
	"github.com/amirasaad/charity/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey    = "user"
	identityKey = "identity"
)

// Identity returns the identity attached by JwtProtected.
func Identity(c *fiber.Ctx) (*auth.Identity, bool) {
	id, ok := c.Locals(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// JwtProtected accepts a session token from the Authorization header or the
// session cookie. A disabled guard rejects every request.
func JwtProtected(guard *auth.Guard, cfg *config.Auth) fiber.Handler {
	if !guard.Enabled() {
		return func(c *fiber.Ctx) error {
			return reject(c, cfg, fiber.StatusUnauthorized, "authentication is not configured")
		}
	}
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: guard.Secret()},
		TokenLookup: "header:" + fiber.HeaderAuthorization + ",cookie:" + cfg.CookieName,
		AuthScheme:  "Bearer",
		ContextKey:  tokenKey,
		Claims:      &auth.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenKey).(*jwt.Token)
			if !ok {
				return reject(c, cfg, fiber.StatusUnauthorized, "missing user context")
			}
			id, err := guard.VerifyToken(token.Raw)
			if err != nil {
				return reject(c, cfg, fiber.StatusUnauthorized, err.Error())
			}
			c.Locals(identityKey, id)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return reject(c, cfg, fiber.StatusUnauthorized, err.Error())
		},
	})
}

// OptionalIdentity attaches the identity when a valid session token is
// present and lets every request through.
func OptionalIdentity(guard *auth.Guard, cfg *config.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !guard.Enabled() {
			return c.Next()
		}
		raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if raw == "" {
			raw = c.Cookies(cfg.CookieName)
		}
		if raw == "" {
			return c.Next()
		}
		if id, err := guard.VerifyToken(raw); err == nil {
			c.Locals(identityKey, id)
		}
		return c.Next()
	}
}

// RequireRole lets through identities whose role allows need. It must run
// after JwtProtected.
func RequireRole(need user.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := Identity(c)
		if !ok {
			return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrUnauthorized, "missing user context")
		}
		if !id.Role.Allows(need) {
			return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden,
				"this route requires the "+string(need)+" role")
		}
		return c.Next()
	}
}

// reject answers browsers with a redirect to the login page and API clients
// with problem details.
func reject(c *fiber.Ctx, cfg *config.Auth, status int, detail string) error {
	if status == fiber.StatusUnauthorized && cfg.LoginPath != "" && wantsHTML(c) {
		return c.Redirect(cfg.LoginPath, fiber.StatusFound)
	}
	return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrUnauthorized, detail, status)
}

func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}
