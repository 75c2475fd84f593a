package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A reset token never opens a session and vice versa.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

// Identity is who a verified token belongs to.
type Identity struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
}

// Claims are the JWT claims issued by the Guard.
type Claims struct {
	Email   string    `json:"email"`
	Role    user.Role `json:"role"`
	Purpose string    `json:"purpose"`
	// PasswordFingerprint pins a reset token to the password it replaces.
	PasswordFingerprint string `json:"pwf,omitempty"`
	jwt.RegisteredClaims
}

// Guard issues and verifies HS256 tokens. A Guard without a secret is
// disabled: it issues nothing and rejects everything.
type Guard struct {
	secret      []byte
	issuer      string
	expiry      time.Duration
	resetExpiry time.Duration
	now         func() time.Time
}

func NewGuard(cfg *config.Jwt) *Guard {
	return &Guard{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		expiry:      cfg.Expiry,
		resetExpiry: cfg.ResetExpiry,
		now:         time.Now,
	}
}

// Enabled reports whether a signing secret is configured.
func (g *Guard) Enabled() bool { return g != nil && len(g.secret) > 0 }

// Secret is the HS256 key, for the fiber JWT middleware.
func (g *Guard) Secret() []byte { return g.secret }

// Expiry is the session token lifetime.
func (g *Guard) Expiry() time.Duration { return g.expiry }

// ResetExpiry is the password reset token lifetime.
func (g *Guard) ResetExpiry() time.Duration { return g.resetExpiry }

// IssueToken signs a session token for id.
func (g *Guard) IssueToken(id Identity) (string, error) {
	return g.sign(Claims{Email: id.Email, Role: id.Role, Purpose: PurposeSession}, id.UserID, g.expiry)
}

// IssueResetToken signs a password reset token for u.
func (g *Guard) IssueResetToken(u *user.User) (string, error) {
	return g.sign(Claims{
		Email:               u.Email,
		Role:                u.Role,
		Purpose:             PurposePasswordReset,
		PasswordFingerprint: fingerprint(u.PasswordHash),
	}, u.ID, g.resetExpiry)
}

func (g *Guard) sign(claims Claims, subject uuid.UUID, ttl time.Duration) (string, error) {
	if !g.Enabled() {
		return "", fmt.Errorf("%w: authentication is not configured", domain.ErrUnavailable)
	}
	now := g.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject.String(),
		Issuer:    g.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// VerifyToken checks a session token.
func (g *Guard) VerifyToken(token string) (*Identity, error) {
	claims, err := g.parse(token, PurposeSession)
	if err != nil {
		return nil, err
	}
	return identityFrom(claims)
}

func (g *Guard) verifyReset(token string) (*Claims, error) {
	return g.parse(token, PurposePasswordReset)
}

func (g *Guard) parse(token, purpose string) (*Claims, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("%w: authentication is not configured", domain.ErrUnauthorized)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return g.secret, nil }, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthorized, err)
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong token purpose", domain.ErrUnauthorized)
	}
	return claims, nil
}

func identityFrom(claims *Claims) (*Identity, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: malformed claims", domain.ErrUnauthorized)
	}
	return &Identity{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

func fingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
