package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/amirasaad/charity/pkg/utils"
	"github.com/google/uuid"
)

// dummyHash is checked for unknown emails to keep login timing uniform.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Notifier is the part of the notification dispatcher the service needs.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message)
}

// Service signs users in and manages their passwords.
type Service struct {
	users    repository.Collection[user.User]
	guard    *Guard
	notifier Notifier
	logger   *slog.Logger
}

func New(
	users repository.Collection[user.User],
	guard *Guard,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{users: users, guard: guard, notifier: notifier, logger: logger.With("service", "auth")}
}

// Guard returns the token guard.
func (s *Service) Guard() *Guard { return s.guard }

// LoginResult is a signed-in session.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
}

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := s.logger.With("handler", "Login", "email", utils.MaskValue(email))
	if !s.guard.Enabled() {
		return nil, fmt.Errorf("%w: authentication is not configured", domain.ErrUnavailable)
	}

	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		_ = utils.CheckPasswordHash(password, dummyHash)
		log.Warn("Login failed", "reason", "unknown email")
		return nil, errInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		log.Warn("Login failed", "reason", "wrong password", "user_id", u.ID)
		return nil, errInvalidCredentials
	}

	token, err := s.guard.IssueToken(Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	log.Info("Login successful", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: token, ExpiresAt: s.guard.now().Add(s.guard.Expiry()), User: u}, nil
}

// CreateUser adds an administrator or volunteer account.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, role user.Role) (*user.User, error) {
	u, err := user.New(email, name, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Add(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// GetUser returns the account behind a verified identity.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.Get(ctx, id)
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		s.logger.Info("Password reset for unknown email ignored")
		return nil
	}
	token, err := s.guard.IssueResetToken(u)
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, notification.Message{
			Template: notification.PasswordResetRequested,
			To:       []string{u.Email},
			Data: map[string]string{
				"email":   u.Email,
				"token":   token,
				"expires": s.guard.ResetExpiry().String(),
			},
		})
	}
	s.logger.Info("Password reset requested", "user_id", u.ID)
	return nil
}

// ResetPassword sets a new password using a reset token. A token works once:
// changing the password invalidates it.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.guard.verifyReset(token)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return fmt.Errorf("%w: malformed claims", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
		}
		return err
	}
	if fingerprint(u.PasswordHash) != claims.PasswordFingerprint {
		return fmt.Errorf("%w: reset token already used", domain.ErrUnauthorized)
	}
	if err := u.SetPassword(password); err != nil {
		return err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}
	s.logger.Info("Password reset", "user_id", u.ID)
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*user.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	users, err := s.users.List(ctx, repository.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}
