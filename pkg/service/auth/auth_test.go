package auth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/charity/infra/repository/memory"
	"github.com/amirasaad/charity/internal/fixtures/mocks"
	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/user"
	authsvc "github.com/amirasaad/charity/pkg/service/auth"
	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/amirasaad/charity/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { utils.PasswordCost = bcrypt.MinCost }

func jwtConfig() *config.Jwt {
	return &config.Jwt{Secret: "test-secret", Expiry: time.Hour, ResetExpiry: 30 * time.Minute, Issuer: "charity"}
}

func newService(t *testing.T, cfg *config.Jwt) (*authsvc.Service, *mocks.MockNotifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	n := mocks.NewMockNotifier(t)
	return authsvc.New(memory.NewStore().Users, authsvc.NewGuard(cfg), n, logger), n
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, jwtConfig())
	u, err := s.CreateUser(ctx, "Admin@Example.org", "Admin", "correct-horse", user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", u.Email)

	t.Run("success", func(t *testing.T) {
		res, err := s.Login(ctx, "admin@example.org", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)

		id, err := s.Guard().VerifyToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id.UserID)
		assert.Equal(t, user.RoleAdmin, id.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "admin@example.org", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.Login(ctx, "nobody@example.org", "correct-horse")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("duplicate user", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "admin@example.org", "Again", "another-pass", user.RoleVolunteer)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})
}

func TestLogin_GuardDisabled(t *testing.T) {
	s, _ := newService(t, &config.Jwt{Expiry: time.Hour})
	_, err := s.Login(context.Background(), "a@b.org", "whatever1")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = s.Guard().VerifyToken("anything")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGuard_VerifyToken(t *testing.T) {
	g := authsvc.NewGuard(jwtConfig())
	id := authsvc.Identity{UserID: uuid.New(), Email: "v@example.org", Role: user.RoleVolunteer}
	token, err := g.IssueToken(id)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		cfg := jwtConfig()
		cfg.Secret = "other"
		_, err := authsvc.NewGuard(cfg).VerifyToken(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		cfg := jwtConfig()
		cfg.Expiry = -time.Minute
		expired, err := authsvc.NewGuard(cfg).IssueToken(id)
		require.NoError(t, err)
		_, err = g.VerifyToken(expired)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": id.UserID.String(), "role": "admin", "purpose": "session",
			"exp": time.Now().Add(time.Hour).Unix(), "iss": "charity",
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = g.VerifyToken(none)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := g.VerifyToken("")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	s, n := newService(t, jwtConfig())
	u, err := s.CreateUser(ctx, "vol@example.org", "Vol", "first-password", user.RoleVolunteer)
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(ctx, "nobody@example.org"))
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)

	var token string
	n.EXPECT().Notify(mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
		return msg.Template == notification.PasswordResetRequested &&
			len(msg.To) == 1 && msg.To[0] == u.Email
	})).Run(func(_ context.Context, msg notification.Message) {
		token = msg.Data["token"]
	}).Return().Once()

	require.NoError(t, s.RequestPasswordReset(ctx, "VOL@example.org"))
	require.NotEmpty(t, token)

	_, err = s.Guard().VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "reset token must not open a session")

	assert.ErrorIs(t, s.ResetPassword(ctx, token, "short"), domain.ErrValidation)
	require.NoError(t, s.ResetPassword(ctx, token, "second-password"))
	assert.ErrorIs(t, s.ResetPassword(ctx, token, "third-password"), domain.ErrUnauthorized)

	_, err = s.Login(ctx, "vol@example.org", "first-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = s.Login(ctx, "vol@example.org", "second-password")
	assert.NoError(t, err)
}
