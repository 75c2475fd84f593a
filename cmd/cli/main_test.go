package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/user"
	contributionsvc "github.com/amirasaad/charity/pkg/service/contribution"
	"github.com/amirasaad/charity/webapi/testutils"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestDispatch_UnknownCommand(t *testing.T) {
	env := testutils.NewEnv(testutils.Config())
	var out bytes.Buffer
	err := dispatch(context.Background(), env.App, []string{"frobnicate"}, &out, os.Stdin)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage: cli")
}

func TestRun_MissingCommand(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, run(context.Background(), nil, &out))
	assert.Contains(t, out.String(), "create-user")
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(testutils.Config())
	var out bytes.Buffer

	err := dispatch(ctx, env.App, []string{
		"create-user", "--name", "Grace", "--password", "s3cret-pass", "grace@example.org", "admin",
	}, &out, os.Stdin)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Created admin grace@example.org")

	res, err := env.App.AuthService.Login(ctx, "grace@example.org", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestCreateUser_PasswordFromStdin(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(testutils.Config())

	in, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer in.Close() //nolint: errcheck
	_, err = in.WriteString("piped-password\n")
	require.NoError(t, err)
	_, err = in.Seek(0, 0)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, dispatch(ctx, env.App, []string{"create-user", "lin@example.org", "volunteer"}, &out, in))

	_, err = env.App.AuthService.Login(ctx, "lin@example.org", "piped-password")
	require.NoError(t, err)
}

func TestCreateUser_Invalid(t *testing.T) {
	env := testutils.NewEnv(testutils.Config())
	tests := []struct {
		name string
		args []string
	}{
		{"missing role", []string{"create-user", "--password", "x", "a@example.org"}},
		{"unknown role", []string{"create-user", "--password", "s3cret-pass", "a@example.org", "owner"}},
		{"unknown flag", []string{"create-user", "--nope", "a@example.org", "admin"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.Error(t, dispatch(context.Background(), env.App, tc.args, &out, os.Stdin))
		})
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(testutils.Config())
	_, err := env.App.AuthService.CreateUser(ctx, "admin@example.org", "Admin", "s3cret-pass", user.RoleAdmin)
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, dispatch(ctx, env.App, []string{"export"}, &stdout, os.Stdin))
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &data))
	assert.Contains(t, data, user.Collection)
	assert.Contains(t, data, contribution.Collection)
	assert.NotContains(t, stdout.String(), "s3cret-pass")

	path := filepath.Join(t.TempDir(), "export.json")
	var out bytes.Buffer
	require.NoError(t, dispatch(ctx, env.App, []string{"export", path}, &out, os.Stdin))
	assert.Contains(t, out.String(), "Exported")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Contains(t, data, user.Collection)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(testutils.Config())
	svc := env.App.ContributionService

	complete := func(amount, code, program string) {
		r, err := svc.Create(ctx, contributionsvc.CreateInput{
			ContributorName:  "Ada",
			ContributorEmail: "ada@example.org",
			Kind:             "donation",
			Program:          program,
			Amount:           decimal.RequireFromString(amount),
			Currency:         code,
			PaymentMethod:    string(contribution.MethodCard),
		})
		require.NoError(t, err)
		_, err = svc.AdminUpdateStatus(ctx, r.ID, contribution.StatusCompleted, "paid at the office", "admin@example.org")
		require.NoError(t, err)
	}
	complete("10", "USD", "skills")
	complete("3000", "NGN", "skills")
	complete("50", "USD", "meals")

	var out bytes.Buffer
	require.NoError(t, dispatch(ctx, env.App, []string{"totals", "skills"}, &out, os.Stdin))
	assert.Contains(t, out.String(), "USD total 12.00 from 2 contributions at 1500 NGN/USD")
	assert.Contains(t, out.String(), "NGN  3000.00 (1 contributions)")

	out.Reset()
	require.NoError(t, dispatch(ctx, env.App, []string{"totals"}, &out, os.Stdin))
	assert.Contains(t, out.String(), "USD total 62.00 from 3 contributions")
}
