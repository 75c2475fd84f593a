package webapi_test

import (
	"testing"
	"time"

	"github.com/amirasaad/charity/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	cfg := testutils.Config()
	cfg.RateLimit.MaxRequests = 5
	cfg.RateLimit.Window = 1 * time.Second
	env := testutils.NewEnv(cfg)

	for i := range 6 {
		resp := env.MakeRequest(fiber.MethodGet, "/", "", "")
		defer resp.Body.Close() //nolint: errcheck

		if i < 5 {
			assert.Equal(t, fiber.StatusOK, resp.StatusCode, "Expected OK for request %d", i+1)
		} else {
			assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, "Expected Too Many Requests for request %d", i+1)
			assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
		}
	}

	// Wait for the rate limit window to reset
	time.Sleep(1100 * time.Millisecond)

	resp := env.MakeRequest(fiber.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "Expected OK after rate limit reset")
}

func TestRateLimit_SpoofedForwardedForSharesBudget(t *testing.T) {
	cfg := testutils.Config()
	cfg.RateLimit.MaxRequests = 1
	cfg.RateLimit.Window = time.Minute
	cfg.Server.ProxyHeader = fiber.HeaderXForwardedFor
	env := testutils.NewEnv(cfg)

	assert.Equal(t, fiber.StatusOK, sendForwardedFor(t, env, "203.0.113.7"))
	assert.Equal(t, fiber.StatusTooManyRequests, sendForwardedFor(t, env, "198.51.100.2"))
	assert.Equal(t, fiber.StatusTooManyRequests, sendForwardedFor(t, env, "192.0.2.44"))
}

func TestRateLimit_KeyedByClientBehindTrustedProxy(t *testing.T) {
	cfg := testutils.Config()
	cfg.RateLimit.MaxRequests = 1
	cfg.RateLimit.Window = time.Minute
	cfg.Server.ProxyHeader = fiber.HeaderXForwardedFor
	// in-process test requests arrive from 0.0.0.0
	cfg.Server.TrustedProxies = []string{"0.0.0.0"}
	env := testutils.NewEnv(cfg)

	assert.Equal(t, fiber.StatusOK, sendForwardedFor(t, env, "203.0.113.7, 10.0.0.1"))
	assert.Equal(t, fiber.StatusTooManyRequests, sendForwardedFor(t, env, "203.0.113.7"))
	assert.Equal(t, fiber.StatusOK, sendForwardedFor(t, env, "198.51.100.2"))
}

func sendForwardedFor(t *testing.T, env *testutils.Env, forwardedFor string) int {
	t.Helper()
	resp, err := env.Fiber.Test(httptestRequest(forwardedFor), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint: errcheck
	return resp.StatusCode
}
