package middlewares_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/middlewares"
)

func clientIPOf(t *testing.T, proxies []string, forwardedFor string) string {
	t.Helper()
	cfg := fiber.Config{}
	middlewares.TrustProxies(&cfg, proxies)
	app := fiber.New(cfg)
	app.Get("/ip", func(c *fiber.Ctx) error { return c.SendString(c.IP()) })

	req := httptest.NewRequest(fiber.MethodGet, "/ip", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestForwardedForIgnoredWithoutTrustedProxies(t *testing.T) {
	require.NotEqual(t, "198.51.100.23", clientIPOf(t, nil, "198.51.100.23"))
}

func TestForwardedForIgnoredFromUntrustedPeer(t *testing.T) {
	require.NotEqual(t, "198.51.100.23", clientIPOf(t, []string{"10.0.0.0/8"}, "198.51.100.23"))
}

func TestForwardedForHonouredFromTrustedPeer(t *testing.T) {
	// app.Test connections come from 0.0.0.0
	require.Equal(t, "198.51.100.23", clientIPOf(t, []string{"0.0.0.0"}, "198.51.100.23, 10.1.2.3"))
}
