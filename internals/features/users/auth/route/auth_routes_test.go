package route_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"schoolku_backend/internals/databases/dbtest"
	"schoolku_backend/internals/features/users/auth/route"
	"schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
)

const secret = "auth-route-secret"

type inbox struct {
	mu   sync.Mutex
	last map[string]string
}

func (b *inbox) SendOTP(_ context.Context, phone, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		b.last = map[string]string{}
	}
	b.last[phone] = code
	return nil
}

func (b *inbox) code(phone string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[phone]
}

type client struct {
	t            *testing.T
	app          *fiber.App
	forwardedFor string
}

func (c client) do(method, target, token string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if c.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", c.forwardedFor)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(c.t, sonic.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAuthFlowOverHTTP(t *testing.T) {
	db := dbtest.Open(t)
	s := dbtest.School(t, db, "MAPLE")
	box := &inbox{}

	tokens := service.NewTokenService(db, secret, 7*24*time.Hour, nil)
	svc := service.NewAuthService(service.AuthDeps{
		DB:       db,
		Security: service.NewOTPSecurityService(db, nil, service.OTPSecurityConfig{}, nil),
		Tokens:   tokens,
		Devices:  service.NewDeviceService(db, "device-secret", 0, nil),
		Sender:   box,
	}, service.AuthConfig{BcryptCost: bcrypt.MinCost})

	app := fiber.New(fiber.Config{JSONEncoder: sonic.Marshal, JSONDecoder: sonic.Unmarshal, ErrorHandler: helper.FiberErrorHandler})
	route.AuthRoutes(app, svc, secret)
	c := client{t: t, app: app, forwardedFor: "203.0.113.7"}

	phone := map[string]any{"countryCode": "+91", "mobileNo": "9123456780"}
	status, _ := c.do(http.MethodPost, "/api/auth/send-otp", "", phone)
	require.Equal(t, fiber.StatusOK, status)

	status, body := c.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"countryCode": "+91",
		"mobileNo":    "9123456780",
		"otp":         box.code("+919123456780"),
		"role":        "SCHOOL_ADMIN",
		"schoolId":    s.SchoolID.String(),
		"name":        "Meera Iyer",
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, _ = c.do(http.MethodPost, "/api/auth/send-otp", "", phone)
	require.Equal(t, fiber.StatusOK, status)

	status, body = c.do(http.MethodPost, "/api/auth/login/with-device", "", map[string]any{
		"countryCode":    "+91",
		"mobileNo":       "9123456780",
		"otp":            box.code("+919123456780"),
		"deviceId":       "browser-1",
		"rememberDevice": true,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	data := body["data"].(map[string]any)
	token := data["accessToken"].(string)
	deviceToken := data["deviceToken"].(string)
	require.NotEmpty(t, token)
	require.Len(t, deviceToken, 64)

	status, body = c.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "Meera Iyer", body["data"].(map[string]any)["name"])

	status, body = c.do(http.MethodGet, "/api/auth/devices", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"].([]any), 1)

	status, body = c.do(http.MethodPost, "/api/auth/device/verify", "", map[string]any{
		"countryCode": "+91",
		"mobileNo":    "9123456780",
		"deviceId":    "browser-1",
		"deviceToken": deviceToken,
	})
	require.Equal(t, fiber.StatusOK, status, body)

	status, _ = c.do(http.MethodDelete, "/api/auth/devices/unknown", token, nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = c.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = c.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Contains(t, body["message"], "revoked")
}

func TestPublicRoutesSkipJWT(t *testing.T) {
	db := dbtest.Open(t)
	svc := service.NewAuthService(service.AuthDeps{
		DB:       db,
		Security: service.NewOTPSecurityService(db, nil, service.OTPSecurityConfig{}, nil),
		Tokens:   service.NewTokenService(db, secret, 0, nil),
		Devices:  service.NewDeviceService(db, "d", 0, nil),
		Sender:   &inbox{},
	}, service.AuthConfig{BcryptCost: bcrypt.MinCost})

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	route.AuthRoutes(app, svc, secret)
	c := client{t: t, app: app}

	status, body := c.do(http.MethodPost, "/api/auth/send-otp", "", map[string]any{"countryCode": "91x", "mobileNo": "1"})
	require.Equal(t, fiber.StatusBadRequest, status, body)

	status, _ = c.do(http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSpoofedForwardedForSharesOneOTPWindow(t *testing.T) {
	db := dbtest.Open(t)
	svc := service.NewAuthService(service.AuthDeps{
		DB:       db,
		Security: service.NewOTPSecurityService(db, nil, service.OTPSecurityConfig{}, nil),
		Tokens:   service.NewTokenService(db, secret, 0, nil),
		Devices:  service.NewDeviceService(db, "d", 0, nil),
		Sender:   &inbox{},
	}, service.AuthConfig{BcryptCost: bcrypt.MinCost})

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	route.AuthRoutes(app, svc, secret)
	c := client{t: t, app: app}

	phone := map[string]any{"countryCode": "+91", "mobileNo": "9000011111"}
	for i := 1; i <= 5; i++ {
		c.forwardedFor = fmt.Sprintf("198.51.100.%d", i)
		status, body := c.do(http.MethodPost, "/api/auth/send-otp", "", phone)
		require.Equal(t, fiber.StatusOK, status, body)
	}

	c.forwardedFor = "198.51.100.99"
	status, body := c.do(http.MethodPost, "/api/auth/send-otp", "", phone)
	require.Equal(t, fiber.StatusTooManyRequests, status, body)
	require.Contains(t, body["message"], "Too many OTP requests")
}
