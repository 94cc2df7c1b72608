package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/users/auth/dto"
	"schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Svc: svc}
}

// clientIP is the socket peer, or the first X-Forwarded-For hop when the
// peer is a configured trusted proxy.
func clientIP(c *fiber.Ctx) string {
	return c.IP()
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return helper.ErrValidation("Invalid request body")
	}
	return nil
}

// POST /api/auth/send-otp
func (ac *AuthController) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ac.Svc.SendOTP(c.UserContext(), req, clientIP(c))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, res.Message, res)
}

// POST /api/auth/register
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	user, err := ac.Svc.Register(c.UserContext(), req, clientIP(c))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "Registration successful", user)
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ac.Svc.Login(c.UserContext(), req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return respondLogin(c, res)
}

// POST /api/auth/login/with-device
func (ac *AuthController) LoginWithDevice(c *fiber.Ctx) error {
	var req dto.LoginWithDeviceRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ac.Svc.LoginWithDevice(c.UserContext(), req, clientIP(c), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return respondLogin(c, res)
}

// POST /api/auth/device/verify
func (ac *AuthController) VerifyDevice(c *fiber.Ctx) error {
	var req dto.VerifyDeviceRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ac.Svc.VerifyDevice(c.UserContext(), req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return respondLogin(c, res)
}

// POST /api/auth/google
func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := parseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ac.Svc.LoginGoogle(c.UserContext(), req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return respondLogin(c, res)
}

func respondLogin(c *fiber.Ctx, res *dto.LoginResponse) error {
	if res.NeedsRegistration {
		return helper.JsonOK(c, "Registration required", res)
	}
	return helper.JsonOK(c, "Login successful", res)
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	id, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	user, err := ac.Svc.Me(c.UserContext(), id.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", user)
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	raw := helperAuth.GetRawToken(c)
	if err := ac.Svc.Logout(c.UserContext(), raw, helperAuth.GetTokenExpiry(c)); err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "Logout successful", nil)
}

/* ===================== Trusted devices ===================== */

// GET /api/auth/devices
func (ac *AuthController) ListDevices(c *fiber.Ctx) error {
	id, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	devices, err := ac.Svc.Devices().List(c.UserContext(), id.UserID)
	if err != nil {
		return helper.WriteError(c, helper.ErrInternal(err))
	}
	return helper.JsonList(c, "ok", devices, nil)
}

// DELETE /api/auth/devices/:deviceId
func (ac *AuthController) RemoveDevice(c *fiber.Ctx) error {
	id, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	deviceID := strings.TrimSpace(c.Params("deviceId"))
	removed, err := ac.Svc.Devices().Remove(c.UserContext(), id.UserID, deviceID)
	if err != nil {
		return helper.WriteError(c, helper.ErrInternal(err))
	}
	if !removed {
		return helper.WriteError(c, helper.ErrNotFound("Device not found"))
	}
	return helper.JsonDeleted(c, "Device removed", fiber.Map{"deviceId": deviceID})
}

// DELETE /api/auth/devices
func (ac *AuthController) RemoveAllDevices(c *fiber.Ctx) error {
	id, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	n, err := ac.Svc.Devices().RemoveAll(c.UserContext(), id.UserID)
	if err != nil {
		return helper.WriteError(c, helper.ErrInternal(err))
	}
	return helper.JsonDeleted(c, "All devices removed", fiber.Map{"removed": n})
}
