// file: internals/features/users/auth/route/auth_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/users/auth/controller"
	"schoolku_backend/internals/features/users/auth/service"
	rateLimiter "schoolku_backend/internals/middlewares"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

// AuthRoutes mounts /api/auth. Public endpoints sit behind a per-IP burst limiter.
func AuthRoutes(app *fiber.App, svc *service.AuthService, jwtSecret string) {
	authController := controller.NewAuthController(svc)

	baseAuth := app.Group("/api/auth")

	// middleware is attached per route: a Group("") middleware would cover every /api/auth path
	burst := rateLimiter.AuthBurstLimiter()
	baseAuth.Post("/send-otp", burst, authController.SendOTP)
	baseAuth.Post("/register", burst, authController.Register)
	baseAuth.Post("/login", burst, authController.Login)
	baseAuth.Post("/login/with-device", burst, authController.LoginWithDevice)
	baseAuth.Post("/device/verify", burst, authController.VerifyDevice)
	baseAuth.Post("/google", burst, authController.LoginGoogle)

	requireAuth := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:           jwtSecret,
		BlacklistChecker: svc.Tokens().BlacklistChecker(),
	})
	baseAuth.Get("/me", requireAuth, authController.Me)
	baseAuth.Post("/logout", requireAuth, authController.Logout)
	baseAuth.Get("/devices", requireAuth, authController.ListDevices)
	baseAuth.Delete("/devices/:deviceId", requireAuth, authController.RemoveDevice)
	baseAuth.Delete("/devices", requireAuth, authController.RemoveAllDevices)
}
