package details

import (
	"github.com/gofiber/fiber/v2"

	authRoute "schoolku_backend/internals/features/users/auth/route"
	authService "schoolku_backend/internals/features/users/auth/service"
)

func AuthRoutes(app *fiber.App, svc *authService.AuthService, jwtSecret string) {
	authRoute.AuthRoutes(app, svc, jwtSecret)
}
