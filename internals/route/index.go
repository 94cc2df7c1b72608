// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendanceService "schoolku_backend/internals/features/school/attendance/service"
	authService "schoolku_backend/internals/features/users/auth/service"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	routeDetails "schoolku_backend/internals/route/details"
)

var startTime time.Time

type Deps struct {
	DB         *gorm.DB
	JWTSecret  string
	Env        string
	Auth       *authService.AuthService
	Attendance *attendanceService.AttendanceService
	Log        *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	BaseRoutes(app, d.DB, d.Env)

	log.Info("setting up auth routes")
	routeDetails.AuthRoutes(app, d.Auth, d.JWTSecret)

	jwt := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:           d.JWTSecret,
		BlacklistChecker: d.Auth.Tokens().BlacklistChecker(),
	})

	log.Info("setting up school routes")
	routeDetails.SchoolRoutes(app, d.Attendance, jwt)
}
