// internals/route/details/school_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	attendanceRoute "schoolku_backend/internals/features/school/attendance/route"
	attendanceService "schoolku_backend/internals/features/school/attendance/service"
)

/* ===================== SCHOOL (tenant scoped) ===================== */

func SchoolRoutes(app *fiber.App, attendance *attendanceService.AttendanceService, jwt fiber.Handler) {
	attendanceRoute.AttendanceRoutes(app, attendance, jwt)
}
