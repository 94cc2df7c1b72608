// file: internals/features/school/attendance/route/attendance_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/school/attendance/controller"
	"schoolku_backend/internals/features/school/attendance/service"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	schoolMiddleware "schoolku_backend/internals/middlewares/features"
)

// AttendanceRoutes mounts /api/attendance. Every route runs
// AuthJWT -> role gate -> tenant scope -> handler.
func AttendanceRoutes(app *fiber.App, svc *service.AttendanceService, jwt fiber.Handler) {
	ctl := controller.NewAttendanceController(svc)

	g := app.Group("/api/attendance", jwt)

	scoped := func(roles []string, feature string, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{
			authMiddleware.OnlyRolesSlice(feature, roles),
			schoolMiddleware.UseSchoolScope(),
			schoolMiddleware.RequireSchoolScope(),
			h,
		}
	}

	g.Post("/mark", scoped(constants.AttendanceWriters,
		constants.RoleErrorAttendanceWriter("attendance marking"), ctl.Mark)...)

	g.Get("/section/:sectionId/date/:date", scoped(constants.SectionReaders,
		constants.RoleErrorAttendanceReader("section attendance"), ctl.GetBySectionAndDate)...)
	g.Get("/section/:sectionId", scoped(constants.SectionReaders,
		constants.RoleErrorAttendanceReader("section attendance"), ctl.GetBySection)...)

	g.Get("/student/:studentId", scoped(constants.StudentReaders, "", ctl.GetByStudent)...)

	g.Get("/my-children", scoped(constants.ParentOnly,
		constants.RoleErrorParent("children attendance"), ctl.GetMyChildren)...)
}
