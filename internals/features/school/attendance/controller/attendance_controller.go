package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/school/attendance/dto"
	"schoolku_backend/internals/features/school/attendance/model"
	"schoolku_backend/internals/features/school/attendance/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AttendanceController struct {
	Svc *service.AttendanceService
}

func NewAttendanceController(svc *service.AttendanceService) *AttendanceController {
	return &AttendanceController{Svc: svc}
}

// viewer combines the identity with the school resolved by UseSchoolScope.
func viewer(c *fiber.Ctx) (service.Viewer, error) {
	id, err := helperAuth.GetIdentity(c)
	if err != nil {
		return service.Viewer{}, err
	}
	schoolID, err := helperAuth.RequireScopedSchool(c)
	if err != nil {
		return service.Viewer{}, err
	}
	return service.Viewer{SchoolID: schoolID, UserID: id.UserID, Role: id.Role}, nil
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, helper.ErrValidation(name + " must be a valid UUID")
	}
	return id, nil
}

func parseRange(c *fiber.Ctx) (dto.DateRangeQuery, error) {
	var q dto.DateRangeQuery
	if err := c.QueryParser(&q); err != nil {
		return q, helper.ErrValidation("Invalid query parameters")
	}
	return q, nil
}

// POST /api/attendance/mark
func (ctl *AttendanceController) Mark(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return helper.WriteError(c, err)
	}

	var req dto.MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.WriteError(c, helper.ErrValidation("Invalid request body"))
	}
	if err := helper.ValidateStruct(req); err != nil {
		return helper.WriteError(c, err)
	}

	// validated as uuids above
	sectionID := uuid.MustParse(req.SectionID)
	entries := make([]service.MarkEntry, 0, len(req.Attendances))
	for _, a := range req.Attendances {
		entries = append(entries, service.MarkEntry{
			StudentID: uuid.MustParse(a.StudentID),
			Status:    model.AttendanceStatus(a.Status),
		})
	}

	res, err := ctl.Svc.MarkAttendance(c.UserContext(), service.MarkInput{
		Viewer:    v,
		SectionID: sectionID,
		Date:      req.Date,
		Entries:   entries,
	})
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, res.Message, res)
}

// GET /api/attendance/section/:sectionId/date/:date
func (ctl *AttendanceController) GetBySectionAndDate(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	sectionID, err := parseUUIDParam(c, "sectionId")
	if err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ctl.Svc.GetBySectionAndDate(c.UserContext(), v, sectionID, c.Params("date"))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/attendance/section/:sectionId
func (ctl *AttendanceController) GetBySection(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	sectionID, err := parseUUIDParam(c, "sectionId")
	if err != nil {
		return helper.WriteError(c, err)
	}
	q, err := parseRange(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	rows, err := ctl.Svc.GetBySection(c.UserContext(), v, sectionID, q)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// GET /api/attendance/student/:studentId
func (ctl *AttendanceController) GetByStudent(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	studentID, err := parseUUIDParam(c, "studentId")
	if err != nil {
		return helper.WriteError(c, err)
	}
	q, err := parseRange(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ctl.Svc.GetByStudent(c.UserContext(), v, studentID, q)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/attendance/my-children
func (ctl *AttendanceController) GetMyChildren(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	q, err := parseRange(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	rows, err := ctl.Svc.GetMyChildren(c.UserContext(), v, q)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
