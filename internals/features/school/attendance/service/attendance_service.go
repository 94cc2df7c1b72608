// file: internals/features/school/attendance/service/attendance_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/attendance/dto"
	"schoolku_backend/internals/features/school/attendance/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/middlewares/metrics"
)

const (
	msgMarked             = "Attendance marked successfully"
	msgFutureDate         = "Cannot mark attendance for future dates"
	msgSectionNotFound    = "Section not found in this school"
	msgStudentNotFound    = "Student not found in this school"
	msgTeacherNotFound    = "Teacher profile not found"
	msgNotAssigned        = "You are not assigned to this section. Please contact your administrator."
	msgStudentsNotFound   = "One or more students not found in this section"
	msgAlreadyMarked      = "Attendance already marked for this section on this date"
	msgEmptyEntries       = "attendances must contain at least one entry"
	msgDuplicateStudent   = "Each student may appear only once per submission"
	msgInvalidStatus      = "status must be one of PRESENT, ABSENT, LATE, EXCUSED"
	msgNotYourChild       = "You can only view attendance of your own children"
	msgInvalidRange       = "startDate must not be after endDate"
	attendanceInsertBatch = 500
)

type AttendanceService struct {
	db  *gorm.DB
	cal *dbtime.Calendar
	log *zap.Logger
}

func NewAttendanceService(db *gorm.DB, cal *dbtime.Calendar, log *zap.Logger) *AttendanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttendanceService{db: db, cal: cal, log: log.Named("attendance")}
}

// Viewer is the caller after tenant resolution.
type Viewer struct {
	SchoolID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

type MarkEntry struct {
	StudentID uuid.UUID
	Status    model.AttendanceStatus
}

type MarkInput struct {
	Viewer
	SectionID uuid.UUID
	Date      string
	Entries   []MarkEntry
}

type daySummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
}

func (d *daySummary) add(st model.AttendanceStatus) {
	switch st {
	case model.StatusPresent:
		d.Present++
	case model.StatusAbsent:
		d.Absent++
	case model.StatusLate:
		d.Late++
	case model.StatusExcused:
		d.Excused++
	}
}

func validateEntries(entries []MarkEntry) ([]uuid.UUID, daySummary, error) {
	var sum daySummary
	if len(entries) == 0 {
		return nil, sum, helper.ErrValidation(msgEmptyEntries)
	}
	ids := make([]uuid.UUID, 0, len(entries))
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		if !e.Status.Valid() {
			return nil, sum, helper.ErrValidation(msgInvalidStatus)
		}
		if _, dup := seen[e.StudentID]; dup {
			return nil, sum, helper.ErrValidation(msgDuplicateStudent)
		}
		seen[e.StudentID] = struct{}{}
		ids = append(ids, e.StudentID)
		sum.add(e.Status)
	}
	return ids, sum, nil
}

/* ==========================
   MARK
========================== */

// MarkAttendance records one submission per section per day. The insert of
// the section record is the guard: a second submission for the same
// (section, date) fails on the unique index and rolls everything back.
func (s *AttendanceService) MarkAttendance(ctx context.Context, in MarkInput) (*dto.MarkAttendanceResponse, error) {
	res, err := s.markAttendance(ctx, in)
	metrics.AttendanceMarksTotal.WithLabelValues(markResultLabel(err)).Inc()
	return res, err
}

func markResultLabel(err error) string {
	switch helper.KindOf(err) {
	case helper.KindInternal:
		if err == nil {
			return "ok"
		}
		return "error"
	case helper.KindConflict:
		return "conflict"
	case helper.KindAuthorization:
		return "forbidden"
	default:
		return "rejected"
	}
}

func (s *AttendanceService) markAttendance(ctx context.Context, in MarkInput) (*dto.MarkAttendanceResponse, error) {
	day, err := s.cal.ParseDay(in.Date)
	if err != nil {
		return nil, helper.ErrValidation(err.Error())
	}
	if day.After(s.cal.Today()) {
		return nil, helper.ErrValidation(msgFutureDate)
	}
	ids, sum, err := validateEntries(in.Entries)
	if err != nil {
		return nil, err
	}
	summaryJSON, _ := json.Marshal(sum)

	var out dto.MarkAttendanceResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		section, className, err := findSection(tx, in.SchoolID, in.SectionID)
		if err != nil {
			return err
		}
		if section == nil {
			return helper.ErrValidation(msgSectionNotFound)
		}

		if in.Role == constants.RoleTeacher {
			if err := ensureTeacherAssigned(tx, in.Viewer, in.SectionID); err != nil {
				return err
			}
		}

		rec := model.SectionAttendanceRecordModel{
			SectionAttendanceRecordSchoolID:  in.SchoolID,
			SectionAttendanceRecordSectionID: in.SectionID,
			SectionAttendanceRecordDate:      day,
			SectionAttendanceRecordMarkedBy:  in.UserID,
			SectionAttendanceRecordSummary:   datatypes.JSON(summaryJSON),
		}
		if err := tx.Create(&rec).Error; err != nil {
			if helper.IsDuplicateKey(err) {
				return helper.ErrConflict(msgAlreadyMarked)
			}
			return err
		}

		var found int64
		if err := tx.Model(&academicsModel.StudentModel{}).
			Where("student_id IN ? AND student_school_id = ? AND student_section_id = ?", ids, in.SchoolID, in.SectionID).
			Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return helper.ErrValidation(msgStudentsNotFound)
		}

		rows := make([]model.AttendanceModel, 0, len(in.Entries))
		for _, e := range in.Entries {
			rows = append(rows, model.AttendanceModel{
				AttendanceSchoolID:  in.SchoolID,
				AttendanceStudentID: e.StudentID,
				AttendanceDate:      day,
				AttendanceStatus:    e.Status,
			})
		}
		if err := tx.CreateInBatches(&rows, attendanceInsertBatch).Error; err != nil {
			return err
		}

		out = dto.MarkAttendanceResponse{
			Message:   msgMarked,
			Date:      dbtime.FormatDay(day),
			ClassName: className,
			Section:   section.SectionName,
			Count:     len(rows),
		}
		return nil
	})
	if err != nil {
		return nil, helper.TranslateDBError(err)
	}

	s.log.Info("attendance marked",
		zap.String("school_id", in.SchoolID.String()),
		zap.String("section_id", in.SectionID.String()),
		zap.String("date", out.Date),
		zap.Int("count", out.Count))
	return &out, nil
}

// findSection returns (nil, "", nil) when the section is not in the school.
func findSection(db *gorm.DB, schoolID, sectionID uuid.UUID) (*academicsModel.SectionModel, string, error) {
	var section academicsModel.SectionModel
	err := db.Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).Take(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var class academicsModel.ClassModel
	err = db.Where("class_id = ? AND class_school_id = ?", section.SectionClassID, schoolID).Take(&class).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	return &section, class.ClassName, nil
}

// ensureTeacherAssigned fails with 403 unless the teacher teaches the section.
func ensureTeacherAssigned(db *gorm.DB, v Viewer, sectionID uuid.UUID) error {
	var teacher academicsModel.TeacherModel
	err := db.Where("teacher_user_id = ? AND teacher_school_id = ?", v.UserID, v.SchoolID).Take(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.ErrForbidden(msgTeacherNotFound)
	}
	if err != nil {
		return err
	}

	var n int64
	if err := db.Model(&academicsModel.TeacherAssignmentModel{}).
		Where("teacher_assignment_teacher_id = ? AND teacher_assignment_section_id = ?", teacher.TeacherID, sectionID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return helper.ErrForbidden(msgNotAssigned)
	}
	return nil
}

/* ==========================
   READS
========================== */

type dayRange struct {
	From *time.Time
	To   *time.Time
}

// resolveRange turns the query into inclusive day bounds. A single date wins.
func (s *AttendanceService) resolveRange(q dto.DateRangeQuery) (dayRange, error) {
	if d, err := s.cal.ParseOptionalDay(q.Date); err != nil {
		return dayRange{}, helper.ErrValidation(err.Error())
	} else if d != nil {
		return dayRange{From: d, To: d}, nil
	}
	from, err := s.cal.ParseOptionalDay(q.StartDate)
	if err != nil {
		return dayRange{}, helper.ErrValidation(err.Error())
	}
	to, err := s.cal.ParseOptionalDay(q.EndDate)
	if err != nil {
		return dayRange{}, helper.ErrValidation(err.Error())
	}
	if from != nil && to != nil && from.After(*to) {
		return dayRange{}, helper.ErrValidation(msgInvalidRange)
	}
	return dayRange{From: from, To: to}, nil
}

type attendanceRow struct {
	AttendanceID     uuid.UUID `gorm:"column:attendance_id"`
	AttendanceDate   time.Time `gorm:"column:attendance_date"`
	AttendanceStatus string    `gorm:"column:attendance_status"`
	StudentID        uuid.UUID `gorm:"column:student_id"`
	StudentName      string    `gorm:"column:student_name"`
	StudentRollNo    int       `gorm:"column:student_roll_no"`
	ClassName        string    `gorm:"column:class_name"`
	SectionName      string    `gorm:"column:section_name"`
}

func (r attendanceRow) view() dto.AttendanceView {
	return dto.AttendanceView{
		ID:     r.AttendanceID,
		Date:   dbtime.FormatDay(r.AttendanceDate),
		Status: r.AttendanceStatus,
		Student: dto.StudentRef{
			ID:          r.StudentID,
			Name:        r.StudentName,
			RollNo:      r.StudentRollNo,
			ClassName:   r.ClassName,
			SectionName: r.SectionName,
		},
	}
}

// attendanceQuery joins entries to their student; every read starts here so
// the school filter is never skipped.
func (s *AttendanceService) attendanceQuery(ctx context.Context, schoolID uuid.UUID, r dayRange) *gorm.DB {
	q := s.db.WithContext(ctx).
		Table("attendances AS a").
		Select(`a.attendance_id, a.attendance_date, a.attendance_status,
			st.student_id, st.student_name, st.student_roll_no,
			c.class_name, sec.section_name`).
		Joins("JOIN students st ON st.student_id = a.attendance_student_id AND st.student_school_id = a.attendance_school_id").
		Joins("JOIN classes c ON c.class_id = st.student_class_id").
		Joins("JOIN sections sec ON sec.section_id = st.student_section_id").
		Where("a.attendance_school_id = ?", schoolID)
	if r.From != nil {
		q = q.Where("a.attendance_date >= ?", *r.From)
	}
	if r.To != nil {
		q = q.Where("a.attendance_date <= ?", *r.To)
	}
	return q
}

func scanViews(q *gorm.DB) ([]dto.AttendanceView, error) {
	var rows []attendanceRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, helper.ErrInternal(err)
	}
	out := make([]dto.AttendanceView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, nil
}

// loadSectionFor checks the section is in scope and, for teachers, assigned.
func (s *AttendanceService) loadSectionFor(ctx context.Context, v Viewer, sectionID uuid.UUID) (*academicsModel.SectionModel, string, error) {
	db := s.db.WithContext(ctx)
	section, className, err := findSection(db, v.SchoolID, sectionID)
	if err != nil {
		return nil, "", helper.ErrInternal(err)
	}
	if section == nil {
		return nil, "", helper.ErrNotFound(msgSectionNotFound)
	}
	if v.Role == constants.RoleTeacher {
		if err := ensureTeacherAssigned(db, v, sectionID); err != nil {
			return nil, "", helper.TranslateDBError(err)
		}
	}
	return section, className, nil
}

// GetBySectionAndDate returns the whole roster with each student's status (or null).
func (s *AttendanceService) GetBySectionAndDate(ctx context.Context, v Viewer, sectionID uuid.UUID, date string) (*dto.SectionDayResponse, error) {
	day, err := s.cal.ParseDay(date)
	if err != nil {
		return nil, helper.ErrValidation(err.Error())
	}
	section, className, err := s.loadSectionFor(ctx, v, sectionID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var students []academicsModel.StudentModel
	if err := db.Where("student_section_id = ? AND student_school_id = ?", sectionID, v.SchoolID).
		Order("student_roll_no ASC").
		Find(&students).Error; err != nil {
		return nil, helper.ErrInternal(err)
	}

	var marks []model.AttendanceModel
	if err := db.Table("attendances AS a").
		Select("a.attendance_student_id, a.attendance_status").
		Joins("JOIN students st ON st.student_id = a.attendance_student_id").
		Where("a.attendance_school_id = ? AND a.attendance_date = ? AND st.student_section_id = ?", v.SchoolID, day, sectionID).
		Scan(&marks).Error; err != nil {
		return nil, helper.ErrInternal(err)
	}

	var recorded int64
	if err := db.Model(&model.SectionAttendanceRecordModel{}).
		Where("section_attendance_record_section_id = ? AND section_attendance_record_date = ?", sectionID, day).
		Count(&recorded).Error; err != nil {
		return nil, helper.ErrInternal(err)
	}

	statusByStudent := make(map[uuid.UUID]model.AttendanceStatus, len(marks))
	var sum daySummary
	for _, m := range marks {
		statusByStudent[m.AttendanceStudentID] = m.AttendanceStatus
		sum.add(m.AttendanceStatus)
	}

	roster := make([]dto.RosterEntry, 0, len(students))
	for _, st := range students {
		entry := dto.RosterEntry{ID: st.StudentID, Name: st.StudentName, RollNo: st.StudentRollNo}
		if status, ok := statusByStudent[st.StudentID]; ok {
			str := string(status)
			entry.Status = &str
		}
		roster = append(roster, entry)
	}

	return &dto.SectionDayResponse{
		Date: dbtime.FormatDay(day),
		Section: dto.SectionRef{
			ID:    section.SectionID,
			Name:  section.SectionName,
			Class: &dto.ClassRef{ID: section.SectionClassID, Name: className},
		},
		Students: roster,
		Summary: dto.DaySummary{
			TotalStudents: len(students),
			Present:       sum.Present,
			Absent:        sum.Absent,
			Late:          sum.Late,
			Excused:       sum.Excused,
			NotMarked:     len(students) - len(statusByStudent),
			IsMarked:      recorded > 0 || len(marks) > 0,
		},
	}, nil
}

// GetBySection lists entries of a section, newest day first then by roll number.
func (s *AttendanceService) GetBySection(ctx context.Context, v Viewer, sectionID uuid.UUID, q dto.DateRangeQuery) ([]dto.AttendanceView, error) {
	r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.loadSectionFor(ctx, v, sectionID); err != nil {
		return nil, err
	}
	return scanViews(s.attendanceQuery(ctx, v.SchoolID, r).
		Where("st.student_section_id = ?", sectionID).
		Order("a.attendance_date DESC").
		Order("st.student_roll_no ASC"))
}

// GetByStudent returns one student's history. Parents only see linked children.
func (s *AttendanceService) GetByStudent(ctx context.Context, v Viewer, studentID uuid.UUID, q dto.DateRangeQuery) (*dto.StudentAttendanceResponse, error) {
	r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var student academicsModel.StudentModel
	err = db.Where("student_id = ? AND student_school_id = ?", studentID, v.SchoolID).Take(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound(msgStudentNotFound)
	}
	if err != nil {
		return nil, helper.ErrInternal(err)
	}

	if v.Role == constants.RoleParent {
		var linked int64
		if err := db.Model(&academicsModel.ParentStudentModel{}).
			Where("parent_student_parent_id = ? AND parent_student_student_id = ?", v.UserID, studentID).
			Count(&linked).Error; err != nil {
			return nil, helper.ErrInternal(err)
		}
		if linked == 0 {
			return nil, helper.ErrForbidden(msgNotYourChild)
		}
	}

	var class academicsModel.ClassModel
	if err := db.Where("class_id = ?", student.StudentClassID).Take(&class).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrInternal(err)
	}
	var section academicsModel.SectionModel
	if err := db.Where("section_id = ?", student.StudentSectionID).Take(&section).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrInternal(err)
	}

	views, err := scanViews(s.attendanceQuery(ctx, v.SchoolID, r).
		Where("a.attendance_student_id = ?", studentID).
		Order("a.attendance_date DESC"))
	if err != nil {
		return nil, err
	}

	return &dto.StudentAttendanceResponse{
		Student: dto.StudentDetail{
			ID:      student.StudentID,
			Name:    student.StudentName,
			RollNo:  student.StudentRollNo,
			Class:   dto.ClassRef{ID: student.StudentClassID, Name: class.ClassName},
			Section: dto.SectionRef{ID: student.StudentSectionID, Name: section.SectionName},
		},
		Attendance: views,
	}, nil
}

// GetMyChildren lists entries of every child linked to the parent in this school.
func (s *AttendanceService) GetMyChildren(ctx context.Context, v Viewer, q dto.DateRangeQuery) ([]dto.AttendanceView, error) {
	r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	var childIDs []uuid.UUID
	if err := s.db.WithContext(ctx).
		Table("parent_students AS ps").
		Joins("JOIN students st ON st.student_id = ps.parent_student_student_id").
		Where("ps.parent_student_parent_id = ? AND st.student_school_id = ?", v.UserID, v.SchoolID).
		Pluck("ps.parent_student_student_id", &childIDs).Error; err != nil {
		return nil, helper.ErrInternal(err)
	}
	if len(childIDs) == 0 {
		return []dto.AttendanceView{}, nil
	}

	return scanViews(s.attendanceQuery(ctx, v.SchoolID, r).
		Where("a.attendance_student_id IN ?", childIDs).
		Order("a.attendance_date DESC").
		Order("st.student_name ASC"))
}
