// file: internals/features/school/attendance/model/attendance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusExcused AttendanceStatus = "EXCUSED"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// SectionAttendanceRecordModel marks that a section has been taken for a day.
// The unique (section_id, date) index is the only "already marked" check.
type SectionAttendanceRecordModel struct {
	SectionAttendanceRecordID        uuid.UUID `gorm:"type:uuid;primaryKey;column:section_attendance_record_id" json:"section_attendance_record_id"`
	SectionAttendanceRecordSchoolID  uuid.UUID `gorm:"type:uuid;not null;index:idx_sar_school;column:section_attendance_record_school_id" json:"section_attendance_record_school_id"`
	SectionAttendanceRecordSectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_sar_section_date,priority:1;column:section_attendance_record_section_id" json:"section_attendance_record_section_id"`
	SectionAttendanceRecordDate      time.Time `gorm:"not null;uniqueIndex:uq_sar_section_date,priority:2;column:section_attendance_record_date" json:"section_attendance_record_date"`
	SectionAttendanceRecordMarkedBy  uuid.UUID `gorm:"type:uuid;not null;column:section_attendance_record_marked_by" json:"section_attendance_record_marked_by"`

	// {"present":n,"absent":n,"late":n,"excused":n}
	SectionAttendanceRecordSummary datatypes.JSON `gorm:"type:jsonb;column:section_attendance_record_summary" json:"section_attendance_record_summary,omitempty"`

	SectionAttendanceRecordCreatedAt time.Time `gorm:"autoCreateTime;column:section_attendance_record_created_at" json:"section_attendance_record_created_at"`
}

func (SectionAttendanceRecordModel) TableName() string { return "section_attendance_records" }

func (m *SectionAttendanceRecordModel) BeforeCreate(tx *gorm.DB) error {
	if m.SectionAttendanceRecordID == uuid.Nil {
		m.SectionAttendanceRecordID = uuid.New()
	}
	return nil
}

// AttendanceModel is one student's status on one day.
type AttendanceModel struct {
	AttendanceID        uuid.UUID        `gorm:"type:uuid;primaryKey;column:attendance_id" json:"attendance_id"`
	AttendanceSchoolID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_attendances_school_date,priority:1;column:attendance_school_id" json:"attendance_school_id"`
	AttendanceStudentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_attendances_student_date,priority:1;column:attendance_student_id" json:"attendance_student_id"`
	AttendanceDate      time.Time        `gorm:"not null;uniqueIndex:uq_attendances_student_date,priority:2;index:idx_attendances_school_date,priority:2;column:attendance_date" json:"attendance_date"`
	AttendanceStatus    AttendanceStatus `gorm:"type:varchar(16);not null;column:attendance_status" json:"attendance_status"`

	AttendanceCreatedAt time.Time `gorm:"autoCreateTime;column:attendance_created_at" json:"attendance_created_at"`
	AttendanceUpdatedAt time.Time `gorm:"autoUpdateTime;column:attendance_updated_at" json:"attendance_updated_at"`
}

func (AttendanceModel) TableName() string { return "attendances" }

func (m *AttendanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceID == uuid.Nil {
		m.AttendanceID = uuid.New()
	}
	return nil
}
