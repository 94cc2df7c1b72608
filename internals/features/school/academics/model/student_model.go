package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentModel struct {
	StudentID        uuid.UUID `gorm:"type:uuid;primaryKey;column:student_id" json:"student_id"`
	StudentSchoolID  uuid.UUID `gorm:"type:uuid;not null;index:idx_students_school_section,priority:1;column:student_school_id" json:"student_school_id"`
	StudentSectionID uuid.UUID `gorm:"type:uuid;not null;index:idx_students_school_section,priority:2;column:student_section_id" json:"student_section_id"`
	StudentClassID   uuid.UUID `gorm:"type:uuid;not null;column:student_class_id" json:"student_class_id"`

	StudentName   string `gorm:"type:text;not null;column:student_name" json:"student_name"`
	StudentRollNo int    `gorm:"type:integer;not null;default:0;column:student_roll_no" json:"student_roll_no"`

	StudentCreatedAt time.Time `gorm:"autoCreateTime;column:student_created_at" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"autoUpdateTime;column:student_updated_at" json:"student_updated_at"`
}

func (StudentModel) TableName() string { return "students" }

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	return nil
}

// ParentStudentModel links a PARENT user to a student.
type ParentStudentModel struct {
	ParentStudentID        uuid.UUID `gorm:"type:uuid;primaryKey;column:parent_student_id" json:"parent_student_id"`
	ParentStudentParentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_parent_students_pair,priority:1;column:parent_student_parent_id" json:"parent_student_parent_id"`
	ParentStudentStudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_parent_students_pair,priority:2;column:parent_student_student_id" json:"parent_student_student_id"`

	ParentStudentCreatedAt time.Time `gorm:"autoCreateTime;column:parent_student_created_at" json:"parent_student_created_at"`
}

func (ParentStudentModel) TableName() string { return "parent_students" }

func (m *ParentStudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ParentStudentID == uuid.Nil {
		m.ParentStudentID = uuid.New()
	}
	return nil
}
