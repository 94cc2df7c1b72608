package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeacherModel is the teaching profile of a TEACHER user.
type TeacherModel struct {
	TeacherID       uuid.UUID `gorm:"type:uuid;primaryKey;column:teacher_id" json:"teacher_id"`
	TeacherUserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_teachers_user;column:teacher_user_id" json:"teacher_user_id"`
	TeacherSchoolID uuid.UUID `gorm:"type:uuid;not null;index:idx_teachers_school;column:teacher_school_id" json:"teacher_school_id"`

	TeacherCreatedAt time.Time `gorm:"autoCreateTime;column:teacher_created_at" json:"teacher_created_at"`
}

func (TeacherModel) TableName() string { return "teachers" }

func (m *TeacherModel) BeforeCreate(tx *gorm.DB) error {
	if m.TeacherID == uuid.Nil {
		m.TeacherID = uuid.New()
	}
	return nil
}

// TeacherAssignmentModel grants a teacher authority over one section.
type TeacherAssignmentModel struct {
	TeacherAssignmentID        uuid.UUID `gorm:"type:uuid;primaryKey;column:teacher_assignment_id" json:"teacher_assignment_id"`
	TeacherAssignmentTeacherID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_teacher_assignments_pair,priority:1;column:teacher_assignment_teacher_id" json:"teacher_assignment_teacher_id"`
	TeacherAssignmentSectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_teacher_assignments_pair,priority:2;column:teacher_assignment_section_id" json:"teacher_assignment_section_id"`

	TeacherAssignmentCreatedAt time.Time `gorm:"autoCreateTime;column:teacher_assignment_created_at" json:"teacher_assignment_created_at"`
}

func (TeacherAssignmentModel) TableName() string { return "teacher_assignments" }

func (m *TeacherAssignmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.TeacherAssignmentID == uuid.Nil {
		m.TeacherAssignmentID = uuid.New()
	}
	return nil
}
