package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassModel struct {
	ClassID       uuid.UUID `gorm:"type:uuid;primaryKey;column:class_id" json:"class_id"`
	ClassSchoolID uuid.UUID `gorm:"type:uuid;not null;index:idx_classes_school;column:class_school_id" json:"class_school_id"`
	ClassName     string    `gorm:"type:varchar(80);not null;column:class_name" json:"class_name"`

	ClassCreatedAt time.Time `gorm:"autoCreateTime;column:class_created_at" json:"class_created_at"`
	ClassUpdatedAt time.Time `gorm:"autoUpdateTime;column:class_updated_at" json:"class_updated_at"`
}

func (ClassModel) TableName() string { return "classes" }

func (m *ClassModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClassID == uuid.Nil {
		m.ClassID = uuid.New()
	}
	return nil
}

// SectionModel is a subdivision of a class and the unit of attendance marking.
type SectionModel struct {
	SectionID       uuid.UUID `gorm:"type:uuid;primaryKey;column:section_id" json:"section_id"`
	SectionSchoolID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_sections_school_class_name,priority:1;column:section_school_id" json:"section_school_id"`
	SectionClassID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_sections_school_class_name,priority:2;column:section_class_id" json:"section_class_id"`
	SectionName     string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_sections_school_class_name,priority:3;column:section_name" json:"section_name"`

	SectionCreatedAt time.Time `gorm:"autoCreateTime;column:section_created_at" json:"section_created_at"`
	SectionUpdatedAt time.Time `gorm:"autoUpdateTime;column:section_updated_at" json:"section_updated_at"`
}

func (SectionModel) TableName() string { return "sections" }

func (m *SectionModel) BeforeCreate(tx *gorm.DB) error {
	if m.SectionID == uuid.Nil {
		m.SectionID = uuid.New()
	}
	return nil
}
