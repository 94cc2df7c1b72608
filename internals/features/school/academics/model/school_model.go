// file: internals/features/school/academics/model/school_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SchoolModel is the tenant row. Every other academic table hangs off school_id.
type SchoolModel struct {
	SchoolID   uuid.UUID `gorm:"type:uuid;primaryKey;column:school_id" json:"school_id"`
	SchoolCode string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_schools_code;column:school_code" json:"school_code"`
	SchoolName string    `gorm:"type:text;not null;column:school_name" json:"school_name"`

	SchoolCreatedAt time.Time `gorm:"autoCreateTime;column:school_created_at" json:"school_created_at"`
	SchoolUpdatedAt time.Time `gorm:"autoUpdateTime;column:school_updated_at" json:"school_updated_at"`
}

func (SchoolModel) TableName() string { return "schools" }

func (m *SchoolModel) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolID == uuid.Nil {
		m.SchoolID = uuid.New()
	}
	return nil
}
