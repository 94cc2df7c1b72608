package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is an identity. Role and school are fixed after registration.
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Phone    string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_users_phone;column:phone" json:"phone"`
	Email    *string   `gorm:"type:varchar(255);uniqueIndex:uq_users_email;column:email" json:"email,omitempty"`
	UserName string    `gorm:"type:varchar(100);not null;column:user_name" json:"name"`
	Role     string    `gorm:"type:varchar(20);not null;index:idx_users_school_role,priority:2;column:role" json:"role"`
	SchoolID uuid.UUID `gorm:"type:uuid;not null;index:idx_users_school_role,priority:1;column:school_id" json:"school_id"`
	IsActive bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
