package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TrustedDeviceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trusted_devices_user_device,priority:1;column:user_id" json:"user_id"`
	DeviceID   string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_trusted_devices_user_device,priority:2;column:device_id" json:"device_id"`
	DeviceName *string   `gorm:"type:varchar(255);column:device_name" json:"device_name,omitempty"`

	// hex HMAC of the device token, never the token itself
	TokenHash string `gorm:"type:varchar(64);not null;column:token_hash" json:"-"`

	ExpiresAt  time.Time `gorm:"not null;index:idx_trusted_devices_expires;column:expires_at" json:"expires_at"`
	LastUsedAt time.Time `gorm:"not null;column:last_used_at" json:"last_used_at"`

	// {"ip":"...","user_agent":"..."}
	Meta datatypes.JSON `gorm:"type:jsonb;column:meta" json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (TrustedDeviceModel) TableName() string { return "trusted_devices" }

func (m *TrustedDeviceModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
