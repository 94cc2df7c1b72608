package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ChannelPhone = "PHONE"

// OneTimeCodeModel is never deleted; it expires logically through ExpiresAt.
type OneTimeCodeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Contact   string    `gorm:"type:varchar(255);not null;index:idx_otp_contact_used,priority:1;column:contact" json:"contact"`
	Channel   string    `gorm:"type:varchar(10);not null;default:'PHONE';column:channel" json:"channel"`
	CodeHash  string    `gorm:"type:varchar(100);not null;column:code_hash" json:"-"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false;index:idx_otp_contact_used,priority:2;column:used" json:"used"`
	Attempts  int       `gorm:"not null;default:0;column:attempts" json:"attempts"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (OneTimeCodeModel) TableName() string { return "otps" }

func (m *OneTimeCodeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// OTPRateLimitModel is the issuance counter for one (contact, ip) pair.
type OTPRateLimitModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Contact   string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_otp_rate_limits_pair,priority:1;column:contact" json:"contact"`
	IPAddress string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_otp_rate_limits_pair,priority:2;column:ip_address" json:"ip_address"`
	Count     int       `gorm:"not null;default:0;column:count" json:"count"`
	ExpiresAt time.Time `gorm:"not null;index:idx_otp_rate_limits_expires;column:expires_at" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (OTPRateLimitModel) TableName() string { return "otp_rate_limits" }

func (m *OTPRateLimitModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
