package model

import (
	"time"

	"gorm.io/gorm"
)

// TokenBlacklistModel holds the hash of a logged-out access token until it expires.
type TokenBlacklistModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TokenHash string         `gorm:"type:varchar(64);not null;uniqueIndex:uq_token_blacklist_hash;column:token_hash" json:"-"`
	ExpiredAt time.Time      `gorm:"not null;index:idx_token_blacklist_expired;column:expired_at" json:"expired_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TokenBlacklistModel) TableName() string {
	return "token_blacklist"
}
