// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	academicsModel "schoolku_backend/internals/features/school/academics/model"
	authModel "schoolku_backend/internals/features/users/auth/model"
	userModel "schoolku_backend/internals/features/users/user/model"
)

/* ====================== USER ====================== */

// FindUserByPhone returns (nil, nil) when no identity owns the phone.
func FindUserByPhone(ctx context.Context, db *gorm.DB, phone string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	err := db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db *gorm.DB, user *userModel.UserModel) error {
	return db.WithContext(ctx).Create(user).Error
}

func SchoolExists(ctx context.Context, db *gorm.DB, schoolID uuid.UUID) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&academicsModel.SchoolModel{}).
		Where("school_id = ?", schoolID).
		Count(&n).Error
	return n > 0, err
}

/* ====================== OTP ====================== */

// ReplaceActiveCode invalidates every unused code of the contact and stores the new one.
func ReplaceActiveCode(ctx context.Context, db *gorm.DB, code *authModel.OneTimeCodeModel) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&authModel.OneTimeCodeModel{}).
			Where("contact = ? AND used = ?", code.Contact, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

// FindActiveCode returns the newest unused, unexpired code for the contact.
func FindActiveCode(ctx context.Context, db *gorm.DB, contact string, now time.Time) (*authModel.OneTimeCodeModel, error) {
	var otp authModel.OneTimeCodeModel
	err := db.WithContext(ctx).
		Where("contact = ? AND used = ? AND expires_at > ?", contact, false, now).
		Order("created_at DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func FindCodeByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*authModel.OneTimeCodeModel, error) {
	var otp authModel.OneTimeCodeModel
	if err := db.WithContext(ctx).First(&otp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &otp, nil
}

// MarkCodeUsed flips used only if it is still false. It reports whether this
// call was the one that consumed the code.
func MarkCodeUsed(ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error) {
	res := db.WithContext(ctx).
		Model(&authModel.OneTimeCodeModel{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	return res.RowsAffected == 1, res.Error
}

func IncrementCodeAttempts(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).
		Model(&authModel.OneTimeCodeModel{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

/* ====================== RATE LIMIT ====================== */

func FindRateLimit(ctx context.Context, db *gorm.DB, contact, ip string) (*authModel.OTPRateLimitModel, error) {
	var rl authModel.OTPRateLimitModel
	err := db.WithContext(ctx).
		Where("contact = ? AND ip_address = ?", contact, ip).
		First(&rl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rl, nil
}

// UpsertRateLimit opens a window with count=1, or bumps the live window and
// slides its expiry forward. An expired window restarts at 1.
func UpsertRateLimit(ctx context.Context, db *gorm.DB, contact, ip string, now time.Time, window time.Duration) error {
	expires := now.Add(window)
	row := authModel.OTPRateLimitModel{
		Contact:   contact,
		IPAddress: ip,
		Count:     1,
		ExpiresAt: expires,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contact"}, {Name: "ip_address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("CASE WHEN otp_rate_limits.expires_at <= ? THEN 1 ELSE otp_rate_limits.count + 1 END", now),
			"expires_at": expires,
			"updated_at": now,
		}),
	}).Create(&row).Error
}

func DeleteRateLimit(ctx context.Context, db *gorm.DB, contact, ip string) error {
	return db.WithContext(ctx).
		Where("contact = ? AND ip_address = ?", contact, ip).
		Delete(&authModel.OTPRateLimitModel{}).Error
}

func DeleteExpiredRateLimits(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&authModel.OTPRateLimitModel{})
	return res.RowsAffected, res.Error
}

/* ====================== TRUSTED DEVICE ====================== */

// UpsertTrustedDevice rotates the token of an existing (user, device) pair or creates it.
func UpsertTrustedDevice(ctx context.Context, db *gorm.DB, d *authModel.TrustedDeviceModel) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_name", "token_hash", "expires_at", "last_used_at", "meta", "updated_at"}),
	}).Create(d).Error
}

func FindLiveDevice(ctx context.Context, db *gorm.DB, userID uuid.UUID, deviceID string, now time.Time) (*authModel.TrustedDeviceModel, error) {
	var d authModel.TrustedDeviceModel
	err := db.WithContext(ctx).
		Where("user_id = ? AND device_id = ? AND expires_at > ?", userID, deviceID, now).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func TouchDevice(ctx context.Context, db *gorm.DB, id uuid.UUID, now time.Time) error {
	return db.WithContext(ctx).
		Model(&authModel.TrustedDeviceModel{}).
		Where("id = ?", id).
		Update("last_used_at", now).Error
}

func ListLiveDevices(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time) ([]authModel.TrustedDeviceModel, error) {
	var out []authModel.TrustedDeviceModel
	err := db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("last_used_at DESC").
		Find(&out).Error
	return out, err
}

func DeleteDevice(ctx context.Context, db *gorm.DB, userID uuid.UUID, deviceID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Delete(&authModel.TrustedDeviceModel{})
	return res.RowsAffected, res.Error
}

func DeleteAllDevices(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&authModel.TrustedDeviceModel{})
	return res.RowsAffected, res.Error
}

func DeleteExpiredDevices(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&authModel.TrustedDeviceModel{})
	return res.RowsAffected, res.Error
}

/* ====================== TOKEN BLACKLIST ====================== */

// BlacklistToken is idempotent per token hash.
func BlacklistToken(ctx context.Context, db *gorm.DB, tokenHash string, expiredAt time.Time) error {
	row := authModel.TokenBlacklistModel{TokenHash: tokenHash, ExpiredAt: expiredAt}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_hash"}},
		DoNothing: true,
	}).Create(&row).Error
}

func IsTokenBlacklisted(ctx context.Context, db *gorm.DB, tokenHash string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&authModel.TokenBlacklistModel{}).
		Where("token_hash = ?", tokenHash).
		Count(&n).Error
	return n > 0, err
}

// PurgeExpiredBlacklist hard-deletes entries whose token can no longer validate.
func PurgeExpiredBlacklist(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Where("expired_at < ?", now).
		Delete(&authModel.TokenBlacklistModel{})
	return res.RowsAffected, res.Error
}
