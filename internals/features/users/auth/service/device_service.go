package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/users/auth/dto"
	authModel "schoolku_backend/internals/features/users/auth/model"
	authRepo "schoolku_backend/internals/features/users/auth/repository"
)

const (
	defaultDeviceTTL = 30 * 24 * time.Hour
	deviceTokenBytes = 32
)

type deviceMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// DeviceService manages trusted devices that may skip OTP.
type DeviceService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewDeviceService(db *gorm.DB, secret string, ttl time.Duration, now Clock) *DeviceService {
	if ttl <= 0 {
		ttl = defaultDeviceTTL
	}
	if now == nil {
		now = systemClock
	}
	return &DeviceService{db: db, secret: []byte(secret), ttl: ttl, now: now}
}

func (s *DeviceService) hash(token string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

func generateDeviceToken() (string, error) {
	b := make([]byte, deviceTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register issues a fresh token for (user, device), rotating any previous one.
func (s *DeviceService) Register(ctx context.Context, userID uuid.UUID, deviceID, deviceName, ip, userAgent string) (string, error) {
	token, err := generateDeviceToken()
	if err != nil {
		return "", err
	}
	meta, _ := json.Marshal(deviceMeta{IP: ip, UserAgent: userAgent})
	now := s.now()

	var name *string
	if deviceName != "" {
		name = &deviceName
	}
	d := authModel.TrustedDeviceModel{
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: name,
		TokenHash:  s.hash(token),
		ExpiresAt:  now.Add(s.ttl),
		LastUsedAt: now,
		Meta:       datatypes.JSON(meta),
	}
	if err := authRepo.UpsertTrustedDevice(ctx, s.db, &d); err != nil {
		return "", err
	}
	return token, nil
}

// Verify reports whether token matches a live device and bumps last_used_at.
func (s *DeviceService) Verify(ctx context.Context, userID uuid.UUID, deviceID, token string) (bool, error) {
	now := s.now()
	d, err := authRepo.FindLiveDevice(ctx, s.db, userID, deviceID, now)
	if err != nil || d == nil {
		return false, err
	}
	if !hmac.Equal([]byte(d.TokenHash), []byte(s.hash(token))) {
		return false, nil
	}
	if err := authRepo.TouchDevice(ctx, s.db, d.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DeviceService) List(ctx context.Context, userID uuid.UUID) ([]dto.DeviceResponse, error) {
	rows, err := authRepo.ListLiveDevices(ctx, s.db, userID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeviceResponse, 0, len(rows))
	for _, d := range rows {
		var meta deviceMeta
		_ = json.Unmarshal(d.Meta, &meta)
		out = append(out, dto.DeviceResponse{
			ID:         d.ID,
			DeviceID:   d.DeviceID,
			DeviceName: d.DeviceName,
			IPAddress:  meta.IP,
			LastUsedAt: d.LastUsedAt,
			ExpiresAt:  d.ExpiresAt,
			CreatedAt:  d.CreatedAt,
		})
	}
	return out, nil
}

func (s *DeviceService) Remove(ctx context.Context, userID uuid.UUID, deviceID string) (bool, error) {
	n, err := authRepo.DeleteDevice(ctx, s.db, userID, deviceID)
	return n > 0, err
}

func (s *DeviceService) RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return authRepo.DeleteAllDevices(ctx, s.db, userID)
}

func (s *DeviceService) CleanupExpired(ctx context.Context) (int64, error) {
	return authRepo.DeleteExpiredDevices(ctx, s.db, s.now())
}
