// internals/features/users/auth/service/otp_security_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authRepo "schoolku_backend/internals/features/users/auth/repository"
	helper "schoolku_backend/internals/helpers"
)

// Clock is injected so windows and expiries can be driven from tests.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

const (
	msgTooManyAttempts = "Maximum OTP verification attempts exceeded. Please request a new OTP"
	msgOTPNotFound     = "OTP not found"
)

// RateWindow is the live issuance counter of one (contact, ip) pair.
type RateWindow struct {
	Count     int
	ExpiresAt time.Time
}

// RateLimitStore persists issuance counters.
type RateLimitStore interface {
	Get(ctx context.Context, contact, ip string, now time.Time) (RateWindow, bool, error)
	Increment(ctx context.Context, contact, ip string, now time.Time, window time.Duration) error
	Reset(ctx context.Context, contact, ip string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

/* ===================== GORM store ===================== */

type GormRateLimitStore struct {
	DB *gorm.DB
}

func NewGormRateLimitStore(db *gorm.DB) *GormRateLimitStore {
	return &GormRateLimitStore{DB: db}
}

func (s *GormRateLimitStore) Get(ctx context.Context, contact, ip string, _ time.Time) (RateWindow, bool, error) {
	rl, err := authRepo.FindRateLimit(ctx, s.DB, contact, ip)
	if err != nil || rl == nil {
		return RateWindow{}, false, err
	}
	return RateWindow{Count: rl.Count, ExpiresAt: rl.ExpiresAt}, true, nil
}

func (s *GormRateLimitStore) Increment(ctx context.Context, contact, ip string, now time.Time, window time.Duration) error {
	return authRepo.UpsertRateLimit(ctx, s.DB, contact, ip, now, window)
}

func (s *GormRateLimitStore) Reset(ctx context.Context, contact, ip string) error {
	return authRepo.DeleteRateLimit(ctx, s.DB, contact, ip)
}

func (s *GormRateLimitStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return authRepo.DeleteExpiredRateLimits(ctx, s.DB, now)
}

/* ===================== Redis store ===================== */

// RedisRateLimitStore keeps counters as keys that expire with their window.
type RedisRateLimitStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{Client: client, Prefix: "otp:rl:"}
}

func (s *RedisRateLimitStore) key(contact, ip string) string {
	return s.Prefix + contact + ":" + ip
}

func (s *RedisRateLimitStore) Get(ctx context.Context, contact, ip string, now time.Time) (RateWindow, bool, error) {
	key := s.key(contact, ip)
	pipe := s.Client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return RateWindow{}, false, err
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return RateWindow{}, false, nil
	}
	if err != nil {
		return RateWindow{}, false, err
	}
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return RateWindow{}, false, nil
	}
	return RateWindow{Count: count, ExpiresAt: now.Add(ttl)}, true, nil
}

func (s *RedisRateLimitStore) Increment(ctx context.Context, contact, ip string, _ time.Time, window time.Duration) error {
	key := s.key(contact, ip)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, window)
		return nil
	})
	return err
}

func (s *RedisRateLimitStore) Reset(ctx context.Context, contact, ip string) error {
	return s.Client.Del(ctx, s.key(contact, ip)).Err()
}

// DeleteExpired is a no-op; redis evicts keys on their own TTL.
func (s *RedisRateLimitStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

/* ===================== Service ===================== */

type OTPSecurityConfig struct {
	MaxAttempts     int
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// OTPSecurityService guards issuance by (contact, ip) and verification by code.
type OTPSecurityService struct {
	db    *gorm.DB
	store RateLimitStore
	cfg   OTPSecurityConfig
	now   Clock
}

func NewOTPSecurityService(db *gorm.DB, store RateLimitStore, cfg OTPSecurityConfig, now Clock) *OTPSecurityService {
	if store == nil {
		store = NewGormRateLimitStore(db)
	}
	if now == nil {
		now = systemClock
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 5
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = 15 * time.Minute
	}
	return &OTPSecurityService{db: db, store: store, cfg: cfg, now: now}
}

// CheckRateLimit fails once the live window already holds RateLimitMax requests.
func (s *OTPSecurityService) CheckRateLimit(ctx context.Context, contact, ip string) error {
	now := s.now()
	w, found, err := s.store.Get(ctx, contact, ip, now)
	if err != nil {
		return helper.ErrInternal(err)
	}
	if !found || !w.ExpiresAt.After(now) || w.Count < s.cfg.RateLimitMax {
		return nil
	}
	remaining := w.ExpiresAt.Sub(now)
	minutes := int(math.Ceil(remaining.Minutes()))
	return helper.ErrRateLimited(
		fmt.Sprintf("Too many OTP requests. Please try again after %d minutes", minutes),
		remaining,
	)
}

// RecordOTPRequest counts one issuance. Each request slides the window.
func (s *OTPSecurityService) RecordOTPRequest(ctx context.Context, contact, ip string) error {
	if err := s.store.Increment(ctx, contact, ip, s.now(), s.cfg.RateLimitWindow); err != nil {
		return helper.ErrInternal(err)
	}
	return nil
}

// CheckAttemptLimit burns the code once it has taken MaxAttempts failures.
func (s *OTPSecurityService) CheckAttemptLimit(ctx context.Context, db *gorm.DB, otpID uuid.UUID) error {
	if db == nil {
		db = s.db
	}
	otp, err := authRepo.FindCodeByID(ctx, db, otpID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.ErrValidation(msgOTPNotFound)
	}
	if err != nil {
		return helper.ErrInternal(err)
	}
	if otp.Attempts < s.cfg.MaxAttempts {
		return nil
	}
	if _, err := authRepo.MarkCodeUsed(ctx, db, otpID); err != nil {
		return helper.ErrInternal(err)
	}
	return helper.ErrValidation(msgTooManyAttempts)
}

func (s *OTPSecurityService) RecordFailedAttempt(ctx context.Context, db *gorm.DB, otpID uuid.UUID) error {
	if db == nil {
		db = s.db
	}
	if err := authRepo.IncrementCodeAttempts(ctx, db, otpID); err != nil {
		return helper.ErrInternal(err)
	}
	return nil
}

func (s *OTPSecurityService) ResetRateLimit(ctx context.Context, contact, ip string) error {
	return s.store.Reset(ctx, contact, ip)
}

func (s *OTPSecurityService) CleanupExpiredRateLimits(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}
