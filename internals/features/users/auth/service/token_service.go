// internals/features/users/auth/service/token_service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	authRepo "schoolku_backend/internals/features/users/auth/repository"
	userModel "schoolku_backend/internals/features/users/user/model"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

const defaultAccessTTL = 7 * 24 * time.Hour

// TokenService signs session tokens and keeps the logout blacklist.
type TokenService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewTokenService(db *gorm.DB, secret string, ttl time.Duration, now Clock) *TokenService {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	if now == nil {
		now = systemClock
	}
	return &TokenService{db: db, secret: []byte(secret), ttl: ttl, now: now}
}

func buildAccessClaims(u userModel.UserModel, now time.Time, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		helperAuth.ClaimUserID:   u.ID.String(),
		helperAuth.ClaimSubject:  u.ID.String(),
		helperAuth.ClaimPhone:    u.Phone,
		helperAuth.ClaimRole:     u.Role,
		helperAuth.ClaimSchoolID: u.SchoolID.String(),
		helperAuth.ClaimIssuedAt: now.Unix(),
		helperAuth.ClaimExpires:  exp.Unix(),
		helperAuth.ClaimTokenID:  uuid.NewString(),
	}
}

// Issue returns a signed HS256 token and its expiry.
func (s *TokenService) Issue(u userModel.UserModel) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT_SECRET is not configured")
	}
	now := s.now()
	exp := now.Add(s.ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildAccessClaims(u, now, exp)).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Blacklist keeps the token rejected until it would have expired anyway.
func (s *TokenService) Blacklist(ctx context.Context, raw string, exp time.Time) error {
	if raw == "" {
		return nil
	}
	if exp.IsZero() {
		exp = s.now().Add(s.ttl)
	}
	return authRepo.BlacklistToken(ctx, s.db, hashToken(raw), exp.UTC())
}

func (s *TokenService) IsBlacklisted(ctx context.Context, raw string) (bool, error) {
	return authRepo.IsTokenBlacklisted(ctx, s.db, hashToken(raw))
}

// BlacklistChecker adapts IsBlacklisted for AuthJWT.
func (s *TokenService) BlacklistChecker() func(c *fiber.Ctx, raw string) (bool, error) {
	return func(c *fiber.Ctx, raw string) (bool, error) {
		return s.IsBlacklisted(c.UserContext(), raw)
	}
}

func (s *TokenService) PurgeExpiredBlacklist(ctx context.Context) (int64, error) {
	return authRepo.PurgeExpiredBlacklist(ctx, s.db, s.now())
}

func (s *TokenService) TTL() time.Duration { return s.ttl }
