// internals/features/users/auth/service/auth_service.go
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/users/auth/dto"
	authHelper "schoolku_backend/internals/features/users/auth/helper"
	authModel "schoolku_backend/internals/features/users/auth/model"
	authRepo "schoolku_backend/internals/features/users/auth/repository"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/middlewares/metrics"
)

const (
	msgOTPSent          = "OTP sent successfully"
	msgInvalidOTP       = "Invalid or expired OTP"
	msgPhoneExists      = "Phone already exists"
	msgEmailExists      = "Email already exists"
	msgSchoolRequired   = "schoolId is required for non-super-admin users"
	msgInvalidSchool    = "Invalid schoolId"
	msgPlatformMissing  = "Platform school missing. Create the platform school before registering a super admin."
	msgInvalidDevice    = "Invalid or expired device token"
	msgUserNotFound     = "User not found"
	msgAccountInactive  = "Account is disabled. Contact your administrator."
	msgInvalidGoogle    = "Invalid Google ID token"
	tokenTypeBearer     = "Bearer"
	defaultOTPLength    = 6
	defaultOTPTTL       = 5 * time.Minute
	defaultBcryptRounds = bcrypt.DefaultCost
)

type AuthConfig struct {
	OTPLength  int
	OTPTTL     time.Duration
	BcryptCost int
}

// AuthService issues codes, identities and sessions.
type AuthService struct {
	db       *gorm.DB
	cfg      AuthConfig
	security *OTPSecurityService
	tokens   *TokenService
	devices  *DeviceService
	sender   OTPSender
	google   GoogleVerifier
	now      Clock
	log      *zap.Logger
}

type AuthDeps struct {
	DB       *gorm.DB
	Security *OTPSecurityService
	Tokens   *TokenService
	Devices  *DeviceService
	Sender   OTPSender
	Google   GoogleVerifier
	Clock    Clock
	Log      *zap.Logger
}

func NewAuthService(deps AuthDeps, cfg AuthConfig) *AuthService {
	if cfg.OTPLength <= 0 {
		cfg.OTPLength = defaultOTPLength
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = defaultOTPTTL
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = defaultBcryptRounds
	}
	if deps.Clock == nil {
		deps.Clock = systemClock
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Sender == nil {
		deps.Sender = LogSender{Log: deps.Log}
	}
	return &AuthService{
		db:       deps.DB,
		cfg:      cfg,
		security: deps.Security,
		tokens:   deps.Tokens,
		devices:  deps.Devices,
		sender:   deps.Sender,
		google:   deps.Google,
		now:      deps.Clock,
		log:      deps.Log.Named("auth"),
	}
}

func (s *AuthService) Tokens() *TokenService   { return s.tokens }
func (s *AuthService) Devices() *DeviceService { return s.devices }

func contactOf(countryCode, mobileNo string) (string, error) {
	phone, err := authHelper.NormalizeE164(countryCode, mobileNo)
	if err != nil {
		return "", helper.ErrValidation(err.Error())
	}
	return phone, nil
}

// generateCode returns n uniformly random decimal digits.
func generateCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

/* ==========================
   SEND OTP
========================== */

func (s *AuthService) SendOTP(ctx context.Context, req dto.SendOTPRequest, ip string) (*dto.MessageResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	contact, err := contactOf(req.CountryCode, req.MobileNo)
	if err != nil {
		return nil, err
	}

	if err := s.security.CheckRateLimit(ctx, contact, ip); err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}
	if err := s.security.RecordOTPRequest(ctx, contact, ip); err != nil {
		return nil, err
	}

	code, err := generateCode(s.cfg.OTPLength)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}

	now := s.now()
	otp := authModel.OneTimeCodeModel{
		Contact:   contact,
		Channel:   authModel.ChannelPhone,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.cfg.OTPTTL),
		CreatedAt: now,
	}
	if err := authRepo.ReplaceActiveCode(ctx, s.db, &otp); err != nil {
		return nil, helper.ErrInternal(err)
	}

	// delivery failures never reach the caller
	if err := s.sender.SendOTP(ctx, contact, code); err != nil {
		s.log.Warn("otp delivery failed", zap.String("contact", authHelper.MaskContact(contact)), zap.Error(err))
	}
	metrics.OTPRequestsTotal.WithLabelValues("sent").Inc()
	return &dto.MessageResponse{Message: msgOTPSent}, nil
}

/* ==========================
   CODE VERIFICATION
========================== */

// consumeCode verifies and burns the active code of contact. failKind picks
// the error kind for a bad code (register reports 400, login 401).
func (s *AuthService) consumeCode(ctx context.Context, contact, code string, failKind helper.ErrorKind) error {
	fail := &helper.AppError{Kind: failKind, Message: msgInvalidOTP}

	otp, err := authRepo.FindActiveCode(ctx, s.db, contact, s.now())
	if err != nil {
		return helper.ErrInternal(err)
	}
	if otp == nil {
		return fail
	}
	if err := s.security.CheckAttemptLimit(ctx, s.db, otp.ID); err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		if err := s.security.RecordFailedAttempt(ctx, s.db, otp.ID); err != nil {
			return err
		}
		return fail
	}
	consumed, err := authRepo.MarkCodeUsed(ctx, s.db, otp.ID)
	if err != nil {
		return helper.ErrInternal(err)
	}
	if !consumed {
		return fail
	}
	return nil
}

/* ==========================
   REGISTER
========================== */

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, ip string) (*dto.UserResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	contact, err := contactOf(req.CountryCode, req.MobileNo)
	if err != nil {
		return nil, err
	}

	var email *string
	if req.Email != nil {
		e, err := authHelper.NormalizeEmail(*req.Email)
		if err != nil {
			return nil, helper.ErrValidation(err.Error())
		}
		if e != "" {
			email = &e
		}
	}

	if err := s.consumeCode(ctx, contact, req.OTP, helper.KindValidation); err != nil {
		return nil, err
	}

	existing, err := authRepo.FindUserByPhone(ctx, s.db, contact)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	if existing != nil {
		return nil, helper.ErrConflict(msgPhoneExists)
	}
	if email != nil {
		byEmail, err := authRepo.FindUserByEmail(ctx, s.db, *email)
		if err != nil {
			return nil, helper.ErrInternal(err)
		}
		if byEmail != nil {
			return nil, helper.ErrConflict(msgEmailExists)
		}
	}

	schoolID, err := s.resolveRegistrationSchool(ctx, req.Role, req.SchoolID)
	if err != nil {
		return nil, err
	}

	user := userModel.UserModel{
		Phone:    contact,
		Email:    email,
		UserName: strings.TrimSpace(req.Name),
		Role:     req.Role,
		SchoolID: schoolID,
		IsActive: true,
	}
	if err := authRepo.CreateUser(ctx, s.db, &user); err != nil {
		return nil, helper.TranslateDBError(err)
	}

	if err := s.security.ResetRateLimit(ctx, contact, ip); err != nil {
		s.log.Warn("rate limit reset failed", zap.Error(err))
	}
	out := dto.FromUserModel(user)
	return &out, nil
}

// resolveRegistrationSchool pins SUPER_ADMIN to the platform school and
// requires an existing school for everyone else.
func (s *AuthService) resolveRegistrationSchool(ctx context.Context, role string, raw *string) (uuid.UUID, error) {
	if role == constants.RoleSuperAdmin {
		ok, err := authRepo.SchoolExists(ctx, s.db, constants.PlatformSchoolID)
		if err != nil {
			return uuid.Nil, helper.ErrInternal(err)
		}
		if !ok {
			return uuid.Nil, helper.ErrValidation(msgPlatformMissing)
		}
		return constants.PlatformSchoolID, nil
	}

	if raw == nil || strings.TrimSpace(*raw) == "" {
		return uuid.Nil, helper.ErrValidation(msgSchoolRequired)
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil || id == constants.PlatformSchoolID {
		return uuid.Nil, helper.ErrValidation(msgInvalidSchool)
	}
	ok, err := authRepo.SchoolExists(ctx, s.db, id)
	if err != nil {
		return uuid.Nil, helper.ErrInternal(err)
	}
	if !ok {
		return uuid.Nil, helper.ErrValidation(msgInvalidSchool)
	}
	return id, nil
}

/* ==========================
   LOGIN
========================== */

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	contact, err := contactOf(req.CountryCode, req.MobileNo)
	if err != nil {
		return nil, err
	}
	// consumed even when no identity exists, so it cannot be replayed
	if err := s.consumeCode(ctx, contact, req.OTP, helper.KindAuthentication); err != nil {
		return nil, err
	}

	user, err := authRepo.FindUserByPhone(ctx, s.db, contact)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	if user == nil {
		return &dto.LoginResponse{NeedsRegistration: true, Contact: contact}, nil
	}
	return s.issueSession(*user)
}

func (s *AuthService) LoginWithDevice(ctx context.Context, req dto.LoginWithDeviceRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	res, err := s.Login(ctx, dto.LoginRequest{
		CountryCode: req.CountryCode,
		MobileNo:    req.MobileNo,
		OTP:         req.OTP,
	})
	if err != nil {
		return nil, err
	}
	if res.NeedsRegistration || res.User == nil || !req.RememberDevice || strings.TrimSpace(req.DeviceID) == "" {
		return res, nil
	}

	token, err := s.devices.Register(ctx, res.User.ID, strings.TrimSpace(req.DeviceID), strings.TrimSpace(req.DeviceName), ip, userAgent)
	if err != nil {
		// login already succeeded; the device simply stays untrusted
		s.log.Warn("trusted device registration failed", zap.Error(err))
		return res, nil
	}
	res.DeviceToken = token
	return res, nil
}

// VerifyDevice issues a session for a trusted device without an OTP.
func (s *AuthService) VerifyDevice(ctx context.Context, req dto.VerifyDeviceRequest) (*dto.LoginResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	contact, err := contactOf(req.CountryCode, req.MobileNo)
	if err != nil {
		return nil, err
	}
	user, err := authRepo.FindUserByPhone(ctx, s.db, contact)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	if user == nil {
		return nil, helper.ErrUnauthorized(msgInvalidDevice)
	}
	ok, err := s.devices.Verify(ctx, user.ID, req.DeviceID, req.DeviceToken)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	if !ok {
		return nil, helper.ErrUnauthorized(msgInvalidDevice)
	}
	return s.issueSession(*user)
}

// LoginGoogle signs in an existing identity by its verified Google email.
func (s *AuthService) LoginGoogle(ctx context.Context, req dto.GoogleLoginRequest) (*dto.LoginResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return nil, err
	}
	if s.google == nil {
		return nil, helper.ErrUnauthorized(msgInvalidGoogle)
	}
	rawEmail, err := s.google.VerifyEmail(req.IDToken)
	if err != nil {
		s.log.Info("google token rejected", zap.Error(err))
		return nil, helper.ErrUnauthorized(msgInvalidGoogle)
	}
	email, err := authHelper.NormalizeEmail(rawEmail)
	if err != nil || email == "" {
		return nil, helper.ErrUnauthorized(msgInvalidGoogle)
	}

	user, err := authRepo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	if user == nil {
		return &dto.LoginResponse{NeedsRegistration: true, Contact: email}, nil
	}
	return s.issueSession(*user)
}

func (s *AuthService) issueSession(user userModel.UserModel) (*dto.LoginResponse, error) {
	if !user.IsActive {
		return nil, helper.ErrForbidden(msgAccountInactive)
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	u := dto.FromUserModel(user)
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   &exp,
		User:        &u,
	}, nil
}

/* ==========================
   SESSION
========================== */

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := authRepo.FindUserByID(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, helper.ErrInternal(err)
	}
	out := dto.FromUserModel(*user)
	return &out, nil
}

// Logout blacklists the presented token until its own expiry.
func (s *AuthService) Logout(ctx context.Context, rawToken string, exp time.Time) error {
	if err := s.tokens.Blacklist(ctx, rawToken, exp); err != nil {
		return helper.ErrInternal(err)
	}
	return nil
}
