package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/databases/dbtest"
	"schoolku_backend/internals/features/users/auth/dto"
	authModel "schoolku_backend/internals/features/users/auth/model"
	"schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
	school "schoolku_backend/internals/seeds/schools/schools"
)

const (
	testSecret = "test-secret"
	testIP     = "10.0.0.1"
	testCC     = "+91"
	testMobile = "9876543210"
	testPhone  = "+919876543210"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	// close to wall time so issued tokens still validate
	return &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type captureSender struct {
	mu    sync.Mutex
	codes map[string][]string
}

func (c *captureSender) SendOTP(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string][]string{}
	}
	c.codes[phone] = append(c.codes[phone], code)
	return nil
}

func (c *captureSender) last(t *testing.T, phone string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	codes := c.codes[phone]
	require.NotEmpty(t, codes, "no code sent to %s", phone)
	return codes[len(codes)-1]
}

type harness struct {
	db       *gorm.DB
	clock    *fakeClock
	sender   *captureSender
	security *service.OTPSecurityService
	tokens   *service.TokenService
	devices  *service.DeviceService
	auth     *service.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, nil)
}

// newHarnessWithStore swaps the rate-limit backend; nil keeps the table store.
func newHarnessWithStore(t *testing.T, store service.RateLimitStore) *harness {
	t.Helper()
	h := &harness{db: dbtest.Open(t), clock: newFakeClock(), sender: &captureSender{}}

	h.security = service.NewOTPSecurityService(h.db, store, service.OTPSecurityConfig{
		MaxAttempts:     5,
		RateLimitMax:    5,
		RateLimitWindow: 15 * time.Minute,
	}, h.clock.Now)
	h.tokens = service.NewTokenService(h.db, testSecret, 7*24*time.Hour, h.clock.Now)
	h.devices = service.NewDeviceService(h.db, "device-secret", 30*24*time.Hour, h.clock.Now)
	h.auth = service.NewAuthService(service.AuthDeps{
		DB:       h.db,
		Security: h.security,
		Tokens:   h.tokens,
		Devices:  h.devices,
		Sender:   h.sender,
		Clock:    h.clock.Now,
	}, service.AuthConfig{
		OTPLength:  6,
		OTPTTL:     5 * time.Minute,
		BcryptCost: bcrypt.MinCost,
	})
	return h
}

func (h *harness) sendOTP(t *testing.T, ip string) string {
	t.Helper()
	res, err := h.auth.SendOTP(context.Background(), dto.SendOTPRequest{CountryCode: testCC, MobileNo: testMobile}, ip)
	require.NoError(t, err)
	require.Equal(t, "OTP sent successfully", res.Message)
	return h.sender.last(t, testPhone)
}

func (h *harness) login(code string) (*dto.LoginResponse, error) {
	return h.auth.Login(context.Background(), dto.LoginRequest{CountryCode: testCC, MobileNo: testMobile, OTP: code})
}

func (h *harness) register(code, role string, schoolID *string, email *string) (*dto.UserResponse, error) {
	return h.auth.Register(context.Background(), dto.RegisterRequest{
		CountryCode: testCC,
		MobileNo:    testMobile,
		OTP:         code,
		Role:        role,
		SchoolID:    schoolID,
		Name:        "Asha Rao",
		Email:       email,
	}, testIP)
}

func wrongCode(code string) string {
	if code[0] == '9' {
		return "0" + code[1:]
	}
	return string(code[0]+1) + code[1:]
}

func ptr(s string) *string { return &s }

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	s := dbtest.School(t, h.db, "GREEN")
	sid := s.SchoolID.String()

	code := h.sendOTP(t, testIP)
	require.Len(t, code, 6)

	user, err := h.register(code, constants.RoleTeacher, &sid, ptr("Asha@Example.com"))
	require.NoError(t, err)
	require.Equal(t, testPhone, user.Phone)
	require.Equal(t, s.SchoolID, user.SchoolID)
	require.Equal(t, "asha@example.com", *user.Email)

	code = h.sendOTP(t, testIP)
	res, err := h.login(code)
	require.NoError(t, err)
	require.False(t, res.NeedsRegistration)
	require.Equal(t, "Bearer", res.TokenType)
	require.Equal(t, user.ID, res.User.ID)
	require.WithinDuration(t, h.clock.Now().Add(7*24*time.Hour), *res.ExpiresAt, time.Second)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims["id"])
	require.Equal(t, constants.RoleTeacher, claims["role"])
	require.Equal(t, s.SchoolID.String(), claims["school_id"])

	me, err := h.auth.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", me.Name)
}

func TestLoginWithoutIdentityNeedsRegistration(t *testing.T) {
	h := newHarness(t)
	code := h.sendOTP(t, testIP)

	res, err := h.login(code)
	require.NoError(t, err)
	require.True(t, res.NeedsRegistration)
	require.Equal(t, testPhone, res.Contact)
	require.Empty(t, res.AccessToken)
}

func TestOTPIsSingleUse(t *testing.T) {
	h := newHarness(t)
	code := h.sendOTP(t, testIP)

	_, err := h.login(code)
	require.NoError(t, err)

	_, err = h.login(code)
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))

	_, err = h.register(code, constants.RoleParent, ptr(uuid.NewString()), nil)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
	require.Contains(t, err.Error(), "Invalid or expired OTP")
}

func TestConcurrentVerificationConsumesOnce(t *testing.T) {
	h := newHarness(t)
	code := h.sendOTP(t, testIP)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.login(code)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.Equal(t, helper.KindAuthentication, helper.KindOf(err))
	}
	require.Equal(t, 1, ok)
}

func TestNewCodeInvalidatesOlder(t *testing.T) {
	h := newHarness(t)
	first := h.sendOTP(t, testIP)
	second := h.sendOTP(t, testIP)
	if first == second {
		t.Skip("codes collided")
	}

	_, err := h.login(first)
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))

	_, err = h.login(second)
	require.NoError(t, err)
}

func TestExpiredOTPRejected(t *testing.T) {
	h := newHarness(t)
	code := h.sendOTP(t, testIP)
	h.clock.Advance(5*time.Minute + time.Second)

	_, err := h.login(code)
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))
}

func TestOTPAttemptLimit(t *testing.T) {
	h := newHarness(t)
	code := h.sendOTP(t, testIP)
	bad := wrongCode(code)

	for i := 0; i < 5; i++ {
		_, err := h.login(bad)
		require.Equal(t, helper.KindAuthentication, helper.KindOf(err), "attempt %d", i+1)
	}

	_, err := h.login(code)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
	require.Contains(t, err.Error(), "Maximum OTP verification attempts exceeded")

	var otp authModel.OneTimeCodeModel
	require.NoError(t, h.db.Where("contact = ?", testPhone).Take(&otp).Error)
	require.True(t, otp.Used)
	require.Equal(t, 5, otp.Attempts)

	// the burned code stays dead
	_, err = h.login(code)
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))
}

func TestSendOTPRateLimitSlides(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := dto.SendOTPRequest{CountryCode: testCC, MobileNo: testMobile}

	for i := 0; i < 5; i++ {
		_, err := h.auth.SendOTP(ctx, req, testIP)
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := h.auth.SendOTP(ctx, req, testIP)
	require.Equal(t, helper.KindRateLimited, helper.KindOf(err))
	require.Contains(t, err.Error(), "Please try again after 15 minutes")

	// another IP has its own window
	_, err = h.auth.SendOTP(ctx, req, "10.0.0.2")
	require.NoError(t, err)

	h.clock.Advance(14 * time.Minute)
	_, err = h.auth.SendOTP(ctx, req, testIP)
	require.Equal(t, helper.KindRateLimited, helper.KindOf(err))
	require.Contains(t, err.Error(), "after 1 minutes")

	h.clock.Advance(time.Minute + time.Second)
	_, err = h.auth.SendOTP(ctx, req, testIP)
	require.NoError(t, err)

	var rl authModel.OTPRateLimitModel
	require.NoError(t, h.db.Where("contact = ? AND ip_address = ?", testPhone, testIP).Take(&rl).Error)
	require.Equal(t, 1, rl.Count)
}

func TestRateLimitCleanup(t *testing.T) {
	h := newHarness(t)
	h.sendOTP(t, testIP)
	h.clock.Advance(16 * time.Minute)

	n, err := h.security.CleanupExpiredRateLimits(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRegisterRejections(t *testing.T) {
	h := newHarness(t)
	s := dbtest.School(t, h.db, "BLUE")
	sid := s.SchoolID.String()

	code := h.sendOTP(t, testIP)
	_, err := h.register(code, constants.RoleTeacher, nil, nil)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
	require.Contains(t, err.Error(), "schoolId is required")

	code = h.sendOTP(t, testIP)
	_, err = h.register(code, constants.RoleTeacher, ptr(uuid.NewString()), nil)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
	require.Contains(t, err.Error(), "Invalid schoolId")

	code = h.sendOTP(t, testIP)
	_, err = h.register(code, constants.RoleSuperAdmin, nil, nil)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
	require.Contains(t, err.Error(), "Platform school missing")

	code = h.sendOTP(t, testIP)
	_, err = h.register(code, constants.RoleParent, &sid, ptr("p@example.com"))
	require.NoError(t, err)

	code = h.sendOTP(t, testIP)
	_, err = h.register(code, constants.RoleParent, &sid, nil)
	require.Equal(t, helper.KindConflict, helper.KindOf(err))
	require.Contains(t, err.Error(), "Phone already exists")
}

func TestRegisterEmailConflict(t *testing.T) {
	h := newHarness(t)
	s := dbtest.School(t, h.db, "RED")
	dbtest.User(t, h.db, constants.RoleParent, s.SchoolID, "+910000000001")
	require.NoError(t, h.db.Table("users").
		Where("phone = ?", "+910000000001").Update("email", "taken@example.com").Error)

	sid := s.SchoolID.String()
	code := h.sendOTP(t, testIP)
	_, err := h.register(code, constants.RoleParent, &sid, ptr("TAKEN@example.com"))
	require.Equal(t, helper.KindConflict, helper.KindOf(err))
	require.Contains(t, err.Error(), "Email already exists")
}

func TestRegisterSuperAdminPinnedToPlatform(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, school.SeedPlatformSchool(h.db))
	require.NoError(t, school.SeedPlatformSchool(h.db))

	code := h.sendOTP(t, testIP)
	user, err := h.register(code, constants.RoleSuperAdmin, ptr(uuid.NewString()), nil)
	require.NoError(t, err)
	require.Equal(t, constants.PlatformSchoolID, user.SchoolID)
}

func TestPlatformSchoolNotSelectable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, school.SeedPlatformSchool(h.db))

	code := h.sendOTP(t, testIP)
	_, err := h.register(code, constants.RoleSchoolAdmin, ptr(constants.PlatformSchoolID.String()), nil)
	require.Equal(t, helper.KindValidation, helper.KindOf(err))
}

func TestTrustedDeviceFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := dbtest.School(t, h.db, "TEAL")
	user := dbtest.User(t, h.db, constants.RoleSchoolAdmin, s.SchoolID, testPhone)

	code := h.sendOTP(t, testIP)
	res, err := h.auth.LoginWithDevice(ctx, dto.LoginWithDeviceRequest{
		CountryCode:    testCC,
		MobileNo:       testMobile,
		OTP:            code,
		DeviceID:       "pixel-7",
		DeviceName:     "Pixel 7",
		RememberDevice: true,
	}, testIP, "okhttp/4.12")
	require.NoError(t, err)
	require.Len(t, res.DeviceToken, 64)
	deviceToken := res.DeviceToken

	verify := func(token string) (*dto.LoginResponse, error) {
		return h.auth.VerifyDevice(ctx, dto.VerifyDeviceRequest{
			CountryCode: testCC,
			MobileNo:    testMobile,
			DeviceID:    "pixel-7",
			DeviceToken: token,
		})
	}

	out, err := verify(deviceToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, out.User.ID)
	require.NotEmpty(t, out.AccessToken)

	_, err = verify(strings.Repeat("a", 64))
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))

	list, err := h.devices.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "pixel-7", list[0].DeviceID)
	require.Equal(t, testIP, list[0].IPAddress)

	// stored hash never equals the token
	var stored authModel.TrustedDeviceModel
	require.NoError(t, h.db.Where("user_id = ?", user.ID).Take(&stored).Error)
	require.NotEqual(t, deviceToken, stored.TokenHash)

	h.clock.Advance(31 * 24 * time.Hour)
	_, err = verify(deviceToken)
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))

	n, err := h.devices.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRememberDeviceRotatesToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := dbtest.School(t, h.db, "GOLD")
	user := dbtest.User(t, h.db, constants.RoleTeacher, s.SchoolID, testPhone)

	first, err := h.devices.Register(ctx, user.ID, "ipad", "", testIP, "")
	require.NoError(t, err)
	second, err := h.devices.Register(ctx, user.ID, "ipad", "iPad", testIP, "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := h.devices.Verify(ctx, user.ID, "ipad", first)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = h.devices.Verify(ctx, user.ID, "ipad", second)
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := h.devices.Remove(ctx, user.ID, "ipad")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = h.devices.Remove(ctx, user.ID, "ipad")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	h := newHarness(t)
	s := dbtest.School(t, h.db, "GREY")
	user := dbtest.User(t, h.db, constants.RoleTeacher, s.SchoolID, testPhone)
	require.NoError(t, h.db.Table("users").Where("id = ?", user.ID).Update("is_active", false).Error)

	code := h.sendOTP(t, testIP)
	_, err := h.login(code)
	require.Equal(t, helper.KindAuthorization, helper.KindOf(err))
}

func TestLogoutBlacklistsToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := dbtest.School(t, h.db, "PINK")
	dbtest.User(t, h.db, constants.RoleTeacher, s.SchoolID, testPhone)

	code := h.sendOTP(t, testIP)
	res, err := h.login(code)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, res.AccessToken, *res.ExpiresAt))
	require.NoError(t, h.auth.Logout(ctx, res.AccessToken, *res.ExpiresAt))

	revoked, err := h.tokens.IsBlacklisted(ctx, res.AccessToken)
	require.NoError(t, err)
	require.True(t, revoked)

	h.clock.Advance(8 * 24 * time.Hour)
	n, err := h.tokens.PurgeExpiredBlacklist(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLoginGoogleWithoutVerifier(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.LoginGoogle(context.Background(), dto.GoogleLoginRequest{IDToken: "x"})
	require.Equal(t, helper.KindAuthentication, helper.KindOf(err))
}
