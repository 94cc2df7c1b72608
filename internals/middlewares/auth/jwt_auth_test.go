package auth_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	schoolMiddleware "schoolku_backend/internals/middlewares/features"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func claimsFor(role string, schoolID uuid.UUID, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		helperAuth.ClaimUserID:   uuid.NewString(),
		helperAuth.ClaimRole:     role,
		helperAuth.ClaimSchoolID: schoolID.String(),
		helperAuth.ClaimExpires:  exp.Unix(),
	}
}

// newApp echoes the resolved school on /scoped behind the full attendance-style chain.
func newApp(checker func(*fiber.Ctx, string) (bool, error)) *fiber.App {
	app := fiber.New()
	jwtMw := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{Secret: testSecret, BlacklistChecker: checker})
	app.Get("/scoped", jwtMw,
		authMiddleware.OnlyRolesSlice("", constants.SectionReaders),
		schoolMiddleware.UseSchoolScope(),
		schoolMiddleware.RequireSchoolScope(),
		func(c *fiber.Ctx) error {
			sid, err := helperAuth.RequireScopedSchool(c)
			if err != nil {
				return err
			}
			return c.SendString(sid.String())
		})
	return app
}

func do(t *testing.T, app *fiber.App, token string, headers map[string]string, target string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthJWTRejectsMissingAndBadTokens(t *testing.T) {
	app := newApp(nil)
	school := uuid.New()

	status, _ := do(t, app, "", nil, "/scoped")
	require.Equal(t, fiber.StatusUnauthorized, status)

	bad := sign(t, "other-secret", claimsFor(constants.RoleTeacher, school, time.Now().Add(time.Hour)))
	status, _ = do(t, app, bad, nil, "/scoped")
	require.Equal(t, fiber.StatusUnauthorized, status)

	expired := sign(t, testSecret, claimsFor(constants.RoleTeacher, school, time.Now().Add(-time.Hour)))
	status, body := do(t, app, expired, nil, "/scoped")
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Contains(t, body, "Token expired")
}

func TestAuthJWTBlacklist(t *testing.T) {
	tok := sign(t, testSecret, claimsFor(constants.RoleTeacher, uuid.New(), time.Now().Add(time.Hour)))
	app := newApp(func(_ *fiber.Ctx, raw string) (bool, error) { return raw == tok, nil })

	status, body := do(t, app, tok, nil, "/scoped")
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Contains(t, body, "revoked")
}

func TestRoleGateRunsBeforeScope(t *testing.T) {
	app := newApp(nil)
	tok := sign(t, testSecret, claimsFor(constants.RoleParent, uuid.New(), time.Now().Add(time.Hour)))

	status, _ := do(t, app, tok, map[string]string{helperAuth.HeaderSchoolID: "garbage"}, "/scoped")
	require.Equal(t, fiber.StatusForbidden, status)
}

func TestNonAdminCannotSpoofSchool(t *testing.T) {
	app := newApp(nil)
	own := uuid.New()
	victim := uuid.New()
	tok := sign(t, testSecret, claimsFor(constants.RoleTeacher, own, time.Now().Add(time.Hour)))

	status, body := do(t, app, tok, map[string]string{helperAuth.HeaderSchoolID: victim.String()},
		"/scoped?schoolId="+victim.String())
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, own.String(), body)
}

func TestSuperAdminPicksSchool(t *testing.T) {
	app := newApp(nil)
	target := uuid.New()
	tok := sign(t, testSecret, claimsFor(constants.RoleSuperAdmin, constants.PlatformSchoolID, time.Now().Add(time.Hour)))

	status, body := do(t, app, tok, map[string]string{helperAuth.HeaderSchoolID: target.String()}, "/scoped")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, target.String(), body)

	status, body = do(t, app, tok, nil, "/scoped?schoolId="+target.String())
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, target.String(), body)

	status, _ = do(t, app, tok, nil, "/scoped")
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, tok, map[string]string{helperAuth.HeaderSchoolID: "nope"}, "/scoped")
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestOnlyRolesSliceEmptyAdmitsAll(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(helperAuth.LocRole, constants.RoleParent)
		return c.Next()
	}, authMiddleware.OnlyRolesSlice("", nil), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
