// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "schoolku_backend/internals/helpers/auth"
)

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx, allowCookie bool) (string, error) {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if auth == "" && allowCookie {
		if cookieTok := strings.TrimSpace(c.Cookies("access_token")); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", errors.New("Unauthorized - No token provided")
	}

	// tolerate double spaces and any casing of "bearer"
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("Unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errors.New("Unauthorized - Empty token")
	}
	return tok, nil
}

func expiryOf(claims jwt.MapClaims) (time.Time, error) {
	switch v := claims[helperAuth.ClaimExpires].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid exp format")
		}
		return time.Unix(n, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("token has no exp")
	}
}

// extractUserID prefers "id" then "sub".
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{helperAuth.ClaimUserID, helperAuth.ClaimSubject} {
		if s := strClaim(claims, key); s != "" {
			return uuid.Parse(s)
		}
	}
	return uuid.Nil, fmt.Errorf("no user id")
}

/* ======== Store claims to Locals ======== */

func storeClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims, userID uuid.UUID) {
	c.Locals("jwt_claims", claims)
	c.Locals(helperAuth.LocUserID, userID.String())
	if role := strClaim(claims, helperAuth.ClaimRole); role != "" {
		c.Locals(helperAuth.LocRole, role)
	}
	if sid := strClaim(claims, helperAuth.ClaimSchoolID); sid != "" {
		c.Locals(helperAuth.LocSchoolID, sid)
	}
	if phone := strClaim(claims, helperAuth.ClaimPhone); phone != "" {
		c.Locals(helperAuth.LocPhone, phone)
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
