// file: internals/helpers/auth/locals.go
package helper

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "schoolku_backend/internals/helpers"
)

/* ============================================
   Locals Keys (AuthJWT / UseSchoolScope set these)
   ============================================ */

const (
	LocUserID   = "user_id"      // string uuid
	LocRole     = "userRole"     // string
	LocSchoolID = "school_id"    // string uuid, identity's own school
	LocPhone    = "phone"        // string
	LocRawToken = "access_token" // string
	LocTokenExp = "token_exp"    // time.Time
	LocScope    = "school_scope" // SchoolScope
)

// Identity is the authenticated caller as carried by the session token.
type Identity struct {
	UserID   uuid.UUID
	Role     string
	SchoolID *uuid.UUID
	Phone    string
}

// GetIdentity reads the identity hydrated by AuthJWT.
func GetIdentity(c *fiber.Ctx) (Identity, error) {
	var id Identity

	raw, _ := c.Locals(LocUserID).(string)
	uid, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || uid == uuid.Nil {
		return id, helper.ErrUnauthorized("Unauthorized - Invalid or missing user ID")
	}
	id.UserID = uid

	role, _ := c.Locals(LocRole).(string)
	if strings.TrimSpace(role) == "" {
		return id, helper.ErrUnauthorized("Unauthorized - Role not found")
	}
	id.Role = role

	if s, ok := c.Locals(LocSchoolID).(string); ok && strings.TrimSpace(s) != "" {
		if sid, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			id.SchoolID = &sid
		}
	}
	id.Phone, _ = c.Locals(LocPhone).(string)
	return id, nil
}

func GetRawToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRawToken).(string)
	return s
}

func GetTokenExpiry(c *fiber.Ctx) time.Time {
	t, _ := c.Locals(LocTokenExp).(time.Time)
	return t
}
