// file: internals/helpers/auth/school_scope_resolver.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helper "schoolku_backend/internals/helpers"
)

const (
	HeaderSchoolID = "X-School-Id"
	QuerySchoolID  = "schoolId"
)

// SchoolScope is the effective tenant of a request. Scoped=false only for super admins.
type SchoolScope struct {
	SchoolID uuid.UUID
	Scoped   bool
}

var (
	ErrNoSchoolAssigned    = helper.ErrValidation("User has no schoolId assigned.")
	ErrInvalidSchoolID     = helper.ErrValidation("Invalid school id in X-School-Id header or schoolId query")
	ErrSchoolScopeRequired = helper.ErrValidation("School context required (X-School-Id header or schoolId query)")
)

// ResolveSchoolScope derives the tenant for identity.
// Non super admins are always pinned to their own school; client values are ignored.
// Super admins pick a school through the header (preferred) or query, or stay unscoped.
func ResolveSchoolScope(id Identity, header, query string) (SchoolScope, error) {
	if id.Role != constants.RoleSuperAdmin {
		if id.SchoolID == nil || *id.SchoolID == uuid.Nil {
			return SchoolScope{}, ErrNoSchoolAssigned
		}
		return SchoolScope{SchoolID: *id.SchoolID, Scoped: true}, nil
	}

	raw := strings.TrimSpace(header)
	if raw == "" {
		raw = strings.TrimSpace(query)
	}
	if raw == "" {
		return SchoolScope{}, nil
	}
	sid, err := uuid.Parse(raw)
	if err != nil || sid == uuid.Nil {
		return SchoolScope{}, ErrInvalidSchoolID
	}
	return SchoolScope{SchoolID: sid, Scoped: true}, nil
}

// ResolveSchoolScopeFromCtx reads identity and client hints from the request.
func ResolveSchoolScopeFromCtx(c *fiber.Ctx) (SchoolScope, error) {
	id, err := GetIdentity(c)
	if err != nil {
		return SchoolScope{}, err
	}
	return ResolveSchoolScope(id, c.Get(HeaderSchoolID), c.Query(QuerySchoolID))
}

// GetSchoolScope returns the scope stored by UseSchoolScope.
func GetSchoolScope(c *fiber.Ctx) (SchoolScope, bool) {
	s, ok := c.Locals(LocScope).(SchoolScope)
	return s, ok
}

// RequireScopedSchool returns the scoped school id or a validation error for unscoped calls.
func RequireScopedSchool(c *fiber.Ctx) (uuid.UUID, error) {
	s, ok := GetSchoolScope(c)
	if !ok {
		var err error
		if s, err = ResolveSchoolScopeFromCtx(c); err != nil {
			return uuid.Nil, err
		}
	}
	if !s.Scoped {
		return uuid.Nil, ErrSchoolScopeRequired
	}
	return s.SchoolID, nil
}
