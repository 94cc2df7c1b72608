package middleware

import (
	"github.com/gofiber/fiber/v2"

	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// UseSchoolScope resolves the effective tenant once per request and stores it in locals.
// Must run after AuthJWT and before any handler touches storage.
func UseSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := helperAuth.ResolveSchoolScopeFromCtx(c)
		if err != nil {
			return helper.WriteError(c, err)
		}
		c.Locals(helperAuth.LocScope, scope)
		return c.Next()
	}
}

// RequireSchoolScope rejects super admin calls that did not pick a school.
func RequireSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := helperAuth.RequireScopedSchool(c); err != nil {
			return helper.WriteError(c, err)
		}
		return c.Next()
	}
}
