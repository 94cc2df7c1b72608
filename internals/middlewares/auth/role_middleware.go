package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// OnlyRolesSlice lets the request through when the caller's role is in allowedRoles.
// An empty allowedRoles admits every authenticated identity.
func OnlyRolesSlice(message string, allowedRoles []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := CheckRole(c, allowedRoles, message); err != nil {
			return helper.WriteError(c, err)
		}
		return c.Next()
	}
}

// OnlyRoles is the variadic form with the default forbidden message.
func OnlyRoles(roles ...string) fiber.Handler {
	return OnlyRolesSlice("", roles)
}

// CheckRole has no side effects; it only inspects the hydrated role.
func CheckRole(c *fiber.Ctx, allowedRoles []string, message string) error {
	role, ok := c.Locals(helperAuth.LocRole).(string)
	if !ok || role == "" {
		return helper.ErrUnauthorized("Unauthorized - Role not found")
	}
	if len(allowedRoles) == 0 {
		return nil
	}
	for _, allowed := range allowedRoles {
		if role == allowed {
			return nil
		}
	}
	if message == "" {
		message = fmt.Sprintf("Forbidden: role %s is not allowed", role)
	}
	return helper.ErrForbidden(message)
}
