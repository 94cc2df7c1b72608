package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "schoolku_backend/internals/helpers"
)

// GlobalRateLimiter caps every endpoint per IP.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.WriteError(c, helper.ErrRateLimited("Too many requests. Please try again later.", time.Minute))
		},
	})
}

// AuthBurstLimiter is a per-IP burst guard in front of the OTP endpoints.
// Per-contact limits live in the OTP security ledger.
func AuthBurstLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.WriteError(c, helper.ErrRateLimited("Too many authentication attempts. Try again shortly.", time.Minute))
		},
	})
}
