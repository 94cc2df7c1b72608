package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(c *fiber.Ctx, rawToken string) (bool, error) // true if revoked
	AllowCookieFallback bool                                             // cookie access_token when no Bearer
}

// AuthJWT verifies the session token and hydrates the identity locals.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return helper.WriteError(c, helper.ErrUnauthorized(err.Error()))
		}

		if o.BlacklistChecker != nil {
			revoked, err := o.BlacklistChecker(c, raw)
			if err != nil {
				return helper.WriteError(c, helper.ErrInternal(err))
			}
			if revoked {
				return helper.WriteError(c, helper.ErrUnauthorized("Unauthorized - Token is revoked"))
			}
		}

		claims := jwt.MapClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			var ve *jwt.ValidationError
			if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
				return helper.WriteError(c, helper.ErrUnauthorized("Unauthorized - Token expired"))
			}
			zap.L().Debug("token rejected", zap.Error(err))
			return helper.WriteError(c, helper.ErrUnauthorized("Unauthorized - Invalid token"))
		}

		exp, err := expiryOf(claims)
		if err != nil {
			return helper.WriteError(c, helper.ErrUnauthorized("Unauthorized - Invalid token"))
		}
		userID, err := extractUserID(claims)
		if err != nil {
			return helper.WriteError(c, helper.ErrUnauthorized("Unauthorized - Invalid or missing user ID"))
		}

		storeClaimsToLocals(c, claims, userID)
		c.Locals(helperAuth.LocRawToken, raw)
		c.Locals(helperAuth.LocTokenExp, exp)

		return c.Next()
	}
}
