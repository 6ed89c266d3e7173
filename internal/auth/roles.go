package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

// RequireAuthenticated ensures a verified bearer token was presented.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.Authenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller holds the administrative role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.Authenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Admin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
