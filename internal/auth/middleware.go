package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/maxq/console/internal/domain"
)

const principalKey = "auth_principal"

// AuthMiddleware resolves the caller's principal on every request.
type AuthMiddleware struct {
	authorizer    *Authorizer
	sessionCookie string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authorizer *Authorizer, sessionCookie string) *AuthMiddleware {
	return &AuthMiddleware{authorizer: authorizer, sessionCookie: sessionCookie}
}

// Handle stores the principal in the request locals and forwards the bearer
// token on the user context. It never rejects; guards do.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	bearer := bearerToken(c.Get(fiber.HeaderAuthorization))
	session := c.Cookies(m.sessionCookie)

	principal := m.authorizer.Resolve(c.UserContext(), session, bearer)
	if principal.Authenticated() {
		ctx := ContextWithToken(c.UserContext(), principal.Token)
		c.SetUserContext(ContextWithSubject(ctx, principal.Subject))
	}

	c.Locals(principalKey, &principal)
	return c.Next()
}

// SessionCookie returns the cookie name carrying the session id.
func (m *AuthMiddleware) SessionCookie() string {
	return m.sessionCookie
}

// PrincipalFromContext retrieves the resolved principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
