package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxq/console/internal/api/dto"
	"github.com/maxq/console/internal/auth"
	"github.com/maxq/console/internal/domain"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

// SessionHandler manages the browser session holding the bearer token.
type SessionHandler struct {
	authorizer *auth.Authorizer
	cookie     string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authorizer *auth.Authorizer, cookie string, ttl time.Duration, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{authorizer: authorizer, cookie: cookie, ttl: ttl, logger: logger}
}

// Current GET /session.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		principal = &domain.Principal{}
	}
	return c.JSON(fiber.Map{"data": sessionResponse(*principal)})
}

// Create POST /session stores a verified token under a fresh session id.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, ok := h.authorizer.Verify(req.Token); !ok {
		return apperrors.NewUnauthorized("token rejected")
	}

	session := uuid.NewString()
	if err := h.authorizer.Tokens().Write(c.UserContext(), session, req.Token); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie,
		Value:    session,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	principal := h.authorizer.Resolve(c.UserContext(), session, "")
	h.logger.Info("session created", zap.String("subject", principal.Subject), zap.Bool("admin", principal.Admin))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sessionResponse(principal)})
}

// Delete DELETE /session.
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if session := c.Cookies(h.cookie); session != "" {
		if err := h.authorizer.Tokens().Delete(c.UserContext(), session); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	c.ClearCookie(h.cookie)
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionResponse(p domain.Principal) dto.SessionResponse {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return dto.SessionResponse{
		Authenticated: p.Authenticated(),
		Admin:         p.Admin,
		Subject:       p.Subject,
		Roles:         roles,
	}
}
