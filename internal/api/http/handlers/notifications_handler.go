package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maxq/console/internal/api/dto"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/notify"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

// NotificationsHandler exposes the notification stack.
type NotificationsHandler struct {
	store *notify.Store
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(store *notify.Store) *NotificationsHandler {
	return &NotificationsHandler{store: store}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.store.List()})
}

// Register POST /notifications.
func (h *NotificationsHandler) Register(c *fiber.Ctx) error {
	var req dto.NotificationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	severity, err := domain.ParseSeverity(req.Severity)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	id := h.store.Register(notify.Content{
		Message:  domain.Message{Text: req.Message, Causes: req.Causes},
		Severity: severity,
		Lifetime: time.Duration(req.LifetimeMs) * time.Millisecond,
	})
	view, ok := h.store.Get(id)
	if !ok {
		return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"id": id}})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": view})
}

// Dismiss DELETE /notifications/:id. Unknown ids are a no-op.
func (h *NotificationsHandler) Dismiss(c *fiber.Ctx) error {
	id := c.Params("id")
	return c.JSON(fiber.Map{"data": dto.ClosedResponse{ID: id, Closed: h.store.Dismiss(id)}})
}

// Swipe POST /notifications/:id/swipe.
func (h *NotificationsHandler) Swipe(c *fiber.Ctx) error {
	var req dto.SwipeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	return c.JSON(fiber.Map{"data": dto.ClosedResponse{ID: id, Closed: h.store.Swipe(id, req.Distance)}})
}
