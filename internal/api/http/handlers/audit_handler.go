package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maxq/console/internal/observability"
	"github.com/maxq/console/internal/service"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

// AuditHandler exposes the mutation log and runtime counters.
type AuditHandler struct {
	audit   *service.AuditService
	metrics *observability.Metrics
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService, metrics *observability.Metrics) *AuditHandler {
	return &AuditHandler{audit: audit, metrics: metrics}
}

// Mutations GET /audit/mutations.
func (h *AuditHandler) Mutations(c *fiber.Ctx) error {
	if rowID := c.QueryInt("row_id", 0); rowID > 0 {
		logs, err := h.audit.ForRow(c.UserContext(), int64(rowID))
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return c.JSON(fiber.Map{"data": logs})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		return apperrors.NewValidationError("limit must be between 1 and 500", nil)
	}
	logs, err := h.audit.Recent(c.UserContext(), limit)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": logs})
}

// Metrics GET /metrics.
func (h *AuditHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
