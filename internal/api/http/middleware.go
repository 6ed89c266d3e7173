package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/observability"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

// RegisterMiddlewares installs the chain shared by every route: request
// ids, the per-request deadline, the error envelope and the request log.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if timeout > 0 {
		app.Use(deadlineMiddleware(timeout))
	}
	app.Use(errorEnvelopeMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// deadlineMiddleware bounds the cache and session lookups of one request.
// Optimistic dispatches detach from it and keep running.
func deadlineMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorEnvelopeMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("route", observability.RouteOf(c)),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			apiErr := translateError(err)
			route := observability.RouteOf(c)
			requestID := c.GetRespHeader(fiber.HeaderXRequestID)
			metrics.RecordError(route, c.Method(), apiErr.Code)

			body := fiber.Map{
				"code":    apiErr.Code,
				"message": apiErr.Message,
			}
			if len(apiErr.Details) > 0 {
				body["details"] = apiErr.Details
			}
			if requestID != "" {
				body["request_id"] = requestID
			}
			if apiErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error("request failed",
					zap.String("route", route),
					zap.String("method", c.Method()),
					zap.String("request_id", requestID),
					zap.String("code", apiErr.Code),
					zap.Error(err))
			}
			c.Status(apiErr.HTTPStatus)
			err = c.JSON(fiber.Map{"error": body})
		}()
		return c.Next()
	}
}

// translateError maps profile service failures onto the console's error
// codes and leaves every other error to errorutil.
func translateError(err error) *apperrors.DomainError {
	if errors.Is(err, client.ErrUserNotFound) {
		return apperrors.ToDomainError(apperrors.NewNotFound("user", nil))
	}
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Status == http.StatusNotFound {
			return apperrors.ToDomainError(apperrors.NewNotFound("user", nil))
		}
		upstream := apperrors.ToDomainError(apperrors.NewUpstreamError("profile", err))
		upstream.Details = map[string]any{"status": reqErr.Status}
		if msg, ok := client.ServerMessage(err); ok {
			upstream.Details["message"] = msg
		}
		return upstream
	}
	if errors.Is(err, client.ErrUnavailable) {
		return apperrors.ToDomainError(apperrors.NewUpstreamError("profile", err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDomainError("TIMEOUT", "request timed out", http.StatusGatewayTimeout, nil)
	}
	return apperrors.ToDomainError(err)
}
