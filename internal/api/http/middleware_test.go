package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/observability"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"unknown user", fmt.Errorf("get: %w", client.ErrUserNotFound), "NOT_FOUND", fiber.StatusNotFound},
		{"upstream 404", &client.RequestError{Status: 404}, "NOT_FOUND", fiber.StatusNotFound},
		{"upstream rejection", &client.RequestError{Status: 409, Message: "role locked"}, "UPSTREAM_UNAVAILABLE", fiber.StatusBadGateway},
		{"unreachable", fmt.Errorf("GET /users: %w: %w", client.ErrUnavailable, errors.New("dial tcp")), "UPSTREAM_UNAVAILABLE", fiber.StatusBadGateway},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "TIMEOUT", fiber.StatusGatewayTimeout},
		{"validation", apperrors.NewValidationError("bad page", nil), "VALIDATION_FAILED", fiber.StatusBadRequest},
		{"unexpected", errors.New("nil map"), "INTERNAL_ERROR", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateError(tc.err)
			require.Equal(t, tc.code, got.Code)
			require.Equal(t, tc.status, got.HTTPStatus)
		})
	}

	rejected := translateError(&client.RequestError{Status: 409, Message: "role locked"})
	require.Equal(t, map[string]any{"status": 409, "message": "role locked"}, rejected.Details)
}

func newMiddlewareApp(metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, timeout)
	app.Get("/users/:id", func(c *fiber.Ctx) error {
		return fmt.Errorf("list: %w", &client.RequestError{Status: 500, Message: "db down"})
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return c.UserContext().Err()
	})
	return app
}

func TestErrorEnvelopeCarriesRequestIDAndRoute(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics, 0)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users/42", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Error struct {
			Code      string         `json:"code"`
			RequestID string         `json:"request_id"`
			Details   map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "UPSTREAM_UNAVAILABLE", body.Error.Code)
	require.Equal(t, "db down", body.Error.Details["message"])
	require.NotEmpty(t, body.Error.RequestID)
	require.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), body.Error.RequestID)

	errs := metrics.Snapshot().Errors
	require.EqualValues(t, 1, errs["/users/:id|GET|UPSTREAM_UNAVAILABLE"])
	require.NotContains(t, errs, "/users/42|GET|UPSTREAM_UNAVAILABLE")
}

func TestPanicBecomesInternalError(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(metrics, 0)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.EqualValues(t, 1, metrics.Snapshot().Errors["/panic|GET|INTERNAL_ERROR"])
}

func TestDeadlineBecomesTimeout(t *testing.T) {
	app := newMiddlewareApp(observability.NewMetrics(), 20*time.Millisecond)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/slow", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusGatewayTimeout, resp.StatusCode)
}
