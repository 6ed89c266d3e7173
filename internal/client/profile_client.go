// Package client talks to the MaxQ profile service over REST.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maxq/console/internal/auth"
	"github.com/maxq/console/internal/config"
	"github.com/maxq/console/internal/domain"
)

// ErrUserNotFound is returned when a profile lookup yields no matching row.
var ErrUserNotFound = errors.New("user not found")

// ErrUnavailable wraps transport failures where no response was received.
var ErrUnavailable = errors.New("profile service unreachable")

// RequestError is a non-2xx answer from the profile service.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("profile service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("profile service returned %d", e.Status)
}

// ServerMessage extracts the message field of a rejected request, if any.
func ServerMessage(err error) (string, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && strings.TrimSpace(reqErr.Message) != "" {
		return reqErr.Message, true
	}
	return "", false
}

// MutationRequest describes one write against the profile service.
type MutationRequest struct {
	Kind    domain.MutationKind
	RowID   int64
	Role    *domain.Role
	Profile *domain.ProfileUpdate
}

// ProfileClient is a thin HTTP client over Fiber's agent. The agent has no
// context support, so calls are bounded by the configured timeout only.
type ProfileClient struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewProfileClient builds a client for the configured base URL.
func NewProfileClient(cfg config.ProfileServiceConfig, logger *zap.Logger) *ProfileClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// ListUsers fetches one page of users.
func (c *ProfileClient) ListUsers(ctx context.Context, page, size int) (domain.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var out domain.Page
	if err := c.call(ctx, fiber.MethodGet, "/users?"+query.Encode(), nil, &out); err != nil {
		return domain.Page{}, err
	}
	return out, nil
}

// GetUser fetches a single user row.
func (c *ProfileClient) GetUser(ctx context.Context, id int64) (domain.UserRow, error) {
	var out domain.UserRow
	if err := c.call(ctx, fiber.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return domain.UserRow{}, err
	}
	return out, nil
}

// Dispatch issues a mutation and waits for the service to answer.
func (c *ProfileClient) Dispatch(ctx context.Context, req MutationRequest) error {
	userPath := "/users/" + strconv.FormatInt(req.RowID, 10)

	switch req.Kind {
	case domain.MutationAddRole:
		if req.Role == nil {
			return errors.New("add role without role")
		}
		return c.call(ctx, fiber.MethodPost, userPath+"/roles", req.Role, nil)
	case domain.MutationRemoveRole:
		if req.Role == nil {
			return errors.New("remove role without role")
		}
		return c.call(ctx, fiber.MethodDelete, userPath+"/roles/"+strconv.FormatInt(req.Role.ID, 10), nil, nil)
	case domain.MutationUpdateProfile:
		if req.Profile == nil {
			return errors.New("profile update without fields")
		}
		return c.call(ctx, fiber.MethodPatch, userPath, req.Profile, nil)
	default:
		return fmt.Errorf("unsupported mutation %q", req.Kind)
	}
}

// Ping checks the service health endpoint.
func (c *ProfileClient) Ping(ctx context.Context) error {
	return c.call(ctx, fiber.MethodGet, "/health", nil, nil)
}

func (c *ProfileClient) call(ctx context.Context, method, path string, body, out any) error {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)

	if token, ok := auth.TokenFromContext(ctx); ok {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fiber.ReleaseAgent(a)
			return fmt.Errorf("encode request: %w", err)
		}
		a.ContentType(fiber.MIMEApplicationJSON)
		a.Body(payload)
	}
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("prepare %s %s: %w", method, path, err)
	}

	started := time.Now()
	code, respBody, errs := a.Bytes()
	if len(errs) > 0 {
		c.logger.Warn("profile service call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Errors("errors", errs))
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, errors.Join(errs...))
	}
	c.logger.Debug("profile service call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", code),
		zap.Duration("duration", time.Since(started)))

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &RequestError{Status: code, Message: errorMessage(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
