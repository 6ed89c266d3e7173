package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/maxq/console/internal/api/dto"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/service"
	apperrors "github.com/maxq/console/pkg/util/errorutil"
)

const statusPending = "PENDING"

// UsersHandler serves the user listing and its optimistic edits.
type UsersHandler struct {
	roles    *service.RoleService
	profiles *service.ProfileService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(roles *service.RoleService, profiles *service.ProfileService) *UsersHandler {
	return &UsersHandler{roles: roles, profiles: profiles}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 0)
	if page < 1 || size < 0 || size > 200 {
		return apperrors.NewValidationError("page must be >= 1 and size between 0 and 200", nil)
	}

	result, err := h.profiles.ListUsers(c.UserContext(), page, size)
	if err != nil {
		return err
	}
	if size == 0 {
		size = len(result.Rows)
	}
	return c.JSON(fiber.Map{"data": dto.UserPageResponse{
		Page:  page,
		Size:  size,
		Total: result.Total,
		Rows:  result.Rows,
	}})
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	row, err := h.profiles.GetProfile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// AddRole POST /users/:id/roles.
func (h *UsersHandler) AddRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	pending := h.roles.AddRole(c.UserContext(), id, domain.Role{ID: req.ID, Name: req.Name})
	return respondMutation(c, pending)
}

// RemoveRole DELETE /users/:id/roles/:roleId.
func (h *UsersHandler) RemoveRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	roleID, err := paramID(c, "roleId")
	if err != nil {
		return err
	}
	pending := h.roles.RemoveRole(c.UserContext(), id, domain.Role{ID: roleID, Name: c.Query("name")})
	return respondMutation(c, pending)
}

// UpdateProfile PATCH /users/:id/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	update := req.ToDomain()
	if update.Empty() {
		return apperrors.NewValidationError("at least one field required", nil)
	}
	pending := h.profiles.UpdateProfile(c.UserContext(), id, update)
	return respondMutation(c, pending)
}

// respondMutation answers 202 right after the optimistic patch, or waits for
// the settlement when ?wait=true.
func respondMutation(c *fiber.Ctx, pending *service.Pending) error {
	if !c.QueryBool("wait", false) {
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.MutationResponse{
			Status:       statusPending,
			PatchedPages: pending.PatchedPages(),
		}})
	}

	outcome, err := pending.Wait(c.UserContext())
	if err != nil {
		// request deadline hit first; the mutation keeps running
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.MutationResponse{
			Status:       statusPending,
			PatchedPages: pending.PatchedPages(),
		}})
	}
	resp := dto.MutationResponse{
		Status:         string(outcome.Status),
		PatchedPages:   pending.PatchedPages(),
		NotificationID: outcome.NotificationID,
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	return c.JSON(fiber.Map{"data": resp})
}
