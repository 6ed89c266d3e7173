package dto

import "github.com/maxq/console/internal/domain"

// RoleRequest payload for assigning a role.
type RoleRequest struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required,max=64"`
}

// ProfileUpdateRequest payload for editing a profile. Omitted fields stay unchanged.
type ProfileUpdateRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// ToDomain converts the payload.
func (r ProfileUpdateRequest) ToDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}
}

// UserPageResponse wraps a cached listing page.
type UserPageResponse struct {
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Total int              `json:"total"`
	Rows  []domain.UserRow `json:"rows"`
}

// MutationResponse reports a dispatched optimistic mutation.
type MutationResponse struct {
	Status         string `json:"status"`
	PatchedPages   int    `json:"patched_pages"`
	NotificationID string `json:"notification_id,omitempty"`
	Error          string `json:"error,omitempty"`
}
