package service

import (
	"context"

	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/querycache"
)

const (
	DefaultAddRoleError    = "Could not add role"
	DefaultRemoveRoleError = "Could not remove role"
)

// roleTags are the resources whose pages show role assignments.
var roleTags = []querycache.Tag{querycache.TagUsers, querycache.TagProfile}

// RoleService administers role assignments optimistically.
type RoleService struct {
	optimistic *Optimistic
}

// NewRoleService constructs the service.
func NewRoleService(optimistic *Optimistic) *RoleService {
	return &RoleService{optimistic: optimistic}
}

// AddRole appends role to the row in every cached page holding it, then
// asks the profile service to assign it.
func (s *RoleService) AddRole(ctx context.Context, rowID int64, role domain.Role) *Pending {
	return s.optimistic.run(ctx, mutation{
		request:        client.MutationRequest{Kind: domain.MutationAddRole, RowID: rowID, Role: &role},
		tags:           roleTags,
		patch:          appendRole(rowID, role),
		defaultMessage: DefaultAddRoleError,
	})
}

// RemoveRole drops every role with role.ID from the row, then asks the
// profile service to revoke it.
func (s *RoleService) RemoveRole(ctx context.Context, rowID int64, role domain.Role) *Pending {
	return s.optimistic.run(ctx, mutation{
		request:        client.MutationRequest{Kind: domain.MutationRemoveRole, RowID: rowID, Role: &role},
		tags:           roleTags,
		patch:          filterRole(rowID, role.ID),
		defaultMessage: DefaultRemoveRoleError,
	})
}

func appendRole(rowID int64, role domain.Role) querycache.Mutator {
	return func(page *domain.Page) bool {
		row, ok := page.Row(rowID)
		if !ok || row.HasRole(role.ID) {
			return false
		}
		row.Roles = append(row.Roles, role)
		return true
	}
}

func filterRole(rowID, roleID int64) querycache.Mutator {
	return func(page *domain.Page) bool {
		row, ok := page.Row(rowID)
		if !ok || !row.HasRole(roleID) {
			return false
		}
		kept := make([]domain.Role, 0, len(row.Roles))
		for _, r := range row.Roles {
			if r.ID != roleID {
				kept = append(kept, r)
			}
		}
		row.Roles = kept
		return true
	}
}
