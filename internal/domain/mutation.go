package domain

import "time"

// MutationKind enumerates the optimistic mutations the console issues.
type MutationKind string

const (
	MutationAddRole       MutationKind = "ADD_ROLE"
	MutationRemoveRole    MutationKind = "REMOVE_ROLE"
	MutationUpdateProfile MutationKind = "UPDATE_PROFILE"
)

// MutationStatus is the settled state of a mutation.
type MutationStatus string

const (
	MutationCommitted  MutationStatus = "COMMITTED"
	MutationRolledBack MutationStatus = "ROLLED_BACK"
)

// MutationLog is an audit record of one settled mutation.
type MutationLog struct {
	ID           string         `json:"id"`
	Kind         MutationKind   `json:"kind"`
	RowID        int64          `json:"row_id"`
	RoleID       *int64         `json:"role_id,omitempty"`
	Status       MutationStatus `json:"status"`
	PatchedPages int            `json:"patched_pages"`
	ErrorMessage *string        `json:"error,omitempty"`
	Actor        *string        `json:"actor,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
