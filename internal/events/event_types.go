package events

import (
	"time"

	"github.com/maxq/console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMutationSettled    EventType = "mutation_settled"
	EventNotificationClosed EventType = "notification_closed"
)

// Event represents something the console components announce to each other.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MutationSettledPayload payload.
type MutationSettledPayload struct {
	Kind         domain.MutationKind   `json:"kind"`
	RowID        int64                 `json:"row_id"`
	RoleID       *int64                `json:"role_id,omitempty"`
	Status       domain.MutationStatus `json:"status"`
	PatchedPages int                   `json:"patched_pages"`
	Error        string                `json:"error,omitempty"`
	Actor        string                `json:"actor,omitempty"`
}

// NotificationClosedPayload payload.
type NotificationClosedPayload struct {
	NotificationID string             `json:"notification_id"`
	Severity       domain.Severity    `json:"severity"`
	Reason         domain.CloseReason `json:"reason"`
}
