package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/events"
	"github.com/maxq/console/internal/observability"
)

type memoryMutationLog struct {
	entries []domain.MutationLog
	err     error
}

func (m *memoryMutationLog) Create(_ context.Context, entry *domain.MutationLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryMutationLog) ListRecent(_ context.Context, limit int) ([]domain.MutationLog, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *memoryMutationLog) ListByRow(_ context.Context, rowID int64) ([]domain.MutationLog, error) {
	var out []domain.MutationLog
	for _, e := range m.entries {
		if e.RowID == rowID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAuditRecordsSettledMutations(t *testing.T) {
	bus := events.NewInMemoryDispatcher(nil)
	logs := &memoryMutationLog{}
	metrics := observability.NewMetrics()
	audit := NewAuditService(bus, logs, metrics, nil)
	audit.RegisterHandlers()

	roleID := int64(6)
	require.NoError(t, bus.Publish(context.Background(), events.Event{
		Type: events.EventMutationSettled,
		Payload: events.MutationSettledPayload{
			Kind:         domain.MutationAddRole,
			RowID:        1,
			RoleID:       &roleID,
			Status:       domain.MutationRolledBack,
			PatchedPages: 2,
			Error:        "boom",
			Actor:        "42",
		},
	}))
	require.NoError(t, bus.Publish(context.Background(), events.Event{
		Type: events.EventNotificationClosed,
		Payload: events.NotificationClosedPayload{
			NotificationID: "n1",
			Severity:       domain.SeverityError,
			Reason:         domain.CloseTimeout,
		},
	}))

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	require.NotEmpty(t, entry.ID)
	require.Equal(t, domain.MutationRolledBack, entry.Status)
	require.Equal(t, int64(6), *entry.RoleID)
	require.Equal(t, "boom", *entry.ErrorMessage)
	require.Equal(t, "42", *entry.Actor)

	recent, err := audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	byRow, err := audit.ForRow(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, byRow, 1)
	byRow, err = audit.ForRow(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, byRow)

	require.EqualValues(t, 1, metrics.Snapshot().Notifications["error|timeout"])
}

func TestAuditWithoutRepository(t *testing.T) {
	bus := events.NewInMemoryDispatcher(nil)
	audit := NewAuditService(bus, nil, nil, nil)
	audit.RegisterHandlers()

	require.NoError(t, bus.Publish(context.Background(), events.Event{
		Type:    events.EventMutationSettled,
		Payload: events.MutationSettledPayload{Kind: domain.MutationRemoveRole, Status: domain.MutationCommitted},
	}))

	recent, err := audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestAuditHandlerErrors(t *testing.T) {
	audit := NewAuditService(nil, &memoryMutationLog{err: errors.New("db down")}, nil, nil)
	audit.RegisterHandlers()

	err := audit.handleMutationSettled(context.Background(), events.Event{ID: "e1", Payload: events.MutationSettledPayload{}})
	require.ErrorContains(t, err, "db down")

	err = audit.handleNotificationClosed(context.Background(), events.Event{Payload: "wrong"})
	require.Error(t, err)
}
