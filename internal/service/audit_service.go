package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/events"
	"github.com/maxq/console/internal/observability"
	"github.com/maxq/console/internal/repository"
)

// AuditService records settled mutations and closed notifications.
type AuditService struct {
	dispatcher events.Dispatcher
	logs       repository.MutationLogRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service. logs may be nil when no database is configured.
func NewAuditService(dispatcher events.Dispatcher, logs repository.MutationLogRepository, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logs:       logs,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMutationSettled, a.handleMutationSettled)
	a.dispatcher.Subscribe(events.EventNotificationClosed, a.handleNotificationClosed)
}

func (a *AuditService) handleMutationSettled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MutationSettledPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	a.logger.Info("MutationSettled",
		zap.String("kind", string(payload.Kind)),
		zap.Int64("row_id", payload.RowID),
		zap.String("status", string(payload.Status)))

	if a.logs == nil {
		return nil
	}
	entry := &domain.MutationLog{
		ID:           event.ID,
		Kind:         payload.Kind,
		RowID:        payload.RowID,
		RoleID:       payload.RoleID,
		Status:       payload.Status,
		PatchedPages: payload.PatchedPages,
	}
	if payload.Error != "" {
		msg := payload.Error
		entry.ErrorMessage = &msg
	}
	if payload.Actor != "" {
		actor := payload.Actor
		entry.Actor = &actor
	}
	if err := a.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("record mutation %s: %w", event.ID, err)
	}
	return nil
}

func (a *AuditService) handleNotificationClosed(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationClosedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	a.metrics.RecordNotification(payload.Severity.String(), string(payload.Reason))
	a.logger.Debug("NotificationClosed",
		zap.String("notification_id", payload.NotificationID),
		zap.String("reason", string(payload.Reason)))
	return nil
}

// Recent returns the latest recorded mutations.
func (a *AuditService) Recent(ctx context.Context, limit int) ([]domain.MutationLog, error) {
	if a.logs == nil {
		return []domain.MutationLog{}, nil
	}
	return a.logs.ListRecent(ctx, limit)
}

// ForRow returns the recorded mutations of one user row, oldest first.
func (a *AuditService) ForRow(ctx context.Context, rowID int64) ([]domain.MutationLog, error) {
	if a.logs == nil {
		return []domain.MutationLog{}, nil
	}
	return a.logs.ListByRow(ctx, rowID)
}
