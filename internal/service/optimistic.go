package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxq/console/internal/auth"
	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/events"
	"github.com/maxq/console/internal/notify"
	"github.com/maxq/console/internal/observability"
	"github.com/maxq/console/internal/querycache"
)

// MutationDispatcher sends a mutation to the backend.
type MutationDispatcher interface {
	Dispatch(ctx context.Context, req client.MutationRequest) error
}

// Notifier registers user-facing notifications.
type Notifier interface {
	Register(content notify.Content) string
}

// PageCache is the part of the query cache the optimistic layer patches.
type PageCache interface {
	Select(tag querycache.Tag) []querycache.Handle
	Patch(h querycache.Handle, mutate querycache.Mutator) (*querycache.Undo, bool)
	Invalidate(tag querycache.Tag)
}

// Outcome is how a mutation settled.
type Outcome struct {
	Status         domain.MutationStatus
	Err            error
	NotificationID string
}

// Pending tracks one in-flight mutation.
type Pending struct {
	patched int
	done    chan struct{}
	outcome Outcome
}

// PatchedPages is the number of cached pages speculatively patched.
func (p *Pending) PatchedPages() int {
	return p.patched
}

// Done is closed once the mutation settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the mutation settles or ctx ends. Ending ctx does not
// cancel the mutation.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Optimistic applies speculative patches, dispatches the request and then
// commits or rolls back exactly once.
type Optimistic struct {
	cache      PageCache
	dispatcher MutationDispatcher
	notifier   Notifier
	events     events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// OptimisticDependencies bundles collaborators of the optimistic layer.
type OptimisticDependencies struct {
	Cache      PageCache
	Dispatcher MutationDispatcher
	Notifier   Notifier
	Events     events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewOptimistic constructs the optimistic layer.
func NewOptimistic(deps OptimisticDependencies) *Optimistic {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimistic{
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

type mutation struct {
	request        client.MutationRequest
	tags           []querycache.Tag
	patch          querycache.Mutator
	defaultMessage string
}

// run patches synchronously, before the request is issued.
func (o *Optimistic) run(ctx context.Context, m mutation) *Pending {
	var undos []*querycache.Undo
	for _, tag := range m.tags {
		for _, h := range o.cache.Select(tag) {
			if undo, ok := o.cache.Patch(h, m.patch); ok {
				undos = append(undos, undo)
			}
		}
	}

	p := &Pending{patched: len(undos), done: make(chan struct{})}
	dispatchCtx := context.WithoutCancel(ctx)
	actor := auth.SubjectFromContext(ctx)

	o.logger.Debug("mutation dispatched",
		zap.String("kind", string(m.request.Kind)),
		zap.Int64("row_id", m.request.RowID),
		zap.Int("patched_pages", len(undos)))

	go func() {
		err := o.dispatch(dispatchCtx, m.request)
		p.outcome = o.settle(dispatchCtx, m, undos, err, actor)
		close(p.done)
	}()
	return p
}

func (o *Optimistic) dispatch(ctx context.Context, req client.MutationRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panicked: %v", r)
		}
	}()
	return o.dispatcher.Dispatch(ctx, req)
}

func (o *Optimistic) settle(ctx context.Context, m mutation, undos []*querycache.Undo, err error, actor string) Outcome {
	outcome := Outcome{Status: domain.MutationCommitted}

	if err == nil {
		for _, undo := range undos {
			undo.Commit()
		}
		for _, tag := range m.tags {
			o.cache.Invalidate(tag)
		}
	} else {
		for _, undo := range undos {
			undo.Undo()
		}
		message := m.defaultMessage
		if msg, ok := client.ServerMessage(err); ok {
			message = msg
		}
		outcome.Status = domain.MutationRolledBack
		outcome.Err = err
		outcome.NotificationID = o.notifier.Register(notify.Content{
			Message:  domain.Message{Text: message},
			Severity: domain.SeverityError,
		})
		o.logger.Warn("mutation rolled back",
			zap.String("kind", string(m.request.Kind)),
			zap.Int64("row_id", m.request.RowID),
			zap.Int("patched_pages", len(undos)),
			zap.Error(err))
	}

	o.metrics.RecordMutation(string(m.request.Kind), string(outcome.Status))
	o.publish(ctx, m, len(undos), outcome, actor)
	return outcome
}

func (o *Optimistic) publish(ctx context.Context, m mutation, patched int, outcome Outcome, actor string) {
	if o.events == nil {
		return
	}
	payload := events.MutationSettledPayload{
		Kind:         m.request.Kind,
		RowID:        m.request.RowID,
		Status:       outcome.Status,
		PatchedPages: patched,
		Actor:        actor,
	}
	if m.request.Role != nil {
		roleID := m.request.Role.ID
		payload.RoleID = &roleID
	}
	if outcome.Err != nil {
		payload.Error = outcome.Err.Error()
	}
	_ = o.events.Publish(ctx, events.Event{Type: events.EventMutationSettled, Payload: payload})
}
