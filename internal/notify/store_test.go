package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/events"
)

const settle = time.Second

type closeRecorder struct {
	mu      sync.Mutex
	reasons map[string][]domain.CloseReason
}

func newCloseRecorder() *closeRecorder {
	return &closeRecorder{reasons: make(map[string][]domain.CloseReason)}
}

func (r *closeRecorder) onClose(id string, reason domain.CloseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons[id] = append(r.reasons[id], reason)
}

func (r *closeRecorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons[id])
}

func (r *closeRecorder) reason(id string) domain.CloseReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reasons[id]) == 0 {
		return ""
	}
	return r.reasons[id][0]
}

func text(msg string) domain.Message {
	return domain.Message{Text: msg}
}

func indices(views []View) map[string]int {
	out := make(map[string]int, len(views))
	for _, v := range views {
		out[v.Message.Text] = v.Index
	}
	return out
}

func TestDefaultLifetimeTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(WithClock(clock))
	rec := newCloseRecorder()

	id := store.Register(Content{Message: text("saved"), OnClose: rec.onClose})

	view, ok := store.Get(id)
	require.True(t, ok)
	require.Equal(t, domain.SeverityInfo, view.Severity)
	require.Equal(t, 10*time.Second, view.Lifetime)
	require.True(t, view.Visible)

	clock.Advance(9999 * time.Millisecond)
	_, ok = store.Get(id)
	require.True(t, ok)
	require.Zero(t, rec.count(id))

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return store.Len() == 0 }, settle, time.Millisecond)
	require.Equal(t, 1, rec.count(id))
	require.Equal(t, domain.CloseTimeout, rec.reason(id))

	require.False(t, store.Dismiss(id))
	require.Equal(t, 1, rec.count(id))
}

func TestStackingOrder(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()))

	store.Register(Content{Message: text("M1")})
	m2 := store.Register(Content{Message: text("M2")})
	store.Register(Content{Message: text("M3")})

	views := store.List()
	require.Equal(t, map[string]int{"M3": 0, "M2": 1, "M1": 2}, indices(views))
	require.Equal(t, views[0].CreatedAt, views[2].CreatedAt)
	require.Equal(t, []string{"M3", "M2", "M1"}, []string{views[0].Message.Text, views[1].Message.Text, views[2].Message.Text})

	require.True(t, store.Dismiss(m2))
	require.Equal(t, map[string]int{"M3": 0, "M1": 1}, indices(store.List()))
}

func TestRegisterShiftsExistingByOne(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()))

	var prev map[string]int
	for _, msg := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		store.Register(Content{Message: text(msg)})
		cur := indices(store.List())
		require.Equal(t, 0, cur[msg])
		for name, idx := range prev {
			require.Equal(t, idx+1, cur[name], "entry %s", name)
		}
		prev = cur
	}
}

func TestEntriesBeyondMaxVisibleAreHiddenThenRevealed(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()), WithMaxVisible(2))

	oldest := store.Register(Content{Message: text("one")})
	store.Register(Content{Message: text("two")})
	newest := store.Register(Content{Message: text("three")})

	view, ok := store.Get(oldest)
	require.True(t, ok)
	require.Equal(t, 2, view.Index)
	require.False(t, view.Visible)

	require.True(t, store.Dismiss(newest))
	view, ok = store.Get(oldest)
	require.True(t, ok)
	require.Equal(t, 1, view.Index)
	require.True(t, view.Visible)
}

func TestDismissUnknownIsNoop(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()))
	store.Register(Content{Message: text("keep")})

	require.False(t, store.Dismiss("missing"))
	require.Len(t, store.List(), 1)
}

func TestDismissCancelsTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(WithClock(clock))
	rec := newCloseRecorder()

	id := store.Register(Content{Message: text("bye"), Lifetime: time.Second, OnClose: rec.onClose})
	require.True(t, store.Dismiss(id))
	require.Equal(t, 1, rec.count(id))
	require.Equal(t, domain.CloseDismissed, rec.reason(id))

	clock.Advance(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, 1, rec.count(id))
}

func TestSwipeThreshold(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()), WithSwipeThreshold(80))
	rec := newCloseRecorder()

	id := store.Register(Content{Message: text("swipe me"), OnClose: rec.onClose})

	require.False(t, store.Swipe(id, 40))
	require.Len(t, store.List(), 1)

	require.True(t, store.Swipe(id, -120))
	require.Empty(t, store.List())
	require.Equal(t, domain.CloseSwipe, rec.reason(id))

	require.False(t, store.Swipe(id, 200))
	require.Equal(t, 1, rec.count(id))
}

func TestExitDelayDefersRemoval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(WithClock(clock), WithExitDelay(300*time.Millisecond))
	rec := newCloseRecorder()

	first := store.Register(Content{Message: text("first"), OnClose: rec.onClose})
	store.Register(Content{Message: text("second")})

	require.True(t, store.Dismiss(first))
	require.Equal(t, map[string]int{"second": 0}, indices(store.List()))
	require.Equal(t, 2, store.Len())
	require.Zero(t, rec.count(first))

	require.False(t, store.Dismiss(first))

	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return rec.count(first) == 1 }, settle, time.Millisecond)
	require.Equal(t, 1, store.Len())
}

func TestConcurrentClosePathsFireOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(WithClock(clock), WithSwipeThreshold(1))
	var closes int32

	id := store.Register(Content{
		Message:  text("race"),
		Lifetime: time.Millisecond,
		OnClose:  func(string, domain.CloseReason) { atomic.AddInt32(&closes, 1) },
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				store.Dismiss(id)
			case 1:
				store.Swipe(id, 10)
			default:
				clock.Advance(time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return store.Len() == 0 }, settle, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&closes))
}

func TestSeverityAndStructuredContent(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()))

	id := store.Register(Content{
		Message:  domain.Message{Text: "validation failed", Causes: []string{"email taken", "name too short"}},
		Severity: domain.SeverityError,
	})

	view, ok := store.Get(id)
	require.True(t, ok)
	require.Equal(t, domain.SeverityError, view.Severity)
	require.Equal(t, domain.SeverityError.Style(), view.Style)
	require.Len(t, view.Message.Causes, 2)
}

func TestRemovalPublishesEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	var got []events.NotificationClosedPayload
	dispatcher.Subscribe(events.EventNotificationClosed, func(_ context.Context, e events.Event) error {
		got = append(got, e.Payload.(events.NotificationClosedPayload))
		return nil
	})
	store := NewStore(WithClock(clockwork.NewFakeClock()), WithDispatcher(dispatcher))

	id := store.Register(Content{Message: text("x"), Severity: domain.SeveritySuccess})
	require.True(t, store.Dismiss(id))

	require.Len(t, got, 1)
	require.Equal(t, id, got[0].NotificationID)
	require.Equal(t, domain.CloseDismissed, got[0].Reason)
	require.Equal(t, domain.SeveritySuccess, got[0].Severity)
}

func TestIdentitiesAreDistinct(t *testing.T) {
	store := NewStore(WithClock(clockwork.NewFakeClock()))
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := store.Register(Content{Message: text("same")})
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
	views := store.List()
	for i, v := range views {
		require.Equal(t, i, v.Index)
	}
}
