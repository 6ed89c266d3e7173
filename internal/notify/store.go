// Package notify keeps the stack of transient notifications shown to the operator.
package notify

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/maxq/console/internal/domain"
	"github.com/maxq/console/internal/events"
)

const (
	DefaultLifetime       = 10 * time.Second
	DefaultMaxVisible     = 5
	DefaultSwipeThreshold = 100.0
)

// Content describes a notification to register.
type Content struct {
	Message  domain.Message
	Severity domain.Severity
	// Lifetime of zero or less uses the store default.
	Lifetime time.Duration
	OnClose  func(id string, reason domain.CloseReason)
}

// View is a registered notification as positioned in the stack.
type View struct {
	ID        string          `json:"id"`
	Message   domain.Message  `json:"content"`
	Severity  domain.Severity `json:"severity"`
	Style     domain.Style    `json:"style"`
	Lifetime  time.Duration   `json:"lifetime"`
	Index     int             `json:"index"`
	Visible   bool            `json:"visible"`
	CreatedAt time.Time       `json:"created_at"`
}

type state int

const (
	stateOpen state = iota
	stateClosing
	stateRemoved
)

type entry struct {
	id        string
	content   Content
	lifetime  time.Duration
	state     state
	timer     clockwork.Timer
	createdAt time.Time
}

// Store owns the ordered notification list. Register, Dismiss and Swipe are
// its only mutators.
type Store struct {
	mu      sync.Mutex
	entries []*entry // registration order, oldest first
	byID    map[string]*entry

	clock           clockwork.Clock
	defaultLifetime time.Duration
	maxVisible      int
	exitDelay       time.Duration
	swipeThreshold  float64
	dispatcher      events.Dispatcher
	logger          *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithDefaultLifetime sets the lifetime used when content carries none.
func WithDefaultLifetime(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultLifetime = d
		}
	}
}

// WithMaxVisible sets how many stacked entries are rendered.
func WithMaxVisible(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxVisible = n
		}
	}
}

// WithExitDelay keeps closing entries around for the exit animation.
func WithExitDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.exitDelay = d
		}
	}
}

// WithSwipeThreshold sets the horizontal distance a swipe must cover to dismiss.
func WithSwipeThreshold(px float64) Option {
	return func(s *Store) {
		if px > 0 {
			s.swipeThreshold = px
		}
	}
}

// WithDispatcher publishes a notification_closed event per removal.
func WithDispatcher(d events.Dispatcher) Option {
	return func(s *Store) { s.dispatcher = d }
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore builds an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID:            make(map[string]*entry),
		clock:           clockwork.NewRealClock(),
		defaultLifetime: DefaultLifetime,
		maxVisible:      DefaultMaxVisible,
		swipeThreshold:  DefaultSwipeThreshold,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a notification on top of the stack and arms its timeout.
func (s *Store) Register(content Content) string {
	lifetime := content.Lifetime
	if lifetime <= 0 {
		lifetime = s.defaultLifetime
	}

	s.mu.Lock()
	e := &entry{
		id:        uuid.NewString(),
		content:   content,
		lifetime:  lifetime,
		state:     stateOpen,
		createdAt: s.clock.Now(),
	}
	s.entries = append(s.entries, e)
	s.byID[e.id] = e
	id := e.id
	e.timer = s.clock.AfterFunc(lifetime, func() { s.close(id, domain.CloseTimeout) })
	s.mu.Unlock()

	s.logger.Debug("notification registered",
		zap.String("id", id),
		zap.Stringer("severity", content.Severity),
		zap.Duration("lifetime", lifetime))
	return id
}

// Dismiss closes a notification. Unknown or already closing ids are ignored.
func (s *Store) Dismiss(id string) bool {
	return s.close(id, domain.CloseDismissed)
}

// Swipe closes a notification when the gesture covered the threshold distance
// in either direction. Shorter swipes snap back.
func (s *Store) Swipe(id string, distance float64) bool {
	if math.Abs(distance) < s.swipeThreshold {
		return false
	}
	return s.close(id, domain.CloseSwipe)
}

// List returns the open notifications, newest first.
func (s *Store) List() []View {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]View, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.state != stateOpen {
			continue
		}
		idx := len(views)
		views = append(views, View{
			ID:        e.id,
			Message:   e.content.Message,
			Severity:  e.content.Severity,
			Style:     e.content.Severity.Style(),
			Lifetime:  e.lifetime,
			Index:     idx,
			Visible:   idx < s.maxVisible,
			CreatedAt: e.createdAt,
		})
	}
	return views
}

// Get returns the view of one open notification.
func (s *Store) Get(id string) (View, bool) {
	for _, v := range s.List() {
		if v.ID == id {
			return v, true
		}
	}
	return View{}, false
}

// Len counts tracked entries, including ones still closing.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// close moves an open entry to closing. The state check is the single-fire
// guard; stopping the timer is best effort.
func (s *Store) close(id string, reason domain.CloseReason) bool {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok || e.state != stateOpen {
		s.mu.Unlock()
		return false
	}
	e.state = stateClosing
	timer := e.timer
	s.mu.Unlock()

	if reason != domain.CloseTimeout && timer != nil {
		timer.Stop()
	}

	if s.exitDelay > 0 {
		s.clock.AfterFunc(s.exitDelay, func() { s.remove(e, reason) })
	} else {
		s.remove(e, reason)
	}
	return true
}

func (s *Store) remove(e *entry, reason domain.CloseReason) {
	s.mu.Lock()
	if e.state != stateClosing {
		s.mu.Unlock()
		return
	}
	e.state = stateRemoved
	delete(s.byID, e.id)
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Debug("notification closed", zap.String("id", e.id), zap.String("reason", string(reason)))

	if e.content.OnClose != nil {
		e.content.OnClose(e.id, reason)
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(context.Background(), events.Event{
			Type: events.EventNotificationClosed,
			Payload: events.NotificationClosedPayload{
				NotificationID: e.id,
				Severity:       e.content.Severity,
				Reason:         reason,
			},
		})
	}
}
