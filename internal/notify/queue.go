package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
)

// DefaultDisplayDuration matches the product's toast timing.
const DefaultDisplayDuration = 3 * time.Second

// Subscriber receives the currently visible notification, or nil when it
// expired or was dismissed.
type Subscriber func(*domain.Notification)

// Queue holds at most one visible notification. A new push replaces the
// current one rather than stacking; under rapid-fire events only the latest
// survives. Expiry is a local timer, independent of any network activity.
type Queue struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *domain.Notification
	timer   *time.Timer
	subs    []Subscriber
	log     *zap.Logger
}

func New(ttl time.Duration, log *zap.Logger) *Queue {
	if ttl <= 0 {
		ttl = DefaultDisplayDuration
	}
	return &Queue{ttl: ttl, log: log}
}

func (q *Queue) Subscribe(fn Subscriber) {
	q.mu.Lock()
	q.subs = append(q.subs, fn)
	q.mu.Unlock()
}

func (q *Queue) Push(message string, kind domain.NotificationKind) domain.Notification {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		ExpiresAt: time.Now().Add(q.ttl),
	}
	q.current = &n
	id := n.ID
	q.timer = time.AfterFunc(q.ttl, func() { q.clear(id) })
	subs := append([]Subscriber(nil), q.subs...)
	q.mu.Unlock()

	q.log.Debug("notification pushed", zap.String("kind", string(kind)), zap.String("message", message))
	for _, fn := range subs {
		fn(&n)
	}
	return n
}

// Dismiss hides the notification before its timer fires. Returns false when
// id is no longer the visible notification.
func (q *Queue) Dismiss(id string) bool {
	return q.clear(id)
}

func (q *Queue) Current() *domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return nil
	}
	n := *q.current
	return &n
}

// Close cancels any armed expiry timer. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.current = nil
	q.mu.Unlock()
}

func (q *Queue) clear(id string) bool {
	q.mu.Lock()
	if q.current == nil || q.current.ID != id {
		q.mu.Unlock()
		return false
	}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.current = nil
	subs := append([]Subscriber(nil), q.subs...)
	q.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return true
}
