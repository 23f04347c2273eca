package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/events"
	"github.com/queme-app/queme-client/internal/gateway"
)

// FilterAll is the identity filter.
const FilterAll = "all"

var ErrBookingNotFound = errors.New("booking not found")

// ValidationError lists the offending fields of a rejected create request.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// Gateway is the slice of the remote API the store needs.
type Gateway interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, req gateway.CreateBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

type Notifier interface {
	Push(message string, kind domain.NotificationKind) domain.Notification
}

type Producer interface {
	Publish(ctx context.Context, event events.BookingEvent) error
}

// Store is the client-side cache of the user's bookings and its exclusive
// write surface. The queue poller mutates tracked-booking fields through
// ApplySnapshot; nothing else touches the cache from outside.
type Store struct {
	mu       sync.Mutex
	gw       Gateway
	log      *zap.Logger
	notifier Notifier
	producer Producer
	cache    []domain.Booking
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithProducer(p Producer) Option {
	return func(s *Store) { s.producer = p }
}

func NewStore(gw Gateway, log *zap.Logger, opts ...Option) *Store {
	s := &Store{gw: gw, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the user's bookings and replaces the cache wholesale, so no
// stale entry can survive a reload. On failure the previous cache stands.
func (s *Store) Load(ctx context.Context) error {
	list, err := s.gw.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	s.mu.Lock()
	s.cache = append([]domain.Booking(nil), list...)
	s.mu.Unlock()
	return nil
}

// Create sends the booking request and, once the server confirms, appends
// the returned booking (authoritative id and queue token) to the cache.
// The cache is untouched on any failure.
func (s *Store) Create(ctx context.Context, req gateway.CreateBookingRequest) (*domain.Booking, error) {
	var missing []string
	if req.ProviderID == 0 {
		missing = append(missing, "provider_id")
	}
	if req.ServiceType == "" {
		missing = append(missing, "service_type")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required fields", Fields: missing}
	}

	booking, err := s.gw.CreateBooking(ctx, req)
	if err != nil {
		var apiErr *gateway.APIError
		switch {
		case errors.As(err, &apiErr):
			ve := &ValidationError{Message: apiErr.Message}
			for field := range apiErr.Fields {
				ve.Fields = append(ve.Fields, field)
			}
			sort.Strings(ve.Fields)
			return nil, ve
		case errors.Is(err, gateway.ErrUnauthorized):
			return nil, err
		default:
			s.push("Could not create the booking. Please try again.", domain.NotificationError)
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}

	s.mu.Lock()
	s.cache = append(s.cache, *booking)
	s.mu.Unlock()

	s.push(fmt.Sprintf("Booking confirmed. Your token is %s.", booking.Token), domain.NotificationSuccess)
	s.publish(ctx, events.TypeBookingCreated, *booking)
	return booking, nil
}

// Cancel marks the booking cancelled only after the server confirms; there
// is no optimistic mutation, so there is nothing to roll back on failure.
// Cancelling an already-terminal booking is a no-op.
func (s *Store) Cancel(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrBookingNotFound
	}
	if s.cache[idx].Status.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.gw.CancelBooking(ctx, id); err != nil {
		if !errors.Is(err, gateway.ErrUnauthorized) {
			s.push("Could not cancel the booking. Please try again.", domain.NotificationError)
		}
		return fmt.Errorf("cancel booking %d: %w", id, err)
	}

	s.mu.Lock()
	var cancelled domain.Booking
	if idx := s.indexOf(id); idx >= 0 && !s.cache[idx].Status.Terminal() {
		s.cache[idx].Status = domain.BookingStatusCancelled
		cancelled = s.cache[idx]
	}
	s.mu.Unlock()

	if cancelled.ID != 0 {
		s.push("Booking cancelled.", domain.NotificationInfo)
		s.publish(ctx, events.TypeBookingCancelled, cancelled)
	}
	return nil
}

// Filter returns the cached bookings with the given status, in insertion
// order. FilterAll returns everything.
func (s *Store) Filter(status string) []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0, len(s.cache))
	for _, b := range s.cache {
		if status == FilterAll || string(b.Status) == status {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) Get(id int64) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.cache[idx], true
	}
	return domain.Booking{}, false
}

// ByToken finds the booking bound to a queue token.
func (s *Store) ByToken(token string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.cache {
		if b.Token == token {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// ApplySnapshot is the queue poller's only mutation path: it may update
// position, estimated wait and terminal status of the booking bound to the
// tracked token, and nothing else. A terminal booking is never resurrected.
// Returns the updated booking and whether anything changed.
func (s *Store) ApplySnapshot(token string, snap domain.QueueSnapshot) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cache {
		if s.cache[i].Token != token {
			continue
		}
		b := &s.cache[i]
		if b.Status.Terminal() {
			return *b, false
		}

		changed := false
		if b.Position != snap.Position {
			b.Position = snap.Position
			changed = true
		}
		if wait, ok := parseWaitMinutes(snap.EstimatedWait); ok && wait != b.EstimatedWaitMinutes {
			b.EstimatedWaitMinutes = wait
			changed = true
		}
		if status := domain.BookingStatus(snap.Status); status.Terminal() {
			b.Status = status
			changed = true
		} else if status == domain.BookingStatusActive && b.Status == domain.BookingStatusUpcoming {
			b.Status = status
			changed = true
		}
		return *b, changed
	}
	return domain.Booking{}, false
}

func (s *Store) indexOf(id int64) int {
	for i := range s.cache {
		if s.cache[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) push(message string, kind domain.NotificationKind) {
	if s.notifier != nil {
		s.notifier.Push(message, kind)
	}
}

func (s *Store) publish(ctx context.Context, eventType string, b domain.Booking) {
	if s.producer == nil {
		return
	}
	event := events.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		ProviderID:  b.ProviderID,
		ServiceType: b.ServiceType,
		Status:      string(b.Status),
		QueueToken:  b.Token,
		At:          time.Now(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("type", eventType), zap.Int64("booking_id", b.ID), zap.Error(err))
	}
}

// parseWaitMinutes extracts the leading number from strings like
// "15-20 mins" or "0 mins". The second return is false when the string
// carries no number at all.
func parseWaitMinutes(s string) (int, bool) {
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	return n, seen
}
