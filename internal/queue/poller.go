package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/gateway"
)

// Gateway is the slice of the remote API the poller needs.
type Gateway interface {
	QueueStatus(ctx context.Context, token string) (*domain.QueueSnapshot, error)
}

// BookingSink applies a snapshot to the booking bound to the tracked token.
type BookingSink interface {
	ApplySnapshot(token string, snap domain.QueueSnapshot) (domain.Booking, bool)
}

type Notifier interface {
	Push(message string, kind domain.NotificationKind) domain.Notification
}

type State int

const (
	StateIdle State = iota
	StatePolling
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateTerminal:
		return "terminal"
	default:
		return "idle"
	}
}

// Update is delivered to consumers on every applied snapshot.
type Update struct {
	Token    string               `json:"token"`
	Snapshot domain.QueueSnapshot `json:"snapshot"`
	Terminal bool                 `json:"terminal"`
}

// Poller keeps one queue token's position current on a fixed interval.
// Bind cancels any previous timer before starting a new one, so at most one
// timer is ever active. A failed fetch is logged and retried on the next
// tick; there is no backoff. A terminal snapshot (completed, cancelled, or
// token no longer known) stops polling and is applied to the bound booking
// exactly once.
type Poller struct {
	mu            sync.Mutex
	gw            Gateway
	sink          BookingSink
	notifier      Notifier
	log           *zap.Logger
	interval      time.Duration
	allowIncrease bool

	state       State
	token       string
	minPosition int
	generation  uint64
	cancel      context.CancelFunc
	updates     chan Update
}

type Option func(*Poller)

func WithBookingSink(sink BookingSink) Option {
	return func(p *Poller) { p.sink = sink }
}

func WithNotifier(n Notifier) Option {
	return func(p *Poller) { p.notifier = n }
}

// WithPositionIncreaseAllowed accepts server-reported position increases
// verbatim (queue reprioritisation). Off by default: increases are clamped
// to the lowest position seen so far.
func WithPositionIncreaseAllowed(allow bool) Option {
	return func(p *Poller) { p.allowIncrease = allow }
}

func New(gw Gateway, interval time.Duration, log *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		gw:       gw,
		log:      log,
		interval: interval,
		updates:  make(chan Update, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Updates delivers applied snapshots. Sends are non-blocking; a slow
// consumer misses intermediate ticks, never blocks the poller.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Bind starts polling for token. Rebinding cancels the previous timer
// first; a completion from the old token that arrives afterwards is
// discarded.
func (p *Poller) Bind(token string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.token = token
	p.state = StatePolling
	p.minPosition = -1
	p.mu.Unlock()

	go p.run(ctx, gen, token)
}

// Unbind stops polling and returns to idle. Safe to call in any state.
func (p *Poller) Unbind() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.state = StateIdle
	p.token = ""
	p.mu.Unlock()
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *Poller) run(ctx context.Context, gen uint64, token string) {
	// First fetch is immediate, matching the status screen's behavior.
	if !p.tick(ctx, gen, token) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(ctx, gen, token) {
				return
			}
		}
	}
}

// tick fetches one snapshot and applies it. Returns false when polling for
// this binding should stop.
func (p *Poller) tick(ctx context.Context, gen uint64, token string) bool {
	snap, err := p.gw.QueueStatus(ctx, token)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return false
		case errors.Is(err, gateway.ErrNotFound):
			// The backend no longer knows the token: terminal, not an error.
			p.finish(gen)
			p.log.Info("queue token no longer known, polling stopped", zap.String("token", token))
			return false
		case errors.Is(err, gateway.ErrUnauthorized):
			p.finish(gen)
			return false
		default:
			p.log.Warn("queue status fetch failed, will retry next tick",
				zap.String("token", token), zap.Error(err))
			return true
		}
	}

	p.mu.Lock()
	if gen != p.generation {
		// A completion owned by an unbound or rebound token must not write
		// state.
		p.mu.Unlock()
		return false
	}
	if !p.allowIncrease && p.minPosition >= 0 && snap.Position > p.minPosition {
		snap.Position = p.minPosition
	}
	if p.minPosition < 0 || snap.Position < p.minPosition {
		p.minPosition = snap.Position
	}
	terminal := snap.Terminal()
	if terminal {
		p.state = StateTerminal
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
	p.mu.Unlock()

	if p.sink != nil {
		if booking, changed := p.sink.ApplySnapshot(token, *snap); changed && terminal {
			p.notifyTerminal(booking)
		}
	}

	select {
	case p.updates <- Update{Token: token, Snapshot: *snap, Terminal: terminal}:
	default:
	}
	return !terminal
}

// finish moves this binding to terminal without a snapshot to apply.
func (p *Poller) finish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	p.state = StateTerminal
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) notifyTerminal(b domain.Booking) {
	if p.notifier == nil {
		return
	}
	switch b.Status {
	case domain.BookingStatusCompleted:
		p.notifier.Push(fmt.Sprintf("Your %s appointment is complete.", b.ServiceType), domain.NotificationSuccess)
	case domain.BookingStatusCancelled:
		p.notifier.Push(fmt.Sprintf("Your %s booking was cancelled.", b.ServiceType), domain.NotificationWarning)
	}
}
