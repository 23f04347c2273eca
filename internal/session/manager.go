package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/gateway"
	"github.com/queme-app/queme-client/internal/storage"
)

// Gateway is the slice of the remote API the session manager needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResponse, error)
	Register(ctx context.Context, form gateway.RegisterForm) (*gateway.RegisterResponse, error)
	ProviderProfile(ctx context.Context) (*domain.Provider, error)
}

type Notifier interface {
	Push(message string, kind domain.NotificationKind) domain.Notification
}

type FailureCode string

const (
	FailInvalidCredentials FailureCode = "invalid_credentials"
	FailWrongRole          FailureCode = "wrong_role"
	FailValidation         FailureCode = "validation"
	FailNetwork            FailureCode = "network"
	FailStorage            FailureCode = "storage"
)

// Result is the typed outcome of a user-initiated auth action. Expected
// failures come back here, not as errors, so callers branch on Success.
type Result struct {
	Success bool              `json:"success"`
	Code    FailureCode       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	User    *domain.User      `json:"user,omitempty"`
}

func failure(code FailureCode, message string) Result {
	return Result{Code: code, Message: message}
}

// Manager is the single authoritative source of "who is logged in".
// Subscribers are notified on every session change.
type Manager struct {
	mu       sync.Mutex
	store    storage.Store
	gw       Gateway
	log      *zap.Logger
	notifier Notifier
	current  *domain.Session
	subs     []func(*domain.Session)
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func NewManager(store storage.Store, gw Gateway, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{store: store, gw: gw, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns a copy of the active session, or nil when logged out.
func (m *Manager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Token returns the active bearer token, or "". Suitable as a
// gateway.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *Manager) Subscribe(fn func(*domain.Session)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

// Restore loads the persisted identity. No persisted state resolves to a nil
// session, never an error. A provider identity is revalidated against the
// backend because provider entitlements can be rescinded server-side; any
// revalidation failure clears the session completely. Customers are trusted
// as persisted.
func (m *Manager) Restore(ctx context.Context) error {
	state, err := m.store.LoadSession(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNoSession) {
			m.log.Warn("failed to load persisted session", zap.Error(err))
		}
		m.setQuiet(nil)
		return nil
	}

	sess := &domain.Session{Token: state.Token, User: state.User}
	if state.User.Role != domain.RoleProvider {
		m.set(sess)
		return nil
	}

	// Token must be visible to the gateway for the profile call, but
	// subscribers only hear about the session once it is validated.
	m.setQuiet(sess)
	if _, err := m.gw.ProviderProfile(ctx); err != nil {
		m.log.Info("provider revalidation failed, clearing session", zap.Error(err))
		return m.Logout(ctx)
	}
	m.set(sess)
	return nil
}

// Login authenticates and activates a session. The returned role must match
// expectedRole (when non-empty); a mismatch is a distinct failure and the
// session is not activated. State is persisted before activation, token and
// user together.
func (m *Manager) Login(ctx context.Context, email, password string, expectedRole domain.Role) Result {
	resp, err := m.gw.Login(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			return failure(FailInvalidCredentials, "Invalid email or password.")
		default:
			var apiErr *gateway.APIError
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
				return failure(FailInvalidCredentials, apiErr.Message)
			}
			// 5xx is the backend failing, not the credentials.
			m.log.Warn("login request failed", zap.Error(err))
			m.push("Could not reach the server. Please try again.", domain.NotificationError)
			return failure(FailNetwork, "Could not reach the server.")
		}
	}
	if !resp.Success {
		return failure(FailInvalidCredentials, resp.Message)
	}
	if expectedRole != "" && resp.User.Role != expectedRole {
		return failure(FailWrongRole, fmt.Sprintf("This account is registered as a %s.", resp.User.Role))
	}

	state := storage.SessionState{Token: resp.Token, User: resp.User}
	if resp.User.Role == domain.RoleProvider {
		state.ProviderID = resp.User.ID
	}
	if err := m.store.SaveSession(ctx, state); err != nil {
		m.log.Error("failed to persist session", zap.Error(err))
		return failure(FailStorage, "Could not save your session.")
	}

	user := resp.User
	m.set(&domain.Session{Token: resp.Token, User: user})
	m.push("Welcome back, "+user.Name, domain.NotificationSuccess)
	return Result{Success: true, User: &user}
}

// Register creates an account. Per product policy a successful registration
// does not establish a session: the account is pending email verification.
func (m *Manager) Register(ctx context.Context, form gateway.RegisterForm) Result {
	resp, err := m.gw.Register(ctx, form)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			if len(apiErr.Fields) > 0 {
				return Result{Code: FailValidation, Message: apiErr.Message, Fields: apiErr.Fields}
			}
			return failure(FailValidation, apiErr.Message)
		}
		m.log.Warn("register request failed", zap.Error(err))
		m.push("Could not reach the server. Please try again.", domain.NotificationError)
		return failure(FailNetwork, "Could not reach the server.")
	}
	if !resp.Success {
		return failure(FailValidation, resp.Message)
	}
	return Result{Success: true, Message: resp.Message}
}

// Logout clears the persisted and in-memory identity together. Idempotent:
// logging out while logged out does nothing and notifies nobody.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		m.log.Warn("failed to clear persisted session", zap.Error(err))
	}

	m.mu.Lock()
	wasActive := m.current != nil
	m.current = nil
	subs := append(([]func(*domain.Session))(nil), m.subs...)
	m.mu.Unlock()

	if wasActive {
		for _, fn := range subs {
			fn(nil)
		}
	}
	return nil
}

func (m *Manager) set(s *domain.Session) {
	m.mu.Lock()
	m.current = s
	subs := append(([]func(*domain.Session))(nil), m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (m *Manager) setQuiet(s *domain.Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

func (m *Manager) push(message string, kind domain.NotificationKind) {
	if m.notifier != nil {
		m.notifier.Push(message, kind)
	}
}
