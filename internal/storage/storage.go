package storage

import (
	"context"
	"errors"

	"github.com/queme-app/queme-client/internal/domain"
)

// ErrNoSession means no persisted identity exists. A half-written or
// unreadable state is reported the same way so the session manager never
// restores a partial identity.
var ErrNoSession = errors.New("no persisted session")

// SessionState is the persisted client identity. Token, user and provider id
// are always written and cleared together.
type SessionState struct {
	Token      string      `json:"token"`
	User       domain.User `json:"user"`
	ProviderID int64       `json:"provider_id,omitempty"`
}

// Store is the local key/value state shared across components. Besides the
// session it caches the public provider directory with a TTL.
type Store interface {
	LoadSession(ctx context.Context) (*SessionState, error)
	SaveSession(ctx context.Context, state SessionState) error
	ClearSession(ctx context.Context) error

	GetProviders(ctx context.Context) ([]domain.Provider, error)
	SetProviders(ctx context.Context, providers []domain.Provider) error
}
