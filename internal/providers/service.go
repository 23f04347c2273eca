package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
)

type Gateway interface {
	Providers(ctx context.Context) ([]domain.Provider, error)
	ProviderServices(ctx context.Context, providerID int64) ([]domain.Service, error)
}

type Cache interface {
	GetProviders(ctx context.Context) ([]domain.Provider, error)
	SetProviders(ctx context.Context, providers []domain.Provider) error
}

// Service serves the public provider directory, cache first.
type Service struct {
	gw    Gateway
	cache Cache
	log   *zap.Logger
}

func NewService(gw Gateway, cache Cache, log *zap.Logger) *Service {
	return &Service{gw: gw, cache: cache, log: log}
}

func (s *Service) List(ctx context.Context) ([]domain.Provider, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetProviders(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	providers, err := s.gw.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetProviders(ctx, providers); err != nil {
			s.log.Warn("failed to cache provider directory", zap.Error(err))
		}
	}
	return providers, nil
}

func (s *Service) Services(ctx context.Context, providerID int64) ([]domain.Service, error) {
	services, err := s.gw.ProviderServices(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list services for provider %d: %w", providerID, err)
	}
	return services, nil
}
