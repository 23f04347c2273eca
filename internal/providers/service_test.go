package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Providers(ctx context.Context) ([]domain.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Provider), args.Error(1)
}

func (m *MockGateway) ProviderServices(ctx context.Context, providerID int64) ([]domain.Service, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetProviders(ctx context.Context) ([]domain.Provider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Provider), args.Error(1)
}

func (m *MockCache) SetProviders(ctx context.Context, providers []domain.Provider) error {
	args := m.Called(ctx, providers)
	return args.Error(0)
}

func directory() []domain.Provider {
	return []domain.Provider{
		{ID: 1, BusinessName: "City Bank", BusinessType: "Banking"},
		{ID: 2, BusinessName: "HealthCare Plus", BusinessType: "Healthcare"},
	}
}

func TestService_ListServedFromCache(t *testing.T) {
	gw := &MockGateway{}
	cache := &MockCache{}
	s := NewService(gw, cache, zap.NewNop())

	ctx := context.Background()
	cache.On("GetProviders", ctx).Return(directory(), nil).Once()

	list, err := s.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	gw.AssertNotCalled(t, "Providers")
}

func TestService_ListFallsBackToGatewayOnMiss(t *testing.T) {
	gw := &MockGateway{}
	cache := &MockCache{}
	s := NewService(gw, cache, zap.NewNop())

	ctx := context.Background()
	cache.On("GetProviders", ctx).Return(nil, nil).Once()
	gw.On("Providers", ctx).Return(directory(), nil).Once()
	cache.On("SetProviders", ctx, directory()).Return(nil).Once()

	list, err := s.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	cache.AssertExpectations(t)
}

func TestService_ListGatewayFailure(t *testing.T) {
	gw := &MockGateway{}
	cache := &MockCache{}
	s := NewService(gw, cache, zap.NewNop())

	ctx := context.Background()
	cache.On("GetProviders", ctx).Return(nil, nil).Once()
	gw.On("Providers", ctx).Return(nil, errors.New("connection refused")).Once()

	list, err := s.List(ctx)

	assert.Error(t, err)
	assert.Nil(t, list)
	cache.AssertNotCalled(t, "SetProviders")
}

func TestService_Services(t *testing.T) {
	gw := &MockGateway{}
	s := NewService(gw, nil, zap.NewNop())

	ctx := context.Background()
	gw.On("ProviderServices", ctx, int64(1)).
		Return([]domain.Service{{ID: 11, Name: "Account Opening"}}, nil).Once()

	services, err := s.Services(ctx, 1)

	assert.NoError(t, err)
	assert.Len(t, services, 1)
	assert.Equal(t, "Account Opening", services[0].Name)
}
