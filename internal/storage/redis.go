package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/queme-app/queme-client/config"
	"github.com/queme-app/queme-client/internal/domain"
)

type RedisStore struct {
	client       *redis.Client
	providersTTL time.Duration
}

func NewRedisStore(cfg config.RedisConfig, providersTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		providersTTL: providersTTL,
	}
}

func (s *RedisStore) LoadSession(ctx context.Context) (*SessionState, error) {
	values, err := s.client.MGet(ctx, tokenKey(), userKey(), providerIDKey()).Result()
	if err != nil {
		return nil, err
	}

	token, ok := values[0].(string)
	if !ok || token == "" {
		return nil, ErrNoSession
	}
	rawUser, ok := values[1].(string)
	if !ok || rawUser == "" {
		return nil, ErrNoSession
	}

	state := SessionState{Token: token}
	if err := json.Unmarshal([]byte(rawUser), &state.User); err != nil {
		return nil, ErrNoSession
	}
	if rawProvider, ok := values[2].(string); ok {
		state.ProviderID, _ = strconv.ParseInt(rawProvider, 10, 64)
	}
	return &state, nil
}

func (s *RedisStore) SaveSession(ctx context.Context, state SessionState) error {
	rawUser, err := json.Marshal(state.User)
	if err != nil {
		return err
	}

	// One transaction so a reload can never observe a token without its user.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(), state.Token, 0)
	pipe.Set(ctx, userKey(), rawUser, 0)
	if state.ProviderID != 0 {
		pipe.Set(ctx, providerIDKey(), strconv.FormatInt(state.ProviderID, 10), 0)
	} else {
		pipe.Del(ctx, providerIDKey())
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ClearSession(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey(), userKey(), providerIDKey()).Err()
}

func (s *RedisStore) GetProviders(ctx context.Context) ([]domain.Provider, error) {
	data, err := s.client.Get(ctx, providersKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var providers []domain.Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *RedisStore) SetProviders(ctx context.Context, providers []domain.Provider) error {
	payload, err := json.Marshal(providers)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, providersKey(), payload, s.providersTTL).Err()
}

func tokenKey() string      { return "session:token" }
func userKey() string       { return "session:user" }
func providerIDKey() string { return "session:provider_id" }
func providersKey() string  { return "cache:providers" }

var _ Store = (*RedisStore)(nil)
