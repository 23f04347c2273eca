package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/queme-app/queme-client/internal/domain"
)

// FileStore keeps the persisted identity in one JSON file, written via a
// temp file and rename so the state on disk is always whole. The provider
// directory cache is redis-only; the file backend always misses.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadSession(ctx context.Context) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ErrNoSession
	}
	if state.Token == "" || state.User.Role == "" {
		return nil, ErrNoSession
	}
	return &state, nil
}

func (s *FileStore) SaveSession(ctx context.Context, state SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".queme-state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) GetProviders(ctx context.Context) ([]domain.Provider, error) {
	return nil, nil
}

func (s *FileStore) SetProviders(ctx context.Context, providers []domain.Provider) error {
	return nil
}

var _ Store = (*FileStore)(nil)
