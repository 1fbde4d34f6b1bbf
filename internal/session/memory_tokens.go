package session

import (
	"context"
	"fmt"
	"sync"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

// MemoryTokenStore keeps persisted tokens in process memory, keyed the same
// way as the MySQL store.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{data: make(map[string]map[string]string)}
}

func (m *MemoryTokenStore) Load(_ context.Context, clientID string) (domain.SessionTokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kv, ok := m.data[clientID]
	if !ok {
		return domain.SessionTokens{}, errors.NewNotFoundError(fmt.Sprintf("no tokens for client %s", clientID))
	}
	return domain.SessionTokens{
		AccessToken:  kv[domain.StorageKeyAccessToken],
		RefreshToken: kv[domain.StorageKeyRefreshToken],
	}, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, clientID string, tokens domain.SessionTokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[clientID] = map[string]string{
		domain.StorageKeyAccessToken:  tokens.AccessToken,
		domain.StorageKeyRefreshToken: tokens.RefreshToken,
	}
	return nil
}

func (m *MemoryTokenStore) Clear(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, clientID)
	return nil
}
