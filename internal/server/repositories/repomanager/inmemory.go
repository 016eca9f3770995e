package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
)

// InMemoryRepositoryManager keeps both stores in process memory. Units of
// work are serialized and operate on copies that replace the live stores
// only on success.
type InMemoryRepositoryManager struct {
	mu      sync.Mutex
	access  *tokens.InMemoryRepository
	refresh *tokens.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		access:  tokens.NewInMemoryRepository(),
		refresh: tokens.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) AccessTokens() tokens.Repository {
	return m.access
}

func (m *InMemoryRepositoryManager) RefreshTokens() tokens.Repository {
	return m.refresh
}

func (m *InMemoryRepositoryManager) WithinTx(ctx context.Context, fn TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	access := m.access.Clone()
	refresh := m.refresh.Clone()

	if err := fn(ctx, access, refresh); err != nil {
		return err
	}

	m.access.ReplaceWith(access)
	m.refresh.ReplaceWith(refresh)
	return nil
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
