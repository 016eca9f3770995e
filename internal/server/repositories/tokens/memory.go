package tokens

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// InMemoryRepository is the reference Repository implementation. It keeps
// records in a map guarded by a RWMutex and is safe for concurrent use.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.Token
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]models.Token)}
}

func (r *InMemoryRepository) FindByUserID(_ context.Context, userID string) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *InMemoryRepository) Save(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[token.UserID]; ok {
		return common.ErrorAlreadyExists
	}
	r.records[token.UserID] = *token
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, userID string, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[userID]; !ok {
		return common.ErrorNotFound
	}
	rec := *token
	rec.UserID = userID
	r.records[userID] = rec
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, userID)
	return nil
}

// Len reports the number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Clone returns an independent copy of the repository.
func (r *InMemoryRepository) Clone() *InMemoryRepository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &InMemoryRepository{records: maps.Clone(r.records)}
}

// ReplaceWith overwrites r's contents with other's.
func (r *InMemoryRepository) ReplaceWith(other *InMemoryRepository) {
	snapshot := other.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = snapshot.records
}
