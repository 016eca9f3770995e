// Package tokens declares the server-side repository contract for the access
// and refresh token stores and provides PostgreSQL, Redis and in-memory
// implementations. Each store holds at most one record per user.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Kind selects which of the two structurally identical stores a repository
// is bound to.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Table is the SQL table backing the store.
func (k Kind) Table() string {
	return string(k) + "_tokens"
}

// Repository is keyed by user identifier and holds the single current token
// record of each user.
type Repository interface {
	// FindByUserID returns the user's record or common.ErrorNotFound.
	FindByUserID(ctx context.Context, userID string) (*models.Token, error)

	// Save inserts a new record. It fails with common.ErrorAlreadyExists if
	// the user already has one.
	Save(ctx context.Context, token *models.Token) error

	// Update replaces the user's record. It fails with common.ErrorNotFound
	// when there is nothing to replace.
	Update(ctx context.Context, userID string, token *models.Token) error

	// Delete removes the user's record. Deleting an absent record is not an
	// error.
	Delete(ctx context.Context, userID string) error
}
