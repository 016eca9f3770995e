// Package identity resolves usernames to user records owned by an external
// identity provider. The token service never writes user data.
package identity

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Resolver looks a user up by username. It returns common.ErrorNotFound when
// the provider has no such user. Implementations do not retry or cache.
type Resolver interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}
