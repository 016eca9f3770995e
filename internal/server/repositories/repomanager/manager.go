package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
)

// TxFunc is a unit of work over both token stores. The repositories it
// receives are only valid for the duration of the call.
type TxFunc func(ctx context.Context, access, refresh tokens.Repository) error

// RepositoryManager vends the access and refresh token stores of one backend
// and runs units of work that either apply completely or not at all.
type RepositoryManager interface {
	AccessTokens() tokens.Repository
	RefreshTokens() tokens.Repository
	WithinTx(ctx context.Context, fn TxFunc) error
	RunMigrations(ctx context.Context) error
	Close() error
}
