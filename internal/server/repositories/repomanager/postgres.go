// Package repomanager provides RepositoryManager implementations for
// PostgreSQL, Redis and process memory, wiring token repositories together
// with a unit of work and, for PostgreSQL, database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed token repositories and
// runs units of work in SQL transactions.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// AccessTokens returns the access token store bound to the connection pool.
func (m *PostgresRepositoryManager) AccessTokens() tokens.Repository {
	return tokens.NewPostgresRepository(m.db, tokens.Access)
}

// RefreshTokens returns the refresh token store bound to the connection pool.
func (m *PostgresRepositoryManager) RefreshTokens() tokens.Repository {
	return tokens.NewPostgresRepository(m.db, tokens.Refresh)
}

// WithinTx runs fn with both stores bound to one transaction.
func (m *PostgresRepositoryManager) WithinTx(ctx context.Context, fn TxFunc) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, tokens.NewPostgresRepository(tx, tokens.Access), tokens.NewPostgresRepository(tx, tokens.Refresh))
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// Close closes the connection pool.
func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
