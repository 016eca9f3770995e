package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). The table is chosen by Kind.
type PostgresRepository struct {
	db    dbx.DBTX
	table string
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, kind Kind) *PostgresRepository {
	return &PostgresRepository{db: db, table: kind.Table()}
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*models.Token, error) {
	query := fmt.Sprintf(`
		SELECT user_id, token, issued_at, expires_at
		FROM %s
		WHERE user_id = $1
	`, r.table)

	t := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&t.UserID, &t.Token, &t.IssuedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Save(ctx context.Context, token *models.Token) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, token, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, r.table)

	if _, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, token.IssuedAt, token.ExpiresAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID string, token *models.Token) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET token = $2, issued_at = $3, expires_at = $4
		WHERE user_id = $1
	`, r.table)

	res, err := r.db.ExecContext(ctx, query, userID, token.Token, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1
	`, r.table)

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
