package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewPostgresRepositoryManager(db)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db)

	if _, ok := m.AccessTokens().(*tokens.PostgresRepository); !ok {
		t.Fatal("AccessTokens() is not a PostgresRepository")
	}
	if _, ok := m.RefreshTokens().(*tokens.PostgresRepository); !ok {
		t.Fatal("RefreshTokens() is not a PostgresRepository")
	}
}

func TestWithinTx_Commit(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+access_tokens`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+refresh_tokens`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManager(db)
	err := m.WithinTx(context.Background(), func(ctx context.Context, access, refresh tokens.Repository) error {
		if err := access.Delete(ctx, "u1"); err != nil {
			return err
		}
		return refresh.Delete(ctx, "u1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+access_tokens`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+refresh_tokens`).WithArgs("u1").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	m := NewPostgresRepositoryManager(db)
	err := m.WithinTx(context.Background(), func(ctx context.Context, access, refresh tokens.Repository) error {
		if err := access.Delete(ctx, "u1"); err != nil {
			return err
		}
		return refresh.Delete(ctx, "u1")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithinTx_BeginError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	called := false
	m := NewPostgresRepositoryManager(db)
	err := m.WithinTx(context.Background(), func(context.Context, tokens.Repository, tokens.Repository) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected begin error without running fn, got err=%v called=%v", err, called)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPostgresClose(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectClose()

	if err := NewPostgresRepositoryManager(db).Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
