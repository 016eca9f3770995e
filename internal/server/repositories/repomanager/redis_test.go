package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToken(userID, value string) *models.Token {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Token{UserID: userID, Token: value, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
}

func newRedisManager(t *testing.T) (*miniredis.Miniredis, *RedisRepositoryManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := NewRedisRepositoryManager(client, "tk")
	t.Cleanup(func() { _ = m.Close() })
	return mr, m
}

func TestRedisManager_WithinTxCommits(t *testing.T) {
	ctx := context.Background()
	mr, m := newRedisManager(t)

	err := m.WithinTx(ctx, func(ctx context.Context, access, refresh tokens.Repository) error {
		if err := access.Save(ctx, newToken("u1", "a")); err != nil {
			return err
		}
		return refresh.Save(ctx, newToken("u1", "r"))
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("tk:access:u1"))
	assert.True(t, mr.Exists("tk:refresh:u1"))

	got, err := m.RefreshTokens().FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "r", got.Token)
}

func TestRedisManager_WithinTxDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	mr, m := newRedisManager(t)

	boom := errors.New("boom")
	err := m.WithinTx(ctx, func(ctx context.Context, access, refresh tokens.Repository) error {
		if err := access.Save(ctx, newToken("u1", "a")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("tk:access:u1"))
}

func TestRedisManager_WithinTxReadOnly(t *testing.T) {
	ctx := context.Background()
	_, m := newRedisManager(t)

	err := m.WithinTx(ctx, func(ctx context.Context, access, _ tokens.Repository) error {
		_, err := access.FindByUserID(ctx, "u1")
		return err
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisManager_ConcurrentWriterAbortsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	_, m := newRedisManager(t)
	require.NoError(t, m.RefreshTokens().Save(ctx, newToken("u1", "r1")))

	err := m.WithinTx(ctx, func(ctx context.Context, access, refresh tokens.Repository) error {
		if _, err := refresh.FindByUserID(ctx, "u1"); err != nil {
			return err
		}
		// another instance rotates the same user in between
		if err := m.RefreshTokens().Update(ctx, "u1", newToken("u1", "r2")); err != nil {
			return err
		}
		if err := access.Save(ctx, newToken("u1", "a3")); err != nil {
			return err
		}
		return refresh.Update(ctx, "u1", newToken("u1", "r3"))
	})
	assert.ErrorIs(t, err, redis.TxFailedErr)

	got, err := m.RefreshTokens().FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.Token)

	_, err = m.AccessTokens().FindByUserID(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisManager_RunMigrationsPings(t *testing.T) {
	_, m := newRedisManager(t)
	require.NoError(t, m.RunMigrations(context.Background()))
}
