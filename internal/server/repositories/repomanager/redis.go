package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/redis/go-redis/v9"
)

// RedisRepositoryManager vends Redis-backed token repositories. A unit of
// work runs on one WATCH connection: keys are watched as they are read and
// writes are queued in a MULTI/EXEC pipeline that is executed only when the
// work succeeds. If another client changed a watched key meanwhile, nothing
// is applied and WithinTx returns an error wrapping redis.TxFailedErr.
type RedisRepositoryManager struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRepositoryManager(client redis.UniversalClient, prefix string) *RedisRepositoryManager {
	return &RedisRepositoryManager{client: client, prefix: prefix}
}

func (m *RedisRepositoryManager) AccessTokens() tokens.Repository {
	return tokens.NewRedisRepository(m.client, m.prefix, tokens.Access)
}

func (m *RedisRepositoryManager) RefreshTokens() tokens.Repository {
	return tokens.NewRedisRepository(m.client, m.prefix, tokens.Refresh)
}

func (m *RedisRepositoryManager) WithinTx(ctx context.Context, fn TxFunc) error {
	return m.client.Watch(ctx, func(tx *redis.Tx) error {
		pipe := tx.TxPipeline()

		access := tokens.NewRedisTxRepository(tx, pipe, m.prefix, tokens.Access)
		refresh := tokens.NewRedisTxRepository(tx, pipe, m.prefix, tokens.Refresh)

		if err := fn(ctx, access, refresh); err != nil {
			return err
		}
		if pipe.Len() == 0 {
			return nil
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis exec: %w", err)
		}
		return nil
	})
}

// RunMigrations checks connectivity; Redis has no schema.
func (m *RedisRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Close() error {
	return m.client.Close()
}
