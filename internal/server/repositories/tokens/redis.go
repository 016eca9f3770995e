package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// minKeyTTL keeps already-expired records addressable for a moment instead of
// handing Redis a non-positive expiry.
const minKeyTTL = time.Second

// RedisRepository stores one JSON record per user under
// "<prefix>:<kind>:<userID>". Keys expire together with the token they hold.
//
// Reads always go to reader. Writes go to writer, which is either the same
// client or a MULTI/EXEC pipeline owned by a unit of work. In the latter case
// every key the repository touches is WATCHed on the unit of work's
// connection first, so a concurrent writer makes the EXEC fail instead of
// being overwritten.
type RedisRepository struct {
	reader    redis.Cmdable
	writer    redis.Cmdable
	watch     func(ctx context.Context, keys ...string) error
	pipelined bool
	prefix    string
	kind      Kind
	now       func() time.Time
}

// NewRedisRepository binds a repository to a Redis client.
func NewRedisRepository(c redis.Cmdable, prefix string, kind Kind) *RedisRepository {
	return &RedisRepository{reader: c, writer: c, prefix: prefix, kind: kind, now: time.Now}
}

// NewRedisTxRepository binds a repository to a WATCH transaction. Reads go
// through tx and writes are queued on pipe, which must come from
// tx.TxPipeline.
func NewRedisTxRepository(tx *redis.Tx, pipe redis.Pipeliner, prefix string, kind Kind) *RedisRepository {
	return &RedisRepository{
		reader:    tx,
		writer:    pipe,
		watch:     func(ctx context.Context, keys ...string) error { return tx.Watch(ctx, keys...).Err() },
		pipelined: true,
		prefix:    prefix,
		kind:      kind,
		now:       time.Now,
	}
}

// Key returns the Redis key holding userID's record.
func (r *RedisRepository) Key(userID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, r.kind, userID)
}

func (r *RedisRepository) FindByUserID(ctx context.Context, userID string) (*models.Token, error) {
	key := r.Key(userID)
	if err := r.watchKey(ctx, key); err != nil {
		return nil, err
	}
	b, err := r.reader.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	t := &models.Token{}
	if err := json.Unmarshal(b, t); err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}
	return t, nil
}

func (r *RedisRepository) Save(ctx context.Context, token *models.Token) error {
	key := r.Key(token.UserID)
	b, err := json.Marshal(token)
	if err != nil {
		return err
	}

	if r.pipelined {
		exists, err := r.exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrorAlreadyExists
		}
		return r.writer.Set(ctx, key, b, r.ttl(token)).Err()
	}

	ok, err := r.writer.SetNX(ctx, key, b, r.ttl(token)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *RedisRepository) Update(ctx context.Context, userID string, token *models.Token) error {
	key := r.Key(userID)
	rec := *token
	rec.UserID = userID
	b, err := json.Marshal(&rec)
	if err != nil {
		return err
	}

	if r.pipelined {
		exists, err := r.exists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return common.ErrorNotFound
		}
		return r.writer.Set(ctx, key, b, r.ttl(&rec)).Err()
	}

	ok, err := r.writer.SetXX(ctx, key, b, r.ttl(&rec)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, userID string) error {
	key := r.Key(userID)
	if err := r.watchKey(ctx, key); err != nil {
		return err
	}
	if err := r.writer.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) watchKey(ctx context.Context, key string) error {
	if r.watch == nil {
		return nil
	}
	if err := r.watch(ctx, key); err != nil {
		return fmt.Errorf("redis watch: %w", err)
	}
	return nil
}

func (r *RedisRepository) exists(ctx context.Context, key string) (bool, error) {
	if err := r.watchKey(ctx, key); err != nil {
		return false, err
	}
	n, err := r.reader.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) ttl(t *models.Token) time.Duration {
	ttl := t.ExpiresAt.Sub(r.now())
	if ttl < minKeyTTL {
		return minKeyTTL
	}
	return ttl
}
