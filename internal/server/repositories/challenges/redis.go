package challenges

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix = "jengacalc:challenge:"
	requestsKeyPrefix  = "jengacalc:code-requests:"
)

// incrementAttempts bumps the counter only when the hash still exists.
var incrementAttempts = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// deleteIfCurrent removes the hash only when it still holds ARGV[1] as its
// code digest.
var deleteIfCurrent = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'code_hash') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// allowRequest implements a rolling window over a sorted set scored by
// unix milliseconds. ARGV: now, cutoff, limit, member, window.
var allowRequest = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisRepository shares challenges and request history between server
// instances. Expiry is delegated to Redis key TTLs, so Sweep is a no-op.
type RedisRepository struct {
	client redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func challengeKey(email string) string { return challengeKeyPrefix + email }
func requestsKey(email string) string  { return requestsKeyPrefix + email }

func (r *RedisRepository) Get(ctx context.Context, email string) (*models.Challenge, error) {
	fields, err := r.client.HGetAll(ctx, challengeKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: bad created_at: %w", err)
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("redis error: bad attempts: %w", err)
	}

	return &models.Challenge{
		Email:     email,
		CodeHash:  []byte(fields["code_hash"]),
		Salt:      []byte(fields["salt"]),
		CreatedAt: time.Unix(0, created).UTC(),
		Attempts:  attempts,
	}, nil
}

func (r *RedisRepository) Put(ctx context.Context, c *models.Challenge, retain time.Duration) error {
	key := challengeKey(c.Email)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code_hash", c.CodeHash,
			"salt", c.Salt,
			"created_at", c.CreatedAt.UnixNano(),
			"attempts", c.Attempts,
		)
		pipe.PExpire(ctx, key, retain)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, email string, codeHash []byte) (bool, error) {
	n, err := deleteIfCurrent.Run(ctx, r.client, []string{challengeKey(email)}, codeHash).Int()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementAttempts.Run(ctx, r.client, []string{challengeKey(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	if n < 0 {
		return 0, common.ErrorNotFound
	}
	return n, nil
}

func (r *RedisRepository) AllowRequest(ctx context.Context, email string, now time.Time, window time.Duration, limit int) (bool, error) {
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	n, err := allowRequest.Run(ctx, r.client, []string{requestsKey(email)},
		now.UnixMilli(), now.Add(-window).UnixMilli(), limit, member, window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) Sweep(context.Context, time.Time) error {
	return nil
}

// Ping checks connectivity.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Join(common.ErrStorageFailure, err)
	}
	return nil
}
