package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/waiverintel/internal/domain/cooldown"
	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

const (
	backendName = "redis"
	minTTL      = time.Millisecond
)

// RedisStore implements cooldown.Store on Redis. Compare-and-set uses
// WATCH/MULTI so a concurrent writer aborts the transaction. Keys carry a
// TTL matching the entry expiry, so Redis purges expired entries itself.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
	log    logger.Logger
}

var _ cooldown.Store = (*RedisStore)(nil)

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, addr, err)
	}
	return rdb, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

func (s *RedisStore) key(hash string) string {
	return s.prefix + ":" + hash
}

// Get implements cooldown.Store.
func (s *RedisStore) Get(ctx context.Context, hash string) (cooldown.Entry, bool, error) {
	start := time.Now()
	defer observe("get", start)

	e, ok, err := read(ctx, s.rdb, s.key(hash))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "get")
		return cooldown.Entry{}, false, err
	}
	return e, ok, nil
}

// CompareAndSet implements cooldown.Store.
func (s *RedisStore) CompareAndSet(ctx context.Context, hash string, expected uint64, next cooldown.Entry) (bool, error) {
	if next.Version == 0 {
		return false, cooldown.ErrInvalidEntry
	}
	start := time.Now()
	defer observe("cas", start)

	data, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}
	k := s.key(hash)
	conflict := false

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, ok, err := read(ctx, tx, k)
		if err != nil {
			return err
		}
		if (!ok && expected != 0) || (ok && cur.Version != expected) {
			conflict = true
			return nil
		}
		ttl := next.ExpiresAt.Sub(s.now())
		if ttl < minTTL {
			ttl = minTTL
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, data, ttl)
			return nil
		})
		return err
	}, k)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		s.log.Debug(ctx, "redis transaction aborted", logger.String("key", k))
		return false, nil
	case err != nil:
		metrics.RecordErrorByComponent("repository", "cas")
		return false, fmt.Errorf("%w: cas %s: %w", ErrUnavailable, k, err)
	}
	return !conflict, nil
}

// Purge implements cooldown.Store. Expiry is delegated to key TTLs.
func (s *RedisStore) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func read(ctx context.Context, c getter, k string) (cooldown.Entry, bool, error) {
	raw, err := c.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return cooldown.Entry{}, false, nil
	}
	if err != nil {
		return cooldown.Entry{}, false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, k, err)
	}
	var e cooldown.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return cooldown.Entry{}, false, fmt.Errorf("%w: %s: %w", ErrCorruptEntry, k, err)
	}
	return e, true, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(backendName, op, float64(time.Since(start).Microseconds())/1000)
}
