package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
)

// RedisStore implements repository.KVStore on Redis.
//
// Values live in a hash (<prefix>:data) and every key is mirrored as a member of a sorted set
// (<prefix>:index) with score 0, so ZRANGEBYLEX yields keys in byte order. Both structures are
// written in one MULTI/EXEC transaction.
type RedisStore struct {
	rdb      redis.UniversalClient
	dataKey  string
	indexKey string
	pageSize int64
}

var _ repository.KVStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. prefix namespaces the two backing Redis keys.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = constants.ServiceName
	}
	return &RedisStore{
		rdb:      rdb,
		dataKey:  prefix + ":data",
		indexKey: prefix + ":index",
		pageSize: constants.DefaultScanPageSize,
	}
}

func (s *RedisStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := s.rdb.HGet(ctx, s.dataKey, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey, string(key), value)
		pipe.ZAdd(ctx, s.indexKey, redis.Z{Score: 0, Member: string(key)})
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.dataKey, string(key))
		pipe.ZRem(ctx, s.indexKey, string(key))
		return nil
	})
	return err
}

// Scan pages through the index with keyset pagination: each page starts strictly after the
// last key seen, so deletes made by fn never shift later pages.
func (s *RedisStore) Scan(ctx context.Context, prefix []byte, fn repository.ScanFunc) error {
	min := "[" + string(prefix)
	max := "+"
	if end := prefixEnd(prefix); end != nil {
		max = "(" + string(end)
	}

	for {
		keys, err := s.rdb.ZRangeByLex(ctx, s.indexKey, &redis.ZRangeBy{
			Min:   min,
			Max:   max,
			Count: s.pageSize,
		}).Result()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}

		vals, err := s.rdb.HMGet(ctx, s.dataKey, keys...).Result()
		if err != nil {
			return err
		}
		for i, k := range keys {
			v, ok := vals[i].(string)
			if !ok {
				// index entry without data: removed between the two reads
				continue
			}
			if err := fn([]byte(k), []byte(v)); err != nil {
				if err == repository.ErrStopScan {
					return nil
				}
				return err
			}
		}

		if int64(len(keys)) < s.pageSize {
			return nil
		}
		min = "(" + keys[len(keys)-1]
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// prefixEnd returns the smallest key greater than every key with the given prefix,
// or nil when no such bound exists (empty prefix or all 0xff bytes).
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
