package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/logger"
)

type storeFactory func(t *testing.T) repository.KVStore

func newRedisTestStore(t *testing.T) repository.KVStore {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRedisStore(client, "test")
	store.pageSize = 3
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newSQLiteTestStore(t *testing.T) repository.KVStore {
	db, err := OpenSQL(constants.StoreDriverSQLite, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	store, err := NewSQLStore(db)
	require.NoError(t, err)
	store.pageSize = 3
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) repository.KVStore { return NewMemoryStore() },
		"redis":  newRedisTestStore,
		"sqlite": newSQLiteTestStore,
	}
}

func collect(t *testing.T, s repository.KVStore, prefix string) []string {
	t.Helper()
	var keys []string
	err := s.Scan(context.Background(), []byte(prefix), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	return keys
}

func TestKVStore_Contract(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			runContract(t, newStore)
		})
	}
}

// runContract checks the behaviour every KVStore must share. newStore must return an empty store.
func runContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, []byte("absent"))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("put get overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, []byte("k"), []byte("v1")))
		require.NoError(t, s.Put(ctx, []byte("k"), []byte("v2")))

		v, err := s.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), v)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, []byte("k"), []byte("v")))
		require.NoError(t, s.Delete(ctx, []byte("k")))
		require.NoError(t, s.Delete(ctx, []byte("k")))

		_, err := s.Get(ctx, []byte("k"))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("scan is ordered and prefix scoped", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"b:2", "a:9", "b:1", "b:10", "c:1", "b:0", "b:3"} {
			require.NoError(t, s.Put(ctx, []byte(k), []byte(k)))
		}

		assert.Equal(t, []string{"b:0", "b:1", "b:10", "b:2", "b:3"}, collect(t, s, "b:"))
		assert.Len(t, collect(t, s, ""), 7)
		assert.Empty(t, collect(t, s, "z:"))
	})

	t.Run("scan tolerates deleting the current key", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 10; i++ {
			k := fmt.Sprintf("n:%02d", i)
			require.NoError(t, s.Put(ctx, []byte(k), []byte(k)))
		}

		visited := 0
		err := s.Scan(ctx, []byte("n:"), func(k, v []byte) error {
			visited++
			assert.Equal(t, k, v)
			return s.Delete(ctx, k)
		})
		require.NoError(t, err)
		assert.Equal(t, 10, visited)
		assert.Empty(t, collect(t, s, "n:"))
	})

	t.Run("scan stops early", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"x:1", "x:2", "x:3"} {
			require.NoError(t, s.Put(ctx, []byte(k), []byte(k)))
		}

		visited := 0
		err := s.Scan(ctx, []byte("x:"), func(k, v []byte) error {
			visited++
			return repository.ErrStopScan
		})
		require.NoError(t, err)
		assert.Equal(t, 1, visited)
	})

	t.Run("scan propagates callback errors", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, []byte("e:1"), []byte("v")))

		boom := errors.New("boom")
		err := s.Scan(ctx, []byte("e:"), func(k, v []byte) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestPrefixEnd(t *testing.T) {
	assert.Nil(t, prefixEnd(nil))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
	assert.Equal(t, []byte("ab;"), prefixEnd([]byte("ab:")))
	assert.Equal(t, []byte{'a', 0x01}, prefixEnd([]byte{'a', 0x00, 0xff}))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoopLogger()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, &config.StoreConfig{Driver: constants.StoreDriverMemory}, log)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		s, err := Open(ctx, &config.StoreConfig{
			Driver: constants.StoreDriverRedis,
			Redis:  config.RedisConfig{Addresses: []string{mr.Addr()}, Prefix: "t"},
		}, log)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &RedisStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, &config.StoreConfig{
			Driver: constants.StoreDriverSQLite,
			SQL:    config.SQLConfig{DSN: filepath.Join(t.TempDir(), "open.db")},
		}, log)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLStore{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, &config.StoreConfig{Driver: "leveldb"}, log)
		assert.Error(t, err)
	})
}
