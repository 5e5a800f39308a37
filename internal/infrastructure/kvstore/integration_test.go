//go:build integration

package kvstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
)

func skipWithoutDocker(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}
}

func TestPostgresStore_Integration(t *testing.T) {
	skipWithoutDocker(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("tokenlife"),
		postgres.WithUsername("tokenlife"),
		postgres.WithPassword("tokenlife"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runContract(t, func(t *testing.T) repository.KVStore {
		db, err := OpenSQL(constants.StoreDriverPostgres, dsn)
		require.NoError(t, err)
		store, err := NewSQLStore(db)
		require.NoError(t, err)
		require.NoError(t, db.Exec("DELETE FROM kv_entries").Error)
		store.pageSize = 3
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestRedisStore_Integration(t *testing.T) {
	skipWithoutDocker(t)
	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.Run("redis", "7-alpine", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	addr := resource.GetHostPort("6379/tcp")
	require.NoError(t, pool.Retry(func() error {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		defer client.Close()
		return client.Ping(ctx).Err()
	}))

	runContract(t, func(t *testing.T) repository.KVStore {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		require.NoError(t, client.FlushDB(ctx).Err())
		store := NewRedisStore(client, "it")
		store.pageSize = 3
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
