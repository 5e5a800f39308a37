package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// Open builds the store selected by cfg.Driver and verifies it is reachable.
func Open(ctx context.Context, cfg *config.StoreConfig, log logger.Logger) (repository.KVStore, error) {
	var (
		store repository.KVStore
		err   error
	)

	switch cfg.Driver {
	case constants.StoreDriverMemory, "":
		log.Warn(ctx, "Using in-memory store; revocations are lost on restart")
		store = NewMemoryStore()
	case constants.StoreDriverRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addresses,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		store = NewRedisStore(rdb, cfg.Redis.Prefix)
	case constants.StoreDriverSQLite, constants.StoreDriverPostgres:
		db, openErr := OpenSQL(cfg.Driver, cfg.SQL.DSN)
		if openErr != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Driver, openErr)
		}
		store, err = NewSQLStore(db)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		log.Error(ctx, "Store ping failed", err, logger.String("driver", cfg.Driver))
		return nil, err
	}

	log.Info(ctx, "Store opened", logger.String("driver", cfg.Driver))
	return store, nil
}
