// Package application assembles the token lifecycle components from configuration and runs the
// background work around them.
// application 包负责根据配置组装组件并运行后台任务。
package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/internal/domain/service"
	"github.com/turtacn/tokenlife/internal/infrastructure/crypto"
	"github.com/turtacn/tokenlife/internal/infrastructure/events"
	"github.com/turtacn/tokenlife/internal/infrastructure/kvstore"
	"github.com/turtacn/tokenlife/internal/infrastructure/ledger"
	"github.com/turtacn/tokenlife/internal/infrastructure/monitoring"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
	"github.com/turtacn/tokenlife/pkg/utils"
)

// Components holds everything built from one Config.
type Components struct {
	Config     *config.Config
	Logger     logger.Logger
	Store      repository.KVStore
	Ledger     *ledger.Ledger
	Keys       *crypto.KeySet
	Codec      *crypto.Codec
	Metrics    *monitoring.Metrics
	Tracing    *monitoring.TracingManager
	Publisher  *events.KafkaPublisher
	Service    *service.TokenService
	InstanceID string
}

// Build wires the store, ledger, keys, codec and token service described by cfg.
// Metrics are registered with reg. The caller owns the result and must Close it.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*Components, error) {
	c := &Components{
		Config:     cfg,
		Logger:     log,
		InstanceID: uuid.NewString(),
	}

	keyCfg, err := ResolveKeyConfig(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.Keys, err = crypto.NewKeySet(keyCfg)
	if err != nil {
		return nil, err
	}

	defaultExpiresIn, err := utils.ParseExpiresIn(cfg.Keys.DefaultExpiresIn)
	if err != nil {
		return nil, errors.Config("keys.default_expires_in is invalid").WithCause(err)
	}

	c.Tracing, err = monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		return nil, errors.Config("failed to initialise tracing").WithCause(err)
	}

	c.Store, err = kvstore.Open(ctx, &cfg.Store, log)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	c.Metrics = monitoring.NewMetrics(reg)
	c.Ledger = ledger.New(c.Store, cfg.Store.Namespace, ledger.WithLogger(log))
	c.Codec = crypto.NewCodec()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(c.Metrics),
		service.WithTracer(c.Tracing.Tracer()),
		service.WithDefaultExpiresIn(defaultExpiresIn),
	}
	if cfg.Kafka.Enabled {
		c.Publisher = events.NewKafkaPublisher(&cfg.Kafka, log)
		opts = append(opts, service.WithPublisher(c.Publisher, c.InstanceID))
	}
	c.Service = service.NewTokenService(c.Ledger, c.Codec, c.Keys, opts...)

	log.Info(ctx, "Token service ready",
		logger.String("store", cfg.Store.Driver),
		logger.String("key_mode", c.Keys.Mode().String()),
		logger.String("algorithm", c.Keys.Algorithm()),
		logger.Bool("publisher", c.Publisher != nil),
		logger.String("instance_id", c.InstanceID),
	)
	return c, nil
}

// NewRevocationConsumer returns a consumer that applies events to this instance's service.
// It consumes in a group of its own, so every instance receives every revocation.
func (c *Components) NewRevocationConsumer() *events.RevocationConsumer {
	return events.NewRevocationConsumer(&c.Config.Kafka, c.InstanceID, c.Service, c.Logger)
}

// RevocationGroupID is the Kafka consumer group this instance reads revocations in.
func (c *Components) RevocationGroupID() string {
	return events.ConsumerGroupID(c.Config.Kafka.GroupID, c.InstanceID)
}

// Close releases the publisher, the store and the tracer provider.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Tracing != nil {
		errs = append(errs, c.Tracing.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}

// ResolveKeyConfig gathers key material: from Vault when enabled, otherwise from cfg.Keys, reading
// the *_file settings from disk when the inline PEM is empty.
func ResolveKeyConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (crypto.KeyConfig, error) {
	if cfg.Vault.Enabled {
		src, err := crypto.NewVaultKeySource(&cfg.Vault, log)
		if err != nil {
			return crypto.KeyConfig{}, err
		}
		keyCfg, err := src.Load(ctx)
		if err != nil {
			return crypto.KeyConfig{}, err
		}
		if keyCfg.Algorithm == "" {
			keyCfg.Algorithm = cfg.Keys.Algorithm
		}
		return keyCfg, nil
	}

	keyCfg := crypto.KeyConfig{
		Secret:     cfg.Keys.Secret,
		PublicKey:  cfg.Keys.PublicKey,
		PrivateKey: cfg.Keys.PrivateKey,
		Algorithm:  cfg.Keys.Algorithm,
	}
	var err error
	if keyCfg.PublicKey == "" && cfg.Keys.PublicKeyFile != "" {
		if keyCfg.PublicKey, err = readKeyFile(cfg.Keys.PublicKeyFile); err != nil {
			return crypto.KeyConfig{}, err
		}
	}
	if keyCfg.PrivateKey == "" && cfg.Keys.PrivateKeyFile != "" {
		if keyCfg.PrivateKey, err = readKeyFile(cfg.Keys.PrivateKeyFile); err != nil {
			return crypto.KeyConfig{}, err
		}
	}
	return keyCfg, nil
}

func readKeyFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Config(fmt.Sprintf("failed to read key file %s", path)).WithCause(err)
	}
	return string(b), nil
}
