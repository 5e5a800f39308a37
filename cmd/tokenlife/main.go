// Command tokenlife runs the token lifecycle daemon: the scheduled ledger sweep, the revocation
// event consumer and the ops HTTP endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/tokenlife/internal/application"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/infrastructure/monitoring"
	"github.com/turtacn/tokenlife/internal/interfaces/http/handlers"
	"github.com/turtacn/tokenlife/internal/interfaces/http/middleware"
	"github.com/turtacn/tokenlife/internal/interfaces/http/router"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/logger"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	configFile := flag.String("config", "", "path to the config file (default: tokenlife.yaml in /etc/tokenlife or .)")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	if s, ok := appLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), "tokenlife exited with error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, appLogger logger.Logger) error {
	components, err := application.Build(ctx, cfg, appLogger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
		defer cancel()
		if err := components.Close(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "Failed to release resources", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	// Ops HTTP: health, metrics, pprof
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Checker{
		"store": components.Store.Ping,
	}, appLogger)
	opsRouter := router.NewRouter(&cfg.Ops, appLogger, healthHandler, prometheus.DefaultGatherer,
		middleware.Observability(components.Tracing.Tracer(), components.Metrics, router.RouteNames),
	)
	g.Go(func() error {
		return opsRouter.Run(gctx, constants.DefaultShutdownTimeout)
	})

	if cfg.Sweep.Enabled {
		scheduler := application.NewSweepScheduler(components.Service, cfg.Sweep.Interval, appLogger)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	if cfg.Kafka.Enabled {
		consumer := components.NewRevocationConsumer()
		g.Go(func() error {
			defer consumer.Close()
			return consumer.Run(gctx)
		})
	}

	appLogger.Info(ctx, "tokenlife started",
		logger.String("ops_addr", cfg.Ops.Addr),
		logger.Bool("sweep", cfg.Sweep.Enabled),
		logger.Bool("kafka", cfg.Kafka.Enabled),
	)

	err = g.Wait()
	appLogger.Info(context.Background(), "tokenlife stopped")
	return err
}
