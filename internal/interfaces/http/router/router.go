// Package router serves the operational HTTP surface: health probes, Prometheus metrics and,
// optionally, pprof. Token operations are not exposed over HTTP.
package router

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/interfaces/http/handlers"
	"github.com/turtacn/tokenlife/internal/interfaces/http/middleware"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// RouteNames labels the ops routes in traces and request metrics.
var RouteNames = middleware.RouteNames{
	"/healthz":       "healthz",
	"/health/live":   "liveness",
	"/health/ready":  "readiness",
	"/metrics":       "metrics",
	"/debug/pprof/*": "pprof",
}

// Router HTTP 路由器
type Router struct {
	engine        *gin.Engine
	config        *config.OpsConfig
	logger        logger.Logger
	healthHandler *handlers.HealthHandler
	gatherer      prometheus.Gatherer
	middleware    []gin.HandlerFunc
	server        *http.Server
	setup         sync.Once
}

// NewRouter 创建路由器
// gatherer backs /metrics; pass prometheus.DefaultGatherer unless metrics live in a custom registry.
func NewRouter(
	cfg *config.OpsConfig,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	gatherer prometheus.Gatherer,
	middleware ...gin.HandlerFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := &Router{
		engine:        gin.New(),
		config:        cfg,
		logger:        log.WithComponent("ops_router"),
		healthHandler: healthHandler,
		gatherer:      gatherer,
		middleware:    middleware,
	}
	r.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r.engine,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	return r
}

// SetupRoutes 设置路由. Safe to call more than once.
func (r *Router) SetupRoutes() {
	r.setup.Do(r.setupRoutes)
}

func (r *Router) setupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(r.middleware...)

	r.engine.GET("/healthz", r.healthHandler.ReadinessCheck)
	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	if r.config.Pprof {
		pprof.Register(r.engine)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start 启动 HTTP 服务器. It blocks until the server stops.
func (r *Router) Start() error {
	r.SetupRoutes()

	r.logger.Info(context.Background(), "Starting ops HTTP server", logger.String("address", r.config.Addr))

	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts the server down within timeout.
func (r *Router) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- r.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := r.Stop(shutdownCtx); err != nil {
		r.logger.Error(shutdownCtx, "Ops server forced to shutdown", err)
		return err
	}
	return <-errCh
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping ops HTTP server...")
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
