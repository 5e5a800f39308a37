package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []observation
}

func (r *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{method, route, status})
}

func TestRouteNames(t *testing.T) {
	names := RouteNames{
		"/healthz":       "healthz",
		"/debug/pprof/*": "pprof",
	}

	assert.Equal(t, "healthz", names.Name("/healthz"))
	assert.Equal(t, "pprof", names.Name("/debug/pprof/"))
	assert.Equal(t, "pprof", names.Name("/debug/pprof/heap"))
	assert.Equal(t, "/debug/pprofx", names.Name("/debug/pprofx"))
	assert.Equal(t, UnmatchedRoute, names.Name(""))
}

func TestObservability(t *testing.T) {
	gin.SetMode(gin.TestMode)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(t.Context()) }()

	recorder := &fakeRecorder{}
	engine := gin.New()
	engine.Use(Observability(tp.Tracer("test"), recorder, RouteNames{"/healthz": "healthz"}))
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/broken", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	for _, path := range []string{"/healthz", "/broken", "/missing"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observation{
		{http.MethodGet, "healthz", http.StatusOK},
		{http.MethodGet, "/broken", http.StatusServiceUnavailable},
		{http.MethodGet, UnmatchedRoute, http.StatusNotFound},
	}, recorder.seen)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "ops healthz", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "ops "+UnmatchedRoute, spans[2].Name)
}
