package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// UnmatchedRoute labels requests that hit no registered route.
const UnmatchedRoute = "unmatched"

// RequestRecorder receives one observation per ops request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// RouteNames maps route templates to the names used in span and metric labels.
// A key ending in "/*" matches every template under that prefix.
type RouteNames map[string]string

// Name returns the label for template. Templates without an entry keep their template.
func (n RouteNames) Name(template string) string {
	if template == "" {
		return UnmatchedRoute
	}
	if name, ok := n[template]; ok {
		return name
	}
	for key, name := range n {
		if prefix, ok := strings.CutSuffix(key, "/*"); ok && strings.HasPrefix(template, prefix+"/") {
			return name
		}
	}
	return template
}

// Observability traces and counts ops requests under their route name.
// 为运维请求创建 span 并按路由名称记录指标。
func Observability(tracer trace.Tracer, recorder RequestRecorder, routes RouteNames) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := routes.Name(c.FullPath())

		ctx, span := tracer.Start(c.Request.Context(), "ops "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		recorder.RecordHTTPRequest(c.Request.Method, route, status, time.Since(start))

		span.SetAttributes(
			semconv.HTTPMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPStatusCodeKey.Int(status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
