package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens one server span per ImageGenie API call, named after
// the matched route (for example "HTTP GET /v1/imagegenie/batches/:id"). The
// span is tagged with the request id and, on batch and gallery routes, with the
// batch or image id so it can be joined with the generation.task spans of the
// same batch. An incoming traceparent header is continued.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "imagegenie"
	}
	tracer := otel.Tracer(serviceName + "/http")
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		req := c.Request
		parent := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))
		attrs := []attribute.KeyValue{
			attribute.String("http.method", req.Method),
			attribute.String("http.target", req.URL.Path),
		}
		if id := RequestID(req.Context()); id != "" {
			attrs = append(attrs, attribute.String("imagegenie.request_id", id))
		}
		ctx, span := tracer.Start(parent, spanName(req.Method, req.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()
		c.Request = req.WithContext(ctx)

		c.Next()

		if route := c.FullPath(); route != "" {
			span.SetName(spanName(req.Method, route))
			span.SetAttributes(attribute.String("http.route", route))
			if key := resourceKey(route); key != "" {
				span.SetAttributes(attribute.String(key, c.Param("id")))
			}
		}
		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func spanName(method, path string) string {
	return "HTTP " + method + " " + path
}

// resourceKey names the span attribute carrying the :id of a batch or gallery route.
func resourceKey(route string) string {
	switch {
	case !strings.HasSuffix(route, "/:id"):
		return ""
	case strings.Contains(route, "/batches/"):
		return "imagegenie.batch"
	case strings.Contains(route, "/gallery/"):
		return "imagegenie.image"
	}
	return ""
}
