package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), TracingMiddleware(""))
	r.GET("/v1/imagegenie/batches/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/imagegenie/gallery/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/v1/imagegenie/batches", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	return r, rec
}

func spanAttrs(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_NamesSpanAfterBatchRoute(t *testing.T) {
	r, rec := newTracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/imagegenie/batches/b-42", nil)
	req.Header.Set("X-Request-Id", "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "HTTP GET /v1/imagegenie/batches/:id" {
		t.Fatalf("span name = %q", span.Name())
	}
	attrs := spanAttrs(span.Attributes())
	if got := attrs["imagegenie.batch"].AsString(); got != "b-42" {
		t.Errorf("imagegenie.batch = %q", got)
	}
	if got := attrs["imagegenie.request_id"].AsString(); got != "req-1" {
		t.Errorf("imagegenie.request_id = %q", got)
	}
	if got := attrs["http.route"].AsString(); got != "/v1/imagegenie/batches/:id" {
		t.Errorf("http.route = %q", got)
	}
	if got := attrs["http.status_code"].AsInt64(); got != http.StatusOK {
		t.Errorf("http.status_code = %d", got)
	}
	if span.Status().Code == codes.Error {
		t.Error("2xx span marked as error")
	}
}

func TestTracingMiddleware_GalleryAndServerErrors(t *testing.T) {
	r, rec := newTracedRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/imagegenie/gallery/img-7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/imagegenie/batches", nil))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	gallery := spanAttrs(spans[0].Attributes())
	if got := gallery["imagegenie.image"].AsString(); got != "img-7" {
		t.Errorf("imagegenie.image = %q", got)
	}
	if _, ok := gallery["imagegenie.batch"]; ok {
		t.Error("gallery span carries a batch id")
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("404 span marked as error")
	}

	if spans[1].Name() != "HTTP POST /v1/imagegenie/batches" {
		t.Fatalf("span name = %q", spans[1].Name())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("503 span status = %v", spans[1].Status().Code)
	}
}

func TestTracingMiddleware_UnmatchedPathKeepsRawName(t *testing.T) {
	r, rec := newTracedRouter(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "HTTP GET /nope" {
		t.Fatalf("unexpected spans %+v", spans)
	}
}
