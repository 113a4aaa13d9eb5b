package tracing

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"http://collector:4317":  "collector:4317",
		"https://collector:4317/": "collector:4317",
		"collector:4317/":        "collector:4317",
		"  ":                     "",
	}
	for in, want := range tests {
		if got := sanitizeEndpoint(in); got != want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInjectHeaders(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := Tracer().Start(context.Background(), "generation.task")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	if h.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}
	if h.Get("baggage") != "" {
		t.Fatal("baggage must not be injected")
	}
	InjectHeaders(ctx, nil)
}
