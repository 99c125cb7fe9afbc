package otel

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing service name to fail")
	}
}

func TestInitWithoutExportersIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "graphd"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" authorization = Bearer abc ,broken, =skip,x-tenant=graph")
	if len(got) != 2 {
		t.Fatalf("unexpected headers: %v", got)
	}
	if got["authorization"] != "Bearer abc" || got["x-tenant"] != "graph" {
		t.Fatalf("unexpected headers: %v", got)
	}
}

func TestInitInstallsTracerProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName: "graphd",
		Environment: "test",
		Endpoint:    "127.0.0.1:1",
		Insecure:    true,
		Traces:      true,
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected sdk tracer provider, got %T", otel.GetTracerProvider())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
