package tracing

import (
	"context"
	"testing"
)

func TestNewExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("stdout exporter", func(t *testing.T) {
		exp, err := newExporter(ctx, "stdout")
		if err != nil {
			t.Fatalf("newExporter(stdout) error: %v", err)
		}
		if exp == nil {
			t.Fatal("expected non-nil exporter")
		}
	})

	t.Run("empty defaults to stdout", func(t *testing.T) {
		exp, err := newExporter(ctx, "")
		if err != nil {
			t.Fatalf("newExporter('') error: %v", err)
		}
		if exp == nil {
			t.Fatal("expected non-nil exporter")
		}
	})

	t.Run("unsupported exporter returns error", func(t *testing.T) {
		_, err := newExporter(ctx, "invalid")
		if err == nil {
			t.Fatal("expected error for unsupported exporter")
		}
		if got := err.Error(); got != `unsupported trace exporter: "invalid" (supported: stdout, xrayudp)` {
			t.Errorf("unexpected error message: %s", got)
		}
	})
}

func TestNewResource(t *testing.T) {
	ctx := context.Background()

	res, err := newResource(ctx, "stdout", "my-service")
	if err != nil {
		t.Fatalf("newResource error: %v", err)
	}

	found := false
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "service.name" && attr.Value.AsString() == "my-service" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected service.name attribute in resource")
	}
}

func TestNew_Stdout(t *testing.T) {
	ctx := context.Background()

	tp, prop, err := New(ctx, "stdout", "test-service")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if tp == nil || prop == nil {
		t.Fatal("expected tracer provider and propagator")
	}

	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
}
