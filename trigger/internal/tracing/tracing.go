// Package tracing provides OpenTelemetry initialization for the trigger
// Lambda.
//
// The exporter is selected by name:
//   - "xrayudp": export directly to Lambda's built-in X-Ray daemon (no
//     collector layer needed)
//   - "stdout": print traces to stdout (for local development)
package tracing

import (
	"context"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// New creates a tracer provider and propagator for the given exporter and
// registers them globally. Call Shutdown on the returned provider before the
// function exits to flush pending traces.
func New(ctx context.Context, exporterName, serviceName string) (*sdktrace.TracerProvider, propagation.TextMapPropagator, error) {
	exporter, err := newExporter(ctx, exporterName)
	if err != nil {
		return nil, nil, err
	}
	res, err := newResource(ctx, exporterName, serviceName)
	if err != nil {
		return nil, nil, err
	}

	// Use a synchronous span processor. Lambda may freeze the container
	// between invocations and an unflushed batch would be lost.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
	)
	prop := NewPropagator()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(prop)

	return tp, prop, nil
}

// NewPropagator returns the composite propagator used across the platform:
// W3C trace context and baggage plus the X-Ray header format.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		xray.Propagator{},
	)
}

func newExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "xrayudp":
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Newf("unsupported trace exporter: %q (supported: stdout, xrayudp)", name)
	}
}

func newResource(ctx context.Context, exporterName, serviceName string) (*resource.Resource, error) {
	if exporterName == "xrayudp" {
		// On Lambda the detector supplies function name, version and more.
		res, err := lambda.NewResourceDetector().Detect(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to detect Lambda resource")
		}
		return res, nil
	}

	return resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)), nil
}
