package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type Monitoring interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
}

type openTelemetry struct {
	serviceName    string
	environment    string
	otlpEndpoint   string
	tracerProvider *sdktrace.TracerProvider
}

func NewOpenTelemetry(serviceName, environment, otlpEndpoint string) Monitoring {
	return &openTelemetry{
		serviceName:  serviceName,
		environment:  environment,
		otlpEndpoint: otlpEndpoint,
	}
}

// Start installs the global tracer provider. Export failures are deliberately
// non-fatal so the service keeps running without tracing.
func (m *openTelemetry) Start(ctx context.Context) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(m.otlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		otel.Handle(err)
		return
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(m.serviceName),
		semconv.DeploymentEnvironment(m.environment),
	)

	m.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(m.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func (m *openTelemetry) Stop(ctx context.Context) {
	if m.tracerProvider == nil {
		return
	}

	if err := m.tracerProvider.Shutdown(ctx); err != nil {
		otel.Handle(err)
	}
}
