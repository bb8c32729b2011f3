// Package telemetry wires OpenTelemetry tracing and metrics for the order
// system services. Traces ship to an OTLP collector; metrics export both
// to the collector and to the Prometheus registry behind /metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	metricSDK "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	traceSDK "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	shutdownTimeout = 5 * time.Second
	exportInterval  = 30 * time.Second
)

// Config identifies one service to the telemetry backends
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
}

// Telemetry is the tracer and meter handle of a running service
type Telemetry struct {
	tracer trace.Tracer
	meter  metric.Meter
	config Config
}

// InitTelemetry sets the global OpenTelemetry providers for the service
// and returns its telemetry handle together with a shutdown function that
// flushes both pipelines.
func InitTelemetry(ctx context.Context, config Config) (*Telemetry, func(), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tracerProvider, err := newTracerProvider(ctx, res, config.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}

	meterProvider, err := newMeterProvider(ctx, res, config.OTLPEndpoint)
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		tracerProvider.Shutdown(shutdownCtx)
		return nil, nil, err
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	tel := &Telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		tracerProvider.Shutdown(shutdownCtx)
		meterProvider.Shutdown(shutdownCtx)
	}

	return tel, shutdown, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string) (*traceSDK.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	return traceSDK.NewTracerProvider(
		traceSDK.WithBatcher(exporter),
		traceSDK.WithResource(res),
		traceSDK.WithSampler(traceSDK.AlwaysSample()),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, endpoint string) (*metricSDK.MeterProvider, error) {
	// The Prometheus reader feeds the /metrics endpoint each service exposes
	prometheusExporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	otlpExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	return metricSDK.NewMeterProvider(
		metricSDK.WithResource(res),
		metricSDK.WithReader(prometheusExporter),
		metricSDK.WithReader(metricSDK.NewPeriodicReader(otlpExporter,
			metricSDK.WithInterval(exportInterval),
		)),
	), nil
}

// StartSpan starts a span on the service tracer
func (t *Telemetry) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Meter returns the service meter for creating custom instruments
func (t *Telemetry) Meter() metric.Meter {
	return t.meter
}

// ServiceName returns the name the service reports itself under
func (t *Telemetry) ServiceName() string {
	return t.config.ServiceName
}

type contextKey struct{}

// WithTelemetry stores the service handle in the context so request
// scoped code can start spans without threading the handle through every
// layer
func WithTelemetry(ctx context.Context, tel *Telemetry) context.Context {
	return context.WithValue(ctx, contextKey{}, tel)
}

// FromContext returns the handle stored by WithTelemetry, or nil
func FromContext(ctx context.Context) *Telemetry {
	tel, _ := ctx.Value(contextKey{}).(*Telemetry)
	return tel
}

// StartSpan starts a span on the telemetry handle carried by the context,
// falling back to the global tracer outside an instrumented request
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tel := FromContext(ctx); tel != nil {
		return tel.StartSpan(ctx, name, opts...)
	}
	return otel.Tracer("order-system").Start(ctx, name, opts...)
}
