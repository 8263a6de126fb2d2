package tracer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
)

const ServiceName = "parisian-doors"

// Providers owns the installed trace and meter providers.
type Providers struct {
	tracer *trace.TracerProvider
	meter  *metric.MeterProvider
}

// InitTracingAndMetrics installs the global tracer and meter providers, the
// latter backed by the Prometheus exporter, and creates the app instruments.
func InitTracingAndMetrics() (*Providers, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(ServiceName),
	)

	tp := trace.NewTracerProvider(trace.WithResource(res))
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	metrics.InitAppMetrics()
	return &Providers{tracer: tp, meter: mp}, nil
}

// Handler serves the Prometheus scrape endpoint.
func (p *Providers) Handler() http.Handler {
	return promhttp.Handler()
}

func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.tracer.Shutdown(ctx), p.meter.Shutdown(ctx))
}
