package telemetry

import (
	"context"
	"fmt"

	"github.com/oubia/medtriage/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Telemetry encapsulates the meter provider and the prometheus
// registry backing /metrics.
type Telemetry struct {
	mp       *sdkmetric.MeterProvider
	Registry *prometheus.Registry
}

// Setup initializes metrics for the service. OTel instruments are
// exported through a dedicated prometheus registry; when telemetry is
// disabled the global no-op providers stay in place and the registry
// is still usable for /metrics.
func Setup(ctx context.Context, cfg config.TelemetryConfig, serviceName, serviceVersion string) (*Telemetry, error) {
	registry := prometheus.NewRegistry()
	if !cfg.Enabled {
		return &Telemetry{Registry: registry}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			attribute.String("service.namespace", "medtriage"),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("resource init: %w", err)
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("prom exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return &Telemetry{mp: mp, Registry: registry}, nil
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.mp == nil {
		return nil
	}
	return t.mp.Shutdown(ctx)
}
