package observability

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/partnerpulse/creditscope/pkg/telemetry"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideTelemetryConfig,
	),
	telemetry.Module,
	fx.Invoke(ensureProviders),
)

// ensureProviders forces eager construction so exporters start with the app.
func ensureProviders(_ *sdktrace.TracerProvider, _ *sdkmetric.MeterProvider) {}

func provideTelemetryConfig(cfg Config) telemetry.Config {
	return telemetry.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}
