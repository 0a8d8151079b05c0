package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"cellpeak/internal/config"
)

const (
	ServiceName = "cellpeak"
	MeterName   = "cellpeak"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	// MetricsHandler serves the Prometheus registry. It is nil when metrics
	// are disabled.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics according to cfg and installs
// the providers globally.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)

	providers := &OTelProviders{
		Meter:  noop.NewMeterProvider().Meter(MeterName),
		Logger: logger.With(slog.String("component", "telemetry")),
	}

	if cfg.EnableTracing && cfg.TraceExporter != "none" {
		if err := providers.initTracing(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if cfg.EnableMetrics && cfg.MetricExporter != "none" {
		if err := providers.initMetrics(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	providers.Logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil),
		slog.String("environment", cfg.Environment))
	return providers, nil
}

func (p *OTelProviders) initTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) error {
	if cfg.TraceExporter != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	p.TracerProvider = tp
	otel.SetTracerProvider(tp)

	p.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func (p *OTelProviders) initMetrics(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) error {
	if cfg.MetricExporter != "prometheus" {
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	p.MeterProvider = mp
	p.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	p.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	otel.SetMeterProvider(mp)

	p.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", cfg.MetricExporter))
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// AnalysisMetrics holds the application metrics
type AnalysisMetrics struct {
	InputsProcessed     metric.Int64Counter
	InputDuration       metric.Float64Histogram
	CellsProcessed      metric.Int64Counter
	ActiveCells         metric.Int64Counter
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewAnalysisMetrics creates the application instruments on meter. A nil
// meter yields no-op instruments.
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	inputsProcessed, err := meter.Int64Counter(
		"inputs_processed_total",
		metric.WithDescription("Total number of recordings processed, by status"),
	)
	if err != nil {
		return nil, err
	}

	inputDuration, err := meter.Float64Histogram(
		"input_processing_duration_seconds",
		metric.WithDescription("Time to condition, analyze and export one recording"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cellsProcessed, err := meter.Int64Counter(
		"cells_processed_total",
		metric.WithDescription("Total number of cells analyzed"),
	)
	if err != nil {
		return nil, err
	}

	activeCells, err := meter.Int64Counter(
		"active_cells_total",
		metric.WithDescription("Total number of cells with at least one peak"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		InputsProcessed:     inputsProcessed,
		InputDuration:       inputDuration,
		CellsProcessed:      cellsProcessed,
		ActiveCells:         activeCells,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
	}, nil
}

// RecordInput records the outcome of processing one recording
func (m *AnalysisMetrics) RecordInput(ctx context.Context, source string, duration time.Duration, cells, active int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	m.InputsProcessed.Add(ctx, 1, attrs)
	m.InputDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.CellsProcessed.Add(ctx, int64(cells), metric.WithAttributes(attribute.String("source", source)))
		m.ActiveCells.Add(ctx, int64(active), metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordHTTPRequest records one served request
func (m *AnalysisMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// instanceID identifies this process in exported telemetry
func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}
