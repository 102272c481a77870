package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	storeRequests   metric.Int64Counter
	storeLatency    metric.Float64Histogram
	staleResponses  metric.Int64Counter
	saves           metric.Int64Counter
	exports         metric.Int64Counter
	deletes         metric.Int64Counter
	invoicesCreated metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

// New configures the invoice instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "invoicedesk"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.storeRequests, "invoicedesk_store_requests_total", "Round trips to the record store."},
		{&m.staleResponses, "invoicedesk_listing_stale_responses_total", "Listing answers dropped as superseded."},
		{&m.saves, "invoicedesk_draft_saves_total", "Draft saves by mode and outcome."},
		{&m.exports, "invoicedesk_exports_total", "Document exports by format and outcome."},
		{&m.deletes, "invoicedesk_deletes_total", "Delete requests by outcome."},
		{&m.invoicesCreated, "invoicedesk_invoices_created_total", "Invoices persisted by the record store."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	latency, err := meter.Float64Histogram("invoicedesk_store_request_duration_seconds",
		metric.WithUnit("s"),
		metric.WithDescription("Record store round trip latency."),
	)
	if err != nil {
		return nil, err
	}
	m.storeLatency = latency
	return m, nil
}

// RecordStoreRequest counts one round trip to the record store.
func (m *Metrics) RecordStoreRequest(ctx context.Context, operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("status_code", strconv.Itoa(status)),
	)...)
	m.storeRequests.Add(ctx, 1, attrs)
	m.storeLatency.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordStaleResponse counts a listing answer dropped for being superseded.
func (m *Metrics) RecordStaleResponse(ctx context.Context) {
	if m == nil {
		return
	}
	m.staleResponses.Add(ctx, 1)
}

func (m *Metrics) RecordSave(ctx context.Context, mode, outcome string) {
	if m == nil {
		return
	}
	m.saves.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	)...))
}

func (m *Metrics) RecordExport(ctx context.Context, format, outcome string) {
	if m == nil {
		return
	}
	m.exports.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("format", format),
		attribute.String("outcome", outcome),
	)...))
}

func (m *Metrics) RecordDelete(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.deletes.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", outcome),
	)...))
}

// RecordInvoiceCreated counts invoices persisted by the record store.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesCreated.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"status_code": {},
	"mode":        {},
	"outcome":     {},
	"format":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
