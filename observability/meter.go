package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs an OTLP/HTTP meter provider globally. The returned
// provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricUploadTotal       = "attachment.upload.total"
	MetricUploadBytes       = "attachment.upload.bytes"
	MetricOrphanTotal       = "attachment.orphan.total"
	MetricOperationTotal    = "attachment.operation.total"
	MetricOperationDuration = "attachment.operation.duration"
)

// Metrics holds the attachment instruments. A nil *Metrics records nothing.
type Metrics struct {
	uploadTotal       metric.Int64Counter
	uploadBytes       metric.Int64Counter
	orphanTotal       metric.Int64Counter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewMetrics creates the attachment instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	uploadTotal, err := meter.Int64Counter(MetricUploadTotal,
		metric.WithDescription("Attachments stored, by save mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUploadTotal, err)
	}

	uploadBytes, err := meter.Int64Counter(MetricUploadBytes,
		metric.WithDescription("Bytes of attachment content stored, by save mode"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUploadBytes, err)
	}

	orphanTotal, err := meter.Int64Counter(MetricOrphanTotal,
		metric.WithDescription("Stored content left behind after its record was removed or rejected"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricOrphanTotal, err)
	}

	operationTotal, err := meter.Int64Counter(MetricOperationTotal,
		metric.WithDescription("Attachment operations, by operation and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricOperationTotal, err)
	}

	operationDuration, err := meter.Float64Histogram(MetricOperationDuration,
		metric.WithDescription("Duration of attachment operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricOperationDuration, err)
	}

	return &Metrics{
		uploadTotal:       uploadTotal,
		uploadBytes:       uploadBytes,
		orphanTotal:       orphanTotal,
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
	}, nil
}

// RecordUpload counts one stored attachment of size bytes.
func (m *Metrics) RecordUpload(ctx context.Context, saveMode string, size int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrSaveMode, saveMode))
	m.uploadTotal.Add(ctx, 1, attrs)
	m.uploadBytes.Add(ctx, size, attrs)
}

// RecordOrphan counts stored content that could not be removed. operation
// is the attachment operation that left it behind.
func (m *Metrics) RecordOrphan(ctx context.Context, saveMode, operation string) {
	if m == nil {
		return
	}
	m.orphanTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrSaveMode, saveMode),
		attribute.String(AttrOperation, operation),
	))
}

// RecordOperation records a finished attachment operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrStatus, status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperation, operation),
	))
}
