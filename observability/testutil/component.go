package testutil

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/observability"
	"github.com/kbukum/attachkit/testutil"
)

// Component installs a recording tracer provider globally and builds
// attachment metrics over a manual reader. Stop restores the previous
// global tracer provider.
type Component struct {
	spans    *tracetest.InMemoryExporter
	tp       *sdktrace.TracerProvider
	previous trace.TracerProvider
	reader   *sdkmetric.ManualReader
	metrics  *observability.Metrics
	started  bool
	mu       sync.RWMutex
}

var _ testutil.TestComponent = (*Component)(nil)

// NewComponent creates a new observability test component.
func NewComponent() *Component {
	return &Component{}
}

func (c *Component) Name() string { return "observability-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("observability test component already started")
	}

	c.spans = tracetest.NewInMemoryExporter()
	c.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(c.spans))
	c.previous = otel.GetTracerProvider()
	otel.SetTracerProvider(c.tp)

	if err := c.newMetrics(); err != nil {
		otel.SetTracerProvider(c.previous)
		return err
	}
	c.started = true
	return nil
}

func (c *Component) newMetrics() error {
	c.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(c.reader))
	m, err := observability.NewMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		return fmt.Errorf("observability test metrics: %w", err)
	}
	c.metrics = m
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	otel.SetTracerProvider(c.previous)
	return c.tp.Shutdown(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset drops recorded spans and starts a fresh set of metrics.
func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return fmt.Errorf("observability test component not started")
	}
	c.spans.Reset()
	return c.newMetrics()
}

// Metrics returns the instruments to hand to the code under test.
func (c *Component) Metrics() *observability.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// Spans returns the finished spans in end order.
func (c *Component) Spans() tracetest.SpanStubs {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spans.GetSpans()
}

// Span returns the first finished span called name.
func (c *Component) Span(name string) (tracetest.SpanStub, bool) {
	for _, s := range c.Spans() {
		if s.Name == name {
			return s, true
		}
	}
	return tracetest.SpanStub{}, false
}

// Attr returns the string value of key on span, or "".
func Attr(span tracetest.SpanStub, key string) string {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

// Counter sums every data point of the int64 counter name. Only points
// carrying all of attrs are counted.
func (c *Component) Counter(name string, attrs ...attribute.KeyValue) int64 {
	c.mu.RLock()
	reader := c.reader
	c.mu.RUnlock()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return 0
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}
