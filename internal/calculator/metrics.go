package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments, no-op until InitMetrics() runs.
var (
	requestsCounter   metric.Int64Counter     = noop.Int64Counter{}
	durationHistogram metric.Float64Histogram = noop.Float64Histogram{}
	errorCounter      metric.Int64Counter     = noop.Int64Counter{}
	changeGauge       metric.Float64Gauge     = noop.Float64Gauge{}
)

// InitMetrics registers custom OTel metric instruments for single
// calculations. Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	requestsCounter, err = meter.Int64Counter("calculator.requests.total",
		metric.WithDescription("Calculation attempts by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("creating requests counter: %w", err)
	}

	durationHistogram, err = meter.Float64Histogram("calculator.request.duration",
		metric.WithDescription("Duration of config push plus calculation in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of failed calculation attempts"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	changeGauge, err = meter.Float64Gauge("calculator.last_change",
		metric.WithDescription("Change amount of the last successful calculation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating change gauge: %w", err)
	}

	return nil
}
