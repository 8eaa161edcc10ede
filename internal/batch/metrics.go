package batch

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	uploadsCounter metric.Int64Counter   = noop.Int64Counter{}
	rowsHistogram  metric.Int64Histogram = noop.Int64Histogram{}
	errorCounter   metric.Int64Counter   = noop.Int64Counter{}
)

// InitMetrics registers the batch instruments. Call once at startup after
// observability.InitMetrics.
func InitMetrics() error {
	meter := otel.Meter("batch")

	var err error

	uploadsCounter, err = meter.Int64Counter("batch.uploads.total",
		metric.WithDescription("Batch dispatches by source and outcome"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return fmt.Errorf("creating uploads counter: %w", err)
	}

	rowsHistogram, err = meter.Int64Histogram("batch.rows",
		metric.WithDescription("Results returned per successful batch"),
		metric.WithUnit("{row}"),
		metric.WithExplicitBucketBoundaries(1, 10, 100, 1000, 10000),
	)
	if err != nil {
		return fmt.Errorf("creating rows histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("batch.errors.total",
		metric.WithDescription("Total number of failed batch attempts"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	return nil
}
