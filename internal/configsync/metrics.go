package configsync

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var pushFailures metric.Int64Counter = noop.Int64Counter{}

// InitMetrics registers the synchronizer's instruments. Call once at startup
// after observability.InitMetrics.
func InitMetrics() error {
	meter := otel.Meter("configsync")

	var err error

	pushFailures, err = meter.Int64Counter("configsync.push.failures.total",
		metric.WithDescription("Config pushes that failed before a calculation"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return fmt.Errorf("creating push failure counter: %w", err)
	}

	return nil
}
