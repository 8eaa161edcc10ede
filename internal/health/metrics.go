package health

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	statusGauge  metric.Int64Gauge   = noop.Int64Gauge{}
	checkCounter metric.Int64Counter = noop.Int64Counter{}
)

func InitMetrics() error {
	meter := otel.Meter("health")

	var err error

	statusGauge, err = meter.Int64Gauge("health.status",
		metric.WithDescription("Last known remote service status (1 healthy, 0 unhealthy)"),
	)
	if err != nil {
		return fmt.Errorf("creating status gauge: %w", err)
	}

	checkCounter, err = meter.Int64Counter("health.checks.total",
		metric.WithDescription("Health polls by result"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return fmt.Errorf("creating check counter: %w", err)
	}

	return nil
}
