// Package health polls the remote service's liveness endpoint and exposes
// the last known status.
package health

import (
	"context"
	"time"

	"cash-register-client/internal/observability"
	"cash-register-client/internal/state"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const DefaultInterval = 30 * time.Second

// Checker reports liveness. Failures are reported as false, never as errors.
type Checker interface {
	CheckHealth(ctx context.Context) bool
}

type Monitor struct {
	checker  Checker
	interval time.Duration

	// Status is the last known result, false until the first check.
	Status *state.Cell[bool]
}

// New returns a monitor polling every interval; a non-positive interval
// means DefaultInterval.
func New(checker Checker, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		Status:   state.NewCell(false),
	}
}

func (m *Monitor) Interval() time.Duration {
	return m.interval
}

func (m *Monitor) Healthy() bool {
	return m.Status.Get()
}

// Check polls once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	healthy := m.checker.CheckHealth(ctx)
	previous := m.Status.Get()
	m.Status.Set(healthy)

	result := "unhealthy"
	var value int64
	if healthy {
		result = "healthy"
		value = 1
	}
	statusGauge.Record(ctx, value)
	checkCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))

	if healthy != previous {
		observability.LoggerWithTrace(ctx).Info("remote service status changed",
			zap.Bool("healthy", healthy),
		)
	}
	return healthy
}

// Run checks immediately and then on every tick until ctx is done. No check
// starts once ctx is done, so shutdown never records a false unhealthy.
func (m *Monitor) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			m.Check(ctx)
		}
	}
}
