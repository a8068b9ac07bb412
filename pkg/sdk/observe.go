package autorovers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statuses recorded per SDK call. A rejected toggle and an insufficient
// comparison are successful calls with a domain outcome, not errors.
const (
	statusOK           = "ok"
	statusRejected     = "rejected"
	statusInsufficient = "insufficient"
	statusError        = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autorovers",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Selection, vehicle type and comparison calls made through the SDK, by operation and status (ok, rejected, insufficient, error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autorovers",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Latency of SDK calls, including catalog fetches for lookup and compare.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients in one process share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("autorovers: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("autorovers: register metric: %w", err)
	}
	return nil
}

// observer logs and counts SDK calls. Both sinks are optional.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// call describes one finished SDK call. owner is empty for calls that are
// not scoped to a session; status is derived from err when empty.
type call struct {
	op     string
	owner  string
	start  time.Time
	status string
	err    error
	attrs  []any
}

func (o *observer) observe(c call) {
	if o == nil {
		return
	}
	dur := time.Since(c.start)
	status := c.status
	switch {
	case c.err != nil:
		status = statusError
	case status == "":
		status = statusOK
	}

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(c.op, status).Inc()
		o.metrics.duration.WithLabelValues(c.op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs := append([]any{"op", c.op, "status", status, "duration", dur}, c.attrs...)
	if c.owner != "" {
		attrs = append(attrs, "owner", c.owner)
	}
	switch status {
	case statusError:
		o.logger.Warn("operation failed", append(attrs, "error", c.err)...)
	case statusRejected, statusInsufficient:
		o.logger.Info("operation completed without effect", attrs...)
	default:
		o.logger.Debug("operation completed", attrs...)
	}
}
