package conformance

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "atomics"

type metrics struct {
	runs     *prometheus.CounterVec
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	backend  *prometheus.GaugeVec

	otelOps  metric.Int64Counter
	otelRuns metric.Int64Counter
}

func newMetrics(reg prometheus.Registerer, meter metric.Meter) (*metrics, error) {
	m := &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conformance",
			Name:      "scenario_runs_total",
			Help:      "Conformance scenario runs by result.",
		}, []string{"scenario", "result"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conformance",
			Name:      "operations_total",
			Help:      "Atomic operations performed by conformance scenarios.",
		}, []string{"scenario"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conformance",
			Name:      "scenario_duration_seconds",
			Help:      "Wall time of conformance scenarios.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"scenario"}),
		backend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_info",
			Help:      "Atomic backend compiled into the binary.",
		}, []string{"backend"}),
	}
	if reg != nil {
		var err error
		m.runs, err = register(reg, m.runs)
		if err != nil {
			return nil, err
		}
		if m.ops, err = register(reg, m.ops); err != nil {
			return nil, err
		}
		if m.duration, err = register(reg, m.duration); err != nil {
			return nil, err
		}
		if m.backend, err = register(reg, m.backend); err != nil {
			return nil, err
		}
	}

	var err error
	m.otelOps, err = meter.Int64Counter("atomics.conformance.operations",
		metric.WithDescription("Atomic operations performed by conformance scenarios."))
	if err != nil {
		return nil, err
	}
	m.otelRuns, err = meter.Int64Counter("atomics.conformance.runs",
		metric.WithDescription("Conformance scenario runs by result."))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor so several runners can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records a finished scenario. Runs cut short by their context are
// labelled "canceled" so they do not count as failures.
func (m *metrics) observe(ctx context.Context, r Result, canceled bool) {
	result := "pass"
	switch {
	case canceled:
		result = "canceled"
	case r.Err != nil:
		result = "fail"
	}
	m.runs.WithLabelValues(r.Scenario, result).Inc()
	m.ops.WithLabelValues(r.Scenario).Add(float64(r.Ops))
	m.duration.WithLabelValues(r.Scenario).Observe(r.Elapsed.Seconds())

	attrs := metric.WithAttributes(attribute.String("scenario", r.Scenario), attribute.String("result", result))
	m.otelRuns.Add(ctx, 1, attrs)
	m.otelOps.Add(ctx, int64(r.Ops), metric.WithAttributes(attribute.String("scenario", r.Scenario)))
}

func (m *metrics) setBackend(name string) {
	m.backend.Reset()
	m.backend.WithLabelValues(name).Set(1)
}
