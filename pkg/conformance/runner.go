package conformance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/atomics/internal/logging"
	"github.com/srediag/atomics/pkg/atomics"
)

// Runner executes conformance scenarios against the compiled backend.
// A Runner runs one suite at a time; concurrent Run calls serialize.
type Runner struct {
	cfg       Config
	scenarios []scenario
	pool      *ants.Pool
	metrics   *metrics
	tracer    trace.Tracer
	logger    *logging.Logger
	running   chan struct{}
}

// NewRunner validates cfg and prepares its worker pool and collectors.
func NewRunner(cfg Config) (*Runner, error) {
	if err := VerifyConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("conformance", os.Stderr)
	}
	if cfg.Meter == nil {
		cfg.Meter = metricnoop.NewMeterProvider().Meter("github.com/srediag/atomics/pkg/conformance")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer("github.com/srediag/atomics/pkg/conformance")
	}

	selected := scenarios
	if len(cfg.Scenarios) > 0 {
		selected = make([]scenario, 0, len(cfg.Scenarios))
		for _, name := range cfg.Scenarios {
			s, _ := lookup(name)
			selected = append(selected, s)
		}
	}

	m, err := newMetrics(cfg.Registerer, cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	// Every task of a scenario parks on the start gate, so the pool must
	// hold all of them at once plus the releaser of the lifetime scenario.
	size := max(cfg.Workers, cfg.Racers) + 1
	logger := cfg.Logger
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPreAlloc(false),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Errorf("conformance task panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	r := &Runner{
		cfg:       cfg,
		scenarios: selected,
		pool:      pool,
		metrics:   m,
		tracer:    cfg.Tracer,
		logger:    logger,
		running:   make(chan struct{}, 1),
	}
	r.metrics.setBackend(atomics.Backend().Name)
	return r, nil
}

// Run executes the selected scenarios in order. The returned error is
// non-nil when the context ends before the run completes; scenario failures
// are reported in the Report and joined into the error as ErrScenarioFailed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	select {
	case r.running <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.running }()

	backend := atomics.Backend().Name
	report := &Report{Backend: backend, Workers: r.cfg.Workers}
	e := &env{cfg: r.cfg, pool: r.pool, logger: r.logger}

	var errs []error
	for _, s := range r.scenarios {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.runOne(ctx, e, s, backend)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, res.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, e *env, s scenario, backend string) Result {
	ctx, span := r.tracer.Start(ctx, "conformance."+s.name, trace.WithAttributes(
		attribute.String("atomics.backend", backend),
		attribute.Int("atomics.workers", r.cfg.Workers),
		attribute.Int("atomics.iterations", r.cfg.Iterations),
	))
	defer span.End()

	r.logger.Debugf("scenario %s: start", s.name)
	start := time.Now()
	ops, err := s.run(ctx, e)
	res := Result{Scenario: s.name, Ops: ops, Elapsed: time.Since(start), Err: err}

	span.SetAttributes(attribute.Int64("atomics.ops", int64(ops)))
	switch {
	case canceled(ctx, err):
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warnf("scenario %s: interrupted: %v", s.name, err)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Errorf("scenario %s: %v", s.name, err)
	default:
		span.SetStatus(codes.Ok, "")
		r.logger.Infof("scenario %s: %d ops in %s", s.name, ops, res.Elapsed)
	}
	r.metrics.observe(ctx, res, canceled(ctx, err))
	return res
}

// canceled reports whether err is the end of ctx rather than a broken
// property.
func canceled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// Close releases the worker pool, waiting up to timeout for idle workers
// to exit.
func (r *Runner) Close(timeout time.Duration) error {
	return r.pool.ReleaseTimeout(timeout)
}
