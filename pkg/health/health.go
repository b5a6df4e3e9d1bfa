// Package health exposes liveness and readiness endpoints for a process
// that depends on the compiled atomic backend. Readiness means the
// conformance suite passed recently.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/atomics/internal/logging"
	"github.com/srediag/atomics/pkg/conformance"
)

const (
	defaultTTL           = time.Minute
	defaultTimeout       = 30 * time.Second
	defaultMaxGoroutines = 10000
	defaultNamespace     = "atomics"

	conformanceCheck = "conformance"
	goroutineCheck   = "goroutine-threshold"
)

// ErrInvalidConfig is returned by VerifyConfig and NewHandler for a config
// that cannot be served.
var ErrInvalidConfig = errors.New("health: invalid config")

// Config configures the health handler.
type Config struct {
	// Conformance configures the suite behind the readiness check. Its
	// Registerer is replaced by the one below.
	Conformance conformance.Config
	// TTL is how long a conformance result stays valid.
	TTL time.Duration
	// Timeout bounds one readiness evaluation.
	Timeout time.Duration
	// MaxGoroutines fails liveness above this many goroutines.
	MaxGoroutines int
	// Registerer receives the check and conformance metrics. Nil keeps the
	// handler free of metrics.
	Registerer prometheus.Registerer
	Namespace  string
	Logger     *logging.Logger
}

// DefaultConfig returns a one-minute TTL over the default conformance config.
func DefaultConfig() Config {
	return Config{
		Conformance:   conformance.DefaultConfig(),
		TTL:           defaultTTL,
		Timeout:       defaultTimeout,
		MaxGoroutines: defaultMaxGoroutines,
		Namespace:     defaultNamespace,
	}
}

// VerifyConfig reports whether cfg can be served.
func VerifyConfig(cfg Config) error {
	if cfg.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidConfig, cfg.TTL)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, cfg.Timeout)
	}
	if cfg.MaxGoroutines < 1 {
		return fmt.Errorf("%w: max goroutines must be positive, got %d", ErrInvalidConfig, cfg.MaxGoroutines)
	}
	return conformance.VerifyConfig(cfg.Conformance)
}

// Handler serves /live and /ready.
type Handler struct {
	healthcheck.Handler
	check  *ConformanceCheck
	runner *conformance.Runner
}

// NewHandler builds the handler and the conformance runner behind it.
func NewHandler(cfg Config) (*Handler, error) {
	if err := VerifyConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Conformance.Logger
	}
	cfg.Conformance.Registerer = cfg.Registerer
	cfg.Conformance.Logger = cfg.Logger

	runner, err := conformance.NewRunner(cfg.Conformance)
	if err != nil {
		return nil, fmt.Errorf("create conformance runner: %w", err)
	}

	var hc healthcheck.Handler
	if cfg.Registerer != nil {
		hc = healthcheck.NewMetricsHandler(cfg.Registerer, cfg.Namespace)
	} else {
		hc = healthcheck.NewHandler()
	}
	check := NewConformanceCheck(runner, cfg.TTL, cfg.Timeout)
	hc.AddLivenessCheck(goroutineCheck, healthcheck.GoroutineCountCheck(cfg.MaxGoroutines))
	hc.AddReadinessCheck(conformanceCheck, healthcheck.Timeout(check.Check, cfg.Timeout))

	return &Handler{Handler: hc, check: check, runner: runner}, nil
}

// Report returns the last conformance report, or nil before the first
// readiness evaluation.
func (h *Handler) Report() *conformance.Report { return h.check.Report() }

// Close stops the conformance worker pool.
func (h *Handler) Close() error {
	return h.runner.Close(time.Second)
}

// suite is the part of conformance.Runner the check needs.
type suite interface {
	Run(ctx context.Context) (*conformance.Report, error)
}

// ConformanceCheck runs the conformance suite and caches the outcome for a
// TTL. Concurrent callers share one run, and a run is cancelled once it
// exceeds the timeout.
type ConformanceCheck struct {
	suite   suite
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	ran    time.Time
	err    error
	report *conformance.Report
}

// NewConformanceCheck returns a check over runner that reruns the suite at
// most once per ttl and gives each run at most timeout.
func NewConformanceCheck(runner *conformance.Runner, ttl, timeout time.Duration) *ConformanceCheck {
	return newConformanceCheck(runner, ttl, timeout)
}

func newConformanceCheck(s suite, ttl, timeout time.Duration) *ConformanceCheck {
	return &ConformanceCheck{suite: s, ttl: ttl, timeout: timeout, now: time.Now}
}

// Check has the healthcheck.Check signature.
func (c *ConformanceCheck) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ran.IsZero() && c.now().Sub(c.ran) < c.ttl {
		return c.err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	report, err := c.suite.Run(ctx)
	c.ran, c.err, c.report = c.now(), err, report
	return err
}

// Report returns the report of the last run, or nil before the first one.
func (c *ConformanceCheck) Report() *conformance.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}
