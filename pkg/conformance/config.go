package conformance

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/atomics/internal/logging"
)

const (
	defaultIterations    = 10000
	defaultRacers        = 64
	defaultResources     = 32
	defaultSubmitRetries = 10
	maxDefaultWorkers    = 64
)

var (
	// ErrInvalidConfig is returned by VerifyConfig and NewRunner for a
	// config that cannot be run.
	ErrInvalidConfig = errors.New("conformance: invalid config")
	// ErrUnknownScenario names a scenario that does not exist.
	ErrUnknownScenario = errors.New("conformance: unknown scenario")
	// ErrScenarioFailed wraps every broken property a scenario detects.
	ErrScenarioFailed = errors.New("conformance: scenario failed")
)

// Config holds the parameters of a conformance run.
type Config struct {
	// Workers is the number of goroutines hammering a cell at once.
	Workers int
	// Iterations is the number of operations each worker performs.
	Iterations int
	// Racers is the number of concurrent decrementers in the last-owner
	// scenario.
	Racers int
	// Resources is the number of refcounted objects in the lifetime
	// scenario.
	Resources int
	// Scenarios restricts the run to the named scenarios. Empty runs all.
	Scenarios []string
	// SubmitRetries bounds the retries when the worker pool is saturated.
	SubmitRetries uint64

	// Registerer receives the Prometheus collectors. Nil disables them.
	Registerer prometheus.Registerer
	// Meter and Tracer default to no-op implementations.
	Meter  metric.Meter
	Tracer trace.Tracer
	Logger *logging.Logger
}

// DefaultConfig returns a configuration sized to the host. The environment
// variables ATOMICS_CHECK_WORKERS and ATOMICS_CHECK_ITERATIONS override the
// defaults.
func DefaultConfig() Config {
	cfg := Config{
		Workers:       defaultWorkers(),
		Iterations:    defaultIterations,
		Racers:        defaultRacers,
		Resources:     defaultResources,
		SubmitRetries: defaultSubmitRetries,
	}
	if n, err := strconv.Atoi(os.Getenv("ATOMICS_CHECK_WORKERS")); err == nil {
		cfg.Workers = n
	}
	if n, err := strconv.Atoi(os.Getenv("ATOMICS_CHECK_ITERATIONS")); err == nil {
		cfg.Iterations = n
	}
	return cfg
}

func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 2 {
		// Contention needs at least two goroutines.
		n = 2
	}
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}
	return n
}

// VerifyConfig reports whether cfg can be run.
func VerifyConfig(cfg Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if cfg.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidConfig, cfg.Iterations)
	}
	if cfg.Racers < 1 {
		return fmt.Errorf("%w: racers must be positive, got %d", ErrInvalidConfig, cfg.Racers)
	}
	if cfg.Resources < 1 {
		return fmt.Errorf("%w: resources must be positive, got %d", ErrInvalidConfig, cfg.Resources)
	}
	for _, name := range cfg.Scenarios {
		if _, ok := lookup(name); !ok {
			return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownScenario, name)
		}
	}
	return nil
}
