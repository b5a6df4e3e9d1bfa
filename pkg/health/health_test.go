package health

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/atomics/internal/logging"
	"github.com/srediag/atomics/pkg/atomics"
	"github.com/srediag/atomics/pkg/conformance"
)

type fakeSuite struct {
	runs     atomics.Int[uint32]
	canceled atomics.Int[uint32]
	// block makes Run wait this long unless its context ends first.
	block time.Duration
	err   error
}

func (f *fakeSuite) Run(ctx context.Context) (*conformance.Report, error) {
	f.runs.FetchAdd(1)
	if f.block > 0 {
		select {
		case <-ctx.Done():
			f.canceled.FetchAdd(1)
			return nil, ctx.Err()
		case <-time.After(f.block):
		}
	}
	return &conformance.Report{Backend: "fake"}, f.err
}

func TestConformanceCheckCaches(t *testing.T) {
	s := &fakeSuite{}
	c := newConformanceCheck(s, time.Minute, time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Check())
	require.NoError(t, c.Check())
	assert.Equal(t, uint32(1), s.runs.Load())
	assert.Equal(t, "fake", c.Report().Backend)

	s.err = conformance.ErrScenarioFailed
	now = now.Add(30 * time.Second)
	assert.NoError(t, c.Check(), "cached result still valid")

	now = now.Add(time.Minute)
	assert.ErrorIs(t, c.Check(), conformance.ErrScenarioFailed)
	assert.Equal(t, uint32(2), s.runs.Load())
}

func TestConformanceCheckCancelsSlowRun(t *testing.T) {
	s := &fakeSuite{block: 500 * time.Millisecond}
	c := newConformanceCheck(s, time.Nanosecond, 20*time.Millisecond)

	start := time.Now()
	err := c.Check()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, uint32(1), s.canceled.Load())
}

func TestTimedOutReadinessDoesNotLeakGoroutines(t *testing.T) {
	s := &fakeSuite{block: 500 * time.Millisecond}
	c := newConformanceCheck(s, time.Nanosecond, 20*time.Millisecond)
	check := healthcheck.Timeout(c.Check, 20*time.Millisecond)

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		assert.Error(t, check())
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 300*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, s.runs.Load(), s.canceled.Load())
}

func TestVerifyConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, VerifyConfig(cfg))

	bad := cfg
	bad.TTL = 0
	assert.ErrorIs(t, VerifyConfig(bad), ErrInvalidConfig)

	bad = cfg
	bad.MaxGoroutines = 0
	assert.ErrorIs(t, VerifyConfig(bad), ErrInvalidConfig)

	bad = cfg
	bad.Conformance.Workers = 0
	assert.ErrorIs(t, VerifyConfig(bad), conformance.ErrInvalidConfig)
}

func testConfig(reg prometheus.Registerer) Config {
	cfg := DefaultConfig()
	cfg.Conformance.Workers = 2
	cfg.Conformance.Iterations = 100
	cfg.Conformance.Racers = 4
	cfg.Conformance.Resources = 2
	cfg.Registerer = reg
	cfg.Logger = logging.New("health-test", io.Discard)
	return cfg
}

func serve(t *testing.T, h http.Handler, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestHandlerEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := NewHandler(testConfig(reg))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	assert.Nil(t, h.Report())
	assert.Equal(t, http.StatusOK, serve(t, h, "/live"))
	assert.Equal(t, http.StatusOK, serve(t, h, "/ready"))
	require.NotNil(t, h.Report())
	assert.True(t, h.Report().Passed())

	n, err := testutil.GatherAndCount(reg, "atomics_healthcheck_status", "atomics_conformance_scenario_runs_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestHandlerWithoutRegistry(t *testing.T) {
	h, err := NewHandler(testConfig(nil))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	assert.Equal(t, http.StatusOK, serve(t, h, "/ready?full=1"))
}
