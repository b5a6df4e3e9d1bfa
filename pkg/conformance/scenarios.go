package conformance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	queuepkg "github.com/Workiva/go-datastructures/queue"
	"github.com/cenkalti/backoff/v4"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/atomics/internal/logging"
	"github.com/srediag/atomics/internal/shm"
	"github.com/srediag/atomics/pkg/atomics"
	"github.com/srediag/atomics/pkg/refcount"
)

const (
	lastOwnerRounds = 16

	// Workers return to the pool shortly after their task ends, so a
	// saturated pool frees up within microseconds.
	submitInitialInterval = time.Millisecond
	submitMaxInterval     = 100 * time.Millisecond

	// Workers look at the halt flag once per this many iterations. Must be
	// a power of two.
	haltPollInterval = 1024
)

// scenario checks one property of the compiled backend and returns the
// number of atomic operations it performed.
type scenario struct {
	name string
	run  func(ctx context.Context, e *env) (uint64, error)
}

var scenarios = []scenario{
	{"fetch-add", runFetchAdd},
	{"exchange", runExchange},
	{"cas-success", runCASSuccess},
	{"cas-failure", runCASFailure},
	{"last-owner", runLastOwner},
	{"no-lost-updates", runNoLostUpdates},
	{"lifetime", runLifetime},
	{"mapped-fetch-add", runMappedFetchAdd},
}

// Names lists the scenarios in the order a full run executes them.
func Names() []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.name)
	}
	return names
}

func lookup(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

type env struct {
	cfg    Config
	pool   *ants.Pool
	logger *logging.Logger
}

// submit hands task to the pool, backing off while the pool is saturated.
func (e *env) submit(ctx context.Context, task func()) error {
	op := func() error {
		err := e.pool.Submit(task)
		if err == nil || errors.Is(err, ants.ErrPoolOverload) {
			return err
		}
		return backoff.Permanent(err)
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = submitInitialInterval
	eb.MaxInterval = submitMaxInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, e.cfg.SubmitRetries), ctx)
	return backoff.Retry(op, b)
}

// halt is raised when the context of a scenario ends.
type halt struct {
	raised atomics.Cell[uint32]
}

// poll reports whether a worker at iteration j should stop. The flag is
// only read every haltPollInterval iterations.
func (h *halt) poll(j int) bool {
	return j&(haltPollInterval-1) == 0 && h.raised.Load() != 0
}

// parallel runs fn(0..n-1) on the pool. Every task waits on a gate that
// opens once all of them are submitted so they contend on the cells at the
// same time. Workers loop until done or until h is raised by the end of ctx.
func (e *env) parallel(ctx context.Context, n int, fn func(i int, h *halt)) error {
	var (
		wg      sync.WaitGroup
		aborted atomics.Cell[uint32]
		gate    = make(chan struct{})
		h       = new(halt)
	)
	stopWatch := context.AfterFunc(ctx, func() { h.raised.Store(1) })
	defer stopWatch()
	for i := 0; i < n; i++ {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			<-gate
			if aborted.Load() != 0 {
				return
			}
			fn(i, h)
		}
		if err := e.submit(ctx, task); err != nil {
			wg.Done()
			aborted.Store(1)
			close(gate)
			wg.Wait()
			return fmt.Errorf("submit task %d of %d: %w", i, n, err)
		}
	}
	close(gate)
	wg.Wait()
	return ctx.Err()
}

func failf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrScenarioFailed, fmt.Sprintf(format, a...))
}

func runFetchAdd(ctx context.Context, e *env) (uint64, error) {
	n, m := e.cfg.Workers, e.cfg.Iterations
	var (
		c32   atomics.Int[uint32]
		c64   atomics.Int[uint64]
		local = make([]atomics.PaddedInt[uint64], n)
	)
	err := e.parallel(ctx, n, func(i int, h *halt) {
		for j := 0; j < m && !h.poll(j); j++ {
			c32.FetchAdd(1)
			c64.FetchAdd(1)
			local[i].FetchAdd(1)
		}
	})
	if err != nil {
		return 0, err
	}
	want := uint64(n) * uint64(m)
	if got := c32.Load(); got != uint32(want) {
		return 0, failf("32-bit counter is %d, want %d", got, uint32(want))
	}
	if got := c64.Load(); got != want {
		return 0, failf("64-bit counter is %d, want %d", got, want)
	}
	var sum uint64
	for i := range local {
		sum += local[i].Load()
	}
	if sum != want {
		return 0, failf("per-worker counters sum to %d, want %d", sum, want)
	}

	// FetchSub and wraparound.
	var w atomics.Int[uint32]
	if old := w.FetchSub(1); old != 0 || w.Load() != math.MaxUint32 {
		return 0, failf("0 - 1 left %d (returned %d), want %d", w.Load(), old, uint32(math.MaxUint32))
	}
	if old := w.FetchAdd(1); old != math.MaxUint32 || w.Load() != 0 {
		return 0, failf("max + 1 left %d (returned %d), want 0", w.Load(), old)
	}
	return 3*want + 2, nil
}

func runExchange(ctx context.Context, e *env) (uint64, error) {
	var f atomics.Cell[float64]
	f.Init(1.5)
	if old := f.Exchange(-2.25); old != 1.5 || f.Load() != -2.25 {
		return 0, failf("float exchange returned %v and left %v", old, f.Load())
	}

	n, m := e.cfg.Workers, e.cfg.Iterations
	const initial = 7
	var (
		c        atomics.Int[uint64]
		returned atomics.Int[uint64]
	)
	c.Init(initial)
	err := e.parallel(ctx, n, func(i int, h *halt) {
		var sum uint64
		for j := 0; j < m && !h.poll(j); j++ {
			sum += c.Exchange(uint64(i*m+j) + initial + 1)
		}
		returned.FetchAdd(sum)
	})
	if err != nil {
		return 0, err
	}
	// Every written value is either returned by exactly one later exchange
	// or still held by the cell.
	total := uint64(n * m)
	written := total*(total-1)/2 + total*(initial+1)
	if got := returned.Load() + c.Load(); got != written+initial {
		return 0, failf("returned plus final is %d, want %d", got, written+initial)
	}
	return total + uint64(n) + 1, nil
}

func runCASSuccess(ctx context.Context, e *env) (uint64, error) {
	if err := casSequential[uint32](5, 9); err != nil {
		return 0, err
	}
	if err := casSequential[int64](-1<<40, 1<<40); err != nil {
		return 0, err
	}
	if err := casSequential[float64](0.5, math.Inf(1)); err != nil {
		return 0, err
	}

	n, m := e.cfg.Workers, e.cfg.Iterations
	var (
		c       atomics.Int[uint64]
		retries atomics.Int[uint64]
	)
	err := e.parallel(ctx, n, func(_ int, h *halt) {
		var missed uint64
		for j := 0; j < m && !h.poll(j); j++ {
			cur := c.Load()
			for !c.CompareExchange(&cur, cur+1) {
				missed++
			}
		}
		retries.FetchAdd(missed)
	})
	if err != nil {
		return 0, err
	}
	if got, want := c.Load(), uint64(n*m); got != want {
		return 0, failf("compare-exchange counter is %d, want %d", got, want)
	}
	e.logger.Debugf("cas-success: %d retries under contention", retries.Load())
	return uint64(n*m) + retries.Load() + 6, nil
}

func casSequential[T atomics.Scalar](from, to T) error {
	c := atomics.New(from)
	expected := from
	if !c.CompareExchange(&expected, to) {
		return failf("compare-exchange %v -> %v on %v failed", from, to, from)
	}
	if expected != from {
		return failf("successful compare-exchange changed expected to %v", expected)
	}
	if got := c.Load(); got != to {
		return failf("cell holds %v after compare-exchange, want %v", got, to)
	}
	return nil
}

func runCASFailure(ctx context.Context, e *env) (uint64, error) {
	c := atomics.New[uint32](5)
	expected := uint32(4)
	if c.CompareExchange(&expected, 9) {
		return 0, failf("compare-exchange with stale expected value succeeded")
	}
	if expected != 5 || c.Load() != 5 {
		return 0, failf("failed compare-exchange reported %d and left %d, want 5 and 5", expected, c.Load())
	}

	// Floats compare by bit pattern.
	f := atomics.New(math.Copysign(0, -1))
	fexp := 0.0
	if f.CompareExchange(&fexp, 1) {
		return 0, failf("compare-exchange matched +0 against -0")
	}
	if !math.Signbit(fexp) {
		return 0, failf("failed compare-exchange reported %v, want -0", fexp)
	}

	n, m := e.cfg.Workers, e.cfg.Iterations
	var (
		shared atomics.Int[int64]
		wrong  atomics.Int[uint64]
	)
	shared.Init(1)
	err := e.parallel(ctx, n, func(_ int, h *halt) {
		var bad uint64
		for j := 0; j < m && !h.poll(j); j++ {
			exp := int64(0)
			if shared.CompareExchange(&exp, 2) || exp != 1 {
				bad++
			}
		}
		wrong.FetchAdd(bad)
	})
	if err != nil {
		return 0, err
	}
	if bad := wrong.Load(); bad != 0 || shared.Load() != 1 {
		return 0, failf("%d compare-exchanges misbehaved, cell holds %d", bad, shared.Load())
	}
	return uint64(n*m) + 4, nil
}

func runLastOwner(ctx context.Context, e *env) (uint64, error) {
	racers := e.cfg.Racers
	var ops uint64
	for round := 0; round < lastOwnerRounds; round++ {
		rc := refcount.New(uint32(racers))
		results := queuepkg.NewRingBuffer(uint64(racers))
		err := e.parallel(ctx, racers, func(int, *halt) {
			if err := results.Put(rc.Decrement()); err != nil {
				e.logger.Errorf("last-owner: record result: %v", err)
			}
		})
		if err != nil {
			results.Dispose()
			return 0, err
		}
		seen := make([]int, 0, racers)
		for results.Len() > 0 {
			item, err := results.Get()
			if err != nil {
				return 0, fmt.Errorf("drain results: %w", err)
			}
			seen = append(seen, int(item.(uint32)))
		}
		results.Dispose()
		if len(seen) != racers {
			return 0, failf("round %d collected %d results from %d racers", round, len(seen), racers)
		}
		// The observed counts are a permutation of 0..racers-1, so exactly
		// one racer saw 0.
		sort.Ints(seen)
		for i, v := range seen {
			if v != i {
				return 0, failf("round %d: racers observed %v", round, seen)
			}
		}
		ops += uint64(racers)
	}

	var single refcount.RefCount
	single.Init(1)
	if got := single.Decrement(); got != 0 {
		return 0, failf("sole owner observed %d after decrement, want 0", got)
	}
	return ops + 1, nil
}

func runNoLostUpdates(ctx context.Context, e *env) (uint64, error) {
	n, m := e.cfg.Workers, e.cfg.Iterations
	var (
		rc  refcount.RefCount
		net atomics.Int[int64]
	)
	base := uint32(n * m)
	rc.Init(base)
	err := e.parallel(ctx, n, func(i int, h *halt) {
		r := rand.New(rand.NewPCG(uint64(i), uint64(m)))
		var d int64
		for j := 0; j < m && !h.poll(j); j++ {
			if r.IntN(2) == 0 {
				rc.Increment()
				d++
			} else {
				rc.Decrement()
				d--
			}
		}
		net.FetchAdd(d)
	})
	if err != nil {
		return 0, err
	}
	want := uint32(int64(base) + net.Load())
	if got := rc.Read(); got != want {
		return 0, failf("count is %d, want %d", got, want)
	}
	return uint64(n*m) + uint64(n), nil
}

type resource struct {
	refs      refcount.RefCount
	destroyed atomics.Cell[uint32]
	destroys  atomics.Int[uint32]
}

func runLifetime(ctx context.Context, e *env) (uint64, error) {
	n, m := e.cfg.Workers, e.cfg.Iterations
	live := cmap.New[*resource]()
	all := make([]*resource, e.cfg.Resources)
	keys := make([]string, e.cfg.Resources)
	for i := range all {
		r := new(resource)
		r.refs.Init(1)
		all[i], keys[i] = r, fmt.Sprintf("resource-%d", i)
		live.Set(keys[i], r)
	}

	release := func(key string, r *resource) {
		if r.refs.Decrement() != 0 {
			return
		}
		r.destroys.FetchAdd(1)
		r.destroyed.Store(1)
		live.RemoveCb(key, func(_ string, v *resource, exists bool) bool {
			return exists && v == r
		})
	}

	var (
		revived  atomics.Int[uint64]
		acquired atomics.Int[uint64]
	)
	// Worker n drops the creator references while the others acquire and
	// release borrowed ones.
	err := e.parallel(ctx, n+1, func(i int, h *halt) {
		if i == n {
			for k, r := range all {
				release(keys[k], r)
			}
			return
		}
		rng := rand.New(rand.NewPCG(uint64(i), 1))
		var got, bad uint64
		for j := 0; j < m && !h.poll(j); j++ {
			k := rng.IntN(len(keys))
			r, ok := live.Get(keys[k])
			if !ok {
				continue
			}
			if _, ok := r.refs.IncrementIfNonZero(); !ok {
				continue
			}
			got++
			if r.destroyed.Load() != 0 {
				bad++
			}
			release(keys[k], r)
		}
		acquired.FetchAdd(got)
		revived.FetchAdd(bad)
	})
	if err != nil {
		return 0, err
	}
	if bad := revived.Load(); bad != 0 {
		return 0, failf("%d references taken on destroyed resources", bad)
	}
	for i, r := range all {
		if d := r.destroys.Load(); d != 1 {
			return 0, failf("%s destroyed %d times", keys[i], d)
		}
	}
	if c := live.Count(); c != 0 {
		return 0, failf("%d resources still tracked after release", c)
	}
	e.logger.Debugf("lifetime: %d borrowed references", acquired.Load())
	return 2*acquired.Load() + uint64(len(all)), nil
}

func runMappedFetchAdd(ctx context.Context, e *env) (uint64, error) {
	region, err := shm.MapRegion(ctx, shm.MapOptions{Size: 4096})
	if err != nil {
		return 0, fmt.Errorf("map region: %w", err)
	}
	defer func() {
		if err := shm.UnmapRegion(ctx, region); err != nil {
			e.logger.Warnf("mapped-fetch-add: unmap: %v", err)
		}
	}()

	c32, err := atomics.IntAt[uint32](region.Addr, 0)
	if err != nil {
		return 0, err
	}
	c64, err := atomics.IntAt[uint64](region.Addr, 64)
	if err != nil {
		return 0, err
	}
	if _, err := atomics.IntAt[uint64](region.Addr, 4); !errors.Is(err, atomics.ErrMisaligned) {
		return 0, failf("placing a cell at offset 4 returned %v, want %v", err, atomics.ErrMisaligned)
	}

	n, m := e.cfg.Workers, e.cfg.Iterations
	err = e.parallel(ctx, n, func(_ int, h *halt) {
		for j := 0; j < m && !h.poll(j); j++ {
			c32.FetchAdd(1)
			c64.FetchAdd(1)
		}
	})
	if err != nil {
		return 0, err
	}
	want := uint64(n) * uint64(m)
	if got := c32.Load(); got != uint32(want) {
		return 0, failf("mapped 32-bit counter is %d, want %d", got, uint32(want))
	}
	if got := c64.Load(); got != want {
		return 0, failf("mapped 64-bit counter is %d, want %d", got, want)
	}
	e.logger.Tracef("mapped-fetch-add: region mapped=%v", region.Mapped())
	return 2 * want, nil
}
