package conformance

import (
	"fmt"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario string
	Ops      uint64
	Elapsed  time.Duration
	Err      error
}

// Passed reports whether the scenario held.
func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of a run.
type Report struct {
	Backend string
	Workers int
	Results []Result
}

// Passed reports whether every scenario held.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the results of the scenarios that did not hold.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// String renders the report as one line per scenario followed by a summary.
func (r *Report) String() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "backend %s, %d workers\n", r.Backend, r.Workers)
	for _, res := range r.Results {
		status := "ok  "
		if !res.Passed() {
			status = "FAIL"
		}
		_, _ = fmt.Fprintf(buf, "%s %-18s %10d ops %12s", status, res.Scenario, res.Ops, res.Elapsed.Round(time.Microsecond))
		if res.Err != nil {
			_, _ = buf.WriteString("  ")
			_, _ = buf.WriteString(res.Err.Error())
		}
		_ = buf.WriteByte('\n')
	}
	failed := len(r.Failed())
	_, _ = fmt.Fprintf(buf, "%d passed, %d failed\n", len(r.Results)-failed, failed)
	return buf.String()
}
