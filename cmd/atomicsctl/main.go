// Command atomicsctl reports the atomic backend compiled into the binary
// and proves it with the conformance suite.
//
//	atomicsctl backend
//	atomicsctl check [-workers N] [-iterations M] [-scenario name]...
//	atomicsctl serve [-listen :9100] [-ttl 1m]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/atomics/internal/logging"
	"github.com/srediag/atomics/pkg/atomics"
	"github.com/srediag/atomics/pkg/conformance"
	"github.com/srediag/atomics/pkg/health"
)

const usage = `usage: atomicsctl <command> [flags]

commands:
  backend   print the compiled backend and the ordering of each operation
  check     run the conformance suite
  serve     serve /metrics, /live and /ready
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	logger := logging.New("atomicsctl", stderr)
	switch args[0] {
	case "backend":
		printBackend(stdout)
		return 0
	case "check":
		return check(args[1:], stdout, stderr, logger)
	case "serve":
		return serve(args[1:], stderr, logger)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func printBackend(w io.Writer) {
	info := atomics.Backend()
	fmt.Fprintf(w, "backend: %s\n", info.Name)
	fmt.Fprintf(w, "widths: %v\n", info.Widths)
	fmt.Fprintf(w, "distinct relaxed accessors: %v\n", info.RelaxedDistinct)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "operation\torder")
	for _, op := range atomics.Ops() {
		fmt.Fprintf(tw, "%s\t%s\n", op, info.OrderOf(op))
	}
	_ = tw.Flush()
}

type scenarioFlag []string

func (s *scenarioFlag) String() string { return strings.Join(*s, ",") }

func (s *scenarioFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func check(args []string, stdout, stderr io.Writer, logger *logging.Logger) int {
	cfg := conformance.DefaultConfig()
	var scenarios scenarioFlag
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent goroutines per scenario")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "operations per goroutine")
	fs.IntVar(&cfg.Racers, "racers", cfg.Racers, "decrementers in the last-owner scenario")
	fs.Var(&scenarios, "scenario", "run only this scenario, repeatable ("+strings.Join(conformance.Names(), ", ")+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg.Scenarios = scenarios
	cfg.Logger = logger

	runner, err := conformance.NewRunner(cfg)
	if err != nil {
		logger.Errorf("%v", err)
		if errors.Is(err, conformance.ErrInvalidConfig) {
			return 2
		}
		return 1
	}
	defer func() {
		if err := runner.Close(time.Second); err != nil {
			logger.Warnf("release worker pool: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report, err := runner.Run(ctx)
	if report != nil {
		fmt.Fprint(stdout, report.String())
	}
	if err != nil {
		return 1
	}
	return 0
}

func serve(args []string, stderr io.Writer, logger *logging.Logger) int {
	cfg := health.DefaultConfig()
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen", ":9100", "address to listen on")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "how long a conformance result stays valid")
	fs.IntVar(&cfg.Conformance.Workers, "workers", cfg.Conformance.Workers, "concurrent goroutines per scenario")
	fs.IntVar(&cfg.Conformance.Iterations, "iterations", cfg.Conformance.Iterations, "operations per goroutine")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cfg.Registerer = reg
	cfg.Logger = logger

	h, err := health.NewHandler(cfg)
	if err != nil {
		logger.Errorf("%v", err)
		return 2
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Warnf("close health handler: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	srv := &http.Server{Addr: *listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.Infof("serving on %s with backend %s", *listen, atomics.Backend().Name)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		logger.Errorf("listen: %v", err)
		return 1
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	return 0
}
