package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/spf13/cobra"
)

type benchOptions struct {
	requestOptions

	requests    int
	concurrency int
	duration    string
	rate        float64
	threshold   string
}

func newBenchCmd() *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench <url>",
		Short: "Repeat a request and report latency",
		Long: `Send the same request many times with bounded concurrency and print
latency percentiles, status counts and error rates.

A run stops after --requests requests or after --duration, whichever comes
first. With --rate, requests are paced to that many per second.

Thresholds fail the run with exit code 1:
  p50, p95, p99, max   latency upper bounds (e.g., p95<200ms)
  errors               error rate upper bound (e.g., errors<1%)
  rps                  throughput lower bound (e.g., rps>50)

Examples:
  hitreq bench https://api.example.com/health
  hitreq bench https://api.example.com/users -n 1000 -c 20
  hitreq bench https://api.example.com/users --duration 30s --rate 50
  hitreq bench https://api.example.com/users -X POST -d '{"name":"ada"}' --threshold "p95<200ms,errors<1%"`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.method, "method", "X", "GET", "HTTP method to send")
	cmd.Flags().IntVarP(&opts.requests, "requests", "n", getEnvInt("HITREQ_BENCH_REQUESTS", 100), "Total requests to send, 0 for no limit (env: HITREQ_BENCH_REQUESTS)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", getEnvInt("HITREQ_BENCH_CONCURRENCY", 10), "Number of parallel workers (env: HITREQ_BENCH_CONCURRENCY)")
	cmd.Flags().StringVar(&opts.duration, "duration", "", "Maximum run time (e.g., 30s, 1m)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Requests per second, 0 for unpaced")
	cmd.Flags().StringVar(&opts.threshold, "threshold", "", "Pass/fail thresholds (e.g., \"p95<200ms,errors<1%,rps>50\")")

	return cmd
}

func (o *benchOptions) run(cmd *cobra.Command, rawURL string) error {
	benchCfg, err := o.benchConfig()
	if err != nil {
		return err
	}

	cfg, logger, err := o.setup()
	if err != nil {
		return err
	}

	reqCfg, url, err := o.target(rawURL, cfg)
	if err != nil {
		return err
	}
	target := bench.Target{
		Method: strings.ToUpper(o.method),
		URL:    url,
		Config: reqCfg,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jsonOutput := strings.EqualFold(cfg.Output, "json")
	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(cfg.GetNoColor()),
	)
	if !jsonOutput {
		reporter.Header(target, benchCfg)
	}

	client := http.NewClient(cfg.ClientOptions(logger.Logger)...)
	if err := o.authorize(ctx, client, cfg, reqCfg); err != nil {
		return err
	}
	runner := bench.NewRunner(client, benchCfg, bench.WithLogger(logger.Logger))
	summary, runErr := runner.Run(ctx, target)
	if summary == nil {
		return runErr
	}

	results := summary.Evaluate(benchCfg.Thresholds)
	if jsonOutput {
		if err := reporter.JSONSummary(summary, results); err != nil {
			return err
		}
	} else {
		reporter.Summary(summary, results)
	}

	if runErr != nil {
		return reported(runErr)
	}
	if !bench.AllPassed(results) {
		return reportedWithCode(ExitStatusError, errors.New("thresholds failed"))
	}
	return nil
}

func (o *benchOptions) benchConfig() (*bench.Config, error) {
	cfg := &bench.Config{
		Requests:    o.requests,
		Rate:        o.rate,
		Concurrency: o.concurrency,
	}
	if o.duration != "" {
		d, err := time.ParseDuration(o.duration)
		if err != nil {
			return nil, usageError(fmt.Errorf("invalid duration value %q: %w (use format like 30s, 1m)", o.duration, err))
		}
		cfg.Duration = d
	}
	if o.threshold != "" {
		thresholds, err := bench.ParseThresholds(o.threshold)
		if err != nil {
			return nil, usageError(err)
		}
		cfg.Thresholds = thresholds
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}
