package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Doer issues one request. *http.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, url string, cfg *http.Config) (*http.Response, error)
}

// Target is the request a run repeats
type Target struct {
	Method string
	URL    string
	Config *http.Config
}

// Runner executes benchmark runs
type Runner struct {
	config *Config
	client Doer
	logger zerolog.Logger
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithLogger sets the logger used for per-run tracing
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner that sends requests through client
func NewRunner(client Doer, config *Config, opts ...RunnerOption) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	r := &Runner{
		config: config,
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sends target until the request count or the duration is reached,
// whichever comes first. In-flight requests are allowed to finish. The
// summary is returned even when ctx is cancelled early, together with the
// context's error. A *http.ConfigError from the client aborts the run and is
// returned without a summary.
func (r *Runner) Run(ctx context.Context, target Target) (*Summary, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if r.config.Duration > 0 {
		dispatchCtx, cancel = context.WithTimeout(dispatchCtx, r.config.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}

	r.logger.Info().
		Str("method", target.Method).
		Str("url", target.URL).
		Int("requests", r.config.Requests).
		Dur("duration", r.config.Duration).
		Float64("rate", r.config.Rate).
		Int("concurrency", r.config.Concurrency).
		Msg("starting benchmark")

	metrics := NewMetrics()
	metrics.Start()

	// A config error repeats on every request, so the first one stops dispatch.
	var (
		configErr  error
		configOnce sync.Once
	)

	jobs := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < r.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				resp, err := r.client.Do(ctx, target.Method, target.URL, target.Config)
				var cfgErr *http.ConfigError
				if errors.As(err, &cfgErr) {
					configOnce.Do(func() {
						configErr = err
						cancel()
					})
					continue
				}
				metrics.Record(resp, time.Since(start), err)
			}
		}()
	}

dispatch:
	for sent := 0; r.config.Requests == 0 || sent < r.config.Requests; sent++ {
		if dispatchCtx.Err() != nil {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(dispatchCtx); err != nil {
				break
			}
		}
		select {
		case jobs <- struct{}{}:
		case <-dispatchCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	metrics.Stop()

	if configErr != nil {
		return nil, configErr
	}

	summary := metrics.Summary()
	r.logger.Info().
		Int64("total", summary.TotalRequests).
		Int64("errors", summary.ErrorCount).
		Dur("p95", summary.P95).
		Msg("benchmark finished")

	return summary, ctx.Err()
}
