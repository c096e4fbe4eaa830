package bench

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/mock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T, handler mock.Handler) string {
	t.Helper()
	srv, err := mock.Listen(handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv.URL()
}

func TestRunnerRequests(t *testing.T) {
	var hits atomic.Int64
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		hits.Add(1)
		return mock.Send(w, nethttp.StatusOK, map[string]string{"ok": "yes"})
	})

	runner := NewRunner(http.NewClient(), &Config{Requests: 25, Concurrency: 5})
	summary, err := runner.Run(context.Background(), Target{Method: "GET", URL: url})

	require.NoError(t, err)
	assert.Equal(t, int64(25), hits.Load())
	assert.Equal(t, int64(25), summary.TotalRequests)
	assert.Equal(t, int64(25), summary.SuccessCount)
	assert.Zero(t, summary.ErrorCount)
	assert.Equal(t, map[int]int64{200: 25}, summary.Statuses)
	assert.Greater(t, summary.P50, time.Duration(0))
}

func TestRunnerCountsErrorStatuses(t *testing.T) {
	var hits atomic.Int64
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		if hits.Add(1)%2 == 0 {
			return mock.Send(w, nethttp.StatusServiceUnavailable, "busy")
		}
		return mock.Send(w, nethttp.StatusOK, "ok")
	})

	runner := NewRunner(http.NewClient(), &Config{Requests: 10, Concurrency: 1})
	summary, err := runner.Run(context.Background(), Target{Method: "GET", URL: url})

	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.TotalRequests)
	assert.Equal(t, int64(5), summary.ErrorCount)
	assert.Equal(t, map[int]int64{200: 5, 503: 5}, summary.Statuses)
	assert.InDelta(t, 0.5, summary.ErrorRate, 0.001)
}

func TestRunnerSendsTargetConfig(t *testing.T) {
	var bodies atomic.Int64
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		var body map[string]string
		if err := mock.ReadJSON(r, &body); err != nil {
			return err
		}
		if body["name"] == "ada" && r.URL.Query().Get("page") == "2" {
			bodies.Add(1)
		}
		return mock.Send(w, nethttp.StatusCreated, nil)
	})

	target := Target{
		Method: "POST",
		URL:    url,
		Config: &http.Config{
			Body:   map[string]string{"name": "ada"},
			Params: http.P("page", "2"),
		},
	}
	summary, err := NewRunner(http.NewClient(), &Config{Requests: 4, Concurrency: 2}).Run(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, int64(4), bodies.Load())
	assert.Equal(t, map[int]int64{201: 4}, summary.Statuses)
}

func TestRunnerDuration(t *testing.T) {
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		return mock.Send(w, nethttp.StatusOK, "ok")
	})

	start := time.Now()
	runner := NewRunner(http.NewClient(), &Config{Duration: 200 * time.Millisecond, Rate: 50, Concurrency: 2})
	summary, err := runner.Run(context.Background(), Target{Method: "GET", URL: url})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	// 50 req/s for 200ms with a burst of one
	assert.GreaterOrEqual(t, summary.TotalRequests, int64(5))
	assert.LessOrEqual(t, summary.TotalRequests, int64(13))
}

func TestRunnerTimeouts(t *testing.T) {
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		return nil
	})

	client := http.NewClient(http.WithTimeout(20 * time.Millisecond))
	summary, err := NewRunner(client, &Config{Requests: 3, Concurrency: 3}).Run(context.Background(), Target{Method: "GET", URL: url})

	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TimeoutCount)
	assert.Equal(t, int64(3), summary.ErrorCount)
	assert.Empty(t, summary.Statuses)
}

func TestRunnerCancelled(t *testing.T) {
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		return mock.Send(w, nethttp.StatusOK, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewRunner(http.NewClient(), &Config{Duration: time.Minute, Concurrency: 1}).Run(ctx, Target{Method: "GET", URL: url})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
}

func TestRunnerInvalidConfig(t *testing.T) {
	summary, err := NewRunner(http.NewClient(), &Config{Concurrency: 1}).Run(context.Background(), Target{Method: "GET", URL: "http://localhost"})

	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "invalid config")
}

func TestRunnerConfigErrorAborts(t *testing.T) {
	var hits atomic.Int64
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		hits.Add(1)
		return nil
	})

	target := Target{
		Method: "POST",
		URL:    url,
		Config: &http.Config{Body: "x", Form: http.P("a", "b")},
	}
	summary, err := NewRunner(http.NewClient(), &Config{Requests: 50, Concurrency: 4}).Run(context.Background(), target)

	assert.Nil(t, summary)
	var cfgErr *http.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, http.ErrConflictingBody)
	assert.Zero(t, hits.Load())
}

func TestRunnerLogs(t *testing.T) {
	url := listen(t, func(w nethttp.ResponseWriter, r *nethttp.Request) error {
		return mock.Send(w, nethttp.StatusOK, "ok")
	})

	var buf bytes.Buffer
	runner := NewRunner(http.NewClient(), &Config{Requests: 1, Concurrency: 1}, WithLogger(zerolog.New(&buf)))
	_, err := runner.Run(context.Background(), Target{Method: "GET", URL: url})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"message":"starting benchmark"`)
	assert.Contains(t, buf.String(), `"message":"benchmark finished"`)
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(http.NewClient(), nil)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestReporterSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(WithWriter(&buf), WithNoColor(true))

	summary := &Summary{
		Duration:      1500 * time.Millisecond,
		TotalRequests: 1200,
		SuccessCount:  1190,
		ErrorCount:    10,
		TimeoutCount:  2,
		RPS:           800,
		SuccessRate:   1190.0 / 1200,
		ErrorRate:     10.0 / 1200,
		P50:           2 * time.Millisecond,
		P95:           15 * time.Millisecond,
		Statuses:      map[int]int64{200: 1190, 500: 8},
	}
	results := summary.Evaluate(Thresholds{P95: 10 * time.Millisecond})

	r.Header(Target{Method: "GET", URL: "http://localhost/x"}, &Config{Requests: 1200, Concurrency: 8})
	r.Summary(summary, results)

	out := buf.String()
	assert.Contains(t, out, "Benchmarking: GET http://localhost/x")
	assert.Contains(t, out, "Requests: 1,200 | Concurrency: 8")
	assert.Contains(t, out, "Duration:   1.5s")
	assert.Contains(t, out, "1,200 requests (800.0 req/s)")
	assert.Contains(t, out, "Timeouts:   2")
	assert.Contains(t, out, "Statuses:   200: 1,190 | 500: 8")
	assert.Contains(t, out, "p95: 15")
	assert.Contains(t, out, "✗ p95 <= 10ms")
	assert.Contains(t, out, "Some thresholds failed!")
}

func TestReporterJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(WithWriter(&buf), WithNoColor(true))

	summary := &Summary{
		Duration:      time.Second,
		TotalRequests: 3,
		SuccessCount:  3,
		P95:           12 * time.Millisecond,
		Statuses:      map[int]int64{204: 3},
	}
	require.NoError(t, r.JSONSummary(summary, summary.Evaluate(Thresholds{P95: time.Second})))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "1s", out["duration"])
	assert.Equal(t, float64(3), out["requests"].(map[string]any)["total"])
	assert.Equal(t, float64(12), out["latency"].(map[string]any)["p95"])
	assert.Equal(t, map[string]any{"204": float64(3)}, out["statuses"])
	thresholds := out["thresholds"].([]any)
	require.Len(t, thresholds, 1)
	assert.Equal(t, true, thresholds[0].(map[string]any)["passed"])
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "12,345,678", formatNumber(12345678))

	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1m 05s", formatDuration(65*time.Second))

	assert.Equal(t, "0.50", formatLatencyMs(500*time.Microsecond))
	assert.Equal(t, "2.5", formatLatencyMs(2500*time.Microsecond))
	assert.Equal(t, "120", formatLatencyMs(120*time.Millisecond))
}
