package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record(&http.Response{StatusCode: 200}, 100*time.Millisecond, nil)
	m.Record(&http.Response{StatusCode: 201}, 150*time.Millisecond, nil)
	m.Record(nil, 200*time.Millisecond, &http.ClientError{StatusCode: 500})
	m.Record(nil, 50*time.Millisecond, &http.TransportError{Err: errors.New("refused")})

	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(4), s.TotalRequests)
	assert.Equal(t, int64(2), s.SuccessCount)
	assert.Equal(t, int64(2), s.ErrorCount)
	assert.Zero(t, s.TimeoutCount)
	assert.InDelta(t, 0.5, s.SuccessRate, 0.001)
	assert.InDelta(t, 0.5, s.ErrorRate, 0.001)
	assert.Equal(t, map[int]int64{200: 1, 201: 1, 500: 1}, s.Statuses)
	assert.Equal(t, []int{200, 201, 500}, s.StatusCodes())
}

func TestMetricsRecordTimeout(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record(&http.Response{StatusCode: 200}, 10*time.Millisecond, nil)
	m.Record(nil, time.Second, &http.TimeoutError{Timeout: time.Second, Err: context.DeadlineExceeded})

	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, int64(1), s.TimeoutCount)
	assert.Equal(t, map[int]int64{200: 1}, s.Statuses)
}

func TestMetricsRecordParseError(t *testing.T) {
	m := NewMetrics()
	m.Start()

	resp := &http.Response{StatusCode: 200}
	m.Record(nil, time.Millisecond, &http.ParseError{Response: resp, Err: errors.New("bad json")})

	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, map[int]int64{200: 1}, s.Statuses)
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	m.Start()

	for i := 1; i <= 100; i++ {
		m.Record(&http.Response{StatusCode: 200}, time.Duration(i)*time.Millisecond, nil)
	}

	m.Stop()

	s := m.Summary()
	// hdrhistogram keeps 3 significant digits
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.InDelta(t, float64(50500*time.Microsecond), float64(s.Mean), float64(time.Millisecond))
	assert.Greater(t, s.StdDev, time.Duration(0))
}

func TestMetricsClampsLatency(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record(&http.Response{StatusCode: 200}, 0, nil)
	m.Record(&http.Response{StatusCode: 200}, 2*time.Minute, nil)

	m.Stop()

	s := m.Summary()
	assert.Equal(t, time.Microsecond, s.Min)
	assert.InDelta(t, float64(time.Minute), float64(s.Max), float64(100*time.Millisecond))
}

func TestMetricsEmpty(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Stop()

	s := m.Summary()
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.ErrorRate)
	assert.Zero(t, s.P95)
	assert.Empty(t, s.Statuses)
}

func TestSummaryEvaluate(t *testing.T) {
	s := &Summary{
		P50:       20 * time.Millisecond,
		P95:       150 * time.Millisecond,
		P99:       300 * time.Millisecond,
		Max:       500 * time.Millisecond,
		ErrorRate: 0.02,
		RPS:       80,
	}

	t.Run("passing", func(t *testing.T) {
		results := s.Evaluate(Thresholds{P95: 200 * time.Millisecond, MinRPS: 50})
		require.Len(t, results, 2)
		assert.True(t, AllPassed(results))
		assert.Equal(t, "p95", results[0].Name)
		assert.Equal(t, "<= 200ms", results[0].Expected)
		assert.Equal(t, "150ms", results[0].Actual)
		assert.Equal(t, ">= 50", results[1].Expected)
		assert.Equal(t, "80", results[1].Actual)
	})

	t.Run("failing", func(t *testing.T) {
		results := s.Evaluate(Thresholds{P99: 250 * time.Millisecond, ErrorRate: 0.01, MaxLatency: time.Second})
		require.Len(t, results, 3)
		assert.False(t, AllPassed(results))

		byName := make(map[string]ThresholdResult)
		for _, r := range results {
			byName[r.Name] = r
		}
		assert.False(t, byName["p99"].Passed)
		assert.True(t, byName["max latency"].Passed)
		assert.False(t, byName["error rate"].Passed)
		assert.Equal(t, "<= 1%", byName["error rate"].Expected)
		assert.Equal(t, "2%", byName["error rate"].Actual)
	})

	t.Run("at the limit", func(t *testing.T) {
		results := s.Evaluate(Thresholds{P95: 150 * time.Millisecond, ErrorRate: 0.02, MinRPS: 80})
		require.Len(t, results, 3)
		assert.True(t, AllPassed(results))
		for _, r := range results {
			assert.Contains(t, r.Expected, "=", r.Name)
		}
	})

	t.Run("no thresholds", func(t *testing.T) {
		assert.Empty(t, s.Evaluate(Thresholds{}))
	})
}
