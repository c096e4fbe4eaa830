package bench

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects the outcome of every request in a run
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	// Latency histogram in microseconds, 1us to 60s, 3 significant digits
	histogram *hdrhistogram.Histogram
	statuses  map[int]int64

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statuses:  make(map[int]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one request. Statuses are taken from resp or, for failed
// requests, from the error's response.
func (m *Metrics) Record(resp *http.Response, duration time.Duration, err error) {
	m.totalRequests.Add(1)

	var timeoutErr *http.TimeoutError
	switch {
	case err == nil:
		m.successRequests.Add(1)
	case errors.As(err, &timeoutErr):
		m.timeoutRequests.Add(1)
		m.errorRequests.Add(1)
	default:
		m.errorRequests.Add(1)
	}

	status := statusOf(resp, err)

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	if status > 0 {
		m.statuses[status]++
	}
	m.mu.Unlock()
}

func statusOf(resp *http.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	if code, ok := http.StatusCode(err); ok {
		return code
	}
	var parseErr *http.ParseError
	if errors.As(err, &parseErr) && parseErr.Response != nil {
		return parseErr.Response.StatusCode
	}
	return 0
}

// Summary is the final result of a run
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	// Statuses counts responses by HTTP status
	Statuses map[int]int64
}

// Summary returns the metrics summary
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	failed := m.errorRequests.Load()

	summary := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    failed,
		TimeoutCount:  m.timeoutRequests.Load(),
		Statuses:      make(map[int]int64, len(m.statuses)),
	}

	if duration.Seconds() > 0 {
		summary.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		summary.SuccessRate = float64(success) / float64(total)
		summary.ErrorRate = float64(failed) / float64(total)

		summary.P50 = usToDuration(m.histogram.ValueAtQuantile(50))
		summary.P95 = usToDuration(m.histogram.ValueAtQuantile(95))
		summary.P99 = usToDuration(m.histogram.ValueAtQuantile(99))
		summary.Min = usToDuration(m.histogram.Min())
		summary.Max = usToDuration(m.histogram.Max())
		summary.Mean = time.Duration(m.histogram.Mean() * float64(time.Microsecond))
		summary.StdDev = time.Duration(m.histogram.StdDev() * float64(time.Microsecond))
	}

	for status, n := range m.statuses {
		summary.Statuses[status] = n
	}

	return summary
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// StatusCodes returns the observed statuses in ascending order
func (s *Summary) StatusCodes() []int {
	codes := make([]int, 0, len(s.Statuses))
	for code := range s.Statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Evaluate checks the summary against t
func (s *Summary) Evaluate(t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "<= " + limit.String(),
				Actual:   actual.String(),
			})
		}
	}
	latency("p50", t.P50, s.P50)
	latency("p95", t.P95, s.P95)
	latency("p99", t.P99, s.P99)
	latency("max latency", t.MaxLatency, s.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   s.ErrorRate <= t.ErrorRate,
			Expected: "<= " + formatPercent(t.ErrorRate),
			Actual:   formatPercent(s.ErrorRate),
		})
	}

	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   s.RPS >= t.MinRPS,
			Expected: ">= " + formatFloat(t.MinRPS),
			Actual:   formatFloat(s.RPS),
		})
	}

	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
