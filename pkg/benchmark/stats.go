package benchmark

import (
	"fmt"
	"time"

	"github.com/bankbench/pkg/stats"
	"github.com/google/uuid"
)

// Stats collects the response time samples of one endpoint measurement
type Stats struct {
	samples      []float64 // seconds
	hdr          *HdrStats
	accessDenied int64
	outcomes     map[string]int64
}

// NewStats creates an empty sample collector sized for n requests
func NewStats(n int) *Stats {
	return &Stats{
		samples:  make([]float64, 0, n),
		hdr:      NewHdrStats(),
		outcomes: make(map[string]int64),
	}
}

// Add records one response time and how the request ended
func (s *Stats) Add(d time.Duration, outcome Outcome) {
	s.samples = append(s.samples, d.Seconds())
	s.hdr.Record(d)
	if outcome.AccessDenied {
		s.accessDenied++
	}
	s.outcomes[outcome.Label()]++
}

// Count returns the number of samples
func (s *Stats) Count() int {
	return len(s.samples)
}

// AccessDenied returns the number of tolerated 401 responses
func (s *Stats) AccessDenied() int64 {
	return s.accessDenied
}

// Summary returns min/max/mean/std-dev over the exact samples
func (s *Stats) Summary() stats.Summary {
	return stats.Describe(s.samples)
}

// Histogram returns the percentile histogram
func (s *Stats) Histogram() *HdrStats {
	return s.hdr
}

// EndpointResult is the record written per measured endpoint.
// Field names match the times.log format consumed by the analysis notebooks.
type EndpointResult struct {
	RunID              string             `json:"run id"`
	StartedAt          time.Time          `json:"started at"`
	AppVersion         string             `json:"application version"`
	Auth               string             `json:"auth"`
	Endpoint           string             `json:"endpoint"`
	NumberOfRequests   int                `json:"number of requests"`
	MinResponseTime    float64            `json:"min response time"`
	MaxResponseTime    float64            `json:"max response time"`
	AvgResponseTime    float64            `json:"avg response time"`
	StdDevResponseTime float64            `json:"std dev response time"`
	ElapsedTime        float64            `json:"elapsed time"`
	RequestsPerSecond  float64            `json:"requests per second"`
	AccessDenied       int64              `json:"access denied"`
	Outcomes           map[string]int64   `json:"outcomes,omitempty"`
	Percentiles        map[string]float64 `json:"percentiles,omitempty"`

	buckets []HistogramBucket
}

// Buckets returns the latency histogram buckets of the run
func (r *EndpointResult) Buckets() []HistogramBucket {
	return r.buckets
}

// Percentile returns the stored percentile p in seconds
func (r *EndpointResult) Percentile(p int) float64 {
	return r.Percentiles[PercentileKey(p)]
}

// PercentileKey returns the map key used for percentile p
func PercentileKey(p int) string {
	return fmt.Sprintf("p%d", p)
}

// NewEndpointResult reduces the collected samples to a result record
func NewEndpointResult(s *Stats, appVersion, auth, endpoint string, started time.Time, elapsed time.Duration, percentiles []int) *EndpointResult {
	summary := s.Summary()
	result := &EndpointResult{
		RunID:              uuid.NewString(),
		StartedAt:          started,
		AppVersion:         appVersion,
		Auth:               auth,
		Endpoint:           endpoint,
		NumberOfRequests:   summary.Count,
		MinResponseTime:    summary.Min,
		MaxResponseTime:    summary.Max,
		AvgResponseTime:    summary.Mean,
		StdDevResponseTime: summary.StdDev,
		ElapsedTime:        elapsed.Seconds(),
		AccessDenied:       s.AccessDenied(),
		Outcomes:           make(map[string]int64, len(s.outcomes)),
		Percentiles:        make(map[string]float64, len(percentiles)),
		buckets:            s.hdr.Buckets(),
	}
	if result.ElapsedTime > 0 {
		result.RequestsPerSecond = float64(summary.Count) / result.ElapsedTime
	}
	for k, v := range s.outcomes {
		result.Outcomes[k] = v
	}
	if s.Count() > 0 {
		for _, p := range percentiles {
			result.Percentiles[PercentileKey(p)] = s.hdr.Percentile(float64(p))
		}
	}
	return result
}
