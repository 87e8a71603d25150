// Package benchmark provides the load generation functionality
package benchmark

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	hdrMinMicros = 1
	hdrMaxMicros = 60 * 1000 * 1000 // 60s
	hdrSigFigs   = 3
)

// HdrStats records response times in microseconds for percentile queries
type HdrStats struct {
	histogram *hdrhistogram.Histogram
	clipped   int64 // values above the trackable range, recorded as the max
}

// NewHdrStats creates a histogram covering 1us to 60s with 3 significant figures
func NewHdrStats() *HdrStats {
	return &HdrStats{
		histogram: hdrhistogram.New(hdrMinMicros, hdrMaxMicros, hdrSigFigs),
	}
}

// Record records a response time. Values beyond 60s are clamped.
func (h *HdrStats) Record(d time.Duration) {
	us := d.Microseconds()
	if us < hdrMinMicros {
		us = hdrMinMicros
	}
	if us > hdrMaxMicros {
		us = hdrMaxMicros
		h.clipped++
	}
	// Range is clamped above, so RecordValue cannot fail.
	_ = h.histogram.RecordValue(us)
}

// Percentile returns the value at the given percentile (0-100) in seconds
func (h *HdrStats) Percentile(percentile float64) float64 {
	return float64(h.histogram.ValueAtQuantile(percentile)) / 1e6
}

// Count returns the total number of recorded values
func (h *HdrStats) Count() int64 {
	return h.histogram.TotalCount()
}

// Clipped returns how many values exceeded the trackable range
func (h *HdrStats) Clipped() int64 {
	return h.clipped
}

// HistogramBucket represents a bucket in the ASCII histogram
type HistogramBucket struct {
	RangeStart int64   // Start of range in microseconds
	RangeEnd   int64   // End of range in microseconds, -1 for "and above"
	Count      int64   // Number of values in this bucket
	Percentage float64 // Percentage of total
}

var defaultBoundaries = []int64{
	1000,     // 1ms
	5000,     // 5ms
	10000,    // 10ms
	25000,    // 25ms
	50000,    // 50ms
	100000,   // 100ms
	250000,   // 250ms
	500000,   // 500ms
	1000000,  // 1s
	2500000,  // 2.5s
	5000000,  // 5s
	10000000, // 10s
}

// Buckets groups the recorded values into fixed latency ranges, skipping empty ones
func (h *HdrStats) Buckets() []HistogramBucket {
	totalCount := h.histogram.TotalCount()
	if totalCount == 0 {
		return nil
	}

	counts := make([]int64, len(defaultBoundaries))
	var overflow int64
	for _, bar := range h.histogram.Distribution() {
		if bar.Count == 0 {
			continue
		}
		assigned := false
		for i, boundary := range defaultBoundaries {
			if bar.To <= boundary {
				counts[i] += bar.Count
				assigned = true
				break
			}
		}
		if !assigned {
			overflow += bar.Count
		}
	}

	var buckets []HistogramBucket
	var prev int64
	for i, boundary := range defaultBoundaries {
		if counts[i] > 0 {
			buckets = append(buckets, HistogramBucket{
				RangeStart: prev,
				RangeEnd:   boundary,
				Count:      counts[i],
				Percentage: float64(counts[i]) / float64(totalCount) * 100,
			})
		}
		prev = boundary
	}
	if overflow > 0 {
		buckets = append(buckets, HistogramBucket{
			RangeStart: prev,
			RangeEnd:   -1,
			Count:      overflow,
			Percentage: float64(overflow) / float64(totalCount) * 100,
		})
	}
	return buckets
}

// FormatDurationShort formats microseconds to a short human-readable string
func FormatDurationShort(us int64) string {
	if us < 1000 {
		return fmt.Sprintf("%dus", us)
	} else if us < 1000000 {
		return fmt.Sprintf("%.0fms", float64(us)/1000)
	}
	return fmt.Sprintf("%.1fs", float64(us)/1000000)
}

// RenderASCIIHistogram renders an ASCII histogram from buckets
func RenderASCIIHistogram(buckets []HistogramBucket, maxBarWidth int) string {
	if len(buckets) == 0 {
		return "  No data recorded\n"
	}

	var sb strings.Builder
	sb.WriteString("\nResponse Time Histogram:\n")

	maxPct := float64(0)
	for _, b := range buckets {
		maxPct = math.Max(maxPct, b.Percentage)
	}
	if maxPct == 0 {
		maxPct = 1
	}

	for _, bucket := range buckets {
		var rangeLabel string
		switch {
		case bucket.RangeStart == 0:
			rangeLabel = fmt.Sprintf("  < %s", FormatDurationShort(bucket.RangeEnd))
		case bucket.RangeEnd == -1:
			rangeLabel = fmt.Sprintf("  > %s", FormatDurationShort(bucket.RangeStart))
		default:
			rangeLabel = fmt.Sprintf("  %s - %s", FormatDurationShort(bucket.RangeStart), FormatDurationShort(bucket.RangeEnd))
		}

		barWidth := int(math.Round(bucket.Percentage / maxPct * float64(maxBarWidth)))
		barWidth = max(0, min(barWidth, maxBarWidth))

		fmt.Fprintf(&sb, "%-20s [%s%s] %6.2f%% (%d)\n",
			rangeLabel,
			strings.Repeat("#", barWidth),
			strings.Repeat(" ", maxBarWidth-barWidth),
			bucket.Percentage, bucket.Count)
	}

	return sb.String()
}
