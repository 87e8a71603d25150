package benchmark

import (
	"fmt"
	"math"
	"strings"

	"github.com/bankbench/pkg/config"
)

// ThresholdResult represents the result of a single threshold check
type ThresholdResult struct {
	Name     string // Name of the threshold (e.g., "Max P99 Latency")
	Passed   bool   // Whether the threshold passed
	Expected string // Expected value
	Actual   string // Actual value
	Message  string // Human-readable message
}

// ThresholdResults represents all threshold check results
type ThresholdResults struct {
	Endpoint string
	Results  []ThresholdResult
	Passed   bool // Overall pass/fail
}

// EvaluateThresholds checks one endpoint result against the defined thresholds
func EvaluateThresholds(result *EndpointResult, thresholds *config.ThresholdConfig) (*ThresholdResults, error) {
	results := &ThresholdResults{
		Endpoint: result.Endpoint,
		Results:  make([]ThresholdResult, 0),
		Passed:   true,
	}

	if thresholds == nil || !thresholds.HasThresholds() {
		return results, nil
	}

	add := func(r ThresholdResult) {
		results.Results = append(results.Results, r)
		if !r.Passed {
			results.Passed = false
		}
	}

	// Check average response time
	if thresholds.MaxAvgResponseTime != "" {
		r, err := checkLatency("Max Avg Response Time", "Avg Response Time", result.AvgResponseTime, thresholds.MaxAvgResponseTime)
		if err != nil {
			return nil, err
		}
		add(r)
	}

	percentiles := []struct {
		p   int
		max string
	}{
		{50, thresholds.MaxP50},
		{90, thresholds.MaxP90},
		{99, thresholds.MaxP99},
	}
	for _, pc := range percentiles {
		if pc.max == "" {
			continue
		}
		actual, ok := result.Percentiles[PercentileKey(pc.p)]
		if !ok {
			return nil, fmt.Errorf("threshold on P%d needs %d in settings.percentiles", pc.p, pc.p)
		}
		r, err := checkLatency(fmt.Sprintf("Max P%d Latency", pc.p), fmt.Sprintf("P%d Latency", pc.p), actual, pc.max)
		if err != nil {
			return nil, err
		}
		add(r)
	}

	// Check minimum requests per second
	if thresholds.MinRequestsPerSecond > 0 {
		add(checkMinRPS(result.RequestsPerSecond, thresholds.MinRequestsPerSecond))
	}

	return results, nil
}

// EvaluateAll checks every result and reports whether all of them passed
func EvaluateAll(results []*EndpointResult, thresholds *config.ThresholdConfig) ([]*ThresholdResults, bool, error) {
	all := make([]*ThresholdResults, 0, len(results))
	passed := true
	for _, result := range results {
		tr, err := EvaluateThresholds(result, thresholds)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", result.Endpoint, err)
		}
		if !tr.Passed {
			passed = false
		}
		all = append(all, tr)
	}
	return all, passed, nil
}

// checkLatency checks that a latency in seconds does not exceed maxStr
func checkLatency(name, label string, actualSeconds float64, maxStr string) (ThresholdResult, error) {
	maxSeconds, err := config.ParseLatency(maxStr)
	if err != nil {
		return ThresholdResult{}, err
	}

	passed := actualSeconds <= maxSeconds
	actual := FormatSeconds(actualSeconds)
	return ThresholdResult{
		Name:     name,
		Passed:   passed,
		Expected: "≤ " + maxStr,
		Actual:   actual,
		Message:  formatResultMessage(label, passed, actual, "≤ "+maxStr),
	}, nil
}

// checkMinRPS checks if requests per second meets minimum threshold
func checkMinRPS(actualRPS, minRPS float64) ThresholdResult {
	passed := actualRPS >= minRPS

	return ThresholdResult{
		Name:     "Min Requests/sec",
		Passed:   passed,
		Expected: fmt.Sprintf("≥ %.2f", minRPS),
		Actual:   fmt.Sprintf("%.2f", actualRPS),
		Message:  formatResultMessage("Requests/sec", passed, fmt.Sprintf("%.2f", actualRPS), fmt.Sprintf("≥ %.2f", minRPS)),
	}
}

// FormatSeconds formats a duration in seconds into a human-readable string
func FormatSeconds(seconds float64) string {
	micros := int64(math.Round(seconds * 1e6))
	if micros < 1000 {
		return fmt.Sprintf("%dµs", micros)
	} else if micros < 1000000 {
		return fmt.Sprintf("%.2fms", float64(micros)/1000)
	}
	return fmt.Sprintf("%.2fs", seconds)
}

// formatResultMessage formats a threshold result message
func formatResultMessage(name string, passed bool, actual, expected string) string {
	status := "✓ PASS"
	if !passed {
		status = "✗ FAIL"
	}
	return fmt.Sprintf("%s: %s (actual: %s, expected: %s)", status, name, actual, expected)
}

// FormatResults returns a formatted string of all threshold results
func (r *ThresholdResults) FormatResults() string {
	if len(r.Results) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n  Threshold Results (%s):\n", r.Endpoint)

	for _, result := range r.Results {
		sb.WriteString("    ")
		sb.WriteString(result.Message)
		sb.WriteString("\n")
	}

	if r.Passed {
		sb.WriteString("\n  ✓ All thresholds passed\n")
	} else {
		sb.WriteString("\n  ✗ Some thresholds failed\n")
	}

	return sb.String()
}

// FailedCount returns the number of failed thresholds
func (r *ThresholdResults) FailedCount() int {
	count := 0
	for _, result := range r.Results {
		if !result.Passed {
			count++
		}
	}
	return count
}

// PassedCount returns the number of passed thresholds
func (r *ThresholdResults) PassedCount() int {
	count := 0
	for _, result := range r.Results {
		if result.Passed {
			count++
		}
	}
	return count
}
