package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/bankbench/pkg/benchmark"
)

// WriteConsole prints the statistics of one endpoint
func WriteConsole(w io.Writer, r *benchmark.EndpointResult, percentiles []int, showHistogram bool) {
	fmt.Fprintf(w, "\n%s (%s, auth %s)\n", r.Endpoint, r.AppVersion, r.Auth)
	fmt.Fprintln(w, "Statistics        Avg      Stdev        Min        Max")

	fmt.Fprintf(w, "  Latency      %8s   %8s   %8s   %8s\n",
		FormatLatency(r.AvgResponseTime),
		FormatLatency(r.StdDevResponseTime),
		FormatLatency(r.MinResponseTime),
		FormatLatency(r.MaxResponseTime))

	if len(r.Percentiles) > 0 {
		fmt.Fprintln(w, "  Latency Distribution")
		for _, p := range percentiles {
			if v, ok := r.Percentiles[benchmark.PercentileKey(p)]; ok {
				fmt.Fprintf(w, "     %d%%    %s\n", p, FormatLatency(v))
			}
		}
	}

	fmt.Fprintf(w, "  Requests:     %d in %.2fs, %.2f req/s\n", r.NumberOfRequests, r.ElapsedTime, r.RequestsPerSecond)
	if r.AccessDenied > 0 {
		fmt.Fprintf(w, "  Access denied: %d\n", r.AccessDenied)
	}

	if len(r.Outcomes) > 0 {
		fmt.Fprintln(w, "  HTTP codes:")
		labels := make([]string, 0, len(r.Outcomes))
		for label := range r.Outcomes {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "    %s - %d\n", label, r.Outcomes[label])
		}
	}

	if showHistogram {
		fmt.Fprint(w, benchmark.RenderASCIIHistogram(r.Buckets(), 40))
	}
}

// WriteConsoleQuiet prints one line for an endpoint (quiet mode)
func WriteConsoleQuiet(w io.Writer, r *benchmark.EndpointResult) {
	fmt.Fprintf(w, "%s: Requests: %d, Duration: %.2fs, Req/s: %.2f, Avg Latency: %s, Access denied: %d\n",
		r.Endpoint,
		r.NumberOfRequests,
		r.ElapsedTime,
		r.RequestsPerSecond,
		FormatLatency(r.AvgResponseTime),
		r.AccessDenied)
}

// WriteSummary prints a table with one row per endpoint
func WriteSummary(w io.Writer, results []*benchmark.EndpointResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintf(w, "  %-26s %8s %10s %10s %10s %10s %8s\n", "Endpoint", "Requests", "Avg", "Stdev", "Max", "Req/s", "Denied")
	for _, r := range results {
		fmt.Fprintf(w, "  %-26s %8d %10s %10s %10s %10.2f %8d\n",
			r.Endpoint,
			r.NumberOfRequests,
			FormatLatency(r.AvgResponseTime),
			FormatLatency(r.StdDevResponseTime),
			FormatLatency(r.MaxResponseTime),
			r.RequestsPerSecond,
			r.AccessDenied)
	}
}
