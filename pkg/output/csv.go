package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
)

// WriteCSV outputs one row per endpoint. Times are in seconds.
func WriteCSV(w io.Writer, cfg *config.Config, results []*benchmark.EndpointResult) error {
	writer := csv.NewWriter(w)

	header := []string{
		"timestamp",
		"name",
		"application_version",
		"auth",
		"endpoint",
		"number_of_requests",
		"min_response_time",
		"max_response_time",
		"avg_response_time",
		"std_dev_response_time",
	}
	for _, p := range cfg.Settings.Percentiles {
		header = append(header, fmt.Sprintf("p%d_response_time", p))
	}
	header = append(header, "elapsed_time", "requests_per_second", "access_denied")

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	for _, r := range results {
		row := []string{
			timestamp,
			cfg.Name,
			r.AppVersion,
			r.Auth,
			r.Endpoint,
			strconv.Itoa(r.NumberOfRequests),
			formatFloat(r.MinResponseTime),
			formatFloat(r.MaxResponseTime),
			formatFloat(r.AvgResponseTime),
			formatFloat(r.StdDevResponseTime),
		}
		for _, p := range cfg.Settings.Percentiles {
			row = append(row, formatFloat(r.Percentile(p)))
		}
		row = append(row,
			formatFloat(r.ElapsedTime),
			strconv.FormatFloat(r.RequestsPerSecond, 'f', 2, 64),
			strconv.FormatInt(r.AccessDenied, 10),
		)

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("error writing CSV data: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
