// Package output handles benchmark result output in various formats
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
)

// FormatLatency formats a latency in seconds with appropriate units
func FormatLatency(seconds float64) string {
	if seconds >= 1 {
		return fmt.Sprintf("%.2fs", seconds)
	} else if seconds >= 0.001 {
		return fmt.Sprintf("%.2fms", seconds*1_000)
	} else {
		return fmt.Sprintf("%.2fus", seconds*1_000_000)
	}
}

// Write emits the run summary in the configured format. Console output is
// printed per endpoint while the run progresses, so it writes nothing here.
func Write(cfg *config.Config, results []*benchmark.EndpointResult) error {
	switch cfg.Output.Format {
	case "json":
		return withOutput(cfg.Output.File, func(w io.Writer) error { return WriteJSON(w, cfg, results) })
	case "csv":
		return withOutput(cfg.Output.File, func(w io.Writer) error { return WriteCSV(w, cfg, results) })
	case "html":
		file := cfg.Output.File
		if file == "" {
			file = "bankbench-report.html"
		}
		if err := withOutput(file, func(w io.Writer) error { return WriteHTML(w, cfg, results) }); err != nil {
			return err
		}
		fmt.Printf("HTML report saved to: %s\n", file)
		return nil
	default:
		return nil
	}
}

// withOutput runs write against file, or stdout when file is empty
func withOutput(file string, write func(io.Writer) error) error {
	if file == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
