package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/config"
	"github.com/bankbench/pkg/output"
	"github.com/bankbench/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errThresholdsFailed = errors.New("thresholds failed")

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Measure the configured gateway endpoints",
	Long: `Run sends the configured number of POST requests to every endpoint in order,
refilling and restoring the gateway's data between endpoints. Every endpoint
result is appended to the times log and optionally stored, exported and checked
against thresholds.`,
	Args: cobra.NoArgs,
	RunE: runBenchmark,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.ConfigFile, "config", "c", "", "Path to JSON or YAML configuration file")
	f.StringVar(&runOpts.Host, "host", "", "Gateway base URL (default http://localhost:8000)")
	f.StringVar(&runOpts.AppVersion, "app-version", "", "Application version under test (noauth disables credentials)")
	f.StringVar(&runOpts.Auth, "auth", "", "Credentials to send: valid, invalid or mixed")
	f.IntVarP(&runOpts.Requests, "requests", "n", 0, "Number of requests per endpoint")
	f.StringArrayVarP(&runOpts.Endpoints, "endpoint", "e", nil, "Endpoint to measure, can be repeated (default all, in order)")
	f.StringVar(&runOpts.Timeout, "timeout", "", "Timeout for each request, e.g. 30s")
	f.IntVarP(&runOpts.RateLimit, "rate", "R", 0, "Rate limit in requests per second (0 = unlimited)")
	f.BoolVar(&runOpts.HTTP2, "http2", false, "Use HTTP/2")
	f.BoolVarP(&runOpts.Insecure, "insecure", "k", false, "Skip TLS certificate verification")
	f.StringVarP(&runOpts.OutputFormat, "output", "o", "", "Output format: console, json, csv or html")
	f.StringVar(&runOpts.OutputFile, "output-file", "", "Output file path (default: stdout for json/csv)")
	f.StringVar(&runOpts.TimesLog, "times-log", "", "JSON lines file for endpoint results, empty disables (default times.log)")
	f.StringVar(&runOpts.Database, "db", "", "SQLite database that stores endpoint results")
	f.StringVar(&runOpts.MonitorURL, "monitor-url", "", "Resource monitor base URL (default http://localhost:5000)")
	f.IntVar(&runOpts.TriggerAt, "trigger-at", 0, "Request index that starts a resource capture, negative disables (default 1000)")
	f.StringVar(&runOpts.ExportURL, "export-url", "", "URL every endpoint result is POSTed to")
	f.Int64Var(&runOpts.Seed, "seed", 0, "Seed for generated request bodies")
	f.VarP(&runOpts.Percentiles, "percentiles", "p", "Percentiles to report (comma-separated, e.g. '50,90,99')")
	f.BoolVarP(&runOpts.QuietMode, "quiet", "q", false, "Quiet mode - one line per endpoint")
	f.BoolVarP(&runOpts.VerboseMode, "verbose", "V", false, "Verbose mode - show the full configuration")
	f.BoolVar(&runOpts.ShowProgress, "progress", false, "Show a progress bar while measuring")
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	if err := validateFlags(&runOpts); err != nil {
		return err
	}

	cfg, err := loadConfiguration(&runOpts)
	if err != nil {
		return err
	}
	applyConfigOverrides(cfg, &runOpts, cmd.Flags().Changed)
	cfg.ResolveConfigVariables()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Structured output owns stdout
	isQuietOutput := cfg.Output.Format == "json" || cfg.Output.Format == "csv"
	effectiveQuietMode := runOpts.QuietMode || isQuietOutput

	if !effectiveQuietMode {
		printConfiguration(cfg, runOpts.VerboseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := benchmark.NewRunner(cfg, logger, benchmark.WithQuiet(effectiveQuietMode))
	defer runner.Close()

	sinks, closeSinks, err := resultSinks(cfg, logger, runOpts.QuietMode, isQuietOutput)
	if err != nil {
		return err
	}
	defer closeSinks()

	results, err := benchmark.NewPlan(cfg, runner, logger, sinks...).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && !effectiveQuietMode {
			fmt.Println("\nBenchmark interrupted, shutting down...")
		}
		return err
	}

	if !effectiveQuietMode {
		output.WriteSummary(os.Stdout, results)
	}
	if err := output.Write(cfg, results); err != nil {
		return err
	}

	var report io.Writer = os.Stdout
	if isQuietOutput {
		report = os.Stderr
	}
	return checkThresholds(report, cfg, results)
}

// resultSinks builds the per-endpoint result consumers in the order they run
func resultSinks(cfg *config.Config, logger *zap.Logger, quietMode, isQuietOutput bool) ([]benchmark.ResultSink, func(), error) {
	var sinks []benchmark.ResultSink
	closeFn := func() {}

	if cfg.Output.TimesLog != "" {
		times := output.NewLineWriter(cfg.Output.TimesLog)
		sinks = append(sinks, func(_ context.Context, r *benchmark.EndpointResult) error {
			return times.Append(r)
		})
	}

	if !isQuietOutput {
		sinks = append(sinks, func(_ context.Context, r *benchmark.EndpointResult) error {
			if quietMode {
				output.WriteConsoleQuiet(os.Stdout, r)
			} else {
				output.WriteConsole(os.Stdout, r, cfg.Settings.Percentiles, cfg.Settings.ShowHistogram)
			}
			return nil
		})
	}

	if cfg.Output.Database != "" {
		db, err := store.NewManager(cfg.Output.Database)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close results database", zap.Error(err))
			}
		}
		sinks = append(sinks, db.ResultSink())
	}

	if cfg.Export.URL != "" {
		sinks = append(sinks, benchmark.ExportSink(benchmark.NewClient(cfg), cfg.Export.URL, logger))
	}

	return sinks, closeFn, nil
}

// checkThresholds prints the threshold verdict of every endpoint and fails
// the run if any of them did not pass
func checkThresholds(w io.Writer, cfg *config.Config, results []*benchmark.EndpointResult) error {
	if !cfg.Thresholds.HasThresholds() {
		return nil
	}

	evaluated, passed, err := benchmark.EvaluateAll(results, &cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("evaluating thresholds: %w", err)
	}
	for _, r := range evaluated {
		fmt.Fprint(w, r.FormatResults())
	}
	if !passed {
		return errThresholdsFailed
	}
	return nil
}
