package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bankbench/pkg/config"
	"github.com/bankbench/pkg/monitor"
	"github.com/bankbench/pkg/output"
	"github.com/bankbench/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const probeTimeout = 30 * time.Second

var monitorOpts struct {
	ConfigFile string
	Addr       string
	Iterations int
	Interval   string
	LogFile    string
	Database   string
	Command    string
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Serve resource captures triggered by a load run",
	Long: `Monitor waits for POST /start/{version}/{endpoint} and then samples container
statistics a fixed number of times. Each finished capture is appended to the
resources log and optionally stored in SQLite. Current values are exposed on
/metrics for Prometheus.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	f := monitorCmd.Flags()
	f.StringVarP(&monitorOpts.ConfigFile, "config", "c", "", "Path to JSON or YAML configuration file")
	f.StringVar(&monitorOpts.Addr, "addr", "", "Listen address (default :5000)")
	f.IntVar(&monitorOpts.Iterations, "iterations", 0, "Samples per capture (default 30)")
	f.StringVar(&monitorOpts.Interval, "interval", "", "Pause between two samples, e.g. 500ms (default 0s)")
	f.StringVar(&monitorOpts.LogFile, "log-file", "", "JSON lines file for capture reports (default resources.log)")
	f.StringVar(&monitorOpts.Database, "db", "", "SQLite database that stores capture reports")
	f.StringVar(&monitorOpts.Command, "command", "", "Stats command (default \"docker stats --no-stream\")")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg := config.New()
	if monitorOpts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(monitorOpts.ConfigFile); err != nil {
			return err
		}
	}

	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Monitor.Addr = monitorOpts.Addr
	}
	if changed("iterations") {
		cfg.Monitor.Iterations = monitorOpts.Iterations
	}
	if changed("interval") {
		cfg.Monitor.Interval = monitorOpts.Interval
	}
	if changed("log-file") {
		cfg.Monitor.LogFile = monitorOpts.LogFile
	}
	if changed("db") {
		cfg.Output.Database = monitorOpts.Database
	}
	if changed("command") {
		cfg.Monitor.Command = strings.Fields(monitorOpts.Command)
	}
	if cfg.Monitor.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", cfg.Monitor.Iterations)
	}
	if _, err := time.ParseDuration(cfg.Monitor.Interval); err != nil {
		return fmt.Errorf("invalid monitor interval: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := monitor.NewSampler(monitor.ExecRunner{Args: cfg.Monitor.Command}, logger)

	// Fail fast when the stats command does not work at all
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	samples, err := sampler.Snapshot(probeCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("probing container stats: %w", err)
	}
	names := make([]string, 0, len(samples))
	for _, s := range samples {
		names = append(names, s.Container)
	}
	logger.Info("Discovered containers", zap.Int("count", len(names)), zap.Strings("containers", names))

	var sinks []monitor.ReportSink
	if cfg.Monitor.LogFile != "" {
		resources := output.NewLineWriter(cfg.Monitor.LogFile)
		sinks = append(sinks, func(_ context.Context, r *monitor.Report) error {
			return resources.Append(r)
		})
	}
	if cfg.Output.Database != "" {
		db, err := store.NewManager(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db.ReportSink())
	}

	server := monitor.NewServer(sampler, monitor.NewMetrics(), logger, monitor.Options{
		Iterations: cfg.Monitor.Iterations,
		Interval:   cfg.MonitorInterval(),
	}, sinks...)
	defer server.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	return serve(ctx, cfg.Monitor.Addr, server.Router(), logger)
}
