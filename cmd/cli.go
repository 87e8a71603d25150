package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bankbench/pkg/config"
)

// runFlags holds the flags of the run command
type runFlags struct {
	ConfigFile   string
	Host         string
	AppVersion   string
	Auth         string
	Requests     int
	Endpoints    []string
	Timeout      string
	RateLimit    int
	HTTP2        bool
	Insecure     bool
	OutputFormat string
	OutputFile   string
	TimesLog     string
	Database     string
	MonitorURL   string
	TriggerAt    int
	ExportURL    string
	Seed         int64
	Percentiles  config.IntSliceFlag
	QuietMode    bool
	VerboseMode  bool
	ShowProgress bool
}

// validateFlags validates the parsed flags and returns any errors
func validateFlags(flags *runFlags) error {
	if flags.VerboseMode && flags.QuietMode {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}
	return nil
}

// loadConfiguration loads the config file, or defaults when none is given
func loadConfiguration(flags *runFlags) (*config.Config, error) {
	if flags.ConfigFile == "" {
		return config.New(), nil
	}
	return config.Load(flags.ConfigFile)
}

// applyConfigOverrides copies every flag the user set onto cfg
func applyConfigOverrides(cfg *config.Config, flags *runFlags, changed func(name string) bool) {
	if changed("host") {
		cfg.Host = flags.Host
	}
	if changed("app-version") {
		cfg.AppVersion = flags.AppVersion
	}
	if changed("auth") {
		cfg.Auth = flags.Auth
	}
	if changed("requests") {
		cfg.Requests = flags.Requests
	}
	if changed("endpoint") {
		cfg.Endpoints = flags.Endpoints
	}
	if changed("timeout") {
		cfg.Settings.Timeout = flags.Timeout
	}
	if changed("rate") {
		cfg.Settings.RateLimit = flags.RateLimit
	}
	if changed("http2") {
		cfg.Settings.HTTP2 = flags.HTTP2
	}
	if changed("insecure") {
		cfg.Settings.Insecure = flags.Insecure
	}
	if changed("output") {
		cfg.Output.Format = flags.OutputFormat
	}
	if changed("output-file") {
		cfg.Output.File = flags.OutputFile
	}
	if changed("times-log") {
		cfg.Output.TimesLog = flags.TimesLog
	}
	if changed("db") {
		cfg.Output.Database = flags.Database
	}
	if changed("monitor-url") {
		cfg.Monitor.URL = flags.MonitorURL
	}
	if changed("trigger-at") {
		cfg.Monitor.TriggerAt = flags.TriggerAt
	}
	if changed("export-url") {
		cfg.Export.URL = flags.ExportURL
	}
	if changed("seed") {
		cfg.Settings.Seed = flags.Seed
	}
	if changed("percentiles") {
		cfg.Settings.Percentiles = flags.Percentiles
	}
	if changed("progress") {
		cfg.Settings.ShowProgress = flags.ShowProgress
	}
}

// printConfiguration prints the run configuration to console
func printConfiguration(cfg *config.Config, verboseMode bool) {
	if cfg.Name != "" {
		fmt.Printf("Benchmark: %s\n", cfg.Name)
	}
	fmt.Printf("Host: %s\n", cfg.Host)
	fmt.Printf("Application version: %s\n", cfg.AppVersion)
	if !cfg.IsNoAuth() {
		fmt.Printf("Auth: %s\n", cfg.Auth)
	}
	fmt.Printf("Requests per endpoint: %d\n", cfg.Requests)
	fmt.Printf("Endpoints: %s\n", strings.Join(cfg.Endpoints, ", "))
	fmt.Printf("Request timeout: %s\n", cfg.Timeout())

	if cfg.Settings.Insecure {
		fmt.Println("TLS verification: disabled")
	}
	if cfg.Settings.HTTP2 {
		fmt.Println("Protocol: HTTP/2")
	}
	if cfg.Settings.RateLimit > 0 {
		fmt.Printf("Rate limit: %d req/s\n", cfg.Settings.RateLimit)
	}
	if cfg.IsKeepAliveDisabled() {
		fmt.Println("Keep-alive: disabled")
	}
	if cfg.Monitor.TriggerAt > 0 && cfg.Monitor.URL != "" {
		fmt.Printf("Resource monitor: %s (at request %d)\n", cfg.Monitor.URL, cfg.Monitor.TriggerAt)
	}
	if cfg.Export.URL != "" {
		fmt.Printf("Export: %s\n", cfg.Export.URL)
	}

	if verboseMode {
		fmt.Printf("Percentiles: %v\n", cfg.Settings.Percentiles)
		fmt.Printf("Seed: %d\n", cfg.Settings.Seed)
		if cfg.Output.TimesLog != "" {
			fmt.Printf("Times log: %s\n", cfg.Output.TimesLog)
		}
		if cfg.Output.Database != "" {
			fmt.Printf("Database: %s\n", cfg.Output.Database)
		}
	}

	fmt.Println()
}

// exitWithError prints an error message and exits
func exitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
