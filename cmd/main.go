// Package main is the entry point for bankbench
package main

import (
	"fmt"

	"github.com/bankbench/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

var (
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "bankbench",
	Short: "Load generator and resource monitor for the banking gateway",
	Long: `bankbench measures response times of the banking gateway endpoints and
records container resource usage while the load runs.

Examples:
  bankbench run -c bench.yaml                      # Run the configured endpoints
  bankbench run --app-version noauth -n 1000       # Quick run without credentials
  bankbench run --auth mixed --endpoint getCustomer -o json
  bankbench monitor --addr :5000                   # Serve capture triggers
  bankbench receive --addr :5001                   # Log exported results`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bankbench version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bankbench version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "Log format (console or json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(receiveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError("%v", err)
	}
}

func newLogger() (*zap.Logger, error) {
	return logging.New(flagLogLevel, flagLogFormat)
}
