package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bankbench/pkg/config"
	"github.com/bankbench/pkg/output"
	"github.com/bankbench/pkg/receiver"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var receiveOpts struct {
	ConfigFile string
	Addr       string
	LogFile    string
}

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Append POSTed JSON documents to a log file",
	Long: `Receive accepts JSON documents on POST / and appends each one as a compact
line to the requests log. Point a load run's --export-url at it to keep a copy
of every endpoint result.`,
	Args: cobra.NoArgs,
	RunE: runReceive,
}

func init() {
	f := receiveCmd.Flags()
	f.StringVarP(&receiveOpts.ConfigFile, "config", "c", "", "Path to JSON or YAML configuration file")
	f.StringVar(&receiveOpts.Addr, "addr", "", "Listen address (default :5001)")
	f.StringVar(&receiveOpts.LogFile, "log-file", "", "JSON lines file for received documents (default requests.log)")
}

func runReceive(cmd *cobra.Command, _ []string) error {
	cfg := config.New()
	if receiveOpts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(receiveOpts.ConfigFile); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("addr") {
		cfg.Receiver.Addr = receiveOpts.Addr
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Receiver.LogFile = receiveOpts.LogFile
	}
	if cfg.Receiver.LogFile == "" {
		return errors.New("a log file is required")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	router := receiver.Router(output.NewLineWriter(cfg.Receiver.LogFile), logger)
	return serve(ctx, cfg.Receiver.Addr, router, logger)
}
