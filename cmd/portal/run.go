package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"grundbuch-online/portal/pkg/cli"
	"grundbuch-online/portal/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the portal server",
	Long: `Start the portal server with the specified configuration.

The server exposes the UVST gateway, address normalization and the order
API, dispatches new orders to the configured webhooks and records every
gateway call in the audit store.

Examples:
  # Start with defaults and PORTAL_* environment overrides
  portal run

  # Start with a config file
  portal run --config /etc/portal/portal.yaml

  # Override listen address
  portal run --listen 0.0.0.0:8080

  # Validate config without starting server
  portal run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if err := setupLogging(cfg.Telemetry.Logging, os.Stdout, false); err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	slog.Info("starting grundbuch portal",
		"version", Version,
		"config", cfgFile,
		"environments", len(cfg.UVST.Environments),
		"orders_backend", cfg.Orders.Backend,
	)
	if len(cfg.UVST.Environments) == 0 {
		slog.Warn("no UVST environments configured, gateway calls will fail")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("shutdown incomplete", "error", err)
		}
	}()

	srv := server.NewServer(&cfg.Server, a.deps)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
