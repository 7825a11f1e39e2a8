package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"grundbuch-online/portal/pkg/cli"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Grundbuch portal - land-register ordering backend",
	Long: `Portal is the backend of the Grundbuch ordering portal.

It provides:
  - A gateway to the UVST land-register API (authentication, extracts, deeds)
  - Address normalization for Austrian addresses
  - Order intake with admin status management
  - Webhook dispatch of new orders
  - An audit trail of every gateway call`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus PORTAL_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration named by --config. Every command gets
// its own copy.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

// setupLogging installs the default logger. Commands other than run log to
// stderr at warn level unless --verbose is set.
func setupLogging(cfg config.LoggingConfig, w io.Writer, quiet bool) error {
	if quiet {
		cfg.Level = "warn"
		cfg.Format = "text"
	}
	if verbose {
		cfg.Level = "debug"
	}
	logger, err := logging.New(cfg, w)
	if err != nil {
		return cli.NewConfigError("telemetry.logging.level", err.Error())
	}
	slog.SetDefault(logger)
	return nil
}
