package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/cdslib/config"
	"github.com/meenmo/cdslib/internal/logging"
)

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (a *app) sync() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cdsprice",
		Short: "Value credit default swaps",
		Long: `cdsprice reads a CDS request (YAML or JSON) with its curves, values it with
the analytic flat-forward or the discrete annuity pricer, and writes JSON to stdout.

Rates are in percent, spreads in bp, curve times in ACT/365F years.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if level, _ := cmd.Flags().GetString("log-level"); strings.TrimSpace(level) != "" {
				cfg.Logging.Level = level
			}
			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newPriceCmd(a))
	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newImpliedCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func addInputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "input path (optional; if unset, reads stdin)")
}
