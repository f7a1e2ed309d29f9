package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guardrailhq/aegis/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "Aegis - governance guardrail core for mission workflows",
	Long: `Aegis is the governance guardrail core behind a mission workflow
tool: it bounds field regeneration attempts, throttles request volume,
reconciles AI-proposed safeguard hints against user edits, and drives the
mission approval lifecycle with its append-only audit trail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
}

// loadConfig resolves the effective configuration for a command.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configFile)
}
