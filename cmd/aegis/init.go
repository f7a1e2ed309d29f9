package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guardrailhq/aegis/internal/config"
	"github.com/guardrailhq/aegis/internal/database"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file and initialize the approval store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "aegis.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		data, err := config.DefaultYAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		cfg := config.Default()
		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.InitSchema(); err != nil {
			return err
		}

		cmd.Printf("Wrote %s and initialized %s\n", path, cfg.Database.Path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
