package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/guardrailhq/aegis/internal/limiter"
)

var limiterCmd = &cobra.Command{
	Use:   "limiter",
	Short: "Administer regeneration limiters",
}

var limiterResetCmd = &cobra.Command{
	Use:   "reset <tenant> <mission> <field>",
	Short: "Clear the regeneration count for one key",
	Long: `Clears the shared regeneration counter for (tenant, mission, field).
Requires redis.addr in the config: in-memory counters are process-local and
cannot be reset from outside the owning process.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("no redis.addr configured; in-memory counters cannot be reset externally")
		}

		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()

		store := limiter.NewRedisCounterStore(client, cfg.Redis.Prefix)
		regen := limiter.NewRegenLimiter(store, limiter.RegenConfig{
			MaxAttempts: cfg.Regen.MaxAttempts,
			ResetWindow: cfg.Regen.ResetWindow,
		})

		if err := regen.Reset(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		cmd.Printf("Reset regeneration counter for %s/%s/%s\n", args[0], args[1], args[2])
		return nil
	},
}

func init() {
	limiterCmd.AddCommand(limiterResetCmd)
	rootCmd.AddCommand(limiterCmd)
}
