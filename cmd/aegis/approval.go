package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guardrailhq/aegis/internal/approval"
	"github.com/guardrailhq/aegis/internal/database"
	"github.com/guardrailhq/aegis/internal/observability"
	"github.com/guardrailhq/aegis/internal/types"
)

var approvalStatus string

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Inspect mission approvals",
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approvals, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		dao, closeDB, err := openApprovalDAO()
		if err != nil {
			return err
		}
		defer closeDB()

		status := approval.Status(approvalStatus)
		if approvalStatus != "" && !status.Valid() {
			return fmt.Errorf("unknown status %q", approvalStatus)
		}

		rows, err := dao.List(cmd.Context(), status)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			cmd.Println("No approvals found")
			return nil
		}
		for _, row := range rows {
			cmd.Printf("%s  %-10s  mission=%s  role=%s  updated=%s\n",
				row.ID, row.Status, row.MissionID, row.ApproverRole,
				row.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

var approvalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one approval with its history and comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}

		dao, closeDB, err := openApprovalDAO()
		if err != nil {
			return err
		}
		defer closeDB()

		row, err := dao.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(row, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

func openApprovalDAO() (*database.ApprovalDAO, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	return database.NewApprovalDAO(db, logger), db.Close, nil
}

func init() {
	approvalListCmd.Flags().StringVar(&approvalStatus, "status", "", "filter by status")
	approvalCmd.AddCommand(approvalListCmd)
	approvalCmd.AddCommand(approvalShowCmd)
	rootCmd.AddCommand(approvalCmd)
}
