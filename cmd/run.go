package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/waiverintel/internal/domain/types"
)

func newRunCmd() *cobra.Command {
	var (
		league  string
		week    int
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one league week and print the report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			svc, closeStore, err := buildService(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := svc.Run(ctx, types.PassRequest{LeagueID: league, Week: week, Trigger: types.TriggerCLI})
			if err != nil {
				return fmt.Errorf("pass failed: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&league, "league", "", "league id")
	cmd.Flags().IntVar(&week, "week", 0, "fantasy week")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "batch directory (overrides data_dir)")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
