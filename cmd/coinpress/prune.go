package main

import (
	"github.com/spf13/cobra"

	"coinpress/internal/app"
	"coinpress/internal/config"
)

func newPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove ledger entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if days <= 0 {
				days = cfg.Ledger.RetentionDays
			}

			store, closeStore, err := app.NewLedgerStore(cfg.Ledger)
			if err != nil {
				return err
			}
			defer closeStore()

			pruned, err := store.PruneOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			cmd.Printf("pruned %d entries older than %d days\n", pruned, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention window override in days")
	return cmd
}
