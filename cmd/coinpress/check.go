package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"coinpress/internal/app"
	"coinpress/internal/config"
	"coinpress/internal/logging"
)

// check classifies ad-hoc content against the ledger without mutating it.
// Useful for manual inspection of why something was (or would be) skipped.
func newCheckCmd() *cobra.Command {
	var (
		itemID string
		text   string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Classify content against the processed ledger (read-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "-" {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}

			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			store, closeStore, err := app.NewLedgerStore(cfg.Ledger)
			if err != nil {
				return err
			}
			defer closeStore()

			detector := app.NewDetector(store, cfg.Dedup, logger)
			verdict, err := detector.Check(cmd.Context(), itemID, text, url)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "id", "", "external item identifier")
	cmd.Flags().StringVar(&text, "text", "", "content text, or - to read stdin")
	cmd.Flags().StringVar(&url, "url", "", "canonical source URL (optional)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("text")

	return cmd
}
