package main

import (
	"context"
	"fmt"
	"os"

	"nodegen/internal/ledger"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded generation runs",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return fmt.Errorf("the ledger is disabled")
	}
	if _, err := os.Stat(cfg.Ledger.Path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No runs recorded."))
		return nil
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if historyRun != "" {
		outcomes, err := store.Outcomes(ctx, historyRun)
		if err != nil {
			return err
		}
		renderOutcomes(cmd.OutOrStdout(), outcomes)
		return nil
	}

	runs, err := store.Runs(ctx, historyLimit)
	if err != nil {
		return err
	}
	renderRuns(cmd.OutOrStdout(), runs)
	return nil
}
