package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nodegen/internal/config"
	"nodegen/internal/ledger"
	"nodegen/internal/logging"
	"nodegen/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	generateLibrary   string
	generateSubmodule string
	dryRun            bool
	noLedger          bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate node wrappers and manifests",
	Long: `Generates a wrapper and a manifest for every eligible callable of the
configured submodules, then writes each submodule's __init__.py index.

Rejected callables leave no files behind. The run and every callable's
outcome are recorded in the ledger unless --no-ledger is given.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := generate(ctx, cfg, generateLibrary, generateSubmodule, dryRun, !noLedger)
	if report != nil {
		renderReport(cmd.OutOrStdout(), report)
	}
	return err
}

// generate runs one generation pass over the matching submodules.
func generate(ctx context.Context, cfg *config.Config, lib, sub string, dry, useLedger bool) (*pipeline.Report, error) {
	subs, err := buildSubmodules(cfg, lib, sub)
	if err != nil {
		return nil, err
	}

	runner := newRunner(cfg, dry)
	defer runner.Close()

	if useLedger && cfg.Ledger.Enabled {
		store, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logging.PipelineWarn("ledger disabled: %v", err)
		} else {
			defer store.Close()
			runner.WithRecorder(store)
		}
	}

	report, err := runner.Run(ctx, subs)
	if err != nil {
		return report, fmt.Errorf("generation failed: %w", err)
	}
	return report, nil
}
