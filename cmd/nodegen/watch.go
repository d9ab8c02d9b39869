package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nodegen/internal/config"
	"nodegen/internal/logging"
	"nodegen/internal/watch"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever sources, catalogs or the config change",
	Long: `Runs a generation pass, then watches every configured source directory,
catalog file and the config file. Settled changes reload the config and
trigger a new pass. Stops on interrupt.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	regenerate := func(ctx context.Context, cfg *config.Config) {
		report, err := generate(ctx, cfg, "", "", false, true)
		if report != nil {
			renderReport(out, report)
		}
		if err != nil {
			logging.WatchWarn("%v", err)
		}
	}
	regenerate(ctx, cfg)

	w, err := watch.New(func(ctx context.Context, changed []string) {
		logging.WatchDebug("changed: %v", changed)
		next, _, err := loadConfig()
		if err != nil {
			logging.WatchWarn("keeping previous config: %v", err)
			next = cfg
		}
		regenerate(ctx, next)
	}, watch.Options{Debounce: cfg.GetDebounce()})
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := addWatches(w, cfg, path); err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, mutedStyle.Render("Watching for changes, press Ctrl+C to stop."))
	<-ctx.Done()
	return nil
}

// addWatches registers every configured input with w.
func addWatches(w *watch.Watcher, cfg *config.Config, configFile string) error {
	for _, lib := range cfg.Libraries {
		for _, sub := range lib.Submodules {
			var err error
			if sub.SourceDir != "" {
				err = w.AddTree(sub.SourceDir)
			} else {
				err = w.AddFile(sub.CatalogFile)
			}
			if err != nil {
				return fmt.Errorf("failed to watch %s.%s: %w", lib.Name, sub.Name, err)
			}
		}
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := w.AddFile(configFile); err != nil {
			return err
		}
	}
	return nil
}
