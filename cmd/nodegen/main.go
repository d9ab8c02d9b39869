package main

import (
	"fmt"
	"os"
	"path/filepath"

	"nodegen/internal/config"
	"nodegen/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string

	// Logger
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nodegen",
	Short: "Generate Flojoy nodes from numerical library callables",
	Long: `nodegen reads the callables of a numerical Python library (scipy.signal,
scipy.stats, ...) and writes, for each one it can adapt, a Flojoy node wrapper
NAME(dc, params) and a matching YAML manifest.

Callables with forbidden parameter types, or whose docstring mentions a
callable argument, are rejected as a whole: either both artifacts are written
or neither is.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		cfg.Level = logLevel
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default <workspace>/nodegen.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default current directory)")

	generateCmd.Flags().StringVar(&generateLibrary, "library", "", "Only generate this library")
	generateCmd.Flags().StringVar(&generateSubmodule, "submodule", "", "Only generate this submodule")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate and validate without writing files")
	generateCmd.Flags().BoolVar(&noLedger, "no-ledger", false, "Do not record the run in the ledger")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the outcomes of one run")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveWorkspace returns the absolute workspace directory.
func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		if ws, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	return filepath.Abs(ws)
}

// resolvedConfigPath returns the config file in use.
func resolvedConfigPath(ws string) string {
	if configPath != "" {
		if filepath.IsAbs(configPath) {
			return configPath
		}
		return filepath.Join(ws, configPath)
	}
	return filepath.Join(ws, config.DefaultFileName)
}

// loadConfig loads, resolves and validates the configuration, then applies
// its logging section.
func loadConfig() (*config.Config, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", err
	}
	path := resolvedConfigPath(ws)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	cfg.Resolve(ws)
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}

	if !verbose {
		if lvl, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			logLevel.SetLevel(lvl)
		}
	}
	logging.Configure(cfg.Logging.Categories)
	logging.BootDebug("config %s, workspace %s", path, ws)
	return cfg, path, nil
}
