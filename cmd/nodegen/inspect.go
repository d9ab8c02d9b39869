package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <submodule> <callable>",
	Short: "Show what would be generated for one callable",
	Long: `Runs a single callable through classification, synthesis and validation
without writing anything, and prints its parameters, the rejection reason if
any, and both artifacts.

The submodule is given as library.submodule, or as the bare submodule name
when it is unambiguous.`,
	Example: "  nodegen inspect scipy.signal savgol_filter",
	Args:    cobra.ExactArgs(2),
	RunE:    runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	sub, err := findSubmodule(cfg, args[0])
	if err != nil {
		return err
	}

	runner := newRunner(cfg, true)
	defer runner.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := runner.Inspect(ctx, sub, args[1])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), res.Dump())
	return nil
}
