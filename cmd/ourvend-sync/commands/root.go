package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ourvend-sync/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ourvend-sync",
	Short: "ourvend-sync pushes machine slot configurations into the Ourvend console.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ourvend.json5", "The configuration file, <name>.local.json5 next to it overrides it.")
}

func ExecuteContext(ctx context.Context) {
	tel, err := telemetry.SetupOptional(ctx, "ourvend-sync")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	err = rootCmd.ExecuteContext(ctx)

	shutdownErr := tel.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
