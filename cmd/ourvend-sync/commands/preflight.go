package commands

import (
	"log/slog"

	comptelemetry "ourvend-sync/internal/components/telemetry"
	"ourvend-sync/lib/restyutil"
	"ourvend-sync/lib/scrapers/ourvend"
	"ourvend-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(preflightCmd)
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Checks that the console is reachable and still serves the expected login form.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		var output restyutil.InstrumentOutput
		if verbose {
			fsOutput, err := restyutil.NewFilesystemOutput(cfg.RequestDumps)
			if err != nil {
				serviceutil.Fatal("failed to create request dump directory", err)
			}
			slog.Debug("writing request dumps", "dir", fsOutput.Dir())
			output = fsOutput
		}

		result, err := ourvend.Preflight(cmd.Context(), cfg.Console, comptelemetry.SlogAPI{}, output)
		if err != nil {
			serviceutil.Fatal("preflight failed", err)
		}
		slog.Info(
			"console reachable",
			"url", result.URL,
			"status", result.Status,
			"elapsed", result.Elapsed,
		)
	},
}
