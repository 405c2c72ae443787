package commands

import (
	"log/slog"
	"path/filepath"
	"strconv"

	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var generateOut string

func init() {
	generateCmd.Flags().StringVar(&generateOut, "out", ".", "The directory to write machine-<id>-config.json files to.")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <machine-id>...",
	Short: "Generates machine configuration documents from the fleet database.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		db, err := cfg.Database.Open()
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer db.Close()

		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				serviceutil.Fatal("invalid machine id", err)
			}
			machine, err := machineconfig.Generate(ctx, db, id)
			if err != nil {
				serviceutil.Fatal("failed to generate machine configuration", err)
			}

			path := filepath.Join(generateOut, machineconfig.FileName(arg))
			err = machineconfig.Save(path, machine)
			if err != nil {
				serviceutil.Fatal("failed to write machine configuration", err)
			}
			slog.Info(
				"generated machine configuration",
				"machine", machine.MachineName,
				"slots", len(machine.Slots),
				"path", path,
			)
		}
	},
}
