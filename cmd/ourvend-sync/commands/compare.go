package commands

import (
	"fmt"
	"os"

	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/report"
	"ourvend-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var compareFlags struct {
	machine string
	json    string
}

func init() {
	compareCmd.Flags().StringVar(&compareFlags.machine, "machine", "", "The machine to compare when the document holds several.")
	compareCmd.Flags().StringVar(&compareFlags.json, "json", "", "Also write the differences as JSON to this path.")
	rootCmd.AddCommand(compareCmd)
}

func pickMachine(machines []machineconfig.MachineConfiguration, name string) (machineconfig.MachineConfiguration, error) {
	if name == "" {
		if len(machines) > 1 {
			return machineconfig.MachineConfiguration{}, fmt.Errorf("document holds %d machines, pick one with --machine", len(machines))
		}
		return machines[0], nil
	}
	for _, m := range machines {
		if m.MachineName == name || m.MachineID.String() == name {
			return m, nil
		}
	}
	return machineconfig.MachineConfiguration{}, fmt.Errorf("machine %q is not in the document", name)
}

var compareCmd = &cobra.Command{
	Use:   "compare <machine-config.json> <slot-export.csv>",
	Short: "Compares a machine configuration with a slot export downloaded from the console.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		machines, err := machineconfig.Load(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read machine configuration", err)
		}
		machine, err := pickMachine(machines, compareFlags.machine)
		if err != nil {
			serviceutil.Fatal("failed to pick machine", err)
		}

		f, err := os.Open(args[1])
		if err != nil {
			serviceutil.Fatal("failed to open slot export", err)
		}
		defer f.Close()
		export, err := machineconfig.ParseExport(f)
		if err != nil {
			serviceutil.Fatal("failed to parse slot export", err)
		}

		diffs := machineconfig.Compare(machineconfig.ConfigSlots(machine), export)
		report.WriteComparison(os.Stdout, machine, diffs)

		if compareFlags.json != "" {
			err := report.WriteJSON(compareFlags.json, diffs)
			if err != nil {
				serviceutil.Fatal("failed to write json", err)
			}
		}
	},
}
