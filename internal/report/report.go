// Package report renders sync and comparison reports for people: tables
// on the terminal, a JSON file for tooling and an e-mail for whoever was
// not watching the run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/slotsync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const rule = "======================================================================"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// FormatDuration prints d as "2m 5s (125 seconds)".
func FormatDuration(d time.Duration) string {
	seconds := int(d / time.Second)
	return fmt.Sprintf("%dm %ds (%d seconds)", seconds/60, seconds%60, seconds)
}

func joinSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ", ")
}

// WriteRun writes the summary of a sync run.
func WriteRun(w io.Writer, r slotsync.RunReport) {
	fmt.Fprintln(w, rule)
	if r.DryRun {
		fmt.Fprintln(w, "SYNC SUMMARY (dry run, nothing was saved)")
	} else {
		fmt.Fprintln(w, "SYNC SUMMARY")
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Duration: %s\n", FormatDuration(r.Duration()))
	if r.FatalError != "" {
		fmt.Fprintf(w, "Aborted: %s\n", r.FatalError)
	}

	overview := newTable(w)
	overview.AppendHeader(table.Row{"Machine", "Grouping", "Successful", "Failed", "Duration"})
	for _, m := range r.Machines {
		overview.AppendRow(table.Row{
			m.MachineName,
			m.Grouping,
			m.Successful,
			m.Failed,
			(time.Duration(m.ElapsedMs) * time.Millisecond).Round(time.Second).String(),
		})
	}
	successful, failed := r.Totals()
	overview.AppendFooter(table.Row{"Total", "", successful, failed, ""})
	overview.Render()

	for _, m := range r.Machines {
		writeMachine(w, m)
	}

	if len(r.ProductsNotFound) > 0 {
		fmt.Fprintf(w, "\nPRODUCTS NOT FOUND IN DROPDOWN (%d total):\n", len(r.ProductsNotFound))
		products := newTable(w)
		products.AppendHeader(table.Row{"Product", "Slots", "Did you mean"})
		for _, p := range r.ProductsNotFound {
			refs := make([]string, len(p.Slots))
			for i, ref := range p.Slots {
				refs[i] = fmt.Sprintf("%s #%d", ref.Machine, ref.Slot)
			}
			products.AppendRow(table.Row{
				p.Product,
				strings.Join(refs, ", "),
				strings.Join(p.Suggestions, ", "),
			})
		}
		products.Render()
	}
	fmt.Fprintln(w, rule)
}

func writeMachine(w io.Writer, m slotsync.MachineReport) {
	fmt.Fprintf(w, "\nMachine: %s\n", m.MachineName)
	if m.SetupError != "" {
		fmt.Fprintf(w, "Setup failed: %s\n", m.SetupError)
	}

	var synced, skipped []int
	var failures []slotsync.SlotUpdateResult
	for _, res := range m.Results {
		switch {
		case !res.Success:
			failures = append(failures, res)
		case res.Skipped:
			skipped = append(skipped, res.Slot)
		default:
			synced = append(synced, res.Slot)
		}
	}

	fmt.Fprintf(w, "Successfully synced: %d slots\n", m.Successful)
	if len(synced) > 0 {
		fmt.Fprintf(w, "  Slots: %s\n", joinSlots(synced))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(w, "  Skipped (dry run): %s\n", joinSlots(skipped))
	}
	fmt.Fprintf(w, "Failed: %d slots\n", m.Failed)
	if len(failures) == 0 || m.SetupError != "" {
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Slot", "Product", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
	})
	for _, res := range failures {
		product := res.ProductName
		if res.Cleared {
			product = "(clear)"
		}
		t.AppendRow(table.Row{res.Slot, product, res.Error})
	}
	t.Render()
}

func formatPrice(v float64) string {
	return "€" + machineconfig.FormatDecimal(v)
}

// WriteComparison writes the differences between a machine configuration
// and the console's slot export.
func WriteComparison(w io.Writer, machine machineconfig.MachineConfiguration, diffs []machineconfig.Difference) {
	fmt.Fprintln(w, "=== COMPARISON REPORT ===")
	fmt.Fprintf(
		w, "Machine: %s (ID: %s, Serial: %s)\n",
		machine.MachineName, machine.MachineID, machine.Serial,
	)
	if len(diffs) == 0 {
		fmt.Fprintln(w, "No differences found, the configuration matches the export.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Slot", "Difference", "Config", "Export"})
	var mismatches, missingInConfig, missingInCSV int
	for _, d := range diffs {
		config, export := "", ""
		switch d.Kind {
		case machineconfig.MissingInConfig:
			missingInConfig++
			export = fmt.Sprintf("%q %s", d.CSV.ProductName, formatPrice(d.CSV.MachinePrice))
		case machineconfig.MissingInCSV:
			missingInCSV++
			config = fmt.Sprintf("%q %s", d.Config.ProductName, formatPrice(d.Config.MachinePrice))
		case machineconfig.Mismatch:
			mismatches++
			var left, right []string
			if d.NameDiffers {
				left = append(left, strconv.Quote(d.Config.ProductName))
				right = append(right, strconv.Quote(d.CSV.ProductName))
			}
			if d.PriceDiffers {
				left = append(left, formatPrice(d.Config.MachinePrice))
				right = append(right, formatPrice(d.CSV.MachinePrice))
			}
			config = strings.Join(left, " ")
			export = strings.Join(right, " ")
		}
		t.AppendRow(table.Row{d.SlotNumber, string(d.Kind), config, export})
	}
	t.Render()

	fmt.Fprintln(w, "=== SUMMARY ===")
	fmt.Fprintf(w, "  Mismatches: %d\n", mismatches)
	fmt.Fprintf(w, "  Missing in config: %d\n", missingInConfig)
	fmt.Fprintf(w, "  Missing in export: %d\n", missingInCSV)
	fmt.Fprintf(w, "  Total differences: %d\n", len(diffs))
}

// Subject is a one line summary of a run, used as the e-mail subject.
func Subject(r slotsync.RunReport) string {
	successful, failed := r.Totals()
	subject := fmt.Sprintf("ourvend-sync: %d slots synced, %d failed", successful, failed)
	if r.DryRun {
		subject += " (dry run)"
	}
	if r.FatalError != "" {
		subject += ", run aborted"
	}
	return subject
}
