package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ourvend-sync/internal/components/chrono"
	comptelemetry "ourvend-sync/internal/components/telemetry"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/report"
	"ourvend-sync/internal/slotsync"
	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/scrapers/ourvend"
	"ourvend-sync/lib/telemetry"
	"ourvend-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var syncFlags struct {
	dryRun     bool
	slots      string
	reportJSON string
	extended   bool
	headless   bool
}

func init() {
	flags := syncCmd.Flags()
	flags.BoolVar(&syncFlags.dryRun, "dry-run", false, "Reconcile every slot but discard the editors and skip clears.")
	flags.StringVar(&syncFlags.slots, "slots", "", "Only process these slot numbers, comma separated.")
	flags.StringVar(&syncFlags.reportJSON, "report-json", "", "Also write the run report as JSON to this path.")
	flags.BoolVar(&syncFlags.extended, "extended", false, "Also reconcile capacity, stock, discounts and the alerting quantity.")
	flags.BoolVar(&syncFlags.headless, "headless", false, "Run the browser without a window.")
	rootCmd.AddCommand(syncCmd)
}

// parseSlots parses a comma separated list of slot numbers.
func parseSlots(value string) ([]int, error) {
	var slots []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid slot number %q", part)
		}
		slots = append(slots, n)
	}
	return slots, nil
}

func runSync(ctx context.Context, cfg Config, machines []machineconfig.MachineConfiguration) (slotsync.RunReport, error) {
	tel := comptelemetry.SlogAPI{}
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return slotsync.RunReport{}, err
	}

	b, err := browser.Launch(ctx, cfg.Browser)
	if err != nil {
		return slotsync.RunReport{}, err
	}
	defer b.Close()

	page, err := b.NewPage(ctx)
	if err != nil {
		return slotsync.RunReport{}, err
	}
	defer page.Close()

	session := ourvend.NewSession(page, cfg.Console, tel)
	runner := slotsync.NewRunner(slotsync.NewOurvendConsole(session), cfg.Sync, tel).WithClock(clock)
	return runner.Run(ctx, machines)
}

var syncCmd = &cobra.Command{
	Use:   "sync <machine-config.json>",
	Short: "Updates the console's slots to match a machine configuration document.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg.Sync.DryRun = cfg.Sync.DryRun || syncFlags.dryRun
		cfg.Sync.ReconcileExtendedFields = cfg.Sync.ReconcileExtendedFields || syncFlags.extended
		cfg.Browser.Headless = cfg.Browser.Headless || syncFlags.headless
		slots, err := parseSlots(syncFlags.slots)
		if err != nil {
			serviceutil.Fatal("invalid --slots", err)
		}
		if len(slots) > 0 {
			cfg.Sync.Slots = slots
		}

		machines, err := machineconfig.Load(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read machine configuration", err)
		}
		warnings, err := machineconfig.Validate(machines)
		for _, w := range warnings {
			slog.Warn(w)
		}
		if err != nil {
			serviceutil.Fatal("invalid machine configuration", err)
		}

		if cfg.Preflight {
			_, err := ourvend.Preflight(ctx, cfg.Console, comptelemetry.SlogAPI{}, nil)
			if err != nil {
				serviceutil.Fatal("console preflight failed", err)
			}
		}

		perfCtx, stopPerf := context.WithCancel(ctx)
		telemetry.InstrumentPerfStats(perfCtx, 30*time.Second)
		result, runErr := runSync(ctx, cfg, machines)
		stopPerf()

		report.WriteRun(os.Stdout, result)
		if syncFlags.reportJSON != "" {
			err := report.WriteJSON(syncFlags.reportJSON, result)
			if err != nil {
				slog.Error("failed to write json report", "path", syncFlags.reportJSON, "err", err)
			}
		}
		if cfg.Email.Enabled() {
			err := report.NewMailer(cfg.Email).SendRun(context.Background(), result)
			if err != nil {
				slog.Error("failed to mail report", "err", err)
			}
		}

		if runErr != nil {
			serviceutil.Fatal("sync aborted", runErr)
		}
	},
}
