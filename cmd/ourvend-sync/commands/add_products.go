package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"ourvend-sync/internal/catalog"
	"ourvend-sync/internal/components/chrono"
	comptelemetry "ourvend-sync/internal/components/telemetry"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/report"
	"ourvend-sync/internal/slotsync"
	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/scrapers/ourvend"
	"ourvend-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var addProductsFlags struct {
	fromReport   string
	images       string
	defaultPrice float64
	dryRun       bool
	headless     bool
	reportJSON   string
}

func init() {
	flags := addProductsCmd.Flags()
	flags.StringVar(&addProductsFlags.fromReport, "from-report", "", "Add the products a sync run could not find, read from its --report-json output.")
	flags.StringVar(&addProductsFlags.images, "images", "", "Directory of product pictures named after the products.")
	flags.Float64Var(&addProductsFlags.defaultPrice, "default-price", 0, "Unit price of products without a configured machine price.")
	flags.BoolVar(&addProductsFlags.dryRun, "dry-run", false, "Check the catalog without adding anything.")
	flags.BoolVar(&addProductsFlags.headless, "headless", false, "Run the browser without a window.")
	flags.StringVar(&addProductsFlags.reportJSON, "report-json", "", "Also write the results as JSON to this path.")
	rootCmd.AddCommand(addProductsCmd)
}

var errProductSource = errors.New("pass either a machine configuration or --from-report")

// loadProducts reads the products to add from a sync report or from a
// machine configuration document, exactly one of them must be given.
func loadProducts(reportPath string, args []string) ([]catalog.Product, error) {
	if (reportPath == "") == (len(args) == 0) {
		return nil, errProductSource
	}
	if reportPath != "" {
		var run slotsync.RunReport
		err := report.ReadJSON(reportPath, &run)
		if err != nil {
			return nil, err
		}
		return catalog.FromReport(run), nil
	}

	machines, err := machineconfig.Load(args[0])
	if err != nil {
		return nil, err
	}
	return catalog.FromMachines(machines), nil
}

func runAddProducts(ctx context.Context, cfg Config, products []catalog.Product) (catalog.Report, error) {
	tel := comptelemetry.SlogAPI{}
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return catalog.Report{}, err
	}

	b, err := browser.Launch(ctx, cfg.Browser)
	if err != nil {
		return catalog.Report{}, err
	}
	defer b.Close()

	page, err := b.NewPage(ctx)
	if err != nil {
		return catalog.Report{}, err
	}
	defer page.Close()

	session := ourvend.NewSession(page, cfg.Console, tel)
	adder := catalog.NewAdder(catalog.NewOurvendCatalog(session), cfg.Catalog, tel).WithClock(clock)
	return adder.Run(ctx, products)
}

var addProductsCmd = &cobra.Command{
	Use:   "add-products [machine-config.json]",
	Short: "Adds the products missing from the console's commodity catalog.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if addProductsFlags.images != "" {
			cfg.Catalog.ImageDir = addProductsFlags.images
		}
		if addProductsFlags.defaultPrice > 0 {
			cfg.Catalog.DefaultPrice = addProductsFlags.defaultPrice
		}
		cfg.Catalog.DryRun = cfg.Catalog.DryRun || addProductsFlags.dryRun
		cfg.Browser.Headless = cfg.Browser.Headless || addProductsFlags.headless

		products, err := loadProducts(addProductsFlags.fromReport, args)
		if err != nil {
			serviceutil.Fatal("failed to read products", err)
		}
		if len(products) == 0 {
			slog.Info("no products to add")
			return
		}

		result, runErr := runAddProducts(ctx, cfg, products)
		report.WriteCatalog(os.Stdout, result)
		if addProductsFlags.reportJSON != "" {
			err := report.WriteJSON(addProductsFlags.reportJSON, result)
			if err != nil {
				slog.Error("failed to write json report", "path", addProductsFlags.reportJSON, "err", err)
			}
		}
		if runErr != nil {
			serviceutil.Fatal("add-products aborted", runErr)
		}
	},
}
