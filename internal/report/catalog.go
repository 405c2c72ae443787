package report

import (
	"fmt"
	"io"

	"ourvend-sync/internal/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteCatalog writes the summary of an add-products run.
func WriteCatalog(w io.Writer, r catalog.Report) {
	fmt.Fprintln(w, rule)
	if r.DryRun {
		fmt.Fprintln(w, "ADD PRODUCTS SUMMARY (dry run, nothing was saved)")
	} else {
		fmt.Fprintln(w, "ADD PRODUCTS SUMMARY")
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Duration: %s\n", FormatDuration(r.Duration()))
	if r.FatalError != "" {
		fmt.Fprintf(w, "Aborted: %s\n", r.FatalError)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Product", "Code", "Price", "Image", "Outcome"})
	for _, res := range r.Results {
		outcome := "added"
		switch {
		case res.Error != "":
			outcome = "failed: " + res.Error
		case res.Skipped:
			outcome = "skipped: " + res.Reason
		}
		image := "-"
		if res.Image != "" {
			image = "yes"
		}
		t.AppendRow(table.Row{res.Product, res.Code, res.Price, image, outcome})
	}
	t.Render()
	fmt.Fprintf(w, "%d added, %d skipped, %d failed\n", r.Added, r.Skipped, r.Failed)
	fmt.Fprintln(w, rule)
}
