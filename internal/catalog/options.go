package catalog

import (
	"time"
)

type Options struct {
	// ImageDir holds product pictures named after the products, empty adds
	// every product without one.
	ImageDir string `json:"image_dir"`
	// CodePrefix starts every generated commodity code.
	CodePrefix string `json:"code_prefix"`
	// DefaultPrice is the unit price of products without a configured one,
	// products without either are not added.
	DefaultPrice float64 `json:"default_price"`
	// CostRatio sets the cost price to this share of the unit price, 0
	// leaves it empty.
	CostRatio float64 `json:"cost_ratio"`
	// DryRun checks the catalog without adding anything.
	DryRun bool `json:"dry_run"`
	// PacingMs is the pause between two added products.
	PacingMs int `json:"pacing_ms"`
}

func DefaultOptions() Options {
	return Options{
		PacingMs: 1000,
	}
}

func (o Options) pacing() time.Duration {
	return time.Duration(o.PacingMs) * time.Millisecond
}
