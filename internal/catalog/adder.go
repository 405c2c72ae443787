// Package catalog adds the products machine configurations need to the
// console's commodity catalog, usually the ones a sync run reported as
// not found.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourvend-sync/internal/components/chrono"
	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/lib/scrapers/ourvend"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoPrice = errors.New("product has no price")

// Adder adds missing products to the catalog one at a time. It is not
// safe for concurrent use.
type Adder struct {
	catalog Catalog
	opts    Options
	tel     telemetry.API
	clock   chrono.API
}

func NewAdder(catalog Catalog, opts Options, tel telemetry.API) *Adder {
	return &Adder{
		catalog: catalog,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("catalog", tel),
		clock:   chrono.StandardImpl{},
	}
}

// WithClock makes the adder read time from clock.
func (a *Adder) WithClock(clock chrono.API) *Adder {
	a.clock = clock
	return a
}

// Run adds every product that is not listed yet. Product failures end up
// in the report, the returned error is only set when the session or the
// navigation failed.
func (a *Adder) Run(ctx context.Context, products []Product) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.Int("products", len(products)))

	start := a.clock.Now()
	report := Report{StartedAt: start, DryRun: a.opts.DryRun}
	finish := func(err error) (Report, error) {
		report.ElapsedMs = a.clock.Now().Sub(start).Milliseconds()
		if err != nil {
			report.FatalError = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
		}
		a.tel.ReportCount(report_products_added, int64(report.Added))
		return report, err
	}

	err := a.catalog.Login(ctx)
	if err != nil {
		a.tel.ReportBroken(report_adder_session, err)
		return finish(fmt.Errorf("establish session: %w", err))
	}
	err = a.catalog.OpenCommodities(ctx)
	if err != nil {
		a.tel.ReportBroken(report_adder_session, err)
		return finish(fmt.Errorf("navigate to commodity info: %w", err))
	}

	for i, p := range products {
		result := a.AddProduct(ctx, i, p)
		report.add(result)
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		if result.Added && i < len(products)-1 {
			select {
			case <-time.After(a.opts.pacing()):
			case <-ctx.Done():
				return finish(ctx.Err())
			}
		}
	}
	return finish(nil)
}

// AddProduct adds one product unless it is already listed, it never
// returns an error, failures are part of the result. n tells generated
// codes of the same run apart.
func (a *Adder) AddProduct(ctx context.Context, n int, p Product) Result {
	ctx, span := tracer.Start(ctx, "AddProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product", p.Name))

	start := a.clock.Now()
	result := Result{Product: p.Name}
	done := func() Result {
		result.ElapsedMs = a.clock.Now().Sub(start).Milliseconds()
		return result
	}
	fail := func(err error) Result {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product not added")
		result.Error = err.Error()
		a.tel.ReportWarning(report_adder_product, p.Name, err)
		return done()
	}

	listed, err := a.catalog.Listed(ctx, p.Name)
	if err != nil {
		return fail(err)
	}
	if listed {
		result.Skipped = true
		result.Reason = "already listed"
		return done()
	}

	commodity, err := a.commodity(n, p)
	if err != nil {
		return fail(err)
	}
	result.Code = commodity.Code
	result.Price = commodity.UnitPrice
	result.Image = commodity.Image

	if a.opts.DryRun {
		result.Skipped = true
		result.Reason = "dry run"
		return done()
	}

	err = a.catalog.Add(ctx, commodity)
	if err != nil {
		return fail(err)
	}
	result.Added = true
	return done()
}

// commodity fills in what the catalog form needs beyond the product name.
func (a *Adder) commodity(n int, p Product) (ourvend.Commodity, error) {
	price := p.Price
	if price <= 0 {
		price = a.opts.DefaultPrice
	}
	if price <= 0 {
		return ourvend.Commodity{}, fmt.Errorf("%w: %s", ErrNoPrice, p.Name)
	}

	c := ourvend.Commodity{
		Code:      fmt.Sprintf("%s%d%03d", a.opts.CodePrefix, a.clock.Now().Unix(), n),
		Name:      p.Name,
		UnitPrice: machineconfig.FormatDecimal(price),
	}
	if a.opts.CostRatio > 0 {
		c.CostPrice = machineconfig.FormatDecimal(roundCents(price * a.opts.CostRatio))
	}

	if a.opts.ImageDir != "" {
		image, err := FindImage(a.opts.ImageDir, p.Name)
		if err != nil {
			return ourvend.Commodity{}, fmt.Errorf("look up image: %w", err)
		}
		if image == "" {
			a.tel.ReportWarning(report_adder_image, p.Name, "no image found")
		}
		c.Image = image
	}
	return c, nil
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
