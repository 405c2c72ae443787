package catalog

import (
	"context"
	"errors"

	"ourvend-sync/lib/scrapers/ourvend"
)

// Catalog is the console surface the adder drives.
type Catalog interface {
	Login(ctx context.Context) error
	OpenCommodities(ctx context.Context) error
	// Listed reports if a product with this exact name is in the catalog.
	Listed(ctx context.Context, name string) (bool, error)
	Add(ctx context.Context, c ourvend.Commodity) error
}

var errNotOpen = errors.New("commodity page is not open")

type ourvendCatalog struct {
	session *ourvend.Session
	page    *ourvend.CommodityPage
}

func NewOurvendCatalog(session *ourvend.Session) Catalog {
	return &ourvendCatalog{session: session}
}

func (c *ourvendCatalog) Login(ctx context.Context) error {
	return c.session.Login(ctx)
}

func (c *ourvendCatalog) OpenCommodities(ctx context.Context) error {
	page, err := c.session.NavigateToCommodities(ctx)
	if err != nil {
		return err
	}
	c.page = page
	return nil
}

func (c *ourvendCatalog) Listed(ctx context.Context, name string) (bool, error) {
	if c.page == nil {
		return false, errNotOpen
	}
	return c.page.Listed(ctx, name)
}

func (c *ourvendCatalog) Add(ctx context.Context, commodity ourvend.Commodity) error {
	if c.page == nil {
		return errNotOpen
	}
	return c.page.Add(ctx, commodity)
}
