package ourvend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Commodity is a product of the console catalog. Prices are already
// formatted the way the form expects them.
type Commodity struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Specs     string `json:"specs,omitempty"`
	UnitPrice string `json:"unitPrice"`
	CostPrice string `json:"costPrice,omitempty"`
	// Image is the path of a local picture, uploaded when set.
	Image string `json:"image,omitempty"`
}

func (c Commodity) fields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"code", c.Code},
		{"name", c.Name},
		{"specs", c.Specs},
		{"unitPrice", c.UnitPrice},
		{"costPrice", c.CostPrice},
	}
}

func requiredField(name string) bool {
	return name == "name" || name == "unitPrice"
}

// CommodityPage is the commodity info frame of a session.
type CommodityPage struct {
	session *Session
	frame   browser.Document
}

func (p *CommodityPage) Frame() browser.Document {
	return p.frame
}

func (p *CommodityPage) sel() Selectors {
	return p.session.opts.Selectors
}

// Listed reports whether the rendered commodity list has a cell equal to
// name, ignoring case and surrounding space.
func (p *CommodityPage) Listed(ctx context.Context, name string) (bool, error) {
	rows, err := p.frame.Query(ctx, p.sel().CommodityRows)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	for _, row := range rows {
		cells, err := row.Query(ctx, "td")
		if err != nil {
			return false, err
		}
		for _, cell := range cells {
			if strings.EqualFold(strings.TrimSpace(cell.Text()), name) {
				return true, nil
			}
		}
	}
	return false, nil
}

// DismissAcknowledgment works like SlotPage.DismissAcknowledgment on the
// commodity frame.
func (p *CommodityPage) DismissAcknowledgment(ctx context.Context, match func(text string) bool) (bool, error) {
	return dismissAcknowledgment(ctx, p.frame, p.sel(), match)
}

func (p *CommodityPage) saved(text string) bool {
	return containsAny(strings.ToLower(text), p.sel().CommoditySaved)
}

// Add fills the add form with c, uploads its image and saves it. It
// returns once the form closed and the product shows up in the list, a
// product that does not is ErrCommodityNotSaved.
func (p *CommodityPage) Add(ctx context.Context, c Commodity) error {
	ctx, span := tracer.Start(ctx, "AddCommodity")
	defer span.End()
	span.SetAttributes(
		attribute.String("name", c.Name),
		attribute.String("code", c.Code),
	)

	modal, err := p.openForm(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form did not open")
		p.session.tel.ReportBroken(report_commodity_page_add, c.Name, err)
		return err
	}

	err = p.fill(ctx, modal, c)
	if err == nil && c.Image != "" {
		err = p.upload(ctx, modal, c.Image)
	}
	if err == nil {
		err = p.save(ctx, modal)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill form")
		p.session.tel.ReportBroken(report_commodity_page_add, c.Name, err)
		p.discard(ctx)
		return err
	}

	acknowledged := false
	err = retry.Until(ctx, p.session.opts.Policies.Acknowledge.Policy(), func(int) (bool, error) {
		ok, err := p.DismissAcknowledgment(ctx, p.saved)
		acknowledged = ok
		return ok, err
	})
	if err != nil && !errors.Is(err, retry.ErrExhausted) {
		return err
	}
	if !acknowledged {
		p.session.tel.ReportWarning(report_commodity_page_add, c.Name, "no acknowledgment after saving")
	}

	// a rejected product leaves the form open
	err = retry.Until(ctx, p.session.opts.Policies.Modal.Policy(), func(int) (bool, error) {
		form, err := findFormModal(ctx, p.frame, p.sel())
		if err != nil || form != nil {
			return false, err
		}
		return p.Listed(ctx, c.Name)
	})
	if errors.Is(err, retry.ErrExhausted) {
		message := p.message(ctx)
		p.discard(ctx)
		err = fmt.Errorf("%w: %s", ErrCommodityNotSaved, c.Name)
		if message != "" {
			err = fmt.Errorf("%w: %s: %s", ErrCommodityNotSaved, c.Name, message)
		}
		span.SetStatus(codes.Error, "commodity not listed")
		p.session.tel.ReportWarning(report_commodity_page_add, c.Name, err)
		return err
	}
	if err != nil {
		return err
	}
	p.session.tel.ReportDebug("commodity added", "name", c.Name, "code", c.Code)
	return nil
}

func (p *CommodityPage) openForm(ctx context.Context) (browser.Element, error) {
	sel := p.sel()
	policy := p.session.opts.Policies.Modal.Policy()

	add, err := browser.WaitFor(ctx, p.session.opts.Policies.Navigation.Policy(), p.frame, sel.CommodityAdd, browser.IsVisible)
	if err != nil {
		return nil, fmt.Errorf("%w: add control: %v", ErrControlNotFound, err)
	}
	err = add.Click(ctx)
	if err != nil {
		return nil, err
	}

	var modal browser.Element
	err = retry.Until(ctx, policy, func(int) (bool, error) {
		m, err := findFormModal(ctx, p.frame, sel)
		modal = m
		return m != nil, err
	})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, ErrCommodityForm
	}
	return modal, err
}

func (p *CommodityPage) fill(ctx context.Context, modal browser.Element, c Commodity) error {
	locators := p.sel().CommodityFields
	for _, f := range c.fields() {
		if f.value == "" {
			continue
		}
		el, err := findField(ctx, modal, locators[f.name])
		if err != nil {
			return err
		}
		if el == nil {
			if requiredField(f.name) {
				return fmt.Errorf("%w: %s", ErrControlNotFound, f.name)
			}
			p.session.tel.ReportWarning(report_commodity_page_add, f.name, ErrControlNotFound)
			continue
		}
		err = el.Fill(ctx, f.value)
		if err != nil {
			return fmt.Errorf("fill %s: %w", f.name, err)
		}
	}
	return nil
}

// upload picks the image on the file input and confirms the crop dialog
// the console opens for it.
func (p *CommodityPage) upload(ctx context.Context, modal browser.Element, image string) error {
	sel := p.sel()
	input, err := browser.First(ctx, modal, sel.CommodityImage, nil)
	if err != nil {
		return fmt.Errorf("%w: image input: %v", ErrControlNotFound, err)
	}
	err = input.SetFiles(ctx, image)
	if err != nil {
		return fmt.Errorf("upload %s: %w", image, err)
	}

	crop, err := browser.WaitFor(ctx, p.session.opts.Policies.Modal.Policy(), p.frame, sel.CommodityCrop, browser.IsVisible)
	if errors.Is(err, browser.ErrNotFound) {
		p.session.tel.ReportDebug("no crop confirmation after upload", "image", image)
		return nil
	}
	if err != nil {
		return err
	}
	return crop.Click(ctx)
}

func (p *CommodityPage) save(ctx context.Context, modal browser.Element) error {
	sel := p.sel()
	button, err := browser.First(ctx, modal, sel.CommoditySave, nil)
	if errors.Is(err, browser.ErrNotFound) {
		button, err = modalButton(ctx, modal, sel.SubmitControls, sel.SubmitButtons)
		if err == nil && button == nil {
			err = fmt.Errorf("%w: save", ErrControlNotFound)
		}
	}
	if err != nil {
		return err
	}
	return button.Click(ctx)
}

// message returns the text of the first visible modal without a form,
// the console reports rejected products that way.
func (p *CommodityPage) message(ctx context.Context) string {
	modals, err := p.frame.Query(ctx, p.sel().Modal)
	if err != nil {
		return ""
	}
	for _, m := range modals {
		if !m.Visible() {
			continue
		}
		inputs, err := m.Query(ctx, "input")
		if err != nil || len(inputs) > 0 {
			continue
		}
		return strings.Join(strings.Fields(m.Text()), " ")
	}
	return ""
}

// discard closes whatever modal a failed add left open so the next add
// starts from the list.
func (p *CommodityPage) discard(ctx context.Context) {
	anything := func(string) bool { return true }
	for i := 0; i < 3; i++ {
		ok, err := p.DismissAcknowledgment(ctx, anything)
		if err != nil || !ok {
			return
		}
	}
}
