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

// Editor is the open slot editor modal.
type Editor struct {
	page  *SlotPage
	modal browser.Element
}

func (e *Editor) sel() Selectors {
	return e.page.sel()
}

// SlotIdentity is the slot number the editor reports it is editing.
func (e *Editor) SlotIdentity(ctx context.Context) (string, error) {
	el, err := browser.First(ctx, e.modal, e.sel().SlotIdentity, nil)
	if errors.Is(err, browser.ErrNotFound) {
		el, err = browser.First(ctx, e.page.frame, e.sel().SlotIdentity, nil)
	}
	if err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return "", fmt.Errorf("%w: slot identity", ErrControlNotFound)
		}
		return "", err
	}
	return strings.TrimSpace(el.Value()), nil
}

func (e *Editor) productToggle(ctx context.Context) (browser.Element, error) {
	el, err := browser.First(ctx, e.modal, e.sel().DropdownToggle, nil)
	if errors.Is(err, browser.ErrNotFound) {
		return nil, fmt.Errorf("%w: product dropdown", ErrControlNotFound)
	}
	return el, err
}

// ProductLabel is the product currently shown by the editor's product
// picker.
func (e *Editor) ProductLabel(ctx context.Context) (string, error) {
	toggle, err := e.productToggle(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(toggle.Text()), nil
}

// SelectProduct opens the product picker and picks the first option whose
// label contains name. When no option matches it reports false with the
// labels that were offered.
func (e *Editor) SelectProduct(ctx context.Context, name string) (bool, []string, error) {
	ctx, span := tracer.Start(ctx, "SelectProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product", name))

	toggle, err := e.productToggle(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "product dropdown not found")
		return false, nil, err
	}
	err = toggle.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open product dropdown")
		return false, nil, err
	}

	sel := e.sel()
	policy := e.page.session.opts.Policies.Dropdown.Policy()
	option, err := browser.WaitFor(ctx, policy, e.page.frame, sel.DropdownOptions, textIncludes(name))
	if errors.Is(err, browser.ErrNotFound) {
		offered, err := e.offeredOptions(ctx)
		if err != nil {
			return false, nil, err
		}
		span.SetAttributes(attribute.Int("offered", len(offered)))
		// leave the picker closed for the next attempt
		err = toggle.Click(ctx)
		if err != nil {
			return false, offered, err
		}
		return false, offered, nil
	}
	if err != nil {
		return false, nil, err
	}

	err = option.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click product option")
		return false, nil, err
	}
	return true, nil, nil
}

func (e *Editor) offeredOptions(ctx context.Context) ([]string, error) {
	options, err := e.page.frame.Query(ctx, e.sel().DropdownOptions)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, o := range options {
		text := strings.TrimSpace(o.Text())
		if text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func (e *Editor) findInput(ctx context.Context, field string) (browser.Element, error) {
	locator, ok := e.sel().Fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: no locator for field %q", ErrControlNotFound, field)
	}
	return findField(ctx, e.modal, locator)
}

// findField tries the selector of locator, then its label, then its
// fallbacks. A nil element without error means no input matched.
func findField(ctx context.Context, modal browser.Element, locator FieldLocator) (browser.Element, error) {
	if locator.Selector != "" {
		el, err := browser.First(ctx, modal, locator.Selector, nil)
		if err == nil || !errors.Is(err, browser.ErrNotFound) {
			return el, err
		}
	}

	if locator.Label != "" {
		el, err := inputByLabel(ctx, modal, locator.Label)
		if err != nil || el != nil {
			return el, err
		}
	}

	for _, selector := range locator.Fallbacks {
		el, err := browser.First(ctx, modal, selector, nil)
		if err == nil || !errors.Is(err, browser.ErrNotFound) {
			return el, err
		}
	}
	return nil, nil
}

func inputByLabel(ctx context.Context, modal browser.Element, label string) (browser.Element, error) {
	labels, err := modal.Query(ctx, "label")
	if err != nil {
		return nil, err
	}
	label = strings.ToLower(label)
	for _, l := range labels {
		if !strings.Contains(strings.ToLower(l.Text()), label) {
			continue
		}
		parent, err := l.Parent(ctx)
		if err == nil {
			el, err := browser.First(ctx, parent, "input, select", nil)
			if err == nil {
				return el, nil
			}
			if !errors.Is(err, browser.ErrNotFound) {
				return nil, err
			}
		}
		if id, ok := l.Attr("for"); ok && id != "" {
			el, err := browser.First(ctx, modal, "#"+id, nil)
			if err == nil {
				return el, nil
			}
			if !errors.Is(err, browser.ErrNotFound) {
				return nil, err
			}
		}
	}
	return nil, nil
}

// FieldValue reads the current value of a field, found is false when the
// editor has no input for it.
func (e *Editor) FieldValue(ctx context.Context, field string) (value string, found bool, err error) {
	el, err := e.findInput(ctx, field)
	if err != nil {
		return "", false, err
	}
	if el == nil {
		return "", false, nil
	}
	return el.Value(), true, nil
}

// SetField writes a field's input and fires its input and change events.
func (e *Editor) SetField(ctx context.Context, field, value string) error {
	el, err := e.findInput(ctx, field)
	if err != nil {
		return err
	}
	if el == nil {
		e.page.session.tel.ReportWarning(report_editor_field, field, ErrControlNotFound)
		return fmt.Errorf("%w: %s", ErrControlNotFound, field)
	}
	return el.Fill(ctx, value)
}

// Submit clicks the save control of the editor.
func (e *Editor) Submit(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	sel := e.sel()
	button, err := modalButton(ctx, e.modal, sel.SubmitControls, sel.SubmitButtons)
	if err != nil {
		return err
	}
	if button == nil {
		span.SetStatus(codes.Error, "submit control not found")
		return fmt.Errorf("%w: submit", ErrControlNotFound)
	}
	err = button.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click submit")
		return err
	}
	return nil
}

// Close clicks the close control of the editor and waits until no editor
// is visible.
func (e *Editor) Close(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Close")
	defer span.End()

	sel := e.sel()
	button, err := modalButton(ctx, e.modal, sel.ModalButtons, sel.CloseButtons)
	if err != nil {
		return err
	}
	if button == nil {
		span.SetStatus(codes.Error, "close control not found")
		return fmt.Errorf("%w: close", ErrControlNotFound)
	}
	err = button.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click close")
		return err
	}

	err = retry.Until(ctx, e.page.session.opts.Policies.Modal.Policy(), func(int) (bool, error) {
		open, err := e.page.EditorOpen(ctx)
		return !open, err
	})
	if errors.Is(err, retry.ErrExhausted) {
		span.SetStatus(codes.Error, "editor still open")
		e.page.session.tel.ReportWarning(report_editor_close, ErrEditorStillOpen)
		return ErrEditorStillOpen
	}
	return err
}
