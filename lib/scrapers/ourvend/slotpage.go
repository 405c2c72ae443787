package ourvend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/htmlutil"
	"ourvend-sync/lib/retry"
	"ourvend-sync/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SlotPage is the slot management frame of a session.
type SlotPage struct {
	session *Session
	frame   browser.Document
}

func (p *SlotPage) Frame() browser.Document {
	return p.frame
}

func (p *SlotPage) Session() *Session {
	return p.session
}

func (p *SlotPage) sel() Selectors {
	return p.session.opts.Selectors
}

func textIncludes(label string) browser.Matcher {
	return func(el browser.Element) bool {
		return strings.Contains(el.Text(), label)
	}
}

func onclickSelector(controls, fragment string) string {
	parts := strings.Split(controls, ",")
	for i, c := range parts {
		parts[i] = fmt.Sprintf(`%s[onclick*="%s"]`, strings.TrimSpace(c), fragment)
	}
	return strings.Join(parts, ", ")
}

// actionSelector builds a selector for the controls whose onclick calls fn
// with the slot number as first argument. The trailing `',` keeps slot 1
// from matching slot 12.
func actionSelector(controls, fn string, slot int) string {
	return onclickSelector(controls, fmt.Sprintf("%s('%d',", fn, slot))
}

func (p *SlotPage) selectOption(ctx context.Context, index int, label string) error {
	sel := p.sel()
	toggles, err := p.frame.Query(ctx, sel.DropdownToggle)
	if err != nil {
		return err
	}
	if index >= len(toggles) {
		return fmt.Errorf("%w: %q (dropdown %d does not exist)", ErrOptionNotFound, label, index)
	}
	err = toggles[index].Click(ctx)
	if err != nil {
		return err
	}

	option, err := browser.WaitFor(ctx, p.session.opts.Policies.Dropdown.Policy(), p.frame, sel.DropdownOptions, textIncludes(label))
	if errors.Is(err, browser.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrOptionNotFound, label)
	}
	if err != nil {
		return err
	}
	return option.Click(ctx)
}

// SelectScope picks the machine grouping and then the machine in the two
// scope dropdowns of the page.
func (p *SlotPage) SelectScope(ctx context.Context, grouping, machine string) error {
	ctx, span := tracer.Start(ctx, "SelectScope")
	defer span.End()
	span.SetAttributes(
		attribute.String("grouping", grouping),
		attribute.String("machine", machine),
	)

	for i, label := range []string{grouping, machine} {
		err := p.selectOption(ctx, i, label)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to select scope")
			p.session.tel.ReportWarning(report_slot_page_select_scope, label, err)
			return err
		}
	}
	return nil
}

// Query runs the search of the page and waits until the grid lists at
// least one editable slot.
func (p *SlotPage) Query(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()

	sel := p.sel()
	button, err := browser.First(ctx, p.frame, sel.QueryButton, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to find query button")
		p.session.tel.ReportBroken(report_slot_page_query, err)
		return err
	}
	err = button.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click query button")
		return err
	}

	selector := onclickSelector(sel.EditControls, sel.EditAction+"(")
	_, err = browser.WaitFor(ctx, p.session.opts.Policies.GridReady.Policy(), p.frame, selector, nil)
	if errors.Is(err, browser.ErrNotFound) {
		span.SetStatus(codes.Error, "grid not ready")
		p.session.tel.ReportWarning(report_slot_page_query, ErrGridNotReady)
		return ErrGridNotReady
	}
	return err
}

func (p *SlotPage) hasAction(ctx context.Context, controls, fn string, slot int) (browser.Element, error) {
	el, err := browser.First(ctx, p.frame, actionSelector(controls, fn, slot), nil)
	if errors.Is(err, browser.ErrNotFound) {
		return nil, nil
	}
	return el, err
}

// HasEditAction reports if the grid currently shows the edit control of
// the slot.
func (p *SlotPage) HasEditAction(ctx context.Context, slot int) (bool, error) {
	el, err := p.hasAction(ctx, p.sel().EditControls, p.sel().EditAction, slot)
	return el != nil, err
}

// HasClearAction reports if the grid currently shows the clear control of
// the slot.
func (p *SlotPage) HasClearAction(ctx context.Context, slot int) (bool, error) {
	el, err := p.hasAction(ctx, p.sel().ClearControls, p.sel().ClearAction, slot)
	return el != nil, err
}

// OpenEditor clicks the edit control of a slot and waits for the editor
// modal. The editor may belong to another slot, check Editor.SlotIdentity.
func (p *SlotPage) OpenEditor(ctx context.Context, slot int) (*Editor, error) {
	ctx, span := tracer.Start(ctx, "OpenEditor")
	defer span.End()
	span.SetAttributes(attribute.Int("slot", slot))

	sel := p.sel()
	action, err := p.hasAction(ctx, sel.EditControls, sel.EditAction, slot)
	if err != nil {
		return nil, err
	}
	if action == nil {
		span.SetStatus(codes.Error, "edit action not found")
		return nil, fmt.Errorf("%w: edit slot %d", ErrActionNotFound, slot)
	}
	err = action.Click(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to click edit action")
		return nil, err
	}

	var modal browser.Element
	err = retry.Until(ctx, p.session.opts.Policies.Modal.Policy(), func(int) (bool, error) {
		m, err := p.findEditor(ctx)
		if err != nil {
			return false, err
		}
		modal = m
		return m != nil, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		span.SetStatus(codes.Error, "editor did not open")
		return nil, fmt.Errorf("%w: slot %d", ErrEditorNotOpened, slot)
	}
	if err != nil {
		return nil, err
	}
	return &Editor{page: p, modal: modal}, nil
}

// findEditor returns the visible modal that holds a slot form.
func (p *SlotPage) findEditor(ctx context.Context) (browser.Element, error) {
	return findFormModal(ctx, p.frame, p.sel())
}

// findFormModal returns the visible modal of doc that holds a form,
// message boxes share the modal markup but have no inputs.
func findFormModal(ctx context.Context, doc browser.Document, sel Selectors) (browser.Element, error) {
	modals, err := doc.Query(ctx, sel.Modal)
	if err != nil {
		return nil, err
	}
	for _, m := range modals {
		if !m.Visible() {
			continue
		}
		if containsAny(m.Text(), sel.EditorExclusions) {
			continue
		}
		inputs, err := m.Query(ctx, "input")
		if err != nil {
			return nil, err
		}
		if len(inputs) > 0 {
			return m, nil
		}
	}
	return nil, nil
}

func containsAny(text string, substrings []string) bool {
	for _, s := range substrings {
		if s != "" && strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// EditorOpen reports if a slot editor is currently visible.
func (p *SlotPage) EditorOpen(ctx context.Context) (bool, error) {
	m, err := p.findEditor(ctx)
	return m != nil, err
}

// Clear clicks the clear control of a slot and answers the native confirm
// it opens. The interceptor is installed before the click, check decides
// if the dialog gets accepted. A dialog that fails the check is dismissed
// and the check's error is returned.
func (p *SlotPage) Clear(ctx context.Context, slot int, check browser.DialogCheck) error {
	ctx, span := tracer.Start(ctx, "Clear")
	defer span.End()
	span.SetAttributes(attribute.Int("slot", slot))

	sel := p.sel()
	action, err := p.hasAction(ctx, sel.ClearControls, sel.ClearAction, slot)
	if err != nil {
		return err
	}
	if action == nil {
		span.SetStatus(codes.Error, "clear action not found")
		return fmt.Errorf("%w: clear slot %d", ErrActionNotFound, slot)
	}

	page := p.session.page
	interceptor := page.InterceptDialog(ctx)
	handedOff := false
	defer func() {
		if !handedOff {
			interceptor.Close()
		}
	}()

	clicked := make(chan error, 1)
	go func() {
		clicked <- action.Click(ctx)
	}()

	timeout := p.session.opts.dialogTimeout()
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialog, err := interceptor.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		span.SetStatus(codes.Error, "dialog timeout")
		p.session.tel.ReportWarning(report_slot_page_clear, slot, ErrDialogTimeout)
		handedOff = true
		p.settleLateDialog(ctx, slot, interceptor, clicked, timeout)
		return fmt.Errorf("%w after %s", ErrDialogTimeout, timeout)
	}
	span.SetAttributes(
		attribute.String("dialog.type", string(dialog.Type)),
		attribute.String("dialog.message", dialog.Message),
	)

	checkErr := check(dialog)
	if checkErr != nil {
		span.RecordError(checkErr)
		span.SetStatus(codes.Error, "dialog rejected")
		err = interceptor.Dismiss(ctx)
		if err != nil {
			p.session.tel.ReportWarning(report_slot_page_clear, slot, fmt.Errorf("dismiss: %w", err))
		}
		p.drainClick(ctx, clicked, timeout)
		return checkErr
	}

	err = interceptor.Accept(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to accept dialog")
		return err
	}
	err = p.drainClick(ctx, clicked, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear click failed")
		return err
	}
	return nil
}

// waitClick waits up to timeout for the click to return, returned is
// false when it is still pending.
func waitClick(ctx context.Context, clicked <-chan error, timeout time.Duration) (returned bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-clicked:
		return true, err
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *SlotPage) drainClick(ctx context.Context, clicked <-chan error, timeout time.Duration) error {
	returned, err := waitClick(ctx, clicked, timeout)
	if !returned && err == nil {
		p.session.tel.ReportDebug("clear click still pending after dialog")
	}
	return err
}

// settleLateDialog takes over the interceptor of a clear whose dialog did
// not show up in time. A dialog opening later is dismissed, the click
// blocks until then. The interceptor stays registered until the click
// returns or ctx is done.
func (p *SlotPage) settleLateDialog(ctx context.Context, slot int, interceptor browser.DialogInterceptor, clicked <-chan error, timeout time.Duration) {
	guardCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			interceptor.Close()
		})
	}

	go func() {
		dialog, err := interceptor.Wait(guardCtx)
		if err != nil {
			return
		}
		p.session.tel.ReportWarning(report_slot_page_clear, slot, "dismissing late dialog", dialog.Message)
		err = interceptor.Dismiss(guardCtx)
		if err != nil {
			p.session.tel.ReportWarning(report_slot_page_clear, slot, fmt.Errorf("dismiss: %w", err))
		}
	}()

	returned, err := waitClick(ctx, clicked, timeout)
	if returned || err != nil {
		stop()
		return
	}
	p.session.tel.ReportDebug("clear click still pending after dialog timeout", "slot", slot)
	go func() {
		defer stop()
		select {
		case <-clicked:
		case <-ctx.Done():
		}
	}()
}

// DismissAcknowledgment looks for a visible modal whose text satisfies
// match and clicks its acknowledge button. It does not wait, callers poll.
func (p *SlotPage) DismissAcknowledgment(ctx context.Context, match func(text string) bool) (bool, error) {
	return dismissAcknowledgment(ctx, p.frame, p.sel(), match)
}

func dismissAcknowledgment(ctx context.Context, doc browser.Document, sel Selectors, match func(text string) bool) (bool, error) {
	modals, err := doc.Query(ctx, sel.Modal)
	if err != nil {
		return false, err
	}
	for _, m := range modals {
		if !m.Visible() || !match(m.Text()) {
			continue
		}
		button, err := modalButton(ctx, m, sel.ModalButtons, sel.AcknowledgeButtons)
		if err != nil {
			return false, err
		}
		if button == nil {
			continue
		}
		err = button.Click(ctx)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// modalButton finds the first button inside of a modal whose trimmed,
// lowercased text contains one of labels.
func modalButton(ctx context.Context, modal browser.Element, controls string, labels []string) (browser.Element, error) {
	buttons, err := modal.Query(ctx, controls)
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		text := strings.ToLower(strings.TrimSpace(b.Text() + " " + b.Value()))
		for _, l := range labels {
			if strings.Contains(text, strings.ToLower(l)) {
				return b, nil
			}
		}
	}
	return nil, nil
}

// Screenshot captures the whole page.
func (p *SlotPage) Screenshot(ctx context.Context, path string) error {
	return p.session.page.Screenshot(ctx, path)
}

// Diagnostic describes what the grid offered when a slot could not be
// found.
type Diagnostic struct {
	EditActions  []string
	ClearActions []string
	// Slots are the slot numbers the grid lists edit actions for.
	Slots []int
}

const maxDiagnosticActions = 10

// Diagnose lists the action handlers the grid currently renders.
func (p *SlotPage) Diagnose(ctx context.Context) (Diagnostic, error) {
	sel := p.sel()
	markup, err := p.frame.HTML(ctx)
	if err != nil {
		return Diagnostic{}, err
	}

	edits, err := htmlutil.ActionCallsFromHTML(markup, sel.EditControls, sel.EditAction)
	if err != nil {
		return Diagnostic{}, err
	}
	clears, err := htmlutil.ActionCallsFromHTML(markup, sel.ClearControls, sel.ClearAction)
	if err != nil {
		return Diagnostic{}, err
	}

	var d Diagnostic
	for _, c := range edits {
		if n, ok := c.FirstIntArg(); ok {
			d.Slots = append(d.Slots, n)
		}
		if len(d.EditActions) < maxDiagnosticActions {
			d.EditActions = append(d.EditActions, textutil.Truncate(c.Onclick, 80))
		}
	}
	for _, c := range clears {
		if len(d.ClearActions) < maxDiagnosticActions {
			d.ClearActions = append(d.ClearActions, textutil.Truncate(c.Onclick, 80))
		}
	}
	return d, nil
}
