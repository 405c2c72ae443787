package slotsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ourvend-sync/internal/components/chrono"
	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/lib/retry"
	"ourvend-sync/lib/textutil"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Runner pushes machine configurations into the console, one slot at a
// time. It is not safe for concurrent use, the console has a single page.
type Runner struct {
	console Console
	opts    Options
	tel     telemetry.API
	slots   metric.Int64Counter
	clock   chrono.API
	runID   string
}

func NewRunner(console Console, opts Options, tel telemetry.API) *Runner {
	return &Runner{
		console: console,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("slotsync", tel),
		slots:   slotCounter(),
		clock:   chrono.StandardImpl{},
		runID:   uuid.NewString(),
	}
}

// WithClock makes the runner read time from clock.
func (r *Runner) WithClock(clock chrono.API) *Runner {
	r.clock = clock
	return r
}

// Run processes every machine in order. Slot failures end up in the
// report, the returned error is only set when the session or the
// navigation into the slot page failed, the report then holds what was
// done up to that point.
func (r *Runner) Run(ctx context.Context, machines []machineconfig.MachineConfiguration) (RunReport, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	start := r.clock.Now()
	r.runID = uuid.NewString()
	report := RunReport{
		RunID:     r.runID,
		StartedAt: start,
		DryRun:    r.opts.DryRun,
	}
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("machines", len(machines)),
	)

	finish := func(err error) (RunReport, error) {
		report.ElapsedMs = r.clock.Now().Sub(start).Milliseconds()
		report.ProductsNotFound = collectProductsNotFound(report.Machines)
		if err != nil {
			report.FatalError = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
		}

		successful, failed := report.Totals()
		r.tel.ReportCount(report_slots_successful, int64(successful))
		r.tel.ReportCount(report_slots_failed, int64(failed))
		r.tel.ReportCount(report_products_not_found, int64(len(report.ProductsNotFound)))
		return report, err
	}

	err := r.console.Login(ctx)
	if err != nil {
		r.tel.ReportBroken(report_runner_session, err)
		return finish(fmt.Errorf("establish session: %w", err))
	}

	navigate := true
	for _, machine := range machines {
		if navigate {
			err := r.console.OpenSlotScope(ctx)
			if err != nil {
				r.tel.ReportBroken(report_runner_session, err)
				return finish(fmt.Errorf("navigate to slot management: %w", err))
			}
			navigate = false
		}

		machineReport, err := r.RunMachine(ctx, machine)
		report.Machines = append(report.Machines, machineReport)
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		var setupErr *SetupError
		if errors.As(err, &setupErr) {
			// the page may be anywhere now, start over from the menu
			navigate = true
		}
	}

	return finish(nil)
}

// RunMachine selects the machine and processes its slots. A setup failure
// marks every slot failed without attempting it and is returned as a
// *SetupError.
func (r *Runner) RunMachine(ctx context.Context, machine machineconfig.MachineConfiguration) (report MachineReport, err error) {
	ctx, span := tracer.Start(ctx, "RunMachine")
	defer span.End()
	span.SetAttributes(
		attribute.String("machine", machine.MachineName),
		attribute.String("grouping", machine.MachineGrouping),
	)

	start := r.clock.Now()
	report = MachineReport{
		MachineID:   machine.MachineID.String(),
		MachineName: machine.MachineName,
		Grouping:    machine.MachineGrouping,
	}
	defer func() {
		report.ElapsedMs = r.clock.Now().Sub(start).Milliseconds()
	}()

	var slots []machineconfig.SlotConfiguration
	for _, s := range machine.Slots {
		if r.opts.includes(s.SlotNumber) {
			slots = append(slots, s)
		}
	}

	err = r.console.SelectScope(ctx, machine.MachineGrouping, machine.MachineName)
	if err == nil {
		err = r.console.Query(ctx)
	}
	if err != nil {
		setupErr := &SetupError{Machine: machine.MachineName, Err: err}
		span.RecordError(setupErr)
		span.SetStatus(codes.Error, "machine setup failed")
		r.tel.ReportBroken(report_runner_machine, machine.MachineName, err)

		report.SetupError = setupErr.Error()
		for _, s := range slots {
			report.add(SlotUpdateResult{
				Slot:        s.SlotNumber,
				ProductName: s.ProductName,
				Cleared:     s.IsClear(),
				Error:       setupErr.Error(),
			})
			r.count(ctx, "setup_failed")
		}
		return report, setupErr
	}

	for i, s := range slots {
		if i > 0 {
			err := retry.Sleep(ctx, r.opts.pacing())
			if err != nil {
				return report, err
			}
		}
		report.add(r.UpdateSlot(ctx, s))
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	span.SetAttributes(
		attribute.Int("successful", report.Successful),
		attribute.Int("failed", report.Failed),
	)
	return report, nil
}

func (r *Runner) count(ctx context.Context, outcome string) {
	r.slots.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// UpdateSlot brings one slot in line with its configuration, it never
// panics or returns an error, failures are part of the result.
func (r *Runner) UpdateSlot(ctx context.Context, slot machineconfig.SlotConfiguration) SlotUpdateResult {
	ctx, span := tracer.Start(ctx, "UpdateSlot")
	defer span.End()
	span.SetAttributes(
		attribute.Int("slot", slot.SlotNumber),
		attribute.String("product", slot.ProductName),
	)

	start := r.clock.Now()
	result := SlotUpdateResult{
		Slot:         slot.SlotNumber,
		ProductName:  slot.ProductName,
		MachinePrice: slot.MachinePrice,
		Cleared:      slot.IsClear(),
	}

	err := r.guardedUpdate(ctx, slot, &result)
	result.ElapsedMs = r.clock.Now().Sub(start).Milliseconds()
	if err == nil {
		result.Success = true
		r.count(ctx, "success")
		return result
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "slot update failed")
	result.Error = err.Error()

	var notFound *ProductNotFoundError
	if errors.As(err, &notFound) {
		result.ProductNotFound = true
		result.Suggestions = notFound.Suggestions
		r.count(ctx, "product_not_found")
		r.tel.ReportWarning(report_runner_slot, slot.SlotNumber, err)
	} else {
		r.count(ctx, "failed")
		r.tel.ReportBroken(report_runner_slot, slot.SlotNumber, err)
	}

	if ctx.Err() == nil {
		result.Screenshot = r.screenshot(ctx, fmt.Sprintf("slot-%d-failed", slot.SlotNumber))
	}
	return result
}

func (r *Runner) guardedUpdate(ctx context.Context, slot machineconfig.SlotConfiguration, result *SlotUpdateResult) (err error) {
	defer func() {
		p := recover()
		if p != nil {
			err = fmt.Errorf("unexpected panic while updating slot %d: %v", slot.SlotNumber, p)
		}
	}()
	if slot.IsClear() {
		return r.clearSlot(ctx, slot.SlotNumber, result)
	}
	return r.editSlot(ctx, slot, result)
}

func (r *Runner) screenshot(ctx context.Context, name string) string {
	if r.opts.ScreenshotDir == "" {
		return ""
	}
	err := os.MkdirAll(r.opts.ScreenshotDir, 0777)
	if err != nil {
		r.tel.ReportWarning(report_runner_screenshot, err)
		return ""
	}
	path := filepath.Join(r.opts.ScreenshotDir, fmt.Sprintf("%s-%s.png", r.runID, name))
	err = r.console.Screenshot(ctx, path)
	if err != nil {
		r.tel.ReportWarning(report_runner_screenshot, err)
		return ""
	}
	return path
}

func (r *Runner) transition(span trace.Span, slot int, state EditorState) {
	span.AddEvent("editor_state", trace.WithAttributes(
		attribute.Int("slot", slot),
		attribute.String("state", state.String()),
	))
	r.tel.ReportDebug("editor state", "slot", slot, "state", state.String())
}

// locate polls until has reports the slot's action.
func (r *Runner) locate(ctx context.Context, slot int, has func(context.Context, int) (bool, error)) error {
	err := retry.Until(ctx, r.opts.Find.Policy(), func(int) (bool, error) {
		return has(ctx, slot)
	})
	if !errors.Is(err, retry.ErrExhausted) {
		return err
	}

	diagnostic, diagErr := r.console.Diagnose(ctx)
	if diagErr == nil {
		r.tel.ReportWarning(
			report_runner_locate, slot,
			"listed_slots", diagnostic.Slots,
			"edit_actions", diagnostic.EditActions,
			"clear_actions", diagnostic.ClearActions,
		)
	}
	return fmt.Errorf("slot %d: %w", slot, ErrSlotNotFound)
}

// openEditor walks the editor state machine until an editor showing the
// requested slot is open.
func (r *Runner) openEditor(ctx context.Context, slot int) (Editor, int, error) {
	ctx, span := tracer.Start(ctx, "openEditor")
	defer span.End()

	want := strconv.Itoa(slot)
	var (
		editor   Editor
		attempts int
		shown    string
	)
	err := retry.Do(ctx, r.opts.Verify.Policy(), func(attempt int) error {
		attempts = attempt

		r.transition(span, slot, StateSearching)
		err := r.locate(ctx, slot, r.console.HasEditAction)
		if err != nil {
			return retry.Permanent(err)
		}

		r.transition(span, slot, StateFound)
		opened, err := r.console.OpenEditor(ctx, slot)
		if err != nil {
			return retry.Permanent(fmt.Errorf("open editor: %w", err))
		}

		r.transition(span, slot, StateOpened)
		identity, err := opened.SlotIdentity(ctx)
		if err != nil {
			r.discard(ctx, opened)
			return retry.Permanent(fmt.Errorf("read slot identity: %w", err))
		}
		if identity == want {
			r.transition(span, slot, StateVerifiedCorrect)
			editor = opened
			return nil
		}

		r.transition(span, slot, StateVerifiedWrong)
		shown = identity
		err = opened.Close(ctx)
		if err != nil {
			return retry.Permanent(fmt.Errorf("close editor of slot %s: %w", identity, err))
		}
		return ErrWrongSlot
	})
	span.SetAttributes(attribute.Int("attempts", attempts))

	if editor != nil {
		return editor, attempts, nil
	}
	if errors.Is(err, ErrWrongSlot) {
		err = fmt.Errorf(
			"failed to open slot %d after %d attempts, editor showed slot %q: %w",
			slot, attempts, shown, ErrWrongSlot,
		)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "failed to open editor")
	return nil, attempts, err
}

// discard closes an editor after a failure, the slot already failed so a
// close error is only reported.
func (r *Runner) discard(ctx context.Context, editor Editor) {
	err := editor.Close(ctx)
	if err != nil {
		r.tel.ReportWarning(report_runner_commit, "discard", err)
	}
}

func (r *Runner) editSlot(ctx context.Context, slot machineconfig.SlotConfiguration, result *SlotUpdateResult) error {
	editor, attempts, err := r.openEditor(ctx, slot.SlotNumber)
	result.OpenAttempts = attempts
	if err != nil {
		return err
	}

	rec, err := Reconcile(ctx, editor, slot, r.opts.ReconcileExtendedFields, r.tel)
	result.Changed = rec.Changed
	result.Changes = rec.Fields
	if err != nil {
		r.discard(ctx, editor)
		return err
	}
	return r.commit(ctx, slot.SlotNumber, editor, rec, result)
}

// commit saves the editor when anything changed and closes it otherwise.
func (r *Runner) commit(ctx context.Context, slot int, editor Editor, rec Reconciliation, result *SlotUpdateResult) error {
	ctx, span := tracer.Start(ctx, "commit")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("changed", rec.Changed),
		attribute.Bool("dry_run", r.opts.DryRun),
	)

	if !rec.Changed || r.opts.DryRun {
		err := editor.Close(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to close editor")
			return fmt.Errorf("close editor: %w", err)
		}
		result.Skipped = r.opts.DryRun && rec.Changed
		return nil
	}

	err := editor.Submit(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit editor")
		return fmt.Errorf("submit editor: %w", err)
	}

	acknowledged, err := r.awaitAcknowledgment(ctx, r.opts.Acknowledge.Policy(), r.editAcknowledged)
	if err != nil {
		return err
	}
	if !acknowledged {
		if r.opts.StrictAcknowledgment {
			span.SetStatus(codes.Error, "missing acknowledgment")
			return fmt.Errorf("save of slot %d: %w", slot, ErrMissingAcknowledgment)
		}
		r.tel.ReportWarning(report_runner_commit, slot, ErrMissingAcknowledgment)
		result.Warnings = append(result.Warnings, "saved without a success acknowledgment")
	}
	return nil
}

func (r *Runner) editAcknowledged(text string) bool {
	return textutil.MatchName(text, r.opts.EditAcknowledgment)
}

func (r *Runner) clearAcknowledged(text string) bool {
	normalized := textutil.NormalizeName(text)
	if strings.Contains(normalized, "clear") && strings.Contains(normalized, "success") {
		return true
	}
	return textutil.MatchName(text, r.opts.ClearAcknowledgment)
}

func (r *Runner) awaitAcknowledgment(ctx context.Context, policy retry.Policy, match func(string) bool) (bool, error) {
	err := retry.Until(ctx, policy, func(int) (bool, error) {
		return r.console.DismissAcknowledgment(ctx, match)
	})
	if errors.Is(err, retry.ErrExhausted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dismiss acknowledgment: %w", err)
	}
	return true, nil
}

// clearSlot empties a slot. The native confirm must pass validation before
// it is accepted and the success message must show up afterwards.
func (r *Runner) clearSlot(ctx context.Context, slot int, result *SlotUpdateResult) error {
	ctx, span := tracer.Start(ctx, "clearSlot")
	defer span.End()
	span.SetAttributes(attribute.Int("slot", slot))

	if r.opts.DryRun {
		result.Skipped = true
		r.tel.ReportDebug("dry run, clear skipped", "slot", slot)
		return nil
	}

	err := r.locate(ctx, slot, r.console.HasClearAction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear action not found")
		return err
	}

	err = r.console.Clear(ctx, slot, confirmsClear(r.opts.ConfirmPhrases))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear rejected")
		r.tel.ReportWarning(report_runner_clear, slot, err)
		return err
	}

	acknowledged, err := r.awaitAcknowledgment(ctx, r.opts.ClearAcknowledge.Policy(), r.clearAcknowledged)
	if err != nil {
		return err
	}
	result.Screenshot = r.screenshot(ctx, fmt.Sprintf("slot-%d-cleared", slot))
	if !acknowledged {
		span.SetStatus(codes.Error, "missing acknowledgment")
		return fmt.Errorf("clear of slot %d: %w", slot, ErrMissingAcknowledgment)
	}
	return nil
}
