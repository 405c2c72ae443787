package slotsync

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("ourvend_sync.internal.slotsync")
var meter = otel.Meter("ourvend_sync.internal.slotsync")

const (
	report_runner_session     = "runner.session"
	report_runner_machine     = "runner.machine"
	report_runner_locate      = "runner.locate"
	report_runner_commit      = "runner.commit"
	report_runner_clear       = "runner.clear"
	report_runner_slot        = "runner.slot"
	report_runner_screenshot  = "runner.screenshot"
	report_reconcile_field    = "reconcile.field"
	report_slots_successful   = "slots.successful"
	report_slots_failed       = "slots.failed"
	report_products_not_found = "products.not-found"
)

func slotCounter() metric.Int64Counter {
	counter, _ := meter.Int64Counter(
		"slot_updates",
		metric.WithDescription("slot update attempts by outcome"),
	)
	return counter
}
