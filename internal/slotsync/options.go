package slotsync

import (
	"time"

	"ourvend-sync/lib/retry"
)

type Options struct {
	// Find polls for the edit or clear action of a slot in the grid.
	Find retry.Config `json:"find"`
	// Verify bounds how many times an editor is reopened when it shows the
	// wrong slot.
	Verify retry.Config `json:"verify"`
	// Acknowledge polls for the message shown after a save.
	Acknowledge retry.Config `json:"acknowledge"`
	// ClearAcknowledge polls for the message shown after a clear.
	ClearAcknowledge retry.Config `json:"clear_acknowledge"`
	// PacingMs is the pause between two slots.
	PacingMs int `json:"pacing_ms"`

	// StrictAcknowledgment fails a saved slot when no success message shows
	// up, otherwise it is only reported as a warning.
	StrictAcknowledgment bool `json:"strict_acknowledgment"`
	// ReconcileExtendedFields also reconciles capacity, stock, discounts
	// and the alerting quantity.
	ReconcileExtendedFields bool `json:"reconcile_extended_fields"`
	// DryRun discards every editor after reconciling and skips clears.
	DryRun bool `json:"dry_run"`
	// Slots restricts the run to these slot numbers when not empty.
	Slots []int `json:"slots"`
	// ScreenshotDir receives a screenshot of every failed or cleared slot,
	// empty disables screenshots.
	ScreenshotDir string `json:"screenshot_dir"`

	ConfirmPhrases      []string `json:"confirm_phrases"`
	EditAcknowledgment  []string `json:"edit_acknowledgment"`
	ClearAcknowledgment []string `json:"clear_acknowledgment"`
}

func DefaultOptions() Options {
	return Options{
		Find:                retry.Config{Attempts: 3, IntervalMs: 3000},
		Verify:              retry.Config{Attempts: 3, IntervalMs: 1000},
		Acknowledge:         retry.Config{Attempts: 5, IntervalMs: 500},
		ClearAcknowledge:    retry.Config{Attempts: 10, IntervalMs: 500},
		PacingMs:            1000,
		ConfirmPhrases:      []string{"empty", "sure", "confirm"},
		EditAcknowledgment:  []string{"successfully", "success", "成功"},
		ClearAcknowledgment: []string{"clearsuccess", "successfully", "成功"},
	}
}

func (o Options) pacing() time.Duration {
	return time.Duration(o.PacingMs) * time.Millisecond
}

func (o Options) includes(slot int) bool {
	if len(o.Slots) == 0 {
		return true
	}
	for _, s := range o.Slots {
		if s == slot {
			return true
		}
	}
	return false
}
