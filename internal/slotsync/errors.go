package slotsync

import (
	"errors"
	"fmt"
	"strings"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/scrapers/ourvend"
)

var (
	ErrSlotNotFound          = errors.New("slot not found in slot list")
	ErrWrongSlot             = errors.New("editor opened the wrong slot")
	ErrMissingAcknowledgment = errors.New("success acknowledgment not found")
	ErrDialogTimeout         = ourvend.ErrDialogTimeout
)

// ProductNotFoundError means the product picker had no option for the
// desired product, a catalog problem rather than a UI one.
type ProductNotFoundError struct {
	Product string
	// Suggestions are the offered options that look the most like Product.
	Suggestions []string
}

func (e *ProductNotFoundError) Error() string {
	return "Could not find product: " + e.Product
}

// DialogValidationError means the dialog opened by a clear was not the
// confirmation it should have been, it was dismissed.
type DialogValidationError struct {
	Dialog browser.Dialog
	Reason string
}

func (e *DialogValidationError) Error() string {
	return fmt.Sprintf(
		"VALIDATION FAILED: %s (got %s dialog %q)",
		e.Reason, e.Dialog.Type, e.Dialog.Message,
	)
}

// SetupError is a machine level failure, every slot of the machine fails
// with it.
type SetupError struct {
	Machine string
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("machine setup failed for %q: %v", e.Machine, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func confirmsClear(phrases []string) browser.DialogCheck {
	return func(d browser.Dialog) error {
		if d.Type != browser.DialogConfirm {
			return &DialogValidationError{Dialog: d, Reason: "expected a confirm dialog"}
		}
		message := strings.ToLower(d.Message)
		for _, p := range phrases {
			if p != "" && strings.Contains(message, strings.ToLower(p)) {
				return nil
			}
		}
		return &DialogValidationError{
			Dialog: d,
			Reason: fmt.Sprintf("message contains none of %q", phrases),
		}
	}
}
