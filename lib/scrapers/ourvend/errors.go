package ourvend

import "errors"

var (
	ErrMissingCredentials = errors.New("ourvend username and password are required")
	ErrLoginFailed        = errors.New("login did not complete")
	ErrNavigationTarget   = errors.New("navigation target not found")
	ErrOptionNotFound     = errors.New("dropdown option not found")
	ErrGridNotReady       = errors.New("slot grid did not load")
	ErrActionNotFound     = errors.New("slot action not found")
	ErrEditorNotOpened    = errors.New("slot editor did not open")
	ErrEditorStillOpen    = errors.New("slot editor did not close")
	ErrControlNotFound    = errors.New("editor control not found")
	ErrDialogTimeout      = errors.New("native dialog did not appear")
	ErrLoginFormMissing   = errors.New("login form not found")
	ErrCommodityForm      = errors.New("commodity form did not open")
	ErrCommodityNotSaved  = errors.New("commodity was not saved")
)
