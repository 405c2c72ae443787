package slotsync

import (
	"context"
	"errors"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/scrapers/ourvend"
)

// Console is the remote surface the runner drives. Implementations hold the
// page and frame state, the runner only passes slot numbers around.
type Console interface {
	Login(ctx context.Context) error
	OpenSlotScope(ctx context.Context) error
	SelectScope(ctx context.Context, grouping, machine string) error
	Query(ctx context.Context) error

	HasEditAction(ctx context.Context, slot int) (bool, error)
	HasClearAction(ctx context.Context, slot int) (bool, error)
	OpenEditor(ctx context.Context, slot int) (Editor, error)
	// Clear invokes the clear action of a slot, check validates the native
	// dialog it opens before it is accepted.
	Clear(ctx context.Context, slot int, check browser.DialogCheck) error
	// DismissAcknowledgment closes a visible message whose text satisfies
	// match, it reports false if there is none right now.
	DismissAcknowledgment(ctx context.Context, match func(text string) bool) (bool, error)

	Diagnose(ctx context.Context) (ourvend.Diagnostic, error)
	Screenshot(ctx context.Context, path string) error
}

// Editor is an open slot editor. Fields are addressed by
// machineconfig.Field names.
type Editor interface {
	SlotIdentity(ctx context.Context) (string, error)
	ProductLabel(ctx context.Context) (string, error)
	SelectProduct(ctx context.Context, name string) (selected bool, offered []string, err error)
	FieldValue(ctx context.Context, field string) (value string, found bool, err error)
	SetField(ctx context.Context, field, value string) error
	Submit(ctx context.Context) error
	Close(ctx context.Context) error
}

var errNoScope = errors.New("slot management page is not open")

// ourvendConsole adapts an ourvend.Session to Console.
type ourvendConsole struct {
	session *ourvend.Session
	page    *ourvend.SlotPage
}

func NewOurvendConsole(session *ourvend.Session) Console {
	return &ourvendConsole{session: session}
}

func (c *ourvendConsole) Login(ctx context.Context) error {
	return c.session.Login(ctx)
}

func (c *ourvendConsole) OpenSlotScope(ctx context.Context) error {
	page, err := c.session.NavigateToSlotScope(ctx)
	if err != nil {
		return err
	}
	c.page = page
	return nil
}

func (c *ourvendConsole) SelectScope(ctx context.Context, grouping, machine string) error {
	if c.page == nil {
		return errNoScope
	}
	return c.page.SelectScope(ctx, grouping, machine)
}

func (c *ourvendConsole) Query(ctx context.Context) error {
	if c.page == nil {
		return errNoScope
	}
	return c.page.Query(ctx)
}

func (c *ourvendConsole) HasEditAction(ctx context.Context, slot int) (bool, error) {
	if c.page == nil {
		return false, errNoScope
	}
	return c.page.HasEditAction(ctx, slot)
}

func (c *ourvendConsole) HasClearAction(ctx context.Context, slot int) (bool, error) {
	if c.page == nil {
		return false, errNoScope
	}
	return c.page.HasClearAction(ctx, slot)
}

func (c *ourvendConsole) OpenEditor(ctx context.Context, slot int) (Editor, error) {
	if c.page == nil {
		return nil, errNoScope
	}
	editor, err := c.page.OpenEditor(ctx, slot)
	if err != nil {
		return nil, err
	}
	return editor, nil
}

func (c *ourvendConsole) Clear(ctx context.Context, slot int, check browser.DialogCheck) error {
	if c.page == nil {
		return errNoScope
	}
	return c.page.Clear(ctx, slot, check)
}

func (c *ourvendConsole) DismissAcknowledgment(ctx context.Context, match func(string) bool) (bool, error) {
	if c.page == nil {
		return false, errNoScope
	}
	return c.page.DismissAcknowledgment(ctx, match)
}

func (c *ourvendConsole) Diagnose(ctx context.Context) (ourvend.Diagnostic, error) {
	if c.page == nil {
		return ourvend.Diagnostic{}, errNoScope
	}
	return c.page.Diagnose(ctx)
}

func (c *ourvendConsole) Screenshot(ctx context.Context, path string) error {
	return c.session.Page().Screenshot(ctx, path)
}
