package ourvend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/scrapers/ourvend"
	"ourvend-sync/lib/scrapers/ourvend/ourvendtest"
	"ourvend-sync/lib/textutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const (
	grouping = "Ourvend Yuanzhi"
	machine  = "Office 12F"
)

func newConsole() *ourvendtest.Console {
	c := ourvendtest.New()
	c.SetSlot(ourvendtest.Slot{
		Number:      1,
		Product:     "Coca Cola 330ml",
		Price:       "2",
		CustomPrice: "2",
		Extra:       map[string]string{"SiCapacity": "10"},
	})
	c.SetSlot(ourvendtest.Slot{Number: 2, Product: "Sprite 330ml", Price: "2", CustomPrice: "2"})
	c.SetSlot(ourvendtest.Slot{Number: 12, Product: "Green Tea 500ml", Price: "3.5", CustomPrice: "3.5"})
	return c
}

// openSlotPage logs in, navigates and queries the default machine.
func openSlotPage(t *testing.T, c *ourvendtest.Console, tel telemetry.API) *ourvend.SlotPage {
	t.Helper()
	ctx := context.Background()

	session := ourvend.NewSession(c.Page, c.Options(), tel)
	require.NoError(t, session.Login(ctx))
	page, err := session.NavigateToSlotScope(ctx)
	require.NoError(t, err)
	require.NoError(t, page.SelectScope(ctx, grouping, machine))
	require.NoError(t, page.Query(ctx))
	return page
}

func TestLoginAndNavigate(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	page := openSlotPage(t, c, &telemetry.RecordingAPI{})

	url, err := page.Frame().URL(ctx)
	require.NoError(t, err)
	require.Contains(t, url, "Selection/Index")

	testCases := []struct {
		slot     int
		edit     bool
		expected bool
	}{
		{slot: 1, expected: true},
		{slot: 2, expected: true},
		{slot: 12, expected: true},
		{slot: 3, expected: false},
		{slot: 1, edit: true, expected: true},
		{slot: 3, edit: true, expected: false},
	}
	for _, test := range testCases {
		var found bool
		if test.edit {
			found, err = page.HasEditAction(ctx, test.slot)
		} else {
			found, err = page.HasClearAction(ctx, test.slot)
		}
		require.NoError(t, err)
		require.Equal(t, test.expected, found, "slot %d", test.slot)
	}
}

func TestLoginErrors(t *testing.T) {
	ctx := context.Background()

	c := newConsole()
	opts := c.Options()
	opts.Password = "wrong"
	tel := &telemetry.RecordingAPI{}
	err := ourvend.NewSession(c.Page, opts, tel).Login(ctx)
	require.ErrorIs(t, err, ourvend.ErrLoginFailed)
	require.Len(t, tel.Find(telemetry.KindWarning, "session.login"), 1)

	opts.Password = ""
	err = ourvend.NewSession(c.Page, opts, tel).Login(ctx)
	require.ErrorIs(t, err, ourvend.ErrMissingCredentials)
}

func TestNavigateWithoutLogin(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	session := ourvend.NewSession(c.Page, c.Options(), &telemetry.RecordingAPI{})
	_, err := session.NavigateToSlotScope(ctx)
	require.ErrorIs(t, err, ourvend.ErrNavigationTarget)
}

func TestSelectScopeMissingOption(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	session := ourvend.NewSession(c.Page, c.Options(), &telemetry.RecordingAPI{})
	require.NoError(t, session.Login(ctx))
	page, err := session.NavigateToSlotScope(ctx)
	require.NoError(t, err)

	err = page.SelectScope(ctx, grouping, "Warehouse")
	require.ErrorIs(t, err, ourvend.ErrOptionNotFound)
	require.Contains(t, err.Error(), "Warehouse")

	err = page.SelectScope(ctx, "Nowhere", machine)
	require.ErrorIs(t, err, ourvend.ErrOptionNotFound)
}

func TestQueryEmptyGrid(t *testing.T) {
	ctx := context.Background()
	c := ourvendtest.New()
	session := ourvend.NewSession(c.Page, c.Options(), &telemetry.RecordingAPI{})
	require.NoError(t, session.Login(ctx))
	page, err := session.NavigateToSlotScope(ctx)
	require.NoError(t, err)
	require.NoError(t, page.SelectScope(ctx, grouping, machine))
	require.ErrorIs(t, page.Query(ctx), ourvend.ErrGridNotReady)
}

func TestEditor(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	page := openSlotPage(t, c, &telemetry.RecordingAPI{})

	editor, err := page.OpenEditor(ctx, 1)
	require.NoError(t, err)

	identity, err := editor.SlotIdentity(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", identity)

	label, err := editor.ProductLabel(ctx)
	require.NoError(t, err)
	require.Equal(t, "Coca Cola 330ml", label)

	selected, offered, err := editor.SelectProduct(ctx, "Fanta")
	require.NoError(t, err)
	require.False(t, selected)
	if diff := cmp.Diff([]string{"Coca Cola 330ml", "Sprite 330ml", "Green Tea 500ml"}, offered); diff != "" {
		t.Fatal("unexpected offered products", diff)
	}

	selected, _, err = editor.SelectProduct(ctx, "Sprite")
	require.NoError(t, err)
	require.True(t, selected)
	label, err = editor.ProductLabel(ctx)
	require.NoError(t, err)
	require.Equal(t, "Sprite 330ml", label)

	fieldCases := []struct {
		field string
		value string
		found bool
	}{
		{field: "machinePrice", value: "2", found: true},
		{field: "userDefinedPrice", value: "2", found: true},
		{field: "capacity", value: "10", found: true},
		{field: "alertingQuantity", value: "", found: true},
	}
	for _, test := range fieldCases {
		value, found, err := editor.FieldValue(ctx, test.field)
		require.NoError(t, err)
		require.Equal(t, test.found, found, test.field)
		require.Equal(t, test.value, value, test.field)
	}

	require.NoError(t, editor.SetField(ctx, "machinePrice", "2.5"))
	require.NoError(t, editor.SetField(ctx, "capacity", "12"))
	require.NoError(t, editor.Submit(ctx))

	acknowledged, err := page.DismissAcknowledgment(ctx, func(text string) bool {
		return textutil.MatchName(text, []string{"successfully"})
	})
	require.NoError(t, err)
	require.True(t, acknowledged)

	slot, ok := c.Slot(1)
	require.True(t, ok)
	require.Equal(t, "Sprite 330ml", slot.Product)
	require.Equal(t, "2.5", slot.Price)
	require.Equal(t, "2", slot.CustomPrice)
	require.Equal(t, "12", slot.Extra["SiCapacity"])
	require.Equal(t, 1, c.Submits())

	acknowledged, err = page.DismissAcknowledgment(ctx, func(text string) bool { return true })
	require.NoError(t, err)
	require.False(t, acknowledged)
}

func TestEditorMisrouted(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	c.MisroutedOpens = 1
	page := openSlotPage(t, c, &telemetry.RecordingAPI{})

	editor, err := page.OpenEditor(ctx, 1)
	require.NoError(t, err)
	identity, err := editor.SlotIdentity(ctx)
	require.NoError(t, err)
	require.Equal(t, "2", identity)

	require.NoError(t, editor.Close(ctx))
	open, err := page.EditorOpen(ctx)
	require.NoError(t, err)
	require.False(t, open)

	editor, err = page.OpenEditor(ctx, 1)
	require.NoError(t, err)
	identity, err = editor.SlotIdentity(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", identity)

	_, err = page.OpenEditor(ctx, 7)
	require.ErrorIs(t, err, ourvend.ErrActionNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	errRejected := errors.New("rejected")

	testCases := []struct {
		name     string
		silent   bool
		check    browser.DialogCheck
		err      error
		cleared  []int
		lastKind string
	}{
		{
			name:     "accepted",
			check:    func(browser.Dialog) error { return nil },
			cleared:  []int{2},
			lastKind: "dialog-accept",
		},
		{
			name:     "rejected",
			check:    func(browser.Dialog) error { return errRejected },
			err:      errRejected,
			lastKind: "dialog-dismiss",
		},
		{
			name:   "no dialog",
			silent: true,
			check:  func(browser.Dialog) error { return nil },
			err:    ourvend.ErrDialogTimeout,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c := newConsole()
			c.SilentClear = test.silent
			page := openSlotPage(t, c, &telemetry.RecordingAPI{})

			var seen []browser.Dialog
			err := page.Clear(ctx, 2, func(d browser.Dialog) error {
				seen = append(seen, d)
				return test.check(d)
			})
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, test.cleared, c.Clears())

			if test.silent {
				require.Empty(t, seen)
				return
			}
			require.Len(t, seen, 1)
			require.Equal(t, browser.DialogConfirm, seen[0].Type)

			events := c.Page.Events()
			require.Equal(t, test.lastKind, events[len(events)-1].Kind)
		})
	}
}

func TestClearLateDialog(t *testing.T) {
	ctx := context.Background()

	// the fake waits 200ms for the dialog and as long again for the click
	testCases := []struct {
		name  string
		delay time.Duration
	}{
		{name: "click returns while settling", delay: 300 * time.Millisecond},
		{name: "click still pending", delay: 600 * time.Millisecond},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c := newConsole()
			c.DialogDelay = test.delay
			tel := &telemetry.RecordingAPI{}
			page := openSlotPage(t, c, tel)

			checked := 0
			err := page.Clear(ctx, 2, func(browser.Dialog) error {
				checked++
				return nil
			})
			require.ErrorIs(t, err, ourvend.ErrDialogTimeout)
			require.Zero(t, checked)

			require.Eventually(t, func() bool {
				for _, e := range c.Page.Events() {
					if e.Kind == "dialog-dismiss" {
						return true
					}
				}
				return false
			}, 2*time.Second, 10*time.Millisecond)
			require.Empty(t, c.Clears())
			slot, ok := c.Slot(2)
			require.True(t, ok)
			require.Equal(t, "Sprite 330ml", slot.Product)
			require.Len(t, tel.Find(telemetry.KindWarning, "slot-page.clear"), 2)

			c.DialogDelay = 0
			require.NoError(t, page.Clear(ctx, 2, func(browser.Dialog) error { return nil }))
			require.Equal(t, []int{2}, c.Clears())
		})
	}
}

func TestClearAcknowledgment(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	page := openSlotPage(t, c, &telemetry.RecordingAPI{})

	require.NoError(t, page.Clear(ctx, 12, func(browser.Dialog) error { return nil }))
	acknowledged, err := page.DismissAcknowledgment(ctx, func(text string) bool {
		return textutil.MatchName(text, []string{"clearsuccess"})
	})
	require.NoError(t, err)
	require.True(t, acknowledged)

	slot, ok := c.Slot(12)
	require.True(t, ok)
	require.Equal(t, "", slot.Product)

	err = page.Clear(ctx, 40, func(browser.Dialog) error { return nil })
	require.ErrorIs(t, err, ourvend.ErrActionNotFound)
}

func TestDiagnose(t *testing.T) {
	ctx := context.Background()
	c := newConsole()
	c.HideActions[2] = true
	page := openSlotPage(t, c, &telemetry.RecordingAPI{})

	diagnostic, err := page.Diagnose(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{1, 12}, diagnostic.Slots); diff != "" {
		t.Fatal("unexpected slots", diff)
	}
	require.Len(t, diagnostic.EditActions, 2)
	require.Len(t, diagnostic.ClearActions, 2)
	require.Contains(t, diagnostic.EditActions[0], "Modal_User('1',")
}
