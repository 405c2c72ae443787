package slotsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/retry"
	"ourvend-sync/lib/scrapers/ourvend"
)

// fakeConsole is a scripted Console, it keeps slot state in maps and
// records what the runner did to it.
type fakeConsole struct {
	mutex sync.Mutex

	products []string
	slots    map[int]map[string]string

	// misroutes makes the next n opens show the following slot.
	misroutes int
	hidden    map[int]bool
	panicOn   map[int]bool
	// missingInputs are fields the editor has no input for.
	missingInputs map[string]bool

	dialog   browser.Dialog
	noDialog bool
	clearAck string
	editAck  string

	loginErr error
	scopeErr map[string]error

	navigations int
	scopes      []string
	opens       map[int]int
	closes      int
	submits     int
	clears      []int
	dismissed   []browser.Dialog
	pending     string
	editors     []*fakeEditor
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{
		products:      []string{"Coca Cola 330ml", "Sprite 330ml", "Green Tea 500ml"},
		slots:         map[int]map[string]string{},
		hidden:        map[int]bool{},
		panicOn:       map[int]bool{},
		missingInputs: map[string]bool{},
		scopeErr:      map[string]error{},
		opens:         map[int]int{},
		dialog: browser.Dialog{
			Type:    browser.DialogConfirm,
			Message: "Are you really sure you want to empty? Please confirm",
		},
		clearAck: "Message Box Clear success",
		editAck:  "Edited successfully",
	}
}

// setSlot stores a slot, fields are keyed by machineconfig.Field names and
// productName.
func (c *fakeConsole) setSlot(n int, product, price string) {
	c.slots[n] = map[string]string{
		productField:       product,
		"machinePrice":     price,
		"userDefinedPrice": price,
		"capacity":         "0",
		"existing":         "0",
		"weChatDiscount":   "100",
		"alipayDiscount":   "100",
		"idCardDiscount":   "100",
		"alertingQuantity": "",
	}
}

func (c *fakeConsole) slot(n int) map[string]string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := map[string]string{}
	for k, v := range c.slots[n] {
		out[k] = v
	}
	return out
}

func (c *fakeConsole) Login(ctx context.Context) error {
	return c.loginErr
}

func (c *fakeConsole) OpenSlotScope(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.navigations++
	return nil
}

func (c *fakeConsole) SelectScope(ctx context.Context, grouping, machine string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.scopes = append(c.scopes, grouping+"/"+machine)
	if err := c.scopeErr[machine]; err != nil {
		return err
	}
	return nil
}

func (c *fakeConsole) Query(ctx context.Context) error {
	return nil
}

func (c *fakeConsole) listed(slot int) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.slots[slot]
	return ok && !c.hidden[slot]
}

func (c *fakeConsole) HasEditAction(ctx context.Context, slot int) (bool, error) {
	return c.listed(slot), nil
}

func (c *fakeConsole) HasClearAction(ctx context.Context, slot int) (bool, error) {
	return c.listed(slot), nil
}

func (c *fakeConsole) OpenEditor(ctx context.Context, slot int) (Editor, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.panicOn[slot] {
		panic(fmt.Sprintf("editor of slot %d exploded", slot))
	}
	c.opens[slot]++

	shown := slot
	if c.misroutes > 0 {
		c.misroutes--
		shown = slot + 1
	}
	fields := map[string]string{}
	for k, v := range c.slots[shown] {
		if !c.missingInputs[k] {
			fields[k] = v
		}
	}
	e := &fakeEditor{console: c, slot: shown, fields: fields}
	c.editors = append(c.editors, e)
	return e, nil
}

func (c *fakeConsole) Clear(ctx context.Context, slot int, check browser.DialogCheck) error {
	if c.noDialog {
		return fmt.Errorf("%w after 5s", ourvend.ErrDialogTimeout)
	}
	err := check(c.dialog)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err != nil {
		c.dismissed = append(c.dismissed, c.dialog)
		return err
	}
	c.clears = append(c.clears, slot)
	c.setSlot(slot, "", "0")
	c.pending = c.clearAck
	return nil
}

func (c *fakeConsole) DismissAcknowledgment(ctx context.Context, match func(string) bool) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.pending == "" || !match(c.pending) {
		return false, nil
	}
	c.pending = ""
	return true, nil
}

func (c *fakeConsole) Diagnose(ctx context.Context) (ourvend.Diagnostic, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	var d ourvend.Diagnostic
	for n := range c.slots {
		if !c.hidden[n] {
			d.Slots = append(d.Slots, n)
		}
	}
	return d, nil
}

func (c *fakeConsole) Screenshot(ctx context.Context, path string) error {
	return nil
}

type fakeEditor struct {
	console *fakeConsole
	slot    int
	fields  map[string]string
	writes  []string
	picked  bool
	closed  bool
}

func (e *fakeEditor) SlotIdentity(ctx context.Context) (string, error) {
	return strconv.Itoa(e.slot), nil
}

func (e *fakeEditor) ProductLabel(ctx context.Context) (string, error) {
	product := e.fields[productField]
	if product == "" {
		return "Please select", nil
	}
	return product, nil
}

func (e *fakeEditor) SelectProduct(ctx context.Context, name string) (bool, []string, error) {
	e.picked = true
	for _, p := range e.console.products {
		if strings.Contains(p, name) {
			e.fields[productField] = p
			e.writes = append(e.writes, productField)
			return true, nil, nil
		}
	}
	return false, append([]string(nil), e.console.products...), nil
}

func (e *fakeEditor) FieldValue(ctx context.Context, field string) (string, bool, error) {
	value, ok := e.fields[field]
	return value, ok, nil
}

func (e *fakeEditor) SetField(ctx context.Context, field, value string) error {
	if _, ok := e.fields[field]; !ok {
		return fmt.Errorf("%w: %s", ourvend.ErrControlNotFound, field)
	}
	e.fields[field] = value
	e.writes = append(e.writes, field)
	return nil
}

func (e *fakeEditor) Submit(ctx context.Context) error {
	c := e.console
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.submits++
	for k, v := range e.fields {
		c.slots[e.slot][k] = v
	}
	e.closed = true
	c.pending = c.editAck
	return nil
}

func (e *fakeEditor) Close(ctx context.Context) error {
	c := e.console
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closes++
	e.closed = true
	return nil
}

func fastOptions() Options {
	opts := DefaultOptions()
	instant := retry.Config{Attempts: 3, IntervalMs: 0}
	opts.Find = instant
	opts.Verify = instant
	opts.Acknowledge = instant
	opts.ClearAcknowledge = instant
	opts.PacingMs = 0
	return opts
}
