package htmldoc

import (
	"context"
	"errors"
	"sync"

	"ourvend-sync/lib/browser"
)

var ErrDialogHandled = errors.New("dialog already handled")

type interceptor struct {
	page      *Page
	events    chan browser.Dialog
	responses chan bool
	done      chan struct{}
	once      sync.Once

	mutex   sync.Mutex
	handled bool
}

func (p *Page) InterceptDialog(ctx context.Context) browser.DialogInterceptor {
	i := &interceptor{
		page:      p,
		events:    make(chan browser.Dialog, 1),
		responses: make(chan bool, 1),
		done:      make(chan struct{}),
	}
	p.mutex.Lock()
	p.interceptor = i
	p.mutex.Unlock()
	return i
}

func (i *interceptor) Wait(ctx context.Context) (browser.Dialog, error) {
	select {
	case d := <-i.events:
		return d, nil
	case <-ctx.Done():
		return browser.Dialog{}, ctx.Err()
	}
}

func (i *interceptor) respond(accept bool) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.handled {
		return ErrDialogHandled
	}
	i.handled = true
	i.responses <- accept
	return nil
}

func (i *interceptor) Accept(ctx context.Context) error {
	return i.respond(true)
}

func (i *interceptor) Dismiss(ctx context.Context) error {
	return i.respond(false)
}

func (i *interceptor) Close() {
	i.once.Do(func() {
		close(i.done)
		i.page.mutex.Lock()
		if i.page.interceptor == i {
			i.page.interceptor = nil
		}
		i.page.mutex.Unlock()
	})
}

// OpenDialog simulates window.confirm/alert from a click handler. It blocks
// until an interceptor answers and reports if the dialog was accepted.
// Without an interceptor the dialog is dismissed, like a browser with no
// dialog handler attached would eventually do.
func (p *Page) OpenDialog(ctx context.Context, dialog browser.Dialog) (bool, error) {
	p.mutex.Lock()
	p.dialogs = append(p.dialogs, dialog)
	i := p.interceptor
	p.mutex.Unlock()

	p.record(Event{Kind: "dialog", Target: string(dialog.Type), Value: dialog.Message})
	if i == nil {
		return false, nil
	}

	select {
	case i.events <- dialog:
	case <-i.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}

	answered := func(accepted bool) (bool, error) {
		kind := "dialog-dismiss"
		if accepted {
			kind = "dialog-accept"
		}
		p.record(Event{Kind: kind, Target: string(dialog.Type), Value: dialog.Message})
		return accepted, nil
	}

	select {
	case accepted := <-i.responses:
		return answered(accepted)
	case <-i.done:
		// an answer given right before Close still counts
		select {
		case accepted := <-i.responses:
			return answered(accepted)
		default:
			return false, nil
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
