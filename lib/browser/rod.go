package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ourvend_sync.lib.browser")

type Config struct {
	Headless bool `json:"headless"`
	// Bin is the path to a chromium binary, empty means rod downloads or
	// finds one.
	Bin          string `json:"bin"`
	SlowMotionMs int    `json:"slow_motion_ms"`
	// Stealth hides the usual headless browser fingerprints.
	Stealth bool `json:"stealth"`
}

// RodBrowser is a chromium instance driven over the devtools protocol.
type RodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	config   Config
}

func Launch(ctx context.Context, config Config) (*RodBrowser, error) {
	ctx, span := tracer.Start(ctx, "Launch")
	defer span.End()

	l := launcher.New().
		Context(ctx).
		Headless(config.Headless)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if config.SlowMotionMs > 0 {
		b = b.SlowMotion(time.Duration(config.SlowMotionMs) * time.Millisecond)
	}
	err = b.Connect()
	if err != nil {
		l.Kill()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect to browser")
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &RodBrowser{browser: b, launcher: l, config: config}, nil
}

func (b *RodBrowser) NewPage(ctx context.Context) (*RodPage, error) {
	var page *rod.Page
	var err error
	if b.config.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &RodPage{rodDocument: rodDocument{page: page}}, nil
}

func (b *RodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

type rodDocument struct {
	page *rod.Page
}

func (d rodDocument) URL(ctx context.Context) (string, error) {
	res, err := d.page.Context(ctx).Eval(`() => location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d rodDocument) Query(ctx context.Context, selector string) ([]Element, error) {
	elements, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return snapshotAll(ctx, elements)
}

func (d rodDocument) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d rodDocument) Frames(ctx context.Context) ([]Document, error) {
	iframes, err := d.page.Context(ctx).Elements("iframe")
	if err != nil {
		return nil, err
	}
	var frames []Document
	for _, iframe := range iframes {
		frame, err := iframe.Frame()
		if err != nil {
			slog.DebugContext(ctx, "skipping unreadable iframe", "err", err)
			continue
		}
		frames = append(frames, rodDocument{page: frame})
	}
	return frames, nil
}

// RodPage is a top level tab of a RodBrowser.
type RodPage struct {
	rodDocument
}

func (p *RodPage) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	page := p.page.Context(ctx)
	err := page.Navigate(url)
	if err == nil {
		err = page.WaitLoad()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate")
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *RodPage) Screenshot(ctx context.Context, path string) error {
	data, err := p.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *RodPage) Close() error {
	return p.page.Close()
}

func (p *RodPage) InterceptDialog(ctx context.Context) DialogInterceptor {
	ctx, cancel := context.WithCancel(ctx)
	wait, handle := p.page.Context(ctx).HandleDialog()

	events := make(chan *proto.PageJavascriptDialogOpening, 1)
	go func() {
		e := wait()
		if ctx.Err() != nil {
			return
		}
		events <- e
	}()

	return &rodInterceptor{cancel: cancel, events: events, handle: handle}
}

type rodInterceptor struct {
	cancel context.CancelFunc
	events chan *proto.PageJavascriptDialogOpening
	handle func(*proto.PageHandleJavaScriptDialog) error
	once   sync.Once
}

func (i *rodInterceptor) Wait(ctx context.Context) (Dialog, error) {
	select {
	case e := <-i.events:
		return Dialog{Type: DialogType(e.Type), Message: e.Message}, nil
	case <-ctx.Done():
		return Dialog{}, ctx.Err()
	}
}

func (i *rodInterceptor) Accept(ctx context.Context) error {
	return i.handle(&proto.PageHandleJavaScriptDialog{Accept: true})
}

func (i *rodInterceptor) Dismiss(ctx context.Context) error {
	return i.handle(&proto.PageHandleJavaScriptDialog{Accept: false})
}

func (i *rodInterceptor) Close() {
	i.once.Do(i.cancel)
}

const snapshotJS = `() => {
	const style = window.getComputedStyle(this);
	const rect = this.getBoundingClientRect();
	const attrs = {};
	for (const a of this.attributes) {
		attrs[a.name] = a.value;
	}
	return {
		tag: this.tagName.toLowerCase(),
		text: this.innerText || this.textContent || "",
		value: this.value === undefined || this.value === null ? "" : String(this.value),
		visible: style.display !== "none" && style.visibility !== "hidden" && (rect.width > 0 || rect.height > 0),
		attrs: attrs,
	};
}`

const fillJS = `(value) => {
	this.focus();
	this.value = value;
	this.dispatchEvent(new Event("input", { bubbles: true }));
	this.dispatchEvent(new Event("change", { bubbles: true }));
}`

type rodSnapshot struct {
	Tag     string            `json:"tag"`
	Text    string            `json:"text"`
	Value   string            `json:"value"`
	Visible bool              `json:"visible"`
	Attrs   map[string]string `json:"attrs"`
}

type rodElement struct {
	el   *rod.Element
	snap rodSnapshot
}

func snapshot(ctx context.Context, el *rod.Element) (*rodElement, error) {
	res, err := el.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, err
	}
	var snap rodSnapshot
	err = res.Value.Unmarshal(&snap)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el, snap: snap}, nil
}

func snapshotAll(ctx context.Context, elements rod.Elements) ([]Element, error) {
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		snap, err := snapshot(ctx, el)
		if err != nil {
			// the element was detached between the query and the snapshot
			slog.DebugContext(ctx, "skipping stale element", "err", err)
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (e *rodElement) Tag() string  { return e.snap.Tag }
func (e *rodElement) Text() string { return e.snap.Text }
func (e *rodElement) Value() string {
	return e.snap.Value
}
func (e *rodElement) Visible() bool { return e.snap.Visible }

func (e *rodElement) Attr(name string) (string, bool) {
	value, ok := e.snap.Attrs[name]
	return value, ok
}

func (e *rodElement) Click(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => this.click()`)
	return err
}

func (e *rodElement) Fill(ctx context.Context, value string) error {
	_, err := e.el.Context(ctx).Eval(fillJS, value)
	if err != nil {
		return err
	}
	e.snap.Value = value
	return nil
}

func (e *rodElement) SetFiles(ctx context.Context, paths ...string) error {
	return e.el.Context(ctx).SetFiles(paths)
}

func (e *rodElement) Query(ctx context.Context, selector string) ([]Element, error) {
	elements, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return snapshotAll(ctx, elements)
}

func (e *rodElement) Parent(ctx context.Context) (Element, error) {
	parent, err := e.el.Context(ctx).Parent()
	if err != nil {
		return nil, err
	}
	snap, err := snapshot(ctx, parent)
	if err != nil {
		return nil, err
	}
	return snap, nil
}
