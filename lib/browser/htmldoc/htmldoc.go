// Package htmldoc implements the browser interfaces over in-memory html
// documents parsed by goquery. Pages are scripted with click handlers
// instead of javascript, which is enough to stand in for the console in
// tests.
package htmldoc

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"ourvend-sync/lib/browser"

	"github.com/PuerkitoBio/goquery"
)

// ClickHandler runs when an element matching its selector is clicked.
type ClickHandler func(ctx context.Context, el *Element) error

type handler struct {
	selector string
	fn       ClickHandler
}

// Event is something the automation did to the page, kept for assertions.
type Event struct {
	Kind   string
	Target string
	Value  string
}

// Doc is a document, either the page itself or one of its frames.
type Doc struct {
	page     *Page
	url      string
	doc      *goquery.Document
	frames   []*Doc
	handlers []handler
}

func parse(markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// the html5 parser accepts any input, a failure here is a bug
		panic(err)
	}
	return doc
}

func (d *Doc) URL(ctx context.Context) (string, error) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	return d.url, nil
}

func (d *Doc) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	return d.wrap(d.doc.Find(selector)), nil
}

func (d *Doc) wrap(sel *goquery.Selection) []browser.Element {
	out := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{doc: d, sel: s})
	})
	return out
}

func (d *Doc) HTML(ctx context.Context) (string, error) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

func (d *Doc) Frames(ctx context.Context) ([]browser.Document, error) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	out := make([]browser.Document, len(d.frames))
	for i, f := range d.frames {
		out[i] = f
	}
	return out, nil
}

// SetHTML replaces the contents of the document, frames are kept.
func (d *Doc) SetHTML(markup string) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	d.doc = parse(markup)
}

// Mutate edits the document in place.
func (d *Doc) Mutate(fn func(doc *goquery.Document)) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	fn(d.doc)
}

// AddFrame attaches a child document as if it were loaded in an iframe.
func (d *Doc) AddFrame(url, markup string) *Doc {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	frame := &Doc{page: d.page, url: url, doc: parse(markup)}
	d.frames = append(d.frames, frame)
	return frame
}

// OnClick registers a handler for clicks on elements matching selector,
// later registrations run after earlier ones.
func (d *Doc) OnClick(selector string, fn ClickHandler) {
	d.page.mutex.Lock()
	defer d.page.mutex.Unlock()
	d.handlers = append(d.handlers, handler{selector: selector, fn: fn})
}

// Page is the top level document, it also owns native dialogs.
type Page struct {
	Doc

	mutex       sync.Mutex
	routes      map[string]string
	interceptor *interceptor
	dialogs     []browser.Dialog
	events      []Event
	screenshots []string
}

func New(url, markup string) *Page {
	p := &Page{routes: map[string]string{}}
	p.Doc = Doc{page: p, url: url, doc: parse(markup)}
	return p
}

// Route makes Navigate(url) load markup.
func (p *Page) Route(url, markup string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.routes[url] = markup
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	markup, ok := p.routes[url]
	if !ok {
		return fmt.Errorf("navigate to %s: no route", url)
	}
	p.url = url
	p.doc = parse(markup)
	p.frames = nil
	p.events = append(p.events, Event{Kind: "navigate", Target: url})
	return nil
}

// Load replaces the page as if the browser navigated on its own, like
// after a form submission.
func (p *Page) Load(url, markup string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.url = url
	p.doc = parse(markup)
	p.frames = nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	html, err := p.HTML(ctx)
	if err != nil {
		return err
	}
	p.mutex.Lock()
	p.screenshots = append(p.screenshots, path)
	p.mutex.Unlock()
	return os.WriteFile(path, []byte(html), 0644)
}

func (p *Page) Close() error {
	return nil
}

func (p *Page) record(e Event) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, e)
}

// Events lists what happened to the page so far.
func (p *Page) Events() []Event {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Dialogs lists every native dialog opened so far.
func (p *Page) Dialogs() []browser.Dialog {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]browser.Dialog, len(p.dialogs))
	copy(out, p.dialogs)
	return out
}

func (p *Page) Screenshots() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.screenshots...)
}
