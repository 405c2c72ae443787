package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"ourvend-sync/lib/browser"

	"github.com/PuerkitoBio/goquery"
)

// Element is a live node of a Doc.
type Element struct {
	doc *Doc
	sel *goquery.Selection
}

func (e *Element) lock() func() {
	e.doc.page.mutex.Lock()
	return e.doc.page.mutex.Unlock
}

// Doc is the document the element belongs to.
func (e *Element) Doc() *Doc {
	return e.doc
}

func (e *Element) Tag() string {
	defer e.lock()()
	return goquery.NodeName(e.sel)
}

func (e *Element) Text() string {
	defer e.lock()()
	return e.sel.Text()
}

func (e *Element) Attr(name string) (string, bool) {
	defer e.lock()()
	return e.sel.Attr(name)
}

func (e *Element) Value() string {
	defer e.lock()()
	if goquery.NodeName(e.sel) == "textarea" {
		return e.sel.Text()
	}
	return e.sel.AttrOr("value", "")
}

func hiddenStyle(style string) bool {
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") ||
		strings.Contains(style, "visibility:hidden")
}

func (e *Element) Visible() bool {
	defer e.lock()()
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return false
		}
		if hiddenStyle(s.AttrOr("style", "")) {
			return false
		}
	}
	return true
}

func (e *Element) describe() string {
	defer e.lock()()
	if id, ok := e.sel.Attr("id"); ok {
		return "#" + id
	}
	if onclick, ok := e.sel.Attr("onclick"); ok {
		return fmt.Sprintf("%s[onclick=%q]", goquery.NodeName(e.sel), onclick)
	}
	if name, ok := e.sel.Attr("name"); ok {
		return fmt.Sprintf("%s[name=%q]", goquery.NodeName(e.sel), name)
	}
	return goquery.NodeName(e.sel)
}

// Click runs every handler whose selector matches the element, handlers
// run without the page lock so they can query and mutate the page.
func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.doc.page.mutex.Lock()
	var matched []ClickHandler
	for _, h := range e.doc.handlers {
		if e.sel.Is(h.selector) {
			matched = append(matched, h.fn)
		}
	}
	e.doc.page.mutex.Unlock()

	e.doc.page.record(Event{Kind: "click", Target: e.describe()})
	for _, fn := range matched {
		err := fn(ctx, e)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := e.describe()

	e.doc.page.mutex.Lock()
	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
	} else {
		e.sel.SetAttr("value", value)
	}
	e.doc.page.mutex.Unlock()

	e.doc.page.record(Event{Kind: "input", Target: target, Value: value})
	e.doc.page.record(Event{Kind: "change", Target: target, Value: value})
	return nil
}

// SetFiles keeps the file names in the value attribute, the way a browser
// reports a file input's value.
func (e *Element) SetFiles(ctx context.Context, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Tag() != "input" {
		return fmt.Errorf("set files on <%s>", e.Tag())
	}
	target := e.describe()
	value := strings.Join(paths, ",")

	e.doc.page.mutex.Lock()
	e.sel.SetAttr("value", value)
	e.doc.page.mutex.Unlock()

	e.doc.page.record(Event{Kind: "files", Target: target, Value: value})
	e.doc.page.record(Event{Kind: "change", Target: target, Value: value})
	return nil
}

func (e *Element) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	defer e.lock()()
	return e.doc.wrap(e.sel.Find(selector)), nil
}

func (e *Element) Parent(ctx context.Context) (browser.Element, error) {
	defer e.lock()()
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return &Element{doc: e.doc, sel: parent}, nil
}

// Selection runs fn with the underlying goquery selection under the page
// lock, handlers use it to edit the page around the clicked element.
func (e *Element) Selection(fn func(sel *goquery.Selection)) {
	defer e.lock()()
	fn(e.sel)
}
