// Package ourvendtest provides an in-memory Ourvend console for tests, it
// serves the login page, the sidebar, a scripted slot management frame and
// the commodity info frame on top of htmldoc.
package ourvendtest

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/browser/htmldoc"
	"ourvend-sync/lib/htmlutil"
	"ourvend-sync/lib/retry"
	"ourvend-sync/lib/scrapers/ourvend"

	"github.com/PuerkitoBio/goquery"
)

const serial = "2503060046"

// Slot is the state of one slot on the console.
type Slot struct {
	Number      int
	Product     string
	Price       string
	CustomPrice string
	// Extra holds the remaining editor inputs by input name, like
	// SiCapacity.
	Extra map[string]string
}

func (s Slot) clone() Slot {
	extra := make(map[string]string, len(s.Extra))
	for k, v := range s.Extra {
		extra[k] = v
	}
	s.Extra = extra
	return s
}

// Commodity is a product added through the commodity info frame.
type Commodity struct {
	Code      string
	Name      string
	Specs     string
	UnitPrice string
	CostPrice string
	Image     string
	// Cropped is set when the crop of the uploaded image was confirmed.
	Cropped bool
}

// Console is the fake console. Exported fields may be changed between
// actions of the code under test.
type Console struct {
	Page *htmldoc.Page

	BaseURL  string
	Username string
	Password string
	// Groupings maps machine groupings to the machines in them.
	Groupings map[string][]string
	Products  []string

	// MisroutedOpens makes the next n edit actions open the editor of the
	// following slot instead.
	MisroutedOpens int
	// HideActions lists slots that are rendered without edit and clear
	// controls.
	HideActions map[int]bool
	// ConfirmDialog is the native dialog the clear action opens.
	ConfirmDialog browser.Dialog
	// SilentClear makes the clear action do nothing without asking.
	SilentClear bool
	// DialogDelay postpones the confirm of the clear action.
	DialogDelay time.Duration
	// ClearMessage and EditMessage are shown in a message box after a
	// clear or a save, empty means no message box.
	ClearMessage string
	EditMessage  string
	// CommodityMessage is shown after a product was added.
	CommodityMessage string

	mutex    sync.Mutex
	slots    map[int]*Slot
	frame    *htmldoc.Doc
	grouping string
	machine  string
	open     int
	submits  int
	clears   []int

	commodityFrame *htmldoc.Doc
	added          []Commodity
	cropped        bool
}

func New() *Console {
	c := &Console{
		BaseURL:  "https://os.ourvend.test",
		Username: "operator",
		Password: "secret",
		Groupings: map[string][]string{
			"Ourvend Yuanzhi": {"Office 12F", "Lobby"},
		},
		Products: []string{"Coca Cola 330ml", "Sprite 330ml", "Green Tea 500ml"},
		ConfirmDialog: browser.Dialog{
			Type:    browser.DialogConfirm,
			Message: "Are you sure you want to empty this slot?",
		},
		ClearMessage: "Clear success",
		EditMessage:      "Edited successfully",
		CommodityMessage: "Added successfully",
		HideActions:      map[int]bool{},
		slots:            map[int]*Slot{},
	}

	c.Page = htmldoc.New("about:blank", "<html><body></body></html>")
	c.Page.Route(c.BaseURL+"/Account/Login", loginHTML)
	c.Page.OnClick("#login-button", c.onLogin)
	c.Page.OnClick("span.menu-title", c.onSection)
	c.Page.OnClick(`a[onclick*="SetMenuLinkUrl(43"]`, c.onMenuLeaf)
	c.Page.OnClick(`a[onclick*="SetMenuLinkUrl(54"]`, c.onCommodityLeaf)
	return c
}

// Options returns console options pointed at the fake with short waits.
func (c *Console) Options() ourvend.Options {
	opts := ourvend.DefaultOptions()
	opts.BaseURL = c.BaseURL
	opts.Username = c.Username
	opts.Password = c.Password
	fast := retry.Config{Attempts: 3, IntervalMs: 1}
	opts.Policies = ourvend.Policies{
		Login:       fast,
		Navigation:  fast,
		Dropdown:    fast,
		GridReady:   fast,
		Modal:       fast,
		Acknowledge: fast,
	}
	opts.DialogTimeoutMs = 200
	return opts
}

// SetSlot adds or replaces a slot.
func (c *Console) SetSlot(s Slot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	s = s.clone()
	c.slots[s.Number] = &s
}

// Slot returns the current state of a slot.
func (c *Console) Slot(n int) (Slot, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	s, ok := c.slots[n]
	if !ok {
		return Slot{}, false
	}
	return s.clone(), true
}

// Submits counts saved editors.
func (c *Console) Submits() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.submits
}

// Clears lists cleared slots in order.
func (c *Console) Clears() []int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]int(nil), c.clears...)
}

// Commodities lists the products added through the commodity frame in
// order.
func (c *Console) Commodities() []Commodity {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]Commodity(nil), c.added...)
}

// CommodityFrame is the commodity info frame, nil until the menu was
// opened.
func (c *Console) CommodityFrame() *htmldoc.Doc {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.commodityFrame
}

// Frame is the slot management frame, nil until the menu was opened.
func (c *Console) Frame() *htmldoc.Doc {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.frame
}

const loginHTML = `<html><body>
<form id="login">
<input id="userName" type="text" value="">
<input id="passWord" type="password" value="">
<button type="button" id="login-button">Sign in</button>
</form>
</body></html>`

const dashboardHTML = `<html><body>
<ul class="sidebar">
<li><a class="menu-toggle"><span class="menu-title">Vending machine management</span></a>
<ul class="submenu" style="display:none">
<li><a onclick="SetMenuLinkUrl(42,'/Machine/Index')">Machine list</a></li>
<li><a onclick="SetMenuLinkUrl(43,'/Selection/Index')">Slot management</a></li>
</ul></li>
<li><a class="menu-toggle"><span class="menu-title">Commodity management</span></a>
<ul class="submenu" style="display:none">
<li><a onclick="SetMenuLinkUrl(54,'/CommodityInfo/Index')">Commodity info</a></li>
</ul></li>
</ul>
<iframe src="/Home/Welcome"></iframe>
</body></html>`

func inputValue(ctx context.Context, doc browser.Document, selector string) string {
	el, err := browser.First(ctx, doc, selector, nil)
	if err != nil {
		return ""
	}
	return el.Value()
}

func (c *Console) onLogin(ctx context.Context, el *htmldoc.Element) error {
	username := inputValue(ctx, c.Page, "#userName")
	password := inputValue(ctx, c.Page, "#passWord")
	if username != c.Username || password != c.Password {
		c.Page.Mutate(func(doc *goquery.Document) {
			doc.Find("#login").AppendHtml(`<span class="error">Incorrect username or password</span>`)
		})
		return nil
	}
	c.Page.Load(c.BaseURL+"/Home/Index", dashboardHTML)
	return nil
}

func (c *Console) onSection(ctx context.Context, el *htmldoc.Element) error {
	c.Page.Mutate(func(doc *goquery.Document) {
		doc.Find(".submenu").RemoveAttr("style")
	})
	return nil
}

func (c *Console) onMenuLeaf(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	markup := c.gridHTML()
	c.mutex.Unlock()

	frame := c.Page.AddFrame(c.BaseURL+"/Selection/Index?menuId=43", markup)
	frame.OnClick("button.dropdown-toggle", c.onToggle)
	frame.OnClick("#grouping-menu li a", c.onGrouping)
	frame.OnClick("#machine-menu li a", c.onMachine)
	frame.OnClick(`a[onclick="Search()"]`, c.onSearch)
	frame.OnClick(`[onclick*="Modal_User("]`, c.onEdit)
	frame.OnClick(`a[onclick*="Clear("]`, c.onClear)
	frame.OnClick("#product-menu li a", c.onProduct)
	frame.OnClick("#editor-close", c.onEditorClose)
	frame.OnClick("#editor-submit", c.onEditorSubmit)
	frame.OnClick("#message-close", c.onMessageClose)

	c.mutex.Lock()
	c.frame = frame
	c.mutex.Unlock()
	return nil
}

func options(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&b, `<li><a href="#">%s</a></li>`, html.EscapeString(l))
	}
	return b.String()
}

func (c *Console) gridHTML() string {
	var groupings []string
	for g := range c.Groupings {
		groupings = append(groupings, g)
	}
	sort.Strings(groupings)

	return fmt.Sprintf(`<html><body>
<div class="toolbar">
<div class="btn-group"><button type="button" class="btn dropdown-toggle" id="grouping-toggle">Select grouping</button>
<ul class="dropdown-menu" id="grouping-menu">%s</ul></div>
<div class="btn-group"><button type="button" class="btn dropdown-toggle" id="machine-toggle">Select machine</button>
<ul class="dropdown-menu" id="machine-menu"></ul></div>
<a class="btn" onclick="Search()">Query</a>
</div>
<table id="slots"><tbody></tbody></table>
<div class="modal" id="editor" style="display:none"></div>
<div class="modal" id="message" style="display:none">
<div class="modal-body"><h4>Message Box</h4><p class="message-text"></p></div>
<div class="modal-footer"><button type="button" id="message-close">Close</button></div>
</div>
</body></html>`, options(groupings))
}

func (c *Console) rowsHTML() string {
	var numbers []int
	for n := range c.slots {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var b strings.Builder
	for _, n := range numbers {
		s := c.slots[n]
		actions := ""
		if !c.HideActions[n] {
			actions = fmt.Sprintf(
				`<button type="button" class="btn btn-xs" onclick="Modal_User('%d','%s','')">Edit</button> <a class="btn btn-xs" onclick="Clear('%d','%s','')">Clear</a>`,
				n, serial, n, serial,
			)
		}
		fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`, n, html.EscapeString(s.Product), actions)
	}
	return b.String()
}

func (c *Console) editorHTML(s *Slot) string {
	product := s.Product
	if product == "" {
		product = "Please select"
	}
	extra := func(name string) string {
		return html.EscapeString(s.Extra[name])
	}
	return fmt.Sprintf(`<div class="modal" id="editor" style="display:block">
<div class="modal-header"><h4>Edit slot</h4></div>
<div class="modal-body">
<input type="hidden" id="SiCoilId" value="%d">
<div class="form-group"><label>Product</label><div class="btn-group"><button type="button" class="btn dropdown-toggle" id="product-toggle">%s</button>
<ul class="dropdown-menu" id="product-menu">%s</ul></div></div>
<div class="form-group"><label for="SiPrice">Machine price</label><input id="SiPrice" value="%s"></div>
<div class="form-group"><label for="SiCustomPrice">User-defined price</label><input id="SiCustomPrice" value="%s"></div>
<div class="form-group"><label>Capacity</label><input name="SiCapacity" value="%s"></div>
<div class="form-group"><label>Existing</label><input name="SiExisting" value="%s"></div>
<div class="form-group"><label>WeChat discount</label><input name="SiWeChatDiscount" value="%s"></div>
<div class="form-group"><label>Alipay discount</label><input name="SiAlipayDiscount" value="%s"></div>
<div class="form-group"><label>ID card discount</label><input name="SiIdCardDiscount" value="%s"></div>
<div class="form-group"><label>Alerting quantity</label><input name="SiAlertQuantity" value="%s"></div>
</div>
<div class="modal-footer"><button type="button" class="btn" id="editor-close">Close</button><button type="button" class="btn btn-primary" id="editor-submit">Submit</button></div>
</div>`,
		s.Number,
		html.EscapeString(product),
		options(c.Products),
		html.EscapeString(s.Price),
		html.EscapeString(s.CustomPrice),
		extra("SiCapacity"),
		extra("SiExisting"),
		extra("SiWeChatDiscount"),
		extra("SiAlipayDiscount"),
		extra("SiIdCardDiscount"),
		extra("SiAlertQuantity"),
	)
}

func closeMenus(doc *goquery.Document) {
	doc.Find(".dropdown-menu").RemoveClass("open")
}

func (c *Console) onToggle(ctx context.Context, el *htmldoc.Element) error {
	el.Selection(func(sel *goquery.Selection) {
		menu := sel.Next()
		wasOpen := menu.HasClass("open")
		sel.Closest("body").Find(".dropdown-menu").RemoveClass("open")
		if !wasOpen {
			menu.AddClass("open")
		}
	})
	return nil
}

func (c *Console) onGrouping(ctx context.Context, el *htmldoc.Element) error {
	label := strings.TrimSpace(el.Text())
	c.mutex.Lock()
	c.grouping = label
	c.machine = ""
	machines := c.Groupings[label]
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		closeMenus(doc)
		doc.Find("#grouping-toggle").SetText(label)
		doc.Find("#machine-toggle").SetText("Select machine")
		doc.Find("#machine-menu").SetHtml(options(machines))
	})
	return nil
}

func (c *Console) onMachine(ctx context.Context, el *htmldoc.Element) error {
	label := strings.TrimSpace(el.Text())
	c.mutex.Lock()
	c.machine = label
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		closeMenus(doc)
		doc.Find("#machine-toggle").SetText(label)
	})
	return nil
}

func (c *Console) onSearch(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	rows := ""
	if c.machine != "" {
		rows = c.rowsHTML()
	}
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#slots tbody").SetHtml(rows)
	})
	return nil
}

func slotArg(el *htmldoc.Element, fn string) (int, error) {
	onclick, _ := el.Attr("onclick")
	args, ok := htmlutil.ParseCall(onclick, fn)
	if !ok {
		return 0, fmt.Errorf("unexpected onclick %q", onclick)
	}
	call := htmlutil.ActionCall{Args: args}
	n, ok := call.FirstIntArg()
	if !ok {
		return 0, fmt.Errorf("unexpected onclick %q", onclick)
	}
	return n, nil
}

func (c *Console) onEdit(ctx context.Context, el *htmldoc.Element) error {
	n, err := slotArg(el, "Modal_User")
	if err != nil {
		return err
	}

	c.mutex.Lock()
	target := n
	if c.MisroutedOpens > 0 {
		c.MisroutedOpens--
		target = n + 1
	}
	s, ok := c.slots[target]
	if !ok {
		s = &Slot{Number: target, Extra: map[string]string{}}
	}
	c.open = target
	markup := c.editorHTML(s)
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#editor").ReplaceWithHtml(markup)
	})
	return nil
}

func (c *Console) onProduct(ctx context.Context, el *htmldoc.Element) error {
	label := strings.TrimSpace(el.Text())
	el.Doc().Mutate(func(doc *goquery.Document) {
		closeMenus(doc)
		doc.Find("#product-toggle").SetText(label)
	})
	return nil
}

const hiddenEditor = `<div class="modal" id="editor" style="display:none"></div>`

func (c *Console) onEditorClose(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	c.open = 0
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		closeMenus(doc)
		doc.Find("#editor").ReplaceWithHtml(hiddenEditor)
	})
	return nil
}

func showMessage(doc *goquery.Document, message string) {
	doc.Find("#message").SetAttr("style", "display:block")
	doc.Find("#message .message-text").SetText(message)
}

func (c *Console) onEditorSubmit(ctx context.Context, el *htmldoc.Element) error {
	var (
		product     string
		price       string
		customPrice string
		extra       = map[string]string{}
	)
	el.Doc().Mutate(func(doc *goquery.Document) {
		editor := doc.Find("#editor")
		product = strings.TrimSpace(editor.Find("#product-toggle").Text())
		price = editor.Find("#SiPrice").AttrOr("value", "")
		customPrice = editor.Find("#SiCustomPrice").AttrOr("value", "")
		editor.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
			extra[s.AttrOr("name", "")] = s.AttrOr("value", "")
		})
	})
	if product == "Please select" {
		product = ""
	}

	c.mutex.Lock()
	c.slots[c.open] = &Slot{
		Number:      c.open,
		Product:     product,
		Price:       price,
		CustomPrice: customPrice,
		Extra:       extra,
	}
	c.open = 0
	c.submits++
	message := c.EditMessage
	rows := c.rowsHTML()
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		closeMenus(doc)
		doc.Find("#editor").ReplaceWithHtml(hiddenEditor)
		doc.Find("#slots tbody").SetHtml(rows)
		if message != "" {
			showMessage(doc, message)
		}
	})
	return nil
}

func (c *Console) onClear(ctx context.Context, el *htmldoc.Element) error {
	n, err := slotArg(el, "Clear")
	if err != nil {
		return err
	}

	c.mutex.Lock()
	dialog := c.ConfirmDialog
	silent := c.SilentClear
	delay := c.DialogDelay
	c.mutex.Unlock()
	if silent {
		return nil
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	accepted, err := c.Page.OpenDialog(ctx, dialog)
	if err != nil || !accepted {
		return err
	}

	c.mutex.Lock()
	if s, ok := c.slots[n]; ok {
		s.Product = ""
		s.Price = "0"
		s.CustomPrice = "0"
	}
	c.clears = append(c.clears, n)
	message := c.ClearMessage
	rows := c.rowsHTML()
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#slots tbody").SetHtml(rows)
		if message != "" {
			showMessage(doc, message)
		}
	})
	return nil
}

func (c *Console) onMessageClose(ctx context.Context, el *htmldoc.Element) error {
	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#message").SetAttr("style", "display:none")
	})
	return nil
}

func (c *Console) onCommodityLeaf(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	markup := fmt.Sprintf(commodityHTML, c.commodityRowsHTML())
	c.mutex.Unlock()

	frame := c.Page.AddFrame(c.BaseURL+"/CommodityInfo/Index?menuId=54", markup)
	frame.OnClick(`a[onclick*="Modal_User"]`, c.onCommodityOpen)
	frame.OnClick("#cropsuccess", c.onCrop)
	frame.OnClick(`button[onclick="Edit_CMT()"]`, c.onCommoditySave)
	frame.OnClick("#commodity-close", c.onCommodityClose)
	frame.OnClick("#message-close", c.onMessageClose)

	c.mutex.Lock()
	c.commodityFrame = frame
	c.mutex.Unlock()
	return nil
}

const commodityHTML = `<html><body>
<div class="toolbar"><a class="btn" onclick="Modal_User()">Add</a></div>
<table id="commodities"><thead><tr><th>Code</th><th>Name</th><th>Unit price</th></tr></thead>
<tbody>%s</tbody></table>
<div class="modal" id="commodity-form" style="display:none"></div>
<div class="modal" id="message" style="display:none">
<div class="modal-body"><h4>Message Box</h4><p class="message-text"></p></div>
<div class="modal-footer"><button type="button" id="message-close">Close</button></div>
</div>
</body></html>`

const commodityFormHTML = `<div class="modal" id="commodity-form" style="display:block">
<div class="modal-header"><h4>Add commodity</h4></div>
<div class="modal-body">
<div class="form-group"><label>Commodity code</label><input name="CMTCode" placeholder="Commodity code" value=""></div>
<div class="form-group"><label>Product name</label><input name="CMTName" placeholder="Product name" value=""></div>
<div class="form-group"><label>Specs</label><input name="CMTSpecs" placeholder="Specs" value=""></div>
<div class="form-group"><label>Unit price</label><input name="CMTPrice" placeholder="Unit price" value=""></div>
<div class="form-group"><label>Cost price</label><input name="CMTCost" placeholder="Cost price" value=""></div>
<div class="form-group"><label>Picture</label><input type="file" name="WMPImg1" value="">
<button type="button" class="btn" id="cropsuccess">Crop</button></div>
</div>
<div class="modal-footer"><button type="button" id="commodity-close" data-dismiss="modal">Close</button><button type="button" class="btn btn-primary" onclick="Edit_CMT()">Save</button></div>
</div>`

const hiddenCommodityForm = `<div class="modal" id="commodity-form" style="display:none"></div>`

func (c *Console) commodityRowsHTML() string {
	details := make(map[string]Commodity, len(c.added))
	for _, a := range c.added {
		details[a.Name] = a
	}
	var b strings.Builder
	for i, p := range c.Products {
		d, ok := details[p]
		if !ok {
			d = Commodity{Code: fmt.Sprintf("69000%02d", i+1), Name: p}
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(d.Code), html.EscapeString(d.Name), html.EscapeString(d.UnitPrice))
	}
	return b.String()
}

func (c *Console) onCommodityOpen(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	c.cropped = false
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#commodity-form").ReplaceWithHtml(commodityFormHTML)
	})
	return nil
}

func (c *Console) onCrop(ctx context.Context, el *htmldoc.Element) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cropped = true
	return nil
}

func (c *Console) onCommodityClose(ctx context.Context, el *htmldoc.Element) error {
	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#commodity-form").ReplaceWithHtml(hiddenCommodityForm)
	})
	return nil
}

func (c *Console) onCommoditySave(ctx context.Context, el *htmldoc.Element) error {
	var added Commodity
	el.Doc().Mutate(func(doc *goquery.Document) {
		form := doc.Find("#commodity-form")
		value := func(name string) string {
			return strings.TrimSpace(form.Find(`input[name="` + name + `"]`).AttrOr("value", ""))
		}
		added = Commodity{
			Code:      value("CMTCode"),
			Name:      value("CMTName"),
			Specs:     value("CMTSpecs"),
			UnitPrice: value("CMTPrice"),
			CostPrice: value("CMTCost"),
			Image:     value("WMPImg1"),
		}
	})

	c.mutex.Lock()
	rejection := ""
	switch {
	case added.Name == "" || added.UnitPrice == "":
		rejection = "Product name and unit price are required"
	case containsFold(c.Products, added.Name):
		rejection = "Commodity already exists"
	}
	if rejection != "" {
		c.mutex.Unlock()
		el.Doc().Mutate(func(doc *goquery.Document) {
			showMessage(doc, rejection)
		})
		return nil
	}
	added.Cropped = c.cropped && added.Image != ""
	c.cropped = false
	c.added = append(c.added, added)
	c.Products = append(c.Products, added.Name)
	rows := c.commodityRowsHTML()
	message := c.CommodityMessage
	c.mutex.Unlock()

	el.Doc().Mutate(func(doc *goquery.Document) {
		doc.Find("#commodity-form").ReplaceWithHtml(hiddenCommodityForm)
		doc.Find("#commodities tbody").SetHtml(rows)
		if message != "" {
			showMessage(doc, message)
		}
	})
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
