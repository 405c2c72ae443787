package ourvend

import (
	"time"

	"ourvend-sync/lib/retry"
)

// Selectors holds everything that ties the automation to the console's
// markup, the vendor changes it without notice so all of it is
// configurable.
type Selectors struct {
	LoginPath      string   `json:"login_path"`
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	SignInControls string   `json:"sign_in_controls"`
	SignInText     []string `json:"sign_in_text"`

	SidebarSection string `json:"sidebar_section"`
	SidebarLabel   string `json:"sidebar_label"`
	MenuLeaf       string `json:"menu_leaf"`
	SlotFrameURL   string `json:"slot_frame_url"`

	DropdownToggle  string `json:"dropdown_toggle"`
	DropdownOptions string `json:"dropdown_options"`
	QueryButton     string `json:"query_button"`

	// EditAction and ClearAction are the names of the inline onclick
	// functions of the grid, their first argument is the slot number.
	EditAction    string `json:"edit_action"`
	EditControls  string `json:"edit_controls"`
	ClearAction   string `json:"clear_action"`
	ClearControls string `json:"clear_controls"`

	Modal            string   `json:"modal"`
	EditorExclusions []string `json:"editor_exclusions"`
	SlotIdentity     string   `json:"slot_identity"`
	// Fields locates the inputs of the editor by field name
	// (machinePrice, capacity, ...).
	Fields map[string]FieldLocator `json:"fields"`

	ModalButtons       string   `json:"modal_buttons"`
	SubmitControls     string   `json:"submit_controls"`
	CloseButtons       []string `json:"close_buttons"`
	SubmitButtons      []string `json:"submit_buttons"`
	AcknowledgeButtons []string `json:"acknowledge_buttons"`

	// Commodity* locate the catalog page products are added on.
	CommodityLabel    string `json:"commodity_label"`
	CommodityMenuLeaf string `json:"commodity_menu_leaf"`
	CommodityFrameURL string `json:"commodity_frame_url"`
	CommodityAdd      string `json:"commodity_add"`
	// CommodityFields locates the inputs of the add form by field name
	// (code, name, specs, unitPrice, costPrice).
	CommodityFields map[string]FieldLocator `json:"commodity_fields"`
	CommodityImage  string                  `json:"commodity_image"`
	CommodityCrop   string                  `json:"commodity_crop"`
	CommoditySave   string                  `json:"commodity_save"`
	CommodityRows   string                  `json:"commodity_rows"`
	// CommoditySaved is the text of the message shown after a product was
	// added.
	CommoditySaved []string `json:"commodity_saved"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		LoginPath:      "/Account/Login",
		Username:       "#userName",
		Password:       "#passWord",
		SignInControls: "button, a, input",
		SignInText:     []string{"sign", "login"},

		SidebarSection: "span",
		SidebarLabel:   "Vending machine management",
		MenuLeaf:       `a[onclick*="SetMenuLinkUrl(43"]`,
		SlotFrameURL:   "Selection/Index",

		DropdownToggle:  "button.dropdown-toggle",
		DropdownOptions: ".dropdown-menu.open li a, .dropdown-menu.show li a",
		QueryButton:     `a[onclick="Search()"]`,

		EditAction:    "Modal_User",
		EditControls:  "button, a",
		ClearAction:   "Clear",
		ClearControls: "a",

		Modal:            ".modal",
		EditorExclusions: []string{"Edited successfully", "Message Box"},
		SlotIdentity:     "#SiCoilId",
		Fields:           DefaultFieldLocators(),

		ModalButtons:       "button",
		SubmitControls:     `button, input[type="submit"]`,
		CloseButtons:       []string{"close", "cancel"},
		SubmitButtons:      []string{"submit", "save"},
		AcknowledgeButtons: []string{"close", "ok", "关闭", "submit"},

		CommodityLabel:    "Commodity management",
		CommodityMenuLeaf: `a[onclick*="SetMenuLinkUrl(54"]`,
		CommodityFrameURL: "CommodityInfo/Index",
		CommodityAdd:      `a[onclick*="Modal_User"]`,
		CommodityFields:   DefaultCommodityLocators(),
		CommodityImage:    `input[type="file"][name="WMPImg1"], input[type="file"]`,
		CommodityCrop:     "#cropsuccess",
		CommoditySave:     `button[onclick*="Edit_CMT"]`,
		CommodityRows:     "table tbody tr",
		CommoditySaved:    []string{"success", "成功"},
	}
}

// FieldLocator finds one input of the slot editor. Selector is tried
// first, then the input next to a label containing Label, then Fallbacks
// in order.
type FieldLocator struct {
	Selector  string   `json:"selector"`
	Label     string   `json:"label"`
	Fallbacks []string `json:"fallbacks"`
}

func DefaultFieldLocators() map[string]FieldLocator {
	return map[string]FieldLocator{
		"machinePrice":     {Selector: "#SiPrice"},
		"userDefinedPrice": {Selector: "#SiCustomPrice"},
		"capacity": {
			Label:     "Capacity",
			Fallbacks: []string{`input[name*="capacity"]`, `input[placeholder*="capacity"]`},
		},
		"existing": {
			Label:     "Existing",
			Fallbacks: []string{`input[name*="existing"]`, `input[placeholder*="existing"]`},
		},
		"weChatDiscount": {
			Label:     "WeChat discount",
			Fallbacks: []string{`input[name*="wechat"]`, `input[name*="WeChat"]`},
		},
		"alipayDiscount": {
			Label:     "Alipay discount",
			Fallbacks: []string{`input[name*="alipay"]`, `input[name*="Alipay"]`},
		},
		"idCardDiscount": {
			Label:     "ID card discount",
			Fallbacks: []string{`input[name*="card"]`, `input[name*="ID"]`},
		},
		"alertingQuantity": {
			Label:     "Alerting quantity",
			Fallbacks: []string{`input[name*="alert"]`, `input[placeholder*="alert"]`},
		},
	}
}

func DefaultCommodityLocators() map[string]FieldLocator {
	return map[string]FieldLocator{
		"code": {
			Selector:  `input[placeholder*="Commodity code"]`,
			Fallbacks: []string{`input[placeholder*="barcode"]`, `input[name*="Code"]`},
		},
		"name": {
			Selector:  `input[placeholder*="Product name"]`,
			Fallbacks: []string{`input[placeholder*="name"]`, `input[name*="Name"]`},
		},
		"specs": {
			Selector:  `input[placeholder*="Specs"]`,
			Fallbacks: []string{`input[placeholder*="specification"]`},
		},
		"unitPrice": {
			Selector:  `input[placeholder*="Unit price"]`,
			Fallbacks: []string{`input[placeholder*="price"]`},
		},
		"costPrice": {
			Selector:  `input[placeholder*="Cost price"]`,
			Fallbacks: []string{`input[placeholder*="purchasing"]`},
		},
	}
}

// Policies are the waits of the console layer, the orchestrator owns the
// rest.
type Policies struct {
	// Login polls for the login form to go away after signing in.
	Login retry.Config `json:"login"`
	// Navigation polls for sidebar entries and the slot frame.
	Navigation retry.Config `json:"navigation"`
	// Dropdown polls for the options of an opened dropdown.
	Dropdown retry.Config `json:"dropdown"`
	// GridReady polls for the slot grid after a query.
	GridReady retry.Config `json:"grid_ready"`
	// Modal polls for the slot editor to open or close.
	Modal retry.Config `json:"modal"`
	// Acknowledge polls for the message and the new row after a product
	// was saved.
	Acknowledge retry.Config `json:"acknowledge"`
}

func DefaultPolicies() Policies {
	return Policies{
		Login:       retry.Config{Attempts: 15, IntervalMs: 1000},
		Navigation:  retry.Config{Attempts: 10, IntervalMs: 1000},
		Dropdown:    retry.Config{Attempts: 5, IntervalMs: 500},
		GridReady:   retry.Config{Attempts: 15, IntervalMs: 1000},
		Modal:       retry.Config{Attempts: 10, IntervalMs: 500},
		Acknowledge: retry.Config{Attempts: 10, IntervalMs: 500},
	}
}

type Options struct {
	BaseURL   string    `json:"base_url"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Selectors Selectors `json:"selectors"`
	Policies  Policies  `json:"policies"`
	// DialogTimeoutMs bounds the wait for the native confirm of a clear.
	DialogTimeoutMs int `json:"dialog_timeout_ms"`
}

func DefaultOptions() Options {
	return Options{
		BaseURL:         "https://os.ourvend.com",
		Selectors:       DefaultSelectors(),
		Policies:        DefaultPolicies(),
		DialogTimeoutMs: 5000,
	}
}

func (o Options) dialogTimeout() time.Duration {
	if o.DialogTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.DialogTimeoutMs) * time.Millisecond
}
