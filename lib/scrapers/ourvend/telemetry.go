package ourvend

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ourvend_sync.lib.scrapers.ourvend")

const (
	report_session_login          = "session.login"
	report_session_navigate       = "session.navigate"
	report_slot_page_select_scope = "slot-page.select-scope"
	report_slot_page_query        = "slot-page.query"
	report_slot_page_clear        = "slot-page.clear"
	report_editor_field           = "editor.field"
	report_editor_close           = "editor.close"
	report_preflight              = "preflight"
	report_commodity_page_add     = "commodity-page.add"
)
