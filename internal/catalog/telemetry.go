package catalog

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ourvend_sync.internal.catalog")

const (
	report_adder_session  = "adder.session"
	report_adder_product  = "adder.product"
	report_adder_image    = "adder.image"
	report_products_added = "products.added"
)
