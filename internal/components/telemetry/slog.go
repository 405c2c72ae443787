package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("ourvend_sync.internal.components.telemetry")

// reportCount carries every ReportCount, the id becomes an attribute.
var reportCount, _ = meter.Int64Gauge("report_count")

// SlogAPI implements API with log/slog, counts are also recorded as an
// otel gauge.
type SlogAPI struct{}

func attrs(pairs []any, params []any) []any {
	for i, p := range params {
		key := fmt.Sprintf("params.%d", i)
		if err, ok := p.(error); ok {
			pairs = append(pairs, key, err.Error())
			continue
		}
		pairs = append(pairs, key, p)
	}
	return pairs
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", attrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", attrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, attrs(nil, params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Debug("count", "id", id, "n", count)
	if reportCount != nil {
		reportCount.Record(
			context.Background(), count,
			metric.WithAttributes(attribute.String("id", id)),
		)
	}
}
