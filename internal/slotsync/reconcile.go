package slotsync

import (
	"context"
	"fmt"
	"strings"

	"ourvend-sync/internal/components/telemetry"
	"ourvend-sync/internal/machineconfig"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const productField = "productName"

// FieldChange is one value the reconciler wrote into the editor.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type Reconciliation struct {
	Changed bool          `json:"changed"`
	Fields  []FieldChange `json:"fields,omitempty"`
}

func (r *Reconciliation) add(change FieldChange) {
	r.Changed = true
	r.Fields = append(r.Fields, change)
}

const maxSuggestions = 3

// Reconcile brings the open editor in line with the desired slot. Only
// mismatched values are written, the product first and then every scalar
// field. Inputs the editor does not have are reported and skipped.
func Reconcile(ctx context.Context, editor Editor, desired machineconfig.SlotConfiguration, extended bool, tel telemetry.API) (Reconciliation, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int("slot", desired.SlotNumber))

	var rec Reconciliation

	label, err := editor.ProductLabel(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read product")
		return rec, fmt.Errorf("read product: %w", err)
	}
	if !strings.Contains(label, desired.ProductName) {
		selected, offered, err := editor.SelectProduct(ctx, desired.ProductName)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to select product")
			return rec, fmt.Errorf("select product: %w", err)
		}
		if !selected {
			span.SetStatus(codes.Error, "product not found")
			return rec, &ProductNotFoundError{
				Product:     desired.ProductName,
				Suggestions: Suggest(desired.ProductName, offered, maxSuggestions),
			}
		}
		rec.add(FieldChange{Field: productField, From: label, To: desired.ProductName})
	}

	fields := machineconfig.CoreFields
	if extended {
		fields = append(append([]machineconfig.Field(nil), fields...), machineconfig.ExtendedFields...)
	}

	for _, field := range fields {
		want := desired.FieldValue(field)
		have, found, err := editor.FieldValue(ctx, field.String())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read field")
			return rec, fmt.Errorf("read %s: %w", field, err)
		}
		if !found {
			tel.ReportWarning(report_reconcile_field, desired.SlotNumber, field.String(), "input not found")
			continue
		}
		if have == want {
			continue
		}

		err = editor.SetField(ctx, field.String(), want)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write field")
			return rec, fmt.Errorf("write %s: %w", field, err)
		}
		rec.add(FieldChange{Field: field.String(), From: have, To: want})
	}

	span.SetAttributes(
		attribute.Bool("changed", rec.Changed),
		attribute.Int("changes", len(rec.Fields)),
	)
	return rec, nil
}
