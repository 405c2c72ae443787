package machineconfig

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ourvend_sync.internal.machineconfig")

// Schema is the subset of the fleet database the generator reads, used to
// seed local databases.
//
//go:embed schema.sql
var Schema string

const (
	// stock levels written for slots that hold a product
	filledCapacity = 199
	filledExisting = 199
	fullPrice      = 100
)

var (
	ErrMachineNotFound = errors.New("machine not found")
	ErrNoGrouping      = errors.New("machine has no grouping set")
)

const machineQuery = `select name, tcn_machine_group, remote_id, serial
from machine
where id = @machineId`

const slotsQuery = `select
    mp.position,
    mp.price,
    p.name as product_name,
    p.id as product_id
from machine_product mp
left join product p on mp.product_id = p.id
where mp.machine_id = @machineId
order by cast(mp.position as int)`

// Generate builds the configuration of a machine from the fleet database.
// Every slot of the machine is included, slots without a product become
// clear instructions.
func Generate(ctx context.Context, db *sql.DB, machineID int) (MachineConfiguration, error) {
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("machine_id", machineID))

	config, err := generate(ctx, db, machineID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate machine configuration")
		return MachineConfiguration{}, err
	}
	return config, nil
}

func generate(ctx context.Context, db *sql.DB, machineID int) (MachineConfiguration, error) {
	var name string
	var grouping, remoteID, serial sql.NullString
	err := db.QueryRowContext(ctx, machineQuery, sql.Named("machineId", machineID)).
		Scan(&name, &grouping, &remoteID, &serial)
	if errors.Is(err, sql.ErrNoRows) {
		return MachineConfiguration{}, fmt.Errorf("%w: id %d", ErrMachineNotFound, machineID)
	}
	if err != nil {
		return MachineConfiguration{}, fmt.Errorf("query machine: %w", err)
	}
	if strings.TrimSpace(grouping.String) == "" {
		return MachineConfiguration{}, fmt.Errorf("%w: machine %d (%s)", ErrNoGrouping, machineID, name)
	}

	rows, err := db.QueryContext(ctx, slotsQuery, sql.Named("machineId", machineID))
	if err != nil {
		return MachineConfiguration{}, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []SlotConfiguration{}
	for rows.Next() {
		var position string
		var price sql.NullFloat64
		var productName sql.NullString
		var productID sql.NullInt64
		err := rows.Scan(&position, &price, &productName, &productID)
		if err != nil {
			return MachineConfiguration{}, fmt.Errorf("scan slot: %w", err)
		}

		slotNumber, err := strconv.Atoi(strings.TrimSpace(position))
		if err != nil {
			return MachineConfiguration{}, fmt.Errorf("slot position %q is not a number: %w", position, err)
		}

		slot := SlotConfiguration{
			SlotNumber:       slotNumber,
			MachinePrice:     price.Float64,
			UserDefinedPrice: price.Float64,
			WeChatDiscount:   fullPrice,
			AlipayDiscount:   fullPrice,
			IDCardDiscount:   fullPrice,
		}
		if productID.Valid {
			slot.ProductName = productName.String
			slot.Capacity = filledCapacity
			slot.Existing = filledExisting
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return MachineConfiguration{}, err
	}

	return MachineConfiguration{
		MachineID:       FlexString(strconv.Itoa(machineID)),
		MachineName:     name,
		MachineGrouping: grouping.String,
		RemoteID:        FlexString(remoteID.String),
		Serial:          FlexString(serial.String),
		Slots:           slots,
	}, nil
}
