package machineconfig

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// columns of the console's slot export
const (
	csvSlotColumn    = 1
	csvPriceColumn   = 7
	csvProductColumn = 9
	csvMinColumns    = 10
)

const priceTolerance = 0.001

type DifferenceKind string

const (
	MissingInConfig DifferenceKind = "missing_in_config"
	MissingInCSV    DifferenceKind = "missing_in_csv"
	Mismatch        DifferenceKind = "mismatch"
)

// ExportedSlot is the part of a slot the comparison looks at.
type ExportedSlot struct {
	SlotNumber   int     `json:"slotNumber"`
	ProductName  string  `json:"productName"`
	MachinePrice float64 `json:"machinePrice"`
}

type Difference struct {
	SlotNumber int            `json:"slotNumber"`
	Kind       DifferenceKind `json:"type"`
	Config     *ExportedSlot  `json:"config,omitempty"`
	CSV        *ExportedSlot  `json:"csv,omitempty"`
	// only set for mismatches
	NameDiffers  bool `json:"nameDiffers,omitempty"`
	PriceDiffers bool `json:"priceDiffers,omitempty"`
}

// ParseExport reads a slot export of the console. The header row is
// skipped, so are rows too short to hold a product. A later row for the
// same slot replaces an earlier one.
func ParseExport(r io.Reader) (map[int]ExportedSlot, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	slots := map[int]ExportedSlot{}
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) < csvMinColumns {
			continue
		}

		slotNumber, err := strconv.Atoi(strings.TrimSpace(record[csvSlotColumn]))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[csvPriceColumn]), 64)
		if err != nil {
			price = 0
		}
		slots[slotNumber] = ExportedSlot{
			SlotNumber:   slotNumber,
			ProductName:  strings.TrimSpace(record[csvProductColumn]),
			MachinePrice: price,
		}
	}
	return slots, nil
}

// ConfigSlots indexes the slots of a machine configuration by number.
func ConfigSlots(machine MachineConfiguration) map[int]ExportedSlot {
	slots := map[int]ExportedSlot{}
	for _, s := range machine.Slots {
		slots[s.SlotNumber] = ExportedSlot{
			SlotNumber:   s.SlotNumber,
			ProductName:  strings.TrimSpace(s.ProductName),
			MachinePrice: s.MachinePrice,
		}
	}
	return slots
}

// Compare diffs the configuration against an export, ordered by slot
// number. Names must match exactly after trimming, prices within 0.001.
func Compare(config, export map[int]ExportedSlot) []Difference {
	numbers := map[int]struct{}{}
	for n := range config {
		numbers[n] = struct{}{}
	}
	for n := range export {
		numbers[n] = struct{}{}
	}
	sorted := make([]int, 0, len(numbers))
	for n := range numbers {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	var differences []Difference
	for _, n := range sorted {
		configSlot, inConfig := config[n]
		csvSlot, inCSV := export[n]

		switch {
		case !inConfig:
			differences = append(differences, Difference{SlotNumber: n, Kind: MissingInConfig, CSV: &csvSlot})
		case !inCSV:
			differences = append(differences, Difference{SlotNumber: n, Kind: MissingInCSV, Config: &configSlot})
		default:
			nameDiffers := configSlot.ProductName != csvSlot.ProductName
			priceDiffers := math.Abs(configSlot.MachinePrice-csvSlot.MachinePrice) > priceTolerance
			if nameDiffers || priceDiffers {
				differences = append(differences, Difference{
					SlotNumber:   n,
					Kind:         Mismatch,
					Config:       &configSlot,
					CSV:          &csvSlot,
					NameDiffers:  nameDiffers,
					PriceDiffers: priceDiffers,
				})
			}
		}
	}
	return differences
}
