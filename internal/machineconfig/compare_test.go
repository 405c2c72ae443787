package machineconfig

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const export = `Machine,Slot,Type,Capacity,Existing,Alert,Status,Price,Custom,Product
X,1,Spring,10,5,,OK,1.20,1.20,Water 500ml
X,3,Spring,10,5,,OK,2.0,2.0,  Pepsi 330ml
X,4,Spring,10,5,,OK,1.0,1.0,Chips
X,5,short row
X,6,Spring,10,5,,OK,0.5004,0.5,"Gum, mint"
`

func TestParseExport(t *testing.T) {
	slots, err := ParseExport(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, slots, 4)
	require.Equal(t, ExportedSlot{SlotNumber: 3, ProductName: "Pepsi 330ml", MachinePrice: 2}, slots[3])
	require.Equal(t, "Gum, mint", slots[6].ProductName)
}

func TestCompare(t *testing.T) {
	exported, err := ParseExport(strings.NewReader(export))
	require.NoError(t, err)

	config := ConfigSlots(MachineConfiguration{Slots: []SlotConfiguration{
		{SlotNumber: 1, ProductName: "Water 500ml ", MachinePrice: 1.2},
		{SlotNumber: 2, ProductName: "Fanta", MachinePrice: 2},
		{SlotNumber: 3, ProductName: "Coca Cola 330ml", MachinePrice: 2.5},
		{SlotNumber: 4, ProductName: "Chips", MachinePrice: 1.5},
		{SlotNumber: 6, ProductName: "Gum, mint", MachinePrice: 0.5},
	}})

	differences := Compare(config, exported)

	kinds := map[int]DifferenceKind{}
	for _, d := range differences {
		kinds[d.SlotNumber] = d.Kind
	}
	expected := map[int]DifferenceKind{
		2: MissingInCSV,
		3: Mismatch,
		4: Mismatch,
	}
	if diff := cmp.Diff(expected, kinds); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, 2, differences[0].SlotNumber)
	require.True(t, differences[1].NameDiffers)
	require.True(t, differences[1].PriceDiffers)
	require.False(t, differences[2].NameDiffers)
	require.True(t, differences[2].PriceDiffers)

	extra := map[int]ExportedSlot{9: {SlotNumber: 9, ProductName: "Candy"}}
	differences = Compare(map[int]ExportedSlot{}, extra)
	require.Len(t, differences, 1)
	require.Equal(t, MissingInConfig, differences[0].Kind)
}
