package commands

import (
	"os"
	"path/filepath"
	"testing"

	"ourvend-sync/internal/catalog"
	"ourvend-sync/internal/report"
	"ourvend-sync/internal/slotsync"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadProducts(t *testing.T) {
	dir := t.TempDir()
	runPath := filepath.Join(dir, "run.json")
	require.NoError(t, report.WriteJSON(runPath, slotsync.RunReport{
		RunID: "3f1d",
		ProductsNotFound: []slotsync.ProductNotFound{
			{Product: "Fanta Orange 330ml", Price: 2.5, Slots: []slotsync.SlotRef{{Machine: "Lobby", Slot: 3}}},
		},
	}))
	machinesPath := filepath.Join(dir, "machines.json")
	require.NoError(t, os.WriteFile(machinesPath, []byte(`[{
	"machineId": "1001",
	"machineName": "Lobby",
	"machineGrouping": "Ourvend Yuanzhi",
	"slots": [
		{ "slotNumber": 1, "productName": "Sprite 330ml", "machinePrice": 2 },
		{ "slotNumber": 2, "productName": "" }
	]
}]`), 0644))

	testCases := []struct {
		name     string
		report   string
		args     []string
		expected []catalog.Product
		fails    bool
	}{
		{
			name:     "from report",
			report:   runPath,
			expected: []catalog.Product{{Name: "Fanta Orange 330ml", Price: 2.5}},
		},
		{
			name:     "from machine configuration",
			args:     []string{machinesPath},
			expected: []catalog.Product{{Name: "Sprite 330ml", Price: 2}},
		},
		{name: "no source", fails: true},
		{name: "both sources", report: runPath, args: []string{machinesPath}, fails: true},
		{name: "missing report", report: filepath.Join(dir, "missing.json"), fails: true},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			products, err := loadProducts(test.report, test.args)
			if test.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(test.expected, products); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
