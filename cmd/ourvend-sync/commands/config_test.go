package commands

import (
	"os"
	"path/filepath"
	"testing"

	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/lib/retry"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	screenshots := filepath.Join(dir, "shots")
	path := filepath.Join(dir, "ourvend.json5")
	err := os.WriteFile(path, []byte(`{
	// only what differs from the defaults
	console: {
		username: "operator",
		policies: { login: { attempts: 30 } },
	},
	sync: {
		pacing_ms: 250,
		screenshot_dir: "`+screenshots+`",
	},
	database: { driver: "libsql" },
	catalog: { code_prefix: "69", default_price: 2 },
}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "ourvend.local.json5"), []byte(`{
	sync: { strict_acknowledgment: true },
}`), 0644)
	require.NoError(t, err)

	t.Setenv("OURVEND_USERNAME", "ignored")
	t.Setenv("OURVEND_PASSWORD", "secret")
	t.Setenv("SQL_DSN", "libsql://fleet.example.test")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "operator", cfg.Console.Username)
	require.Equal(t, "secret", cfg.Console.Password)
	require.Equal(t, "https://os.ourvend.com", cfg.Console.BaseURL)
	require.Equal(t, retry.Config{Attempts: 30, IntervalMs: 1000}, cfg.Console.Policies.Login)
	require.Equal(t, "#SiCoilId", cfg.Console.Selectors.SlotIdentity)

	require.Equal(t, 250, cfg.Sync.PacingMs)
	require.True(t, cfg.Sync.StrictAcknowledgment)
	require.Equal(t, screenshots, cfg.Sync.ScreenshotDir)
	require.Equal(t, retry.Config{Attempts: 3, IntervalMs: 3000}, cfg.Sync.Find)

	require.Equal(t, machineconfig.DatabaseConfig{
		Driver: "libsql",
		DSN:    "libsql://fleet.example.test",
	}, cfg.Database)

	require.Equal(t, "69", cfg.Catalog.CodePrefix)
	require.Equal(t, 2.0, cfg.Catalog.DefaultPrice)
	require.Equal(t, 1000, cfg.Catalog.PacingMs)
	require.Equal(t, "Commodity management", cfg.Console.Selectors.CommodityLabel)
}

func TestParseSlots(t *testing.T) {
	testCases := []struct {
		in       string
		expected []int
		err      bool
	}{
		{in: "", expected: nil},
		{in: "3", expected: []int{3}},
		{in: "3, 7,12", expected: []int{3, 7, 12}},
		{in: "3,,7,", expected: []int{3, 7}},
		{in: "3,a", err: true},
		{in: "0", err: true},
	}
	for _, test := range testCases {
		got, err := parseSlots(test.in)
		if test.err {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.expected, got, test.in)
	}
}

func TestPickMachine(t *testing.T) {
	machines := []machineconfig.MachineConfiguration{
		{MachineID: "1001", MachineName: "Office 12F"},
		{MachineID: "1002", MachineName: "Lobby"},
	}

	_, err := pickMachine(machines, "")
	require.Error(t, err)

	m, err := pickMachine(machines, "Lobby")
	require.NoError(t, err)
	require.Equal(t, "1002", m.MachineID.String())

	m, err = pickMachine(machines, "1001")
	require.NoError(t, err)
	require.Equal(t, "Office 12F", m.MachineName)

	_, err = pickMachine(machines, "Warehouse")
	require.Error(t, err)

	m, err = pickMachine(machines[:1], "")
	require.NoError(t, err)
	require.Equal(t, "Office 12F", m.MachineName)
}
