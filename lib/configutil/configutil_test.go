package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Headless bool   `json:"headless"`
	Retry    struct {
		Attempts int `json:"attempts"`
	} `json:"retry"`
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "ourvend.json5"), `{
		// comments are allowed
		base_url: "https://os.ourvend.com",
		retry: { attempts: 3 },
	}`)
	write(t, filepath.Join(dir, "ourvend.local.json5"), `{ headless: true, retry: { attempts: 5 } }`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "ourvend.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://os.ourvend.com", config.BaseUrl)
	require.True(t, config.Headless)
	require.Equal(t, 5, config.Retry.Attempts)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envfile := filepath.Join(dir, ".env")
	write(t, envfile, "OURVEND_TEST_USERNAME=operator\nOURVEND_TEST_PASSWORD=hunter2\n")
	t.Setenv("OURVEND_TEST_PASSWORD", "from-shell")

	err := LoadEnv(envfile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("OURVEND_TEST_USERNAME") })

	var username, password, preset string
	preset = "kept"
	EnvDefault(&username, "OURVEND_TEST_USERNAME")
	EnvDefault(&password, "OURVEND_TEST_PASSWORD")
	EnvDefault(&preset, "OURVEND_TEST_USERNAME")

	require.Equal(t, "operator", username)
	require.Equal(t, "from-shell", password)
	require.Equal(t, "kept", preset)
}

func TestLayers(t *testing.T) {
	require.Equal(t,
		[]string{"conf/ourvend.json5", "conf/ourvend.local.json5"},
		Layers("conf/ourvend.json5"),
	)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "ourvend.local.json5"), `{ headless: true }`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "ourvend.json5"))
	require.NoError(t, err)
	require.True(t, config.Headless)
	require.Empty(t, config.BaseUrl)
}

func TestReadConfigParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ourvend.json5")
	write(t, path, `{ base_url: `)

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}

func TestFillDefaults(t *testing.T) {
	config := testConfig{BaseUrl: "https://staging.ourvend.test"}
	defaults := testConfig{BaseUrl: "https://os.ourvend.com"}
	defaults.Retry.Attempts = 3

	require.NoError(t, FillDefaults(&config, defaults))
	require.Equal(t, "https://staging.ourvend.test", config.BaseUrl)
	require.Equal(t, 3, config.Retry.Attempts)
}

func TestReadRecursively(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "telemetry.json5"), `{ base_url: "http://collector" }`)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, "http://collector", config.BaseUrl)
}
