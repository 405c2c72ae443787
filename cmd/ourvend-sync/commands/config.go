package commands

import (
	"errors"
	"log/slog"
	"os"

	devenv "ourvend-sync/dev/env"
	"ourvend-sync/internal/catalog"
	"ourvend-sync/internal/machineconfig"
	"ourvend-sync/internal/report"
	"ourvend-sync/internal/slotsync"
	"ourvend-sync/lib/browser"
	"ourvend-sync/lib/configutil"
	"ourvend-sync/lib/scrapers/ourvend"
)

type Config struct {
	Console  ourvend.Options              `json:"console"`
	Browser  browser.Config               `json:"browser"`
	Sync     slotsync.Options             `json:"sync"`
	Catalog  catalog.Options              `json:"catalog"`
	Database machineconfig.DatabaseConfig `json:"database"`
	Email    report.SmtpConfig            `json:"email"`
	// Preflight fetches the login page over plain http before a sync
	// starts the browser.
	Preflight bool `json:"preflight"`
	// Timezone is the IANA zone report timestamps are written in, empty
	// means local time.
	Timezone string `json:"timezone"`
	// RequestDumps receives full request dumps of the preflight check
	// when --verbose is set.
	RequestDumps string `json:"request_dumps"`
}

func defaultConfig() Config {
	sync := slotsync.DefaultOptions()
	sync.ScreenshotDir = "<dev_state>/screenshots"
	return Config{
		Console:      ourvend.DefaultOptions(),
		Sync:         sync,
		Catalog:      catalog.DefaultOptions(),
		Database:     machineconfig.DatabaseConfig{Driver: "sqlite", DSN: "<dev_state>/fleet.db"},
		RequestDumps: "<dev_state>/resty/preflight",
	}
}

// loadConfig reads the config file if there is one, fills what it leaves
// out with defaults and takes credentials missing from it from the
// environment (or a .env file).
func loadConfig(path string) (Config, error) {
	err := configutil.LoadEnv()
	if err != nil {
		return Config{}, err
	}

	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
	} else if err != nil {
		return Config{}, err
	}

	configutil.EnvDefault(&cfg.Console.Username, "OURVEND_USERNAME")
	configutil.EnvDefault(&cfg.Console.Password, "OURVEND_PASSWORD")
	configutil.EnvDefault(&cfg.Database.Driver, "SQL_DRIVER")
	configutil.EnvDefault(&cfg.Database.DSN, "SQL_DSN")
	configutil.EnvDefault(&cfg.Email.Password, "SMTP_PASSWORD")

	err = configutil.FillDefaults(&cfg, defaultConfig())
	if err != nil {
		return Config{}, err
	}

	cfg.Sync.ScreenshotDir, err = devenv.ResolvePath(cfg.Sync.ScreenshotDir)
	if err != nil {
		return Config{}, err
	}
	cfg.Catalog.ImageDir, err = devenv.ResolvePath(cfg.Catalog.ImageDir)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
