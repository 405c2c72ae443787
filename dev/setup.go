package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "ourvend-sync/dev/env"
	"ourvend-sync/internal/machineconfig"
)

const sampleFleet = `
insert into machine (id, name, tcn_machine_group, remote_id, serial) values
    (1, 'Office 12F', 'Ourvend Yuanzhi', '2503060046', '2503060046');
insert into product (id, name) values
    (1, 'Coca Cola 330ml'),
    (2, 'Sprite 330ml'),
    (3, 'Green Tea 500ml');
insert into machine_product (machine_id, position, label, price, product_id) values
    (1, '1', 'A1', 2.5, 1),
    (1, '2', 'A2', 2.5, 2),
    (1, '3', 'A3', 3, 3),
    (1, '12', 'B6', null, null);
`

func createDb(filename, schema string) (string, bool, error) {
	path, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return "", false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return path, false, nil
	}

	fmt.Println("creating database at", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", false, err
	}
	defer db.Close()
	_, err = db.Exec(schema)
	return path, true, err
}

// CreateFleetDB creates the local database the generator reads from by
// default, optionally with one sample machine in it.
func CreateFleetDB(seed bool) error {
	path, created, err := createDb("fleet.db", machineconfig.Schema)
	if err != nil || !created || !seed {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(sampleFleet)
	return err
}

func PrintConfigLocations() {
	slog.Info("the generator reads <dev_state>/fleet.db unless ourvend.json5 or SQL_DRIVER/SQL_DSN point elsewhere, try `go run ./cmd/ourvend-sync generate 1`.")
	slog.Info("console credentials go into ourvend.local.json5 or OURVEND_USERNAME/OURVEND_PASSWORD in .env.")
}
