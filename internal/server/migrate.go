package server

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/mohammad-safakhou/researcher/config"
)

// Migrate applies database migrations from the given directory.
// dir example: file://migrations
func Migrate(dir string, pg config.PostgresConfig, direction string, steps int) error {
	if dir == "" {
		dir = "file://migrations"
	}
	if !pg.Enabled() {
		return fmt.Errorf("postgres is not configured")
	}

	m, err := migrate.New(dir, pg.MigrateURL())
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
