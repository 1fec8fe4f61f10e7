package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The ledger schema ships inside the binary:
//
//	0001  transactions, user_settings (per-user currency)
//	0002  subscriptions, quick_buttons
//
//go:embed migrations/*.sql
var ledgerSchema embed.FS

// RunMigrations brings the ledger database at dbPath up to the newest
// embedded schema version. An already current database is not an error.
func RunMigrations(dbPath string) error {
	// golang-migrate closes the handle it is given, so it gets its own.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	defer conn.Close()

	m, err := ledgerMigrator(conn)
	if err != nil {
		return err
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
}

func ledgerMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("ledger migration target: %w", err)
	}
	source, err := iofs.New(ledgerSchema, "migrations")
	if err != nil {
		return nil, fmt.Errorf("ledger migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return nil, fmt.Errorf("ledger migrator: %w", err)
	}
	return m, nil
}
