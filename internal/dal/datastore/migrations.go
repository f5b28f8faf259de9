// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package datastore

import (
	"database/sql"
	"embed"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_sqlite/*.sql
var embedMigrationsSQLite embed.FS

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrationsSQLite)
	goose.SetTableName("db_version")
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		slog.Error("Failed to set goose dialect", "error", err)
		return err
	}

	if err := goose.Up(db, "migrations_sqlite"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}
	return nil
}
