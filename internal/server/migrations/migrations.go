// Package migrations embeds the goose SQL migrations for each SQL backend.
package migrations

import "embed"

// Migrations holds postgres/*.sql and sqlite/*.sql.
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Directories inside Migrations, one per dialect.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
