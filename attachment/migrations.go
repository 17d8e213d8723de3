package attachment

import "embed"

// Migrations holds the versioned SQLite schema for the attachment tables,
// in golang-migrate file naming, under MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"
