package db

import "embed"

// MigrationFS embeds the SQL migrations for seminars, sessions, participants, attendance, and audit logs.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
