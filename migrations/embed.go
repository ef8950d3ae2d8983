// Package migrations embeds the SQL migration files so they can be applied
// by the goose provider at startup, from the CLI, and in tests.
package migrations

import "embed"

// FS holds the per-dialect migration directories.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
