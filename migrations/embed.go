// Package migrations embeds the Postgres schema for the lead and rate-limit
// tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
