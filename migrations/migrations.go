// Package migrations embeds the PostgreSQL schema migrations in
// golang-migrate's NNNNNN_name.{up,down}.sql layout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
