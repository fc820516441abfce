// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the ordered schema migrations. Integration tests and deploy
// tooling read them from here so the binary carries its own schema.
//
//go:embed *.sql
var FS embed.FS
