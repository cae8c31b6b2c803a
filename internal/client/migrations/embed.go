// Package migrations embeds the goose SQL migrations of the local store.
//
// Migrations are additive only: a new version may add tables or nullable
// columns but never drops or rewrites existing data.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
