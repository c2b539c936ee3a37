// Package migrations embeds the goose SQL migrations for the default
// schema. Installs with custom field bindings manage their own schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
