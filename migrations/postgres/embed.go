// Package postgres embeds the SQL migration files for the service schema.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
