// Package migrations embeds the aggregation service's SQL migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
