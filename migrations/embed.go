// Package migrations embeds the goose schema for every supported store
package migrations

import "embed"

// FS holds clickhouse/*.sql and mysql/*.sql
//
//go:embed clickhouse/*.sql mysql/*.sql
var FS embed.FS
