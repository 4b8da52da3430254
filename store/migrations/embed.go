// Package migrations 內嵌對局日誌的 SQLite 結構。
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
