// Package migrations содержит SQL миграции схемы, встроенные в бинарники,
// чтобы api и session-worker могли применять их без внешних файлов.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
