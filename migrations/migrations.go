// Package migrations — SQL-миграции goose, вшитые в бинарь.
package migrations

import "embed"

// FS — файлы миграций (*.sql).
//
//go:embed *.sql
var FS embed.FS
