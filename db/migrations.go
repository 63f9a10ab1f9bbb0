// Package db хранит SQL-миграции схемы, встроенные в бинарник.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
