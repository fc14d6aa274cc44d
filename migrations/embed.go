// Package migrations carries the versioned SQL files applied at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
