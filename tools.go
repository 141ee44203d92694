//go:build tools
// +build tools

// Package campuswire pins Go-based tools invoked via `go generate` (mockgen) as
// module dependencies.
package campuswire

import (
	_ "go.uber.org/mock/mockgen"
)
