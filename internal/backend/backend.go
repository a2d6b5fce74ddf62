// Package backend selects and opens the persistence layer from
// configuration.
package backend

import (
	"paga/internal/storage"
)

// Type identifies a persistence backend.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// Types returns every valid backend type.
func Types() []Type {
	return []Type{Memory, SQLite}
}

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// Result holds an opened repository and its cleanup function.
type Result struct {
	Repo    storage.Repository
	Cleanup CleanupFunc
}
