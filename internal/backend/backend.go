// Package backend selects and wires the entry store the application
// runs against.
package backend

import (
	"conti/internal/ledger"
)

// Type names a supported storage backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the backend type is one we can open.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Types returns every backend type Open accepts.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// Result is an opened backend: the store, the optional export
// publisher, and the cleanup to run on shutdown. Publisher is nil when
// the backend has no durable pending-sync state to export from.
type Result struct {
	Store     ledger.Store
	Publisher ledger.Publisher
	Cleanup   CleanupFunc
}

// Close runs the cleanup if one is set.
func (r *Result) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
