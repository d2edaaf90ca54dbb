package log

import "log/slog"

// Shared attribute keys so log records stay greppable across packages.
const (
	KeyEntryID   = "entry_id"
	KeyKind      = "kind"
	KeyMember    = "member"
	KeyAmount    = "amount"
	KeyRequestID = "request_id"
	KeyBackend   = "backend"
)

// EntryID returns the standard attribute for a ledger entry id.
func EntryID(id int64) slog.Attr {
	return slog.Int64(KeyEntryID, id)
}

// Kind returns the standard attribute for an entry kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Member returns the standard attribute for a member id.
func Member(id string) slog.Attr {
	return slog.String(KeyMember, id)
}

// Amount returns the standard attribute for a monetary amount.
func Amount(v float64) slog.Attr {
	return slog.Float64(KeyAmount, v)
}

// RequestID returns the standard attribute for an HTTP request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Backend returns the standard attribute for the storage backend name.
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}
