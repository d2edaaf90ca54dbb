package log

import (
	"log/slog"
	"testing"
)

func TestFieldKeys(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want slog.Value
	}{
		{"entry id", EntryID(42), KeyEntryID, slog.Int64Value(42)},
		{"kind", Kind("expense_other"), KeyKind, slog.StringValue("expense_other")},
		{"member", Member("b1"), KeyMember, slog.StringValue("b1")},
		{"amount", Amount(123.45), KeyAmount, slog.Float64Value(123.45)},
		{"request id", RequestID("req-1"), KeyRequestID, slog.StringValue("req-1")},
		{"backend", Backend("sqlite"), KeyBackend, slog.StringValue("sqlite")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
			}
			if !tt.attr.Value.Equal(tt.want) {
				t.Errorf("value = %v, want %v", tt.attr.Value, tt.want)
			}
		})
	}
}

func TestFieldKeysAreDistinct(t *testing.T) {
	keys := []string{KeyEntryID, KeyKind, KeyMember, KeyAmount, KeyRequestID, KeyBackend}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate attribute key %q", k)
		}
		seen[k] = true
	}
}
