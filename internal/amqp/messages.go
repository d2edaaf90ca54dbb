package amqp

import (
	"encoding/json"
	"time"
)

const (
	TypeEntrySync   = "entry_sync"
	TypeEntryDelete = "entry_delete"
)

// EntryMessage is the lightweight change notification published on every
// entry mutation. It carries only the id and change type; the worker
// fetches the full entry from storage when it needs one.
type EntryMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntrySyncMessage creates a message announcing a new or updated entry.
func NewEntrySyncMessage(id int64) *EntryMessage {
	return &EntryMessage{Type: TypeEntrySync, ID: id, Timestamp: time.Now()}
}

// NewEntryDeleteMessage creates a message announcing a removed entry.
func NewEntryDeleteMessage(id int64) *EntryMessage {
	return &EntryMessage{Type: TypeEntryDelete, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes.
func (m *EntryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryMessageFromJSON creates a message from JSON bytes.
func EntryMessageFromJSON(data []byte) (*EntryMessage, error) {
	var msg EntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
