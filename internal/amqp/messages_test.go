package amqp

import "testing"

func TestEntryMessageRoundTrip(t *testing.T) {
	msg := NewEntrySyncMessage(42)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := EntryMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Type != TypeEntrySync || decoded.ID != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestEntryMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := EntryMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDeleteMessageType(t *testing.T) {
	if msg := NewEntryDeleteMessage(7); msg.Type != TypeEntryDelete {
		t.Errorf("type = %q", msg.Type)
	}
}
