package worker

import (
	"context"
	"errors"
	"testing"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/storage"
)

type fakeSource struct {
	entries map[int64]core.Entry
	pending []storage.PendingEntry
	synced  []int64
	errored []int64
}

func (f *fakeSource) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return core.Entry{}, errors.New("not found")
	}
	return e, nil
}

func (f *fakeSource) GetPendingSyncEntries(_ context.Context, limit int) ([]storage.PendingEntry, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeSource) MarkSynced(_ context.Context, id int64) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSource) MarkSyncError(_ context.Context, id int64) error {
	f.errored = append(f.errored, id)
	return nil
}

type fakeExporter struct {
	appended []int64
	removed  []int64
	failOn   int64
}

func (f *fakeExporter) AppendEntry(_ context.Context, id int64, _ core.Entry) error {
	if id == f.failOn {
		return errors.New("sheet unavailable")
	}
	f.appended = append(f.appended, id)
	return nil
}

func (f *fakeExporter) RemoveEntry(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func testEntry() core.Entry {
	g := core.DefaultGroup()
	return core.Entry{
		Kind: core.OtherExpense, Date: core.NewDate(2025, 3, 1),
		Amount: 120, Payer: "b1", Split: core.EqualSplit(g),
	}
}

func TestHandleSyncMessage(t *testing.T) {
	source := &fakeSource{entries: map[int64]core.Entry{7: testEntry()}}
	exporter := &fakeExporter{}
	w := NewSyncWorker(source, exporter, 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewEntrySyncMessage(7)); err != nil {
		t.Fatalf("handle sync: %v", err)
	}
	if len(exporter.appended) != 1 || exporter.appended[0] != 7 {
		t.Fatalf("entry not exported: %v", exporter.appended)
	}
	if len(source.synced) != 1 || source.synced[0] != 7 {
		t.Fatalf("entry not marked synced: %v", source.synced)
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	source := &fakeSource{entries: map[int64]core.Entry{7: testEntry()}}
	exporter := &fakeExporter{failOn: 7}
	w := NewSyncWorker(source, exporter, 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewEntrySyncMessage(7)); err == nil {
		t.Fatalf("expected error when export fails")
	}
	if len(source.errored) != 1 || source.errored[0] != 7 {
		t.Fatalf("entry not marked errored: %v", source.errored)
	}
	if len(source.synced) != 0 {
		t.Fatalf("failed entry must not be marked synced")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	source := &fakeSource{}
	exporter := &fakeExporter{}
	w := NewSyncWorker(source, exporter, 10)

	if err := w.HandleDeleteMessage(context.Background(), amqp.NewEntryDeleteMessage(3)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if len(exporter.removed) != 1 || exporter.removed[0] != 3 {
		t.Fatalf("entry not removed: %v", exporter.removed)
	}
}

func TestProcessPendingEntries(t *testing.T) {
	source := &fakeSource{
		entries: map[int64]core.Entry{1: testEntry(), 2: testEntry(), 3: testEntry()},
		pending: []storage.PendingEntry{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	exporter := &fakeExporter{failOn: 2}
	w := NewSyncWorker(source, exporter, 10)

	if err := w.ProcessPendingEntries(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	// One bad row does not block the batch.
	if len(exporter.appended) != 2 {
		t.Fatalf("expected 2 exported, got %v", exporter.appended)
	}
	if len(source.errored) != 1 || source.errored[0] != 2 {
		t.Fatalf("expected entry 2 errored, got %v", source.errored)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	source := &fakeSource{
		entries: map[int64]core.Entry{1: testEntry(), 2: testEntry()},
		pending: []storage.PendingEntry{{ID: 1}, {ID: 2}},
	}
	exporter := &fakeExporter{}
	w := NewSyncWorker(source, exporter, 1)

	if err := w.ProcessPendingEntries(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(exporter.appended) != 1 {
		t.Fatalf("batch size ignored: %v", exporter.appended)
	}
}
