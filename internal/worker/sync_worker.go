package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/sheets"
	"conti/internal/storage"
)

// EntrySource is the slice of the storage layer the export worker needs.
type EntrySource interface {
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	GetPendingSyncEntries(ctx context.Context, limit int) ([]storage.PendingEntry, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Consumer delivers entry change messages until the context ends.
type Consumer interface {
	ConsumeMessages(ctx context.Context, onSync, onDelete func(context.Context, *amqp.EntryMessage) error) error
}

// SyncWorker mirrors ledger entries from local storage to the
// spreadsheet export. It is driven by AMQP change messages, with a
// periodic pending-scan as the catch-up path for anything missed.
type SyncWorker struct {
	source    EntrySource
	exporter  sheets.Exporter
	batchSize int
}

func NewSyncWorker(source EntrySource, exporter sheets.Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		source:    source,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntryMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)
	return w.exportEntry(ctx, msg.ID)
}

// HandleDeleteMessage processes a single entry delete message.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.EntryMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)
	if err := w.exporter.RemoveEntry(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove entry from sheet: %w", err)
	}
	return nil
}

// ProcessPendingEntries exports a batch of entries that never made it
// to the sheet, marking each synced or errored.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.source.GetPendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))
	for _, p := range pending {
		if err := w.exportEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending entry", "id", p.ID, "error", err)
			// Keep going: one bad row must not block the batch.
		}
	}
	return nil
}

func (w *SyncWorker) exportEntry(ctx context.Context, id int64) error {
	entry, err := w.source.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if err := w.exporter.AppendEntry(ctx, id, entry); err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append entry to sheet: %w", err)
	}

	if err := w.source.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	return nil
}

// Run drives the worker: the AMQP consumer and the periodic pending
// scan run side by side until the context is cancelled or one of them
// fails.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeMessages(ctx, w.HandleSyncMessage, w.HandleDeleteMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPendingEntries(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
