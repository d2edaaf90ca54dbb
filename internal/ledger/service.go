package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"conti/internal/core"
)

// Service orchestrates entry admission, storage and export notification,
// and produces the consistent snapshots the presentation layer renders.
type Service struct {
	group     core.Group
	store     Store
	publisher Publisher
}

// Snapshot is one momentarily-consistent view of the ledger: the entry
// list (possibly narrowed by kind for display), the balances computed
// from the full list, and the settlement plan derived from them.
type Snapshot struct {
	Entries      []core.Entry
	Balances     core.Balances
	Instructions []core.Instruction
}

func NewService(group core.Group, store Store, publisher Publisher) *Service {
	return &Service{
		group:     group,
		store:     store,
		publisher: publisher,
	}
}

// Group returns the configured member set.
func (s *Service) Group() core.Group { return s.group }

// Create validates and stores an entry, then notifies the export
// pipeline. Publication failures are logged but never fail the request;
// the entry is already durable locally.
func (s *Service) Create(ctx context.Context, e core.Entry) (int64, error) {
	if err := e.Validate(s.group); err != nil {
		return 0, fmt.Errorf("validate entry: %w", err)
	}

	id, err := s.store.Append(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEntrySync(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish entry sync message", "id", id, "error", err)
		}
	}
	return id, nil
}

// Delete removes an entry and notifies the export pipeline.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishEntryDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish entry delete message", "id", id, "error", err)
		}
	}
	return nil
}

// SetSettled flips the informational settled flag on an entry.
func (s *Service) SetSettled(ctx context.Context, id int64, settled bool) error {
	if err := s.store.SetSettled(ctx, id, settled); err != nil {
		return fmt.Errorf("set settled: %w", err)
	}
	return nil
}

// Snapshot reads the full entry list once and recomputes balances and
// the settlement plan from scratch. kind narrows the returned entry
// list for display only; balances always use the unfiltered list.
func (s *Service) Snapshot(ctx context.Context, kind core.EntryKind) (Snapshot, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list entries: %w", err)
	}

	balances := core.Aggregate(s.group, entries)
	instructions := core.Plan(s.group, balances)

	visible := entries
	if kind != "" {
		visible = make([]core.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Kind == kind {
				visible = append(visible, e)
			}
		}
	}

	// Newest first for display; date order never affects the balances.
	sorted := make([]core.Entry, len(visible))
	copy(sorted, visible)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.After(sorted[j].Date.Time)
		}
		return sorted[i].ID > sorted[j].ID
	})

	return Snapshot{
		Entries:      sorted,
		Balances:     balances,
		Instructions: instructions,
	}, nil
}
