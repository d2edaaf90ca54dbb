package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"conti/internal/core"
	"conti/internal/ledger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres backend, for deployments where the ledger
// is shared between hosts and SQLite's single-file model is not enough.
type Repository struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Repository)(nil)

func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &Repository{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			entry_date DATE NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			payer TEXT NOT NULL,
			split JSONB NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);
	`)
	return err
}

// Append implements ledger.EntryWriter
func (r *Repository) Append(ctx context.Context, e core.Entry) (int64, error) {
	split, err := json.Marshal(splitToRaw(e.Split))
	if err != nil {
		return 0, fmt.Errorf("encode split: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO entries (kind, entry_date, amount, payer, split, note, settled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(e.Kind), e.Date.ISO(), e.Amount, string(e.Payer), split, e.Note, e.Settled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to Postgres", "id", id, "kind", e.Kind, "payer", e.Payer, "amount", e.Amount)
	return id, nil
}

// ListEntries implements ledger.EntryLister
func (r *Repository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, to_char(entry_date, 'YYYY-MM-DD'), amount, payer, split, note, settled
		FROM entries
		ORDER BY entry_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var (
			e     core.Entry
			kind  string
			date  string
			payer string
			split []byte
		)
		if err := rows.Scan(&e.ID, &kind, &date, &e.Amount, &payer, &split, &e.Note, &e.Settled); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = core.EntryKind(kind)
		e.Payer = core.MemberID(payer)
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		raw := make(map[string]float64)
		if err := json.Unmarshal(split, &raw); err != nil {
			return nil, fmt.Errorf("decode stored split: %w", err)
		}
		e.Split = rawToSplit(raw)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry implements ledger.EntryDeleter
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry deleted from Postgres", "id", id)
	return nil
}

// SetSettled implements ledger.SettledToggler
func (r *Repository) SetSettled(ctx context.Context, id int64, settled bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE entries SET settled = $1 WHERE id = $2`, settled, id)
	if err != nil {
		return fmt.Errorf("update settled flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

func splitToRaw(s core.SplitRatio) map[string]float64 {
	raw := make(map[string]float64, len(s))
	for id, share := range s {
		raw[string(id)] = share
	}
	return raw
}

func rawToSplit(raw map[string]float64) core.SplitRatio {
	split := make(core.SplitRatio, len(raw))
	for id, share := range raw {
		split[core.MemberID(id)] = share
	}
	return split
}
