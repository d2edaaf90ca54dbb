package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Sync status values for the export pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

// PendingEntry is the minimal row shape the export worker needs to pick
// up entries that have not reached the spreadsheet mirror yet.
type PendingEntry struct {
	ID        int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema applies pending schema migrations on a short-lived
// connection, so the repository pool only ever sees the final schema.
func migrateSchema(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("wrap migration connection: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.EntryWriter
func (r *SQLiteRepository) Append(ctx context.Context, e core.Entry) (int64, error) {
	split, err := encodeSplit(e.Split)
	if err != nil {
		return 0, fmt.Errorf("encode split: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (kind, entry_date, amount, payer, split, note, settled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.Date.ISO(), e.Amount, string(e.Payer), split, e.Note, boolToInt(e.Settled))
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		log.EntryID(id),
		log.Kind(string(e.Kind)),
		log.Member(string(e.Payer)),
		log.Amount(e.Amount),
		"date", e.Date.ISO())

	return id, nil
}

// ListEntries implements ledger.EntryLister
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, entry_date, amount, payer, split, note, settled
		FROM entries
		ORDER BY entry_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// GetEntry retrieves a single entry by ID.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, entry_date, amount, payer, split, note, settled
		FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// DeleteEntry implements ledger.EntryDeleter
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
	}
	slog.InfoContext(ctx, "Entry deleted from SQLite", log.EntryID(id))
	return nil
}

// SetSettled implements ledger.SettledToggler
func (r *SQLiteRepository) SetSettled(ctx context.Context, id int64, settled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET settled = ? WHERE id = ?`, boolToInt(settled), id)
	if err != nil {
		return fmt.Errorf("update settled flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// GetPendingSyncEntries returns entries that still need to be exported.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM entries
		WHERE sync_status = ?
		ORDER BY id ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending entries: %w", err)
	}
	defer rows.Close()

	var pending []PendingEntry
	for rows.Next() {
		var p PendingEntry
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced marks an entry as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE entries SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as synced", log.EntryID(id))
	return nil
}

// MarkSyncError marks an entry as having failed export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE entries SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", log.EntryID(id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e       core.Entry
		kind    string
		date    string
		payer   string
		split   string
		settled int
	)
	if err := row.Scan(&e.ID, &kind, &date, &e.Amount, &payer, &split, &e.Note, &settled); err != nil {
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Kind = core.EntryKind(kind)
	e.Payer = core.MemberID(payer)
	e.Settled = settled != 0

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Date = d

	e.Split, err = decodeSplit(split)
	if err != nil {
		return core.Entry{}, fmt.Errorf("decode stored split: %w", err)
	}
	return e, nil
}

func encodeSplit(s core.SplitRatio) (string, error) {
	raw := make(map[string]float64, len(s))
	for id, share := range s {
		raw[string(id)] = share
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSplit(s string) (core.SplitRatio, error) {
	raw := make(map[string]float64)
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	split := make(core.SplitRatio, len(raw))
	for id, share := range raw {
		split[core.MemberID(id)] = share
	}
	return split, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
