package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_items (
	item_id      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	processed_at DATETIME NOT NULL,
	filename     TEXT NOT NULL,
	url          TEXT,
	keywords     TEXT NOT NULL,
	author       TEXT,
	excerpt      TEXT
);

CREATE INDEX IF NOT EXISTS idx_processed_item_id ON processed_items(item_id);
CREATE INDEX IF NOT EXISTS idx_processed_hash ON processed_items(content_hash);
CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_items(processed_at);

CREATE TABLE IF NOT EXISTS ledger_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore is the embedded-database ledger adapter, interchangeable with
// FileStore behind ports.LedgerStore. Single statements are implicitly
// atomic; appends run in a transaction together with the lastUpdated bump.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.LedgerStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens or creates the database and applies the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("open "+path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, storageErr("enable WAL", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("init schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load materializes the full ledger in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) (domain.Ledger, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return domain.Ledger{}, err
	}

	ledger := domain.NewLedger()
	ledger.Entries = entries

	if updated, ok, err := s.meta(ctx, "last_updated"); err != nil {
		return domain.Ledger{}, err
	} else if ok {
		if ts, parseErr := time.Parse(time.RFC3339, updated); parseErr == nil {
			ledger.LastUpdated = ts
		}
	}
	if version, ok, err := s.meta(ctx, "version"); err != nil {
		return domain.Ledger{}, err
	} else if ok {
		ledger.Version = version
	}

	return ledger, nil
}

// FindByItemID returns the oldest entry with a matching external ID.
func (s *SQLiteStore) FindByItemID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return s.findWhere(ctx, sq.Eq{"item_id": id})
}

// FindByHash returns the oldest entry with a matching content hash.
func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (*domain.LedgerEntry, error) {
	return s.findWhere(ctx, sq.Eq{"content_hash": hash})
}

// FindByURL matches only non-empty stored URLs.
func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (*domain.LedgerEntry, error) {
	if url == "" {
		return nil, nil
	}
	return s.findWhere(ctx, sq.And{sq.Eq{"url": url}, sq.NotEq{"url": ""}})
}

// All returns retained entries in insertion order.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.LedgerEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From("processed_items").
		OrderBy("rowid ASC").
		ToSql()
	if err != nil {
		return nil, storageErr("build select", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query entries", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate entries", err)
	}
	return entries, nil
}

// Append inserts the entry and bumps lastUpdated inside one transaction.
func (s *SQLiteStore) Append(ctx context.Context, entry domain.LedgerEntry) error {
	keywords, err := json.Marshal(entry.Keywords)
	if err != nil {
		return storageErr("encode keywords", err)
	}

	query, args, err := sq.Insert("processed_items").
		Columns(entryColumns...).
		Values(
			entry.ItemID,
			entry.ContentHash,
			entry.ProcessedAt.UTC(),
			entry.Filename,
			entry.URL,
			string(keywords),
			entry.Author,
			entry.Excerpt,
		).
		ToSql()
	if err != nil {
		return storageErr("build insert", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin append", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return storageErr("insert entry", err)
	}
	if err := s.touch(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit append", err)
	}
	return nil
}

// PruneOlderThan deletes entries past the retention window and reports the
// number removed.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	query, args, err := sq.Delete("processed_items").
		Where(sq.Lt{"processed_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, storageErr("build delete", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin prune", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return 0, storageErr("delete entries", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return 0, storageErr("count pruned", err)
	}
	if pruned > 0 {
		if err := s.touch(ctx, tx); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit prune", err)
	}
	return int(pruned), nil
}

var entryColumns = []string{
	"item_id", "content_hash", "processed_at", "filename", "url", "keywords", "author", "excerpt",
}

func (s *SQLiteStore) findWhere(ctx context.Context, pred any) (*domain.LedgerEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From("processed_items").
		Where(pred).
		OrderBy("rowid ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, storageErr("build select", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.LedgerEntry, error) {
	var (
		entry    domain.LedgerEntry
		keywords string
		url      sql.NullString
		author   sql.NullString
		excerpt  sql.NullString
	)
	err := row.Scan(
		&entry.ItemID,
		&entry.ContentHash,
		&entry.ProcessedAt,
		&entry.Filename,
		&url,
		&keywords,
		&author,
		&excerpt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LedgerEntry{}, err
	}
	if err != nil {
		return domain.LedgerEntry{}, storageErr("scan entry", err)
	}

	entry.URL = url.String
	entry.Author = author.String
	entry.Excerpt = excerpt.String
	if err := json.Unmarshal([]byte(keywords), &entry.Keywords); err != nil {
		return domain.LedgerEntry{}, storageErr("decode keywords", err)
	}
	return entry, nil
}

func (s *SQLiteStore) touch(ctx context.Context, tx *sql.Tx) error {
	now := time.Now().UTC().Format(time.RFC3339)
	upsert := `INSERT INTO ledger_meta (key, value) VALUES (?, ?)
	           ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, "last_updated", now); err != nil {
		return storageErr("update last_updated", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, "version", domain.LedgerVersion); err != nil {
		return storageErr("update version", err)
	}
	return nil
}

func (s *SQLiteStore) meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM ledger_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr(fmt.Sprintf("read meta %s", key), err)
	}
	return value, true, nil
}
