package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sqlite (asset index + metrics journal).
type DB struct {
	*sql.DB
}

// Open opens db at path, runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS assets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			etag TEXT NOT NULL,
			modified_at TEXT NOT NULL,
			indexed_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transfers INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_assets_path ON assets(path);
	`)
	return err
}

// Asset: one indexed static file.
type Asset struct {
	ID          int64
	Path        string
	ContentType string
	Size        int64
	ETag        string
	ModifiedAt  time.Time
}

// UpsertAsset inserts or refreshes the index row for a.Path.
func (db *DB) UpsertAsset(a *Asset) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`
		INSERT INTO assets (path, content_type, size, etag, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_type = excluded.content_type,
			size = excluded.size,
			etag = excluded.etag,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at`,
		a.Path, a.ContentType, a.Size, a.ETag, a.ModifiedAt.UTC().Format(time.RFC3339Nano), now)
	return err
}

// AssetByPath returns the indexed asset or nil.
func (db *DB) AssetByPath(path string) (*Asset, error) {
	var a Asset
	var mod string
	err := db.QueryRow(
		"SELECT id, path, content_type, size, etag, modified_at FROM assets WHERE path = ?",
		path).Scan(&a.ID, &a.Path, &a.ContentType, &a.Size, &a.ETag, &mod)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.ModifiedAt, _ = time.Parse(time.RFC3339Nano, mod)
	return &a, nil
}

// RecordMetrics appends one counter snapshot to the journal.
func (db *DB) RecordMetrics(transfers, bytes, errors int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		"INSERT INTO metrics (transfers, bytes, errors, recorded_at) VALUES (?, ?, ?, ?)",
		transfers, bytes, errors, now)
	return err
}

// MetricsRow: one journaled snapshot.
type MetricsRow struct {
	Transfers  int64
	Bytes      int64
	Errors     int64
	RecordedAt time.Time
}

// LatestMetrics returns the most recent snapshot or nil.
func (db *DB) LatestMetrics() (*MetricsRow, error) {
	var m MetricsRow
	var at string
	err := db.QueryRow(
		"SELECT transfers, bytes, errors, recorded_at FROM metrics ORDER BY id DESC LIMIT 1").
		Scan(&m.Transfers, &m.Bytes, &m.Errors, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.RecordedAt, _ = time.Parse(time.RFC3339, at)
	return &m, nil
}
