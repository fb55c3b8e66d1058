// Package database provides SQLite persistence for the backup transfer queues,
// attachment metadata and engine settings
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"backup-media-sync/pkg/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	connString := dbPath
	if dbPath != ":memory:" {
		connString = dbPath + "?_busy_timeout=30000&_journal_mode=WAL&_synchronous=NORMAL"
	}

	conn, err := sql.Open("sqlite", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't handle concurrent writes well; this also keeps ":memory:" on one connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		media_name TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		can_be_thumbnailed BOOLEAN NOT NULL DEFAULT FALSE,
		unencrypted_byte_count INTEGER NOT NULL DEFAULT 0,
		local_fullsize TEXT,
		local_thumbnail TEXT,
		transit_tier TEXT,
		media_tier TEXT,
		thumbnail_media_tier TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attachments_media_name ON attachments(media_name);

	CREATE TABLE IF NOT EXISTS attachment_references (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attachment_id INTEGER NOT NULL,
		owner_type TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		owner_timestamp INTEGER,
		UNIQUE(attachment_id, owner_type, owner_id),
		FOREIGN KEY (attachment_id) REFERENCES attachments(id)
	);

	CREATE TABLE IF NOT EXISTS backup_download_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attachment_id INTEGER NOT NULL,
		is_thumbnail BOOLEAN NOT NULL,
		can_download_from_media_tier BOOLEAN NOT NULL DEFAULT FALSE,
		max_owner_timestamp INTEGER,
		min_retry_timestamp INTEGER NOT NULL DEFAULT 0,
		num_retries INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		estimated_byte_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(attachment_id, is_thumbnail)
	);

	CREATE INDEX IF NOT EXISTS idx_download_queue_state ON backup_download_queue(state, is_thumbnail, min_retry_timestamp);

	CREATE TABLE IF NOT EXISTS backup_upload_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attachment_id INTEGER NOT NULL,
		is_fullsize BOOLEAN NOT NULL,
		owner_type TEXT NOT NULL,
		max_owner_timestamp INTEGER,
		min_retry_timestamp INTEGER NOT NULL DEFAULT 0,
		num_retries INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		estimated_byte_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(attachment_id, is_fullsize)
	);

	CREATE INDEX IF NOT EXISTS idx_upload_queue_state ON backup_upload_queue(state, min_retry_timestamp);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// withTx runs fn inside a write transaction, rolling back on error
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const (
	keyBackupPlan            = "backup_plan"
	keyUploadEra             = "upload_era"
	keyNeedsListMedia        = "needs_list_media"
	keyDownloadProgressTotal = "download_progress_total"
	keyQueueSuspendedPrefix  = "queue_suspended."
)

func (db *DB) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (db *DB) setSetting(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (db *DB) getBool(ctx context.Context, key string) (bool, error) {
	value, ok, err := db.getSetting(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return strconv.ParseBool(value)
}

// BackupPlan returns the stored backup plan, defaulting to disabled
func (db *DB) BackupPlan(ctx context.Context) (models.BackupPlan, error) {
	value, ok, err := db.getSetting(ctx, keyBackupPlan)
	if err != nil {
		return models.BackupPlan{}, err
	}
	if !ok {
		return models.BackupPlan{Kind: models.PlanDisabled}, nil
	}

	var plan models.BackupPlan
	if err := json.Unmarshal([]byte(value), &plan); err != nil {
		return models.BackupPlan{}, fmt.Errorf("failed to decode backup plan: %w", err)
	}
	return plan, nil
}

// SetBackupPlan persists the backup plan
func (db *DB) SetBackupPlan(ctx context.Context, plan models.BackupPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode backup plan: %w", err)
	}
	return db.setSetting(ctx, keyBackupPlan, string(data))
}

// UploadEra returns the current upload era, or an empty string when none is known
func (db *DB) UploadEra(ctx context.Context) (string, error) {
	value, _, err := db.getSetting(ctx, keyUploadEra)
	return value, err
}

// SetUploadEra stores the current upload era
func (db *DB) SetUploadEra(ctx context.Context, era string) error {
	return db.setSetting(ctx, keyUploadEra, era)
}

// IsQueueSuspended reports whether the user suspended the given queue
func (db *DB) IsQueueSuspended(ctx context.Context, kind models.QueueKind) (bool, error) {
	return db.getBool(ctx, keyQueueSuspendedPrefix+string(kind))
}

// SetQueueSuspended stores the suspension flag for the given queue
func (db *DB) SetQueueSuspended(ctx context.Context, kind models.QueueKind, suspended bool) error {
	return db.setSetting(ctx, keyQueueSuspendedPrefix+string(kind), strconv.FormatBool(suspended))
}

// NeedsListMedia reports whether remote media must be listed before transfers continue
func (db *DB) NeedsListMedia(ctx context.Context) (bool, error) {
	return db.getBool(ctx, keyNeedsListMedia)
}

// SetNeedsListMedia sets the list-media flag
func (db *DB) SetNeedsListMedia(ctx context.Context, needs bool) error {
	return db.setSetting(ctx, keyNeedsListMedia, strconv.FormatBool(needs))
}

// DownloadProgressTotal returns the remembered cumulative download byte total
func (db *DB) DownloadProgressTotal(ctx context.Context) (int64, error) {
	value, ok, err := db.getSetting(ctx, keyDownloadProgressTotal)
	if err != nil || !ok {
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

// SetDownloadProgressTotal stores the cumulative download byte total
func (db *DB) SetDownloadProgressTotal(ctx context.Context, total int64) error {
	return db.setSetting(ctx, keyDownloadProgressTotal, strconv.FormatInt(total, 10))
}

// QueueStats returns record counts by state for the given queue
func (db *DB) QueueStats(ctx context.Context, kind models.QueueKind) (map[models.QueueRecordState]int, error) {
	table := "backup_download_queue"
	if kind == models.QueueUpload {
		table = "backup_upload_queue"
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT state, COUNT(*) FROM "+table+" GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[models.QueueRecordState]int)
	for rows.Next() {
		var state models.QueueRecordState
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan queue stats: %w", err)
		}
		stats[state] = count
	}

	return stats, rows.Err()
}
