package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backup-media-sync/pkg/models"
)

const downloadColumns = `id, attachment_id, is_thumbnail, can_download_from_media_tier,
	max_owner_timestamp, min_retry_timestamp, num_retries, state, estimated_byte_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDownloadRecord(row rowScanner) (*models.DownloadRecord, error) {
	var record models.DownloadRecord
	err := row.Scan(
		&record.ID, &record.AttachmentID, &record.IsThumbnail, &record.CanDownloadFromMediaTier,
		&record.MaxOwnerTimestamp, &record.MinRetryTimestamp, &record.NumRetries,
		&record.State, &record.EstimatedByteCount,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (db *DB) queryDownloadRecords(ctx context.Context, query string, args ...any) ([]*models.DownloadRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query download records: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		record, err := scanDownloadRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// EnqueueDownload inserts a download record or merges it into the existing record for the
// same (attachment, thumbnail) pair. The later owner timestamp wins and a nil timestamp
// is never replaced. The incoming state replaces the stored one, so callers judge it against
// the merged owner timestamp. The retry cursor is re-seeded only while the record has not been retried.
func (db *DB) EnqueueDownload(ctx context.Context, record *models.DownloadRecord, nowMs int64) (*models.DownloadRecord, error) {
	var merged *models.DownloadRecord
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanDownloadRecord(tx.QueryRowContext(ctx,
			"SELECT "+downloadColumns+" FROM backup_download_queue WHERE attachment_id = ? AND is_thumbnail = ?",
			record.AttachmentID, record.IsThumbnail,
		))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get existing download record: %w", err)
		}

		if existing == nil {
			inserted := *record
			inserted.MinRetryTimestamp = models.SeedRetryCursor(nowMs, record.MaxOwnerTimestamp)
			inserted.NumRetries = 0
			result, err := tx.ExecContext(ctx, `
			INSERT INTO backup_download_queue (
				attachment_id, is_thumbnail, can_download_from_media_tier, max_owner_timestamp,
				min_retry_timestamp, num_retries, state, estimated_byte_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				inserted.AttachmentID, inserted.IsThumbnail, inserted.CanDownloadFromMediaTier,
				inserted.MaxOwnerTimestamp, inserted.MinRetryTimestamp, inserted.NumRetries,
				inserted.State, inserted.EstimatedByteCount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert download record: %w", err)
			}
			if inserted.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			merged = &inserted
			return nil
		}

		existing.MaxOwnerTimestamp = models.LaterOwnerTimestamp(existing.MaxOwnerTimestamp, record.MaxOwnerTimestamp)
		existing.CanDownloadFromMediaTier = record.CanDownloadFromMediaTier
		if existing.State == models.StateDone && record.State == models.StateReady {
			existing.NumRetries = 0
		}
		existing.State = record.State
		if record.EstimatedByteCount > existing.EstimatedByteCount {
			existing.EstimatedByteCount = record.EstimatedByteCount
		}
		if existing.NumRetries == 0 {
			existing.MinRetryTimestamp = models.SeedRetryCursor(nowMs, existing.MaxOwnerTimestamp)
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE backup_download_queue SET
			can_download_from_media_tier = ?, max_owner_timestamp = ?, min_retry_timestamp = ?,
			num_retries = ?, state = ?, estimated_byte_count = ?
		WHERE id = ?`,
			existing.CanDownloadFromMediaTier, existing.MaxOwnerTimestamp, existing.MinRetryTimestamp,
			existing.NumRetries, existing.State, existing.EstimatedByteCount, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to merge download record: %w", err)
		}
		merged = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// GetDownloadRecord retrieves a download record by ID
func (db *DB) GetDownloadRecord(ctx context.Context, id int64) (*models.DownloadRecord, error) {
	record, err := scanDownloadRecord(db.conn.QueryRowContext(ctx,
		"SELECT "+downloadColumns+" FROM backup_download_queue WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get download record: %w", err)
	}
	return record, nil
}

// DownloadRecordsForAttachment returns every download record of an attachment
func (db *DB) DownloadRecordsForAttachment(ctx context.Context, attachmentID int64) ([]*models.DownloadRecord, error) {
	return db.queryDownloadRecords(ctx,
		"SELECT "+downloadColumns+" FROM backup_download_queue WHERE attachment_id = ? ORDER BY is_thumbnail DESC",
		attachmentID)
}

// PeekDownloads returns up to limit runnable ready records. Records are swept in four phases:
// recent thumbnails, recent fullsize, older thumbnails, older fullsize. A record is recent when
// its owner timestamp is at or after recentCutoffMs (or unknown). Within a phase records are
// ordered by retry cursor.
func (db *DB) PeekDownloads(ctx context.Context, limit int, nowMs, recentCutoffMs int64) ([]*models.DownloadRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
	SELECT ` + downloadColumns + `
	FROM backup_download_queue
	WHERE state = ? AND min_retry_timestamp <= ?
	ORDER BY
		(CASE WHEN max_owner_timestamp IS NULL OR max_owner_timestamp >= ? THEN 0 ELSE 2 END)
			+ (CASE WHEN is_thumbnail THEN 0 ELSE 1 END),
		min_retry_timestamp, id
	LIMIT ?
	`
	return db.queryDownloadRecords(ctx, query, models.StateReady, nowMs, recentCutoffMs, limit)
}

// NextDownloadRetryTime returns the earliest future retry cursor among ready records
func (db *DB) NextDownloadRetryTime(ctx context.Context, nowMs int64) (int64, bool, error) {
	var next sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		"SELECT MIN(min_retry_timestamp) FROM backup_download_queue WHERE state = ? AND min_retry_timestamp > ?",
		models.StateReady, nowMs,
	).Scan(&next)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get next download retry time: %w", err)
	}
	return next.Int64, next.Valid, nil
}

// MarkDownloadDone keeps the record as a done marker so progress totals survive
func (db *DB) MarkDownloadDone(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE backup_download_queue SET state = ? WHERE id = ?", models.StateDone, id)
	if err != nil {
		return fmt.Errorf("failed to mark download done: %w", err)
	}
	return nil
}

// MarkDownloadIneligible parks a record until eligibility changes
func (db *DB) MarkDownloadIneligible(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE backup_download_queue SET state = ? WHERE id = ?", models.StateIneligible, id)
	if err != nil {
		return fmt.Errorf("failed to mark download ineligible: %w", err)
	}
	return nil
}

// RemoveDownload deletes a pending record. Done markers are left for DeleteAllDoneDownloads.
func (db *DB) RemoveDownload(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM backup_download_queue WHERE id = ? AND state != ?", id, models.StateDone)
	if err != nil {
		return fmt.Errorf("failed to remove download: %w", err)
	}
	return nil
}

// UpdateDownloadRetry stores a new retry cursor and retry count
func (db *DB) UpdateDownloadRetry(ctx context.Context, id int64, minRetryTimestamp int64, numRetries int) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE backup_download_queue SET min_retry_timestamp = ?, num_retries = ? WHERE id = ?",
		minRetryTimestamp, numRetries, id)
	if err != nil {
		return fmt.Errorf("failed to update download retry: %w", err)
	}
	return nil
}

func (db *DB) execCount(ctx context.Context, what, query string, args ...any) (int64, error) {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", what, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// MarkAllReadyDownloadsIneligible parks every ready download
func (db *DB) MarkAllReadyDownloadsIneligible(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "mark ready downloads ineligible",
		"UPDATE backup_download_queue SET state = ? WHERE state = ?", models.StateIneligible, models.StateReady)
}

// MarkAllIneligibleDownloadsReady makes every parked download ready again
func (db *DB) MarkAllIneligibleDownloadsReady(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "mark ineligible downloads ready",
		"UPDATE backup_download_queue SET state = ? WHERE state = ?", models.StateReady, models.StateIneligible)
}

// MarkMediaTierFullsizeDownloadsIneligible parks media tier fullsize downloads whose newest
// owner is older than olderThanMs
func (db *DB) MarkMediaTierFullsizeDownloadsIneligible(ctx context.Context, olderThanMs int64) (int64, error) {
	return db.execCount(ctx, "mark old media tier downloads ineligible", `
	UPDATE backup_download_queue SET state = ?
	WHERE state = ? AND is_thumbnail = FALSE AND can_download_from_media_tier = TRUE
		AND max_owner_timestamp IS NOT NULL AND max_owner_timestamp < ?`,
		models.StateIneligible, models.StateReady, olderThanMs)
}

// DeleteAllDoneDownloads sweeps done markers, resetting download progress accounting
func (db *DB) DeleteAllDoneDownloads(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "delete done downloads",
		"DELETE FROM backup_download_queue WHERE state = ?", models.StateDone)
}

// RemoveDownloadsForAttachment deletes every download record of an attachment
func (db *DB) RemoveDownloadsForAttachment(ctx context.Context, attachmentID int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM backup_download_queue WHERE attachment_id = ?", attachmentID)
	if err != nil {
		return fmt.Errorf("failed to remove downloads for attachment: %w", err)
	}
	return nil
}

// DownloadByteSums returns the estimated bytes of ready and done records in a mode
func (db *DB) DownloadByteSums(ctx context.Context, mode models.QueueMode) (remaining, done int64, err error) {
	err = db.conn.QueryRowContext(ctx, `
	SELECT
		COALESCE(SUM(CASE WHEN state = ? THEN estimated_byte_count ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN state = ? THEN estimated_byte_count ELSE 0 END), 0)
	FROM backup_download_queue WHERE is_thumbnail = ?`,
		models.StateReady, models.StateDone, mode == models.ModeThumbnail,
	).Scan(&remaining, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum download bytes: %w", err)
	}
	return remaining, done, nil
}

// HasPendingDownloads reports whether any ready record exists in a mode
func (db *DB) HasPendingDownloads(ctx context.Context, mode models.QueueMode) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM backup_download_queue WHERE state = ? AND is_thumbnail = ?)",
		models.StateReady, mode == models.ModeThumbnail,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending downloads: %w", err)
	}
	return exists, nil
}
