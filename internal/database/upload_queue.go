package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backup-media-sync/pkg/models"
)

const uploadColumns = `id, attachment_id, is_fullsize, owner_type, max_owner_timestamp,
	min_retry_timestamp, num_retries, state, estimated_byte_count`

func scanUploadRecord(row rowScanner) (*models.UploadRecord, error) {
	var record models.UploadRecord
	err := row.Scan(
		&record.ID, &record.AttachmentID, &record.IsFullsize, &record.OwnerType,
		&record.MaxOwnerTimestamp, &record.MinRetryTimestamp, &record.NumRetries,
		&record.State, &record.EstimatedByteCount,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (db *DB) queryUploadRecords(ctx context.Context, query string, args ...any) ([]*models.UploadRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload records: %w", err)
	}
	defer rows.Close()

	var records []*models.UploadRecord
	for rows.Next() {
		record, err := scanUploadRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// EnqueueUpload inserts an upload record or merges it into the existing record for the same
// (attachment, fullsize) pair. The higher priority owner type and the later owner timestamp win.
func (db *DB) EnqueueUpload(ctx context.Context, record *models.UploadRecord, nowMs int64) (*models.UploadRecord, error) {
	var merged *models.UploadRecord
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanUploadRecord(tx.QueryRowContext(ctx,
			"SELECT "+uploadColumns+" FROM backup_upload_queue WHERE attachment_id = ? AND is_fullsize = ?",
			record.AttachmentID, record.IsFullsize,
		))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get existing upload record: %w", err)
		}

		if existing == nil {
			inserted := *record
			inserted.State = models.StateReady
			inserted.NumRetries = 0
			inserted.MinRetryTimestamp = models.SeedRetryCursor(nowMs, record.MaxOwnerTimestamp)
			result, err := tx.ExecContext(ctx, `
			INSERT INTO backup_upload_queue (
				attachment_id, is_fullsize, owner_type, max_owner_timestamp,
				min_retry_timestamp, num_retries, state, estimated_byte_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				inserted.AttachmentID, inserted.IsFullsize, inserted.OwnerType, inserted.MaxOwnerTimestamp,
				inserted.MinRetryTimestamp, inserted.NumRetries, inserted.State, inserted.EstimatedByteCount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert upload record: %w", err)
			}
			if inserted.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			merged = &inserted
			return nil
		}

		if record.OwnerType.Priority() > existing.OwnerType.Priority() {
			existing.OwnerType = record.OwnerType
		}
		existing.MaxOwnerTimestamp = models.LaterOwnerTimestamp(existing.MaxOwnerTimestamp, record.MaxOwnerTimestamp)
		if existing.State != models.StateReady {
			existing.State = models.StateReady
			existing.NumRetries = 0
		}
		if record.EstimatedByteCount > existing.EstimatedByteCount {
			existing.EstimatedByteCount = record.EstimatedByteCount
		}
		if existing.NumRetries == 0 {
			existing.MinRetryTimestamp = models.SeedRetryCursor(nowMs, existing.MaxOwnerTimestamp)
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE backup_upload_queue SET
			owner_type = ?, max_owner_timestamp = ?, min_retry_timestamp = ?,
			num_retries = ?, state = ?, estimated_byte_count = ?
		WHERE id = ?`,
			existing.OwnerType, existing.MaxOwnerTimestamp, existing.MinRetryTimestamp,
			existing.NumRetries, existing.State, existing.EstimatedByteCount, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to merge upload record: %w", err)
		}
		merged = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// GetUploadRecord retrieves an upload record by ID
func (db *DB) GetUploadRecord(ctx context.Context, id int64) (*models.UploadRecord, error) {
	record, err := scanUploadRecord(db.conn.QueryRowContext(ctx,
		"SELECT "+uploadColumns+" FROM backup_upload_queue WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get upload record: %w", err)
	}
	return record, nil
}

// UploadRecordsForAttachment returns every upload record of an attachment
func (db *DB) UploadRecordsForAttachment(ctx context.Context, attachmentID int64) ([]*models.UploadRecord, error) {
	return db.queryUploadRecords(ctx,
		"SELECT "+uploadColumns+" FROM backup_upload_queue WHERE attachment_id = ? ORDER BY is_fullsize DESC",
		attachmentID)
}

// PeekUploads returns up to limit runnable ready records ordered by retry cursor
func (db *DB) PeekUploads(ctx context.Context, limit int, nowMs int64) ([]*models.UploadRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	return db.queryUploadRecords(ctx, `
	SELECT `+uploadColumns+`
	FROM backup_upload_queue
	WHERE state = ? AND min_retry_timestamp <= ?
	ORDER BY min_retry_timestamp, id
	LIMIT ?`,
		models.StateReady, nowMs, limit)
}

// NextUploadRetryTime returns the earliest future retry cursor among ready records
func (db *DB) NextUploadRetryTime(ctx context.Context, nowMs int64) (int64, bool, error) {
	var next sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		"SELECT MIN(min_retry_timestamp) FROM backup_upload_queue WHERE state = ? AND min_retry_timestamp > ?",
		models.StateReady, nowMs,
	).Scan(&next)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get next upload retry time: %w", err)
	}
	return next.Int64, next.Valid, nil
}

// MarkUploadDone keeps the record as a done marker until the queue drains
func (db *DB) MarkUploadDone(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "UPDATE backup_upload_queue SET state = ? WHERE id = ?", models.StateDone, id)
	if err != nil {
		return fmt.Errorf("failed to mark upload done: %w", err)
	}
	return nil
}

// RemoveUpload deletes a pending record. Done markers are left for DeleteAllDoneUploads.
func (db *DB) RemoveUpload(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM backup_upload_queue WHERE id = ? AND state != ?", id, models.StateDone)
	if err != nil {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// UpdateUploadRetry stores a new retry cursor and retry count
func (db *DB) UpdateUploadRetry(ctx context.Context, id int64, minRetryTimestamp int64, numRetries int) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE backup_upload_queue SET min_retry_timestamp = ?, num_retries = ? WHERE id = ?",
		minRetryTimestamp, numRetries, id)
	if err != nil {
		return fmt.Errorf("failed to update upload retry: %w", err)
	}
	return nil
}

// RemoveAllUploads empties the upload queue
func (db *DB) RemoveAllUploads(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "remove all uploads", "DELETE FROM backup_upload_queue")
}

// RemovePendingUploads deletes every record that is not a done marker
func (db *DB) RemovePendingUploads(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "remove pending uploads",
		"DELETE FROM backup_upload_queue WHERE state != ?", models.StateDone)
}

// DeleteAllDoneUploads sweeps done markers
func (db *DB) DeleteAllDoneUploads(ctx context.Context) (int64, error) {
	return db.execCount(ctx, "delete done uploads",
		"DELETE FROM backup_upload_queue WHERE state = ?", models.StateDone)
}

// UploadByteSums returns the estimated bytes of ready and done upload records
func (db *DB) UploadByteSums(ctx context.Context) (remaining, done int64, err error) {
	err = db.conn.QueryRowContext(ctx, `
	SELECT
		COALESCE(SUM(CASE WHEN state = ? THEN estimated_byte_count ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN state = ? THEN estimated_byte_count ELSE 0 END), 0)
	FROM backup_upload_queue`,
		models.StateReady, models.StateDone,
	).Scan(&remaining, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum upload bytes: %w", err)
	}
	return remaining, done, nil
}

// HasPendingUploads reports whether any ready record exists in a mode
func (db *DB) HasPendingUploads(ctx context.Context, mode models.QueueMode) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM backup_upload_queue WHERE state = ? AND is_fullsize = ?)",
		models.StateReady, mode == models.ModeFullsize,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending uploads: %w", err)
	}
	return exists, nil
}
