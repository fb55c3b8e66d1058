package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backup-media-sync/pkg/models"
)

const attachmentColumns = `id, media_name, content_type, can_be_thumbnailed, unencrypted_byte_count,
	local_fullsize, local_thumbnail, transit_tier, media_tier, thumbnail_media_tier, updated_at`

func encodeJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeJSON[T any](s sql.NullString) (*T, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanAttachment(row rowScanner) (*models.Attachment, error) {
	var a models.Attachment
	var localFullsize, localThumbnail, transit, mediaTier, thumbnailMediaTier sql.NullString
	err := row.Scan(
		&a.ID, &a.MediaName, &a.ContentType, &a.CanBeThumbnailed, &a.UnencryptedByteCount,
		&localFullsize, &localThumbnail, &transit, &mediaTier, &thumbnailMediaTier, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.LocalFullsize, err = decodeJSON[models.LocalFile](localFullsize); err != nil {
		return nil, fmt.Errorf("failed to decode local fullsize: %w", err)
	}
	if a.LocalThumbnail, err = decodeJSON[models.LocalFile](localThumbnail); err != nil {
		return nil, fmt.Errorf("failed to decode local thumbnail: %w", err)
	}
	if a.TransitTier, err = decodeJSON[models.TransitTierInfo](transit); err != nil {
		return nil, fmt.Errorf("failed to decode transit tier info: %w", err)
	}
	if a.MediaTier, err = decodeJSON[models.MediaTierInfo](mediaTier); err != nil {
		return nil, fmt.Errorf("failed to decode media tier info: %w", err)
	}
	if a.ThumbnailMediaTier, err = decodeJSON[models.MediaTierInfo](thumbnailMediaTier); err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail media tier info: %w", err)
	}
	return &a, nil
}

func (db *DB) queryAttachments(ctx context.Context, query string, args ...any) ([]*models.Attachment, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// UpsertAttachment creates an attachment, or replaces it when ID is already set
func (db *DB) UpsertAttachment(ctx context.Context, a *models.Attachment) error {
	localFullsize, err := encodeJSON(a.LocalFullsize)
	if err != nil {
		return fmt.Errorf("failed to encode local fullsize: %w", err)
	}
	localThumbnail, err := encodeJSON(a.LocalThumbnail)
	if err != nil {
		return fmt.Errorf("failed to encode local thumbnail: %w", err)
	}
	transit, err := encodeJSON(a.TransitTier)
	if err != nil {
		return fmt.Errorf("failed to encode transit tier info: %w", err)
	}
	mediaTier, err := encodeJSON(a.MediaTier)
	if err != nil {
		return fmt.Errorf("failed to encode media tier info: %w", err)
	}
	thumbnailMediaTier, err := encodeJSON(a.ThumbnailMediaTier)
	if err != nil {
		return fmt.Errorf("failed to encode thumbnail media tier info: %w", err)
	}

	a.UpdatedAt = time.Now()
	var id any
	if a.ID != 0 {
		id = a.ID
	}

	result, err := db.conn.ExecContext(ctx, `
	INSERT INTO attachments (
		id, media_name, content_type, can_be_thumbnailed, unencrypted_byte_count,
		local_fullsize, local_thumbnail, transit_tier, media_tier, thumbnail_media_tier, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		media_name = excluded.media_name,
		content_type = excluded.content_type,
		can_be_thumbnailed = excluded.can_be_thumbnailed,
		unencrypted_byte_count = excluded.unencrypted_byte_count,
		local_fullsize = excluded.local_fullsize,
		local_thumbnail = excluded.local_thumbnail,
		transit_tier = excluded.transit_tier,
		media_tier = excluded.media_tier,
		thumbnail_media_tier = excluded.thumbnail_media_tier,
		updated_at = excluded.updated_at`,
		id, a.MediaName, a.ContentType, a.CanBeThumbnailed, a.UnencryptedByteCount,
		localFullsize, localThumbnail, transit, mediaTier, thumbnailMediaTier, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment: %w", err)
	}

	if a.ID == 0 {
		if a.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

// GetAttachment retrieves an attachment by ID
func (db *DB) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	a, err := scanAttachment(db.conn.QueryRowContext(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return a, nil
}

// ListAttachmentsWithMediaName returns every attachment that can exist on the media tier
func (db *DB) ListAttachmentsWithMediaName(ctx context.Context) ([]*models.Attachment, error) {
	return db.queryAttachments(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE media_name != '' ORDER BY id")
}

// ListAttachmentsOnMediaTier returns attachments with fullsize or thumbnail media tier info
func (db *DB) ListAttachmentsOnMediaTier(ctx context.Context) ([]*models.Attachment, error) {
	return db.queryAttachments(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE media_tier IS NOT NULL OR thumbnail_media_tier IS NOT NULL ORDER BY id")
}

// OffloadCandidates returns attachments whose local fullsize copy can be deleted: uploaded to the
// media tier in the given era, and every owner dated before olderThanMs
func (db *DB) OffloadCandidates(ctx context.Context, era string, olderThanMs int64) ([]*models.Attachment, error) {
	query := `
	SELECT ` + attachmentColumns + `
	FROM attachments
	JOIN (
		SELECT attachment_id, MAX(owner_timestamp) AS newest, SUM(owner_timestamp IS NULL) AS undated
		FROM attachment_references GROUP BY attachment_id
	) refs ON refs.attachment_id = attachments.id
	WHERE local_fullsize IS NOT NULL
		AND json_extract(media_tier, '$.upload_era') = ?
		AND refs.undated = 0 AND refs.newest < ?
	ORDER BY id
	`
	return db.queryAttachments(ctx, query, era, olderThanMs)
}

func (db *DB) updateAttachmentColumn(ctx context.Context, id int64, column string, value any) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE attachments SET "+column+" = ?, updated_at = ? WHERE id = ?", value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update attachment %s: %w", column, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFullsizeDownloaded records a local fullsize copy
func (db *DB) MarkFullsizeDownloaded(ctx context.Context, id int64, file models.LocalFile) error {
	value, err := encodeJSON(&file)
	if err != nil {
		return err
	}
	return db.updateAttachmentColumn(ctx, id, "local_fullsize", value)
}

// MarkThumbnailDownloaded records a local thumbnail copy
func (db *DB) MarkThumbnailDownloaded(ctx context.Context, id int64, file models.LocalFile) error {
	value, err := encodeJSON(&file)
	if err != nil {
		return err
	}
	return db.updateAttachmentColumn(ctx, id, "local_thumbnail", value)
}

// ClearLocalFullsize forgets the local fullsize copy after offloading
func (db *DB) ClearLocalFullsize(ctx context.Context, id int64) error {
	return db.updateAttachmentColumn(ctx, id, "local_fullsize", nil)
}

// SetMediaTierInfo records a fullsize media tier upload
func (db *DB) SetMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error {
	value, err := encodeJSON(&info)
	if err != nil {
		return err
	}
	return db.updateAttachmentColumn(ctx, id, "media_tier", value)
}

// SetThumbnailMediaTierInfo records a thumbnail media tier upload
func (db *DB) SetThumbnailMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error {
	value, err := encodeJSON(&info)
	if err != nil {
		return err
	}
	return db.updateAttachmentColumn(ctx, id, "thumbnail_media_tier", value)
}

// ClearMediaTierInfo forgets stale fullsize media tier metadata
func (db *DB) ClearMediaTierInfo(ctx context.Context, id int64) error {
	return db.updateAttachmentColumn(ctx, id, "media_tier", nil)
}

// ClearThumbnailMediaTierInfo forgets stale thumbnail media tier metadata
func (db *DB) ClearThumbnailMediaTierInfo(ctx context.Context, id int64) error {
	return db.updateAttachmentColumn(ctx, id, "thumbnail_media_tier", nil)
}

// MarkTransitTierExpired flags the transit tier upload as gone
func (db *DB) MarkTransitTierExpired(ctx context.Context, id int64) error {
	a, err := db.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	if a.TransitTier == nil {
		return nil
	}
	a.TransitTier.Expired = true
	value, err := encodeJSON(a.TransitTier)
	if err != nil {
		return err
	}
	return db.updateAttachmentColumn(ctx, id, "transit_tier", value)
}

// AddReference records an owner of an attachment, updating the owner timestamp if it already exists
func (db *DB) AddReference(ctx context.Context, ref *models.AttachmentReference) error {
	row := db.conn.QueryRowContext(ctx, `
	INSERT INTO attachment_references (attachment_id, owner_type, owner_id, owner_timestamp)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(attachment_id, owner_type, owner_id) DO UPDATE SET owner_timestamp = excluded.owner_timestamp
	RETURNING id`,
		ref.AttachmentID, ref.OwnerType, ref.OwnerID, ref.OwnerTimestamp,
	)
	if err := row.Scan(&ref.ID); err != nil {
		return fmt.Errorf("failed to add attachment reference: %w", err)
	}
	return nil
}

// ReferencesForAttachment returns every owner of an attachment
func (db *DB) ReferencesForAttachment(ctx context.Context, attachmentID int64) ([]*models.AttachmentReference, error) {
	rows, err := db.conn.QueryContext(ctx, `
	SELECT id, attachment_id, owner_type, owner_id, owner_timestamp
	FROM attachment_references WHERE attachment_id = ? ORDER BY id`, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment references: %w", err)
	}
	defer rows.Close()

	var refs []*models.AttachmentReference
	for rows.Next() {
		var ref models.AttachmentReference
		if err := rows.Scan(&ref.ID, &ref.AttachmentID, &ref.OwnerType, &ref.OwnerID, &ref.OwnerTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan attachment reference: %w", err)
		}
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}
