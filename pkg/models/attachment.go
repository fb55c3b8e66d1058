package models

import "time"

// LocalFile describes a copy of attachment data stored on this device
type LocalFile struct {
	Path      string `json:"path"`
	ByteCount int64  `json:"byte_count"`
}

// TransitTierInfo describes an upload on the short-lived transit tier
type TransitTierInfo struct {
	CDNNumber            int    `json:"cdn_number"`
	CDNKey               string `json:"cdn_key"`
	UploadTimestamp      int64  `json:"upload_timestamp"` // unix ms
	UnencryptedByteCount int64  `json:"unencrypted_byte_count"`
	Expired              bool   `json:"expired"`
}

// MediaTierInfo describes an upload on the durable media tier
type MediaTierInfo struct {
	CDNNumber            *int   `json:"cdn_number"`
	UploadEra            string `json:"upload_era"`
	UnencryptedByteCount int64  `json:"unencrypted_byte_count"`
}

// Attachment is the metadata the sync engine knows about a media item
type Attachment struct {
	ID                   int64            `json:"id" db:"id"`
	MediaName            string           `json:"media_name" db:"media_name"`
	ContentType          string           `json:"content_type" db:"content_type"`
	CanBeThumbnailed     bool             `json:"can_be_thumbnailed" db:"can_be_thumbnailed"`
	UnencryptedByteCount int64            `json:"unencrypted_byte_count" db:"unencrypted_byte_count"`
	LocalFullsize        *LocalFile       `json:"local_fullsize" db:"local_fullsize"`
	LocalThumbnail       *LocalFile       `json:"local_thumbnail" db:"local_thumbnail"`
	TransitTier          *TransitTierInfo `json:"transit_tier" db:"transit_tier"`
	MediaTier            *MediaTierInfo   `json:"media_tier" db:"media_tier"`
	ThumbnailMediaTier   *MediaTierInfo   `json:"thumbnail_media_tier" db:"thumbnail_media_tier"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
}

// IsStream reports whether the fullsize data is available locally
func (a *Attachment) IsStream() bool {
	return a.LocalFullsize != nil
}

// EstimatedFullsizeBytes returns the best known size of the fullsize data
func (a *Attachment) EstimatedFullsizeBytes() int64 {
	switch {
	case a.UnencryptedByteCount > 0:
		return a.UnencryptedByteCount
	case a.MediaTier != nil && a.MediaTier.UnencryptedByteCount > 0:
		return a.MediaTier.UnencryptedByteCount
	case a.TransitTier != nil:
		return a.TransitTier.UnencryptedByteCount
	default:
		return 0
	}
}

// EstimatedThumbnailBytes is the nominal size used to weight thumbnail transfers
const EstimatedThumbnailBytes int64 = 8 * 1024

// AttachmentReference links an attachment to an owning object
type AttachmentReference struct {
	ID             int64     `json:"id" db:"id"`
	AttachmentID   int64     `json:"attachment_id" db:"attachment_id"`
	OwnerType      OwnerType `json:"owner_type" db:"owner_type"`
	OwnerID        int64     `json:"owner_id" db:"owner_id"`
	OwnerTimestamp *int64    `json:"owner_timestamp" db:"owner_timestamp"` // unix ms; nil for owners without a date
}

// RemoteMedia is one object the media tier reports holding
type RemoteMedia struct {
	MediaName string `json:"media_name"`
	Thumbnail bool   `json:"thumbnail"`
	CDNNumber int    `json:"cdn_number"`
}
