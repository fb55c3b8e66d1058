package models

// OwnerType identifies what kind of object references an attachment
type OwnerType string

const (
	OwnerMessage         OwnerType = "message"
	OwnerThreadWallpaper OwnerType = "thread_wallpaper"
	OwnerStory           OwnerType = "story"
)

// IsBackedUp reports whether attachments owned by this type are included in backups
func (o OwnerType) IsBackedUp() bool {
	return o == OwnerMessage || o == OwnerThreadWallpaper
}

// Priority returns the upload priority of the owner type; higher wins
func (o OwnerType) Priority() int {
	switch o {
	case OwnerMessage:
		return 2
	case OwnerThreadWallpaper:
		return 1
	default:
		return 0
	}
}

// UploadRecord represents one pending backup upload (thumbnail or fullsize) of an attachment
type UploadRecord struct {
	ID                 int64            `json:"id" db:"id"`
	AttachmentID       int64            `json:"attachment_id" db:"attachment_id"`
	IsFullsize         bool             `json:"is_fullsize" db:"is_fullsize"`
	OwnerType          OwnerType        `json:"owner_type" db:"owner_type"`
	MaxOwnerTimestamp  *int64           `json:"max_owner_timestamp" db:"max_owner_timestamp"`
	MinRetryTimestamp  int64            `json:"min_retry_timestamp" db:"min_retry_timestamp"`
	NumRetries         int              `json:"num_retries" db:"num_retries"`
	State              QueueRecordState `json:"state" db:"state"`
	EstimatedByteCount int64            `json:"estimated_byte_count" db:"estimated_byte_count"`
}

// TaskID returns the queue row id
func (r *UploadRecord) TaskID() int64 { return r.ID }

// RetryCount returns how many times the record has been retried
func (r *UploadRecord) RetryCount() int { return r.NumRetries }

// NextRetryAt returns the retry cursor in unix milliseconds
func (r *UploadRecord) NextRetryAt() int64 { return r.MinRetryTimestamp }

// Class returns the queue mode the record belongs to
func (r *UploadRecord) Class() string { return string(r.Mode()) }

// Mode returns the queue mode the record belongs to
func (r *UploadRecord) Mode() QueueMode {
	if r.IsFullsize {
		return ModeFullsize
	}
	return ModeThumbnail
}
