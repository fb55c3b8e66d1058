// Package models defines the data structures used throughout the application
package models

// QueueRecordState represents the lifecycle state of a queue record
type QueueRecordState string

const (
	StateIneligible QueueRecordState = "ineligible"
	StateReady      QueueRecordState = "ready"
	StateDone       QueueRecordState = "done"
)

// Rank orders states by precedence: done > ready > ineligible
func (s QueueRecordState) Rank() int {
	switch s {
	case StateDone:
		return 3
	case StateReady:
		return 2
	case StateIneligible:
		return 1
	default:
		return 0
	}
}

// StatePtr returns a pointer to the given state
func StatePtr(s QueueRecordState) *QueueRecordState {
	return &s
}

// DownloadSource identifies which remote tier a download is served from
type DownloadSource string

const (
	SourceMediaTierFullsize  DownloadSource = "media_tier_fullsize"
	SourceMediaTierThumbnail DownloadSource = "media_tier_thumbnail"
	SourceTransitTier        DownloadSource = "transit_tier"
)

// QueueMode splits a queue into its fullsize and thumbnail halves
type QueueMode string

const (
	ModeFullsize  QueueMode = "fullsize"
	ModeThumbnail QueueMode = "thumbnail"
)

// AllModes lists every queue mode
var AllModes = []QueueMode{ModeFullsize, ModeThumbnail}

// DownloadRecord represents one pending backup download (thumbnail or fullsize) of an attachment
type DownloadRecord struct {
	ID                       int64            `json:"id" db:"id"`
	AttachmentID             int64            `json:"attachment_id" db:"attachment_id"`
	IsThumbnail              bool             `json:"is_thumbnail" db:"is_thumbnail"`
	CanDownloadFromMediaTier bool             `json:"can_download_from_media_tier" db:"can_download_from_media_tier"`
	MaxOwnerTimestamp        *int64           `json:"max_owner_timestamp" db:"max_owner_timestamp"` // nil sorts as newest
	MinRetryTimestamp        int64            `json:"min_retry_timestamp" db:"min_retry_timestamp"`
	NumRetries               int              `json:"num_retries" db:"num_retries"`
	State                    QueueRecordState `json:"state" db:"state"`
	EstimatedByteCount       int64            `json:"estimated_byte_count" db:"estimated_byte_count"`
}

// TaskID returns the queue row id
func (r *DownloadRecord) TaskID() int64 { return r.ID }

// RetryCount returns how many times the record has been retried
func (r *DownloadRecord) RetryCount() int { return r.NumRetries }

// NextRetryAt returns the retry cursor in unix milliseconds
func (r *DownloadRecord) NextRetryAt() int64 { return r.MinRetryTimestamp }

// Class returns the queue mode the record belongs to
func (r *DownloadRecord) Class() string { return string(r.Mode()) }

// Mode returns the queue mode the record belongs to
func (r *DownloadRecord) Mode() QueueMode {
	if r.IsThumbnail {
		return ModeThumbnail
	}
	return ModeFullsize
}

// SeedRetryCursor computes the initial retry cursor for a record so that sorting
// ascending yields the newest owners first. A nil owner timestamp sorts first.
func SeedRetryCursor(nowMs int64, ownerTimestamp *int64) int64 {
	if ownerTimestamp == nil {
		return 0
	}
	if d := nowMs - *ownerTimestamp; d > 0 {
		return d
	}
	return 0
}

// LaterOwnerTimestamp merges two owner timestamps, treating nil as maximal
func LaterOwnerTimestamp(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	if *a >= *b {
		v := *a
		return &v
	}
	v := *b
	return &v
}
