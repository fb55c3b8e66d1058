package uploader

import (
	"context"
	"time"

	"backup-media-sync/internal/status"
	"backup-media-sync/pkg/models"
)

// Store is the persistence behind the upload queue
type Store interface {
	EnqueueUpload(ctx context.Context, record *models.UploadRecord, nowMs int64) (*models.UploadRecord, error)
	PeekUploads(ctx context.Context, limit int, nowMs int64) ([]*models.UploadRecord, error)
	NextUploadRetryTime(ctx context.Context, nowMs int64) (int64, bool, error)
	MarkUploadDone(ctx context.Context, id int64) error
	RemoveUpload(ctx context.Context, id int64) error
	UpdateUploadRetry(ctx context.Context, id int64, minRetryTimestamp int64, numRetries int) error
	RemoveAllUploads(ctx context.Context) (int64, error)
	DeleteAllDoneUploads(ctx context.Context) (int64, error)
	HasPendingUploads(ctx context.Context, mode models.QueueMode) (bool, error)

	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	ListAttachmentsWithMediaName(ctx context.Context) ([]*models.Attachment, error)
	ReferencesForAttachment(ctx context.Context, attachmentID int64) ([]*models.AttachmentReference, error)
	SetMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error
	SetThumbnailMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error

	BackupPlan(ctx context.Context) (models.BackupPlan, error)
	UploadEra(ctx context.Context) (string, error)
	IsQueueSuspended(ctx context.Context, kind models.QueueKind) (bool, error)
	SetQueueSuspended(ctx context.Context, kind models.QueueKind, suspended bool) error
}

// taskStore adapts Store to the task queue
type taskStore struct {
	store Store
}

func (s *taskStore) Peek(ctx context.Context, count int, now time.Time) ([]*models.UploadRecord, error) {
	return s.store.PeekUploads(ctx, count, now.UnixMilli())
}

func (s *taskStore) NextRetryTime(ctx context.Context, now time.Time) (time.Time, bool, error) {
	next, ok, err := s.store.NextUploadRetryTime(ctx, now.UnixMilli())
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.UnixMilli(next), true, nil
}

func (s *taskStore) RemoveRecord(ctx context.Context, record *models.UploadRecord) error {
	return s.store.RemoveUpload(ctx, record.ID)
}

type statusStore struct {
	store Store
}

// StatusStore exposes the upload queue facts the status manager folds into its status
func StatusStore(store Store) status.Store {
	return &statusStore{store: store}
}

func (s *statusStore) HasPending(ctx context.Context, mode models.QueueMode) (bool, error) {
	return s.store.HasPendingUploads(ctx, mode)
}

func (s *statusStore) IsSuspended(ctx context.Context) (bool, error) {
	return s.store.IsQueueSuspended(ctx, models.QueueUpload)
}

func (s *statusStore) BackupPlan(ctx context.Context) (models.BackupPlan, error) {
	return s.store.BackupPlan(ctx)
}
