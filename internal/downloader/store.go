package downloader

import (
	"context"
	"time"

	"backup-media-sync/internal/status"
	"backup-media-sync/pkg/models"
)

// Store is the persistence behind the download queue
type Store interface {
	EnqueueDownload(ctx context.Context, record *models.DownloadRecord, nowMs int64) (*models.DownloadRecord, error)
	DownloadRecordsForAttachment(ctx context.Context, attachmentID int64) ([]*models.DownloadRecord, error)
	PeekDownloads(ctx context.Context, limit int, nowMs, recentCutoffMs int64) ([]*models.DownloadRecord, error)
	NextDownloadRetryTime(ctx context.Context, nowMs int64) (int64, bool, error)
	MarkDownloadDone(ctx context.Context, id int64) error
	MarkDownloadIneligible(ctx context.Context, id int64) error
	RemoveDownload(ctx context.Context, id int64) error
	UpdateDownloadRetry(ctx context.Context, id int64, minRetryTimestamp int64, numRetries int) error
	MarkAllReadyDownloadsIneligible(ctx context.Context) (int64, error)
	MarkAllIneligibleDownloadsReady(ctx context.Context) (int64, error)
	MarkMediaTierFullsizeDownloadsIneligible(ctx context.Context, olderThanMs int64) (int64, error)
	DeleteAllDoneDownloads(ctx context.Context) (int64, error)
	HasPendingDownloads(ctx context.Context, mode models.QueueMode) (bool, error)

	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	MarkFullsizeDownloaded(ctx context.Context, id int64, file models.LocalFile) error
	MarkThumbnailDownloaded(ctx context.Context, id int64, file models.LocalFile) error
	ClearMediaTierInfo(ctx context.Context, id int64) error
	ClearThumbnailMediaTierInfo(ctx context.Context, id int64) error
	MarkTransitTierExpired(ctx context.Context, id int64) error

	BackupPlan(ctx context.Context) (models.BackupPlan, error)
	IsQueueSuspended(ctx context.Context, kind models.QueueKind) (bool, error)
	SetQueueSuspended(ctx context.Context, kind models.QueueKind, suspended bool) error
}

// taskStore adapts Store to the task queue. Peeks sweep recent owners first.
type taskStore struct {
	store         Store
	recencyWindow time.Duration
}

func (s *taskStore) Peek(ctx context.Context, count int, now time.Time) ([]*models.DownloadRecord, error) {
	return s.store.PeekDownloads(ctx, count, now.UnixMilli(), now.Add(-s.recencyWindow).UnixMilli())
}

func (s *taskStore) NextRetryTime(ctx context.Context, now time.Time) (time.Time, bool, error) {
	next, ok, err := s.store.NextDownloadRetryTime(ctx, now.UnixMilli())
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.UnixMilli(next), true, nil
}

// RemoveRecord drops failed and cancelled records. Succeeded records were already
// marked done and survive as progress markers.
func (s *taskStore) RemoveRecord(ctx context.Context, record *models.DownloadRecord) error {
	return s.store.RemoveDownload(ctx, record.ID)
}

type statusStore struct {
	store Store
}

// StatusStore exposes the download queue facts the status manager folds into its status
func StatusStore(store Store) status.Store {
	return &statusStore{store: store}
}

func (s *statusStore) HasPending(ctx context.Context, mode models.QueueMode) (bool, error) {
	return s.store.HasPendingDownloads(ctx, mode)
}

func (s *statusStore) IsSuspended(ctx context.Context) (bool, error) {
	return s.store.IsQueueSuspended(ctx, models.QueueDownload)
}

func (s *statusStore) BackupPlan(ctx context.Context) (models.BackupPlan, error) {
	return s.store.BackupPlan(ctx)
}
