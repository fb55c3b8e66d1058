package downloader

import (
	"context"

	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/progress"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

// Downloader fetches attachment data from a remote tier
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type Downloader interface {
	Download(ctx context.Context, att *models.Attachment, source models.DownloadSource, sink transfer.Sink) (*models.LocalFile, error)
}

// StatusManager gates the download queue on device and account state
type StatusManager interface {
	BeginObservingIfNecessary(ctx context.Context, mode models.QueueMode) (models.QueueStatus, error)
	StatusAndToken(mode models.QueueMode) (models.QueueStatus, status.Token)
	JobDidExperienceError(mode models.QueueMode, token status.Token, err error) models.QueueStatus
	JobDidSucceed(token status.Token)
	QuickCheckDiskSpace()
	DidEmptyQueue(mode models.QueueMode)
	SetSuspended(suspended bool)
}

// ProgressTracker accumulates fullsize download progress
type ProgressTracker interface {
	BeginObserving(ctx context.Context) (progress.Snapshot, error)
	DidEnqueue(ctx context.Context, bytes int64) error
	WillBeginDownloading(recordID int64, total int64) transfer.Sink
	DidFinish(recordID int64)
	DidEmpty(ctx context.Context) error
}

// ListMediaManager reconciles media tier metadata before downloads run
type ListMediaManager interface {
	NeedsQuery(ctx context.Context) (bool, error)
	QueryIfNeeded(ctx context.Context) (listmedia.Result, error)
}

// UploadScheduler re-enqueues uploads for attachments whose media tier copy turned out to be missing
type UploadScheduler interface {
	EnqueueUsingHighestPriorityOwnerIfNeeded(ctx context.Context, att *models.Attachment, modes ...models.QueueMode) error
}
