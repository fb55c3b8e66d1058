package uploader

import (
	"context"

	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

// Uploader copies attachment data to the media tier
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type Uploader interface {
	Upload(ctx context.Context, att *models.Attachment, thumbnail bool, era string, auth transfer.Auth, sink transfer.Sink) (*models.MediaTierInfo, error)
}

// AuthProvider fetches backup service credentials
type AuthProvider interface {
	FetchServiceAuth(ctx context.Context, forceRefresh bool) (transfer.Auth, error)
}

// StatusManager gates the upload queue on device and account state
type StatusManager interface {
	BeginObservingIfNecessary(ctx context.Context, mode models.QueueMode) (models.QueueStatus, error)
	Status(mode models.QueueMode) models.QueueStatus
	DidEmptyQueue(mode models.QueueMode)
	SetConsumedCapacity(consumed bool)
	SetSuspended(suspended bool)
}

// ProgressTracker accumulates upload progress
type ProgressTracker interface {
	WillBeginUploading(recordID int64, total int64) transfer.Sink
	DidFinish(recordID int64)
	DidEmptyUploadQueue()
}

// ListMediaManager reconciles media tier metadata before uploads run
type ListMediaManager interface {
	QueryIfNeeded(ctx context.Context) (listmedia.Result, error)
}
