package coordinator

import (
	"context"

	"backup-media-sync/internal/cleanup"
)

// Restorer drains the download queue
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type Restorer interface {
	RestoreAttachmentsIfNeeded(ctx context.Context) error
}

// BackupRunner drains the upload queue
type BackupRunner interface {
	BackUpAllAttachments(ctx context.Context) error
}

// Offloader frees local storage once media is backed up
type Offloader interface {
	OffloadAttachments(ctx context.Context) (*cleanup.Result, error)
}
