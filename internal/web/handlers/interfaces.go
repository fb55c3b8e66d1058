package handlers

import (
	"context"
	"time"

	"backup-media-sync/internal/cleanup"
	"backup-media-sync/internal/progress"
	"backup-media-sync/internal/status"
	"backup-media-sync/pkg/models"
)

// Store reads and updates the settings, queue counts and attachment metadata behind the API
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type Store interface {
	BackupPlan(ctx context.Context) (models.BackupPlan, error)
	SetBackupPlan(ctx context.Context, plan models.BackupPlan) error
	QueueStats(ctx context.Context, kind models.QueueKind) (map[models.QueueRecordState]int, error)
	UploadByteSums(ctx context.Context) (remaining, done int64, err error)
	UpsertAttachment(ctx context.Context, a *models.Attachment) error
	AddReference(ctx context.Context, ref *models.AttachmentReference) error
}

// StatusManager exposes one queue's gating state
type StatusManager interface {
	Snapshot() status.Snapshot
	ReattemptDiskSpaceChecks()
	SetPlanPaid(paid bool)
}

// DownloadManager controls the download queue
type DownloadManager interface {
	SetSuspended(ctx context.Context, suspended bool) error
	BackupPlanDidChange(ctx context.Context, oldPlan, newPlan models.BackupPlan) error
	EnqueueFromBackupIfNeeded(ctx context.Context, att *models.Attachment, ref *models.AttachmentReference, restoreStart time.Time) error
	Kick()
}

// UploadManager controls the upload queue
type UploadManager interface {
	SetSuspended(ctx context.Context, suspended bool) error
	EnqueueAllEligibleAttachments(ctx context.Context) error
	CancelPendingUploads(ctx context.Context) error
	EnqueueIfNeeded(ctx context.Context, att *models.Attachment, ref *models.AttachmentReference) error
	Kick()
}

// DownloadProgress reports fullsize download progress
type DownloadProgress interface {
	Snapshot() progress.Snapshot
}

// Coordinator runs restore, backup and offload rounds
type Coordinator interface {
	Kick()
	LastRound() (time.Time, error)
}

// Offloader previews what an offload pass would free
type Offloader interface {
	Stats(ctx context.Context) (*cleanup.Result, error)
}
