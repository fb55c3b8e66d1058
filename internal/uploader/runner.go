package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backup-media-sync/internal/backoff"
	"backup-media-sync/internal/database"
	"backup-media-sync/internal/eligibility"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/taskqueue"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

const (
	networkRetryMin = 5 * time.Second
	networkRetryMax = time.Hour
)

// runner executes upload records for the task queue
type runner struct {
	store    Store
	uploader Uploader
	auth     AuthProvider
	status   StatusManager
	progress ProgressTracker
	bus      *events.Bus
	clock    func() time.Time
	logger   *slog.Logger
	stop     func()
}

func (r *runner) RunTask(ctx context.Context, record *models.UploadRecord) taskqueue.Result {
	switch queueStatus := r.status.Status(record.Mode()); queueStatus {
	case models.QueueRunning, models.QueueEmpty:
	default:
		r.stop()
		return taskqueue.Retryable(&status.GatingError{Queue: models.QueueUpload, Status: queueStatus})
	}

	att, err := r.store.GetAttachment(ctx, record.AttachmentID)
	if errors.Is(err, database.ErrNotFound) {
		return taskqueue.Cancelled()
	}
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to load attachment: %w", err))
	}
	// Only attachments held locally can be backed up
	if !att.IsStream() || att.MediaName == "" {
		return taskqueue.Cancelled()
	}

	plan, err := r.store.BackupPlan(ctx)
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to read backup plan: %w", err))
	}
	if !plan.IsPaidFamily() {
		r.stop()
		return taskqueue.Retryable(ErrIsFreeTier)
	}

	auth, err := r.auth.FetchServiceAuth(ctx, false)
	if err != nil {
		r.stop()
		return taskqueue.Retryable(fmt.Errorf("failed to fetch backup credential: %w", err))
	}
	if auth.Level != transfer.AuthLevelPaid {
		r.stop()
		return taskqueue.Retryable(ErrIsFreeTier)
	}

	era, err := r.store.UploadEra(ctx)
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to read upload era: %w", err))
	}

	sink := r.progress.WillBeginUploading(record.ID, record.EstimatedByteCount)

	needed := eligibility.NeedsThumbnailUpload(att, era)
	if record.IsFullsize {
		needed = eligibility.NeedsMediaTierUpload(att, era)
	}
	if !needed {
		r.progress.DidFinish(record.ID)
		return taskqueue.Success()
	}

	info, err := r.uploader.Upload(ctx, att, !record.IsFullsize, era, auth, sink)
	if err != nil {
		return r.classifyError(ctx, record, err)
	}

	info.UploadEra = era
	if record.IsFullsize {
		err = r.store.SetMediaTierInfo(ctx, att.ID, *info)
	} else {
		err = r.store.SetThumbnailMediaTierInfo(ctx, att.ID, *info)
	}
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to record media tier upload: %w", err))
	}

	r.progress.DidFinish(record.ID)
	return taskqueue.Success()
}

func (r *runner) classifyError(ctx context.Context, record *models.UploadRecord, err error) taskqueue.Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		r.stop()
		return taskqueue.Retryable(ctx.Err())
	}

	switch {
	case errors.Is(err, transfer.ErrSourceObjectNotFound):
		// The transit copy expired; uploading again always fixes it
		return taskqueue.Retryable(err)

	case errors.Is(err, transfer.ErrOutOfCapacity):
		r.logger.Warn("Media tier storage is full; stopping uploads")
		r.status.SetConsumedCapacity(true)
		r.stop()
		return taskqueue.Retryable(err)

	case transfer.StatusCode(err) == http.StatusForbidden:
		// Lost write access; only a paid credential can keep going
		auth, authErr := r.auth.FetchServiceAuth(ctx, true)
		if authErr != nil || auth.Level != transfer.AuthLevelPaid {
			r.stop()
			return taskqueue.Retryable(ErrIsFreeTier)
		}
	}

	switch {
	case transfer.StatusCode(err) == http.StatusTooManyRequests:
		if retryAfter, ok := transfer.RetryAfter(err); ok {
			return taskqueue.Retryable(&RateLimitedError{RetryAfter: retryAfter, Err: err})
		}
		return taskqueue.Retryable(&NetworkRetryError{Err: err})

	case transfer.IsNetworkOr5xx(err):
		if r.status.Status(record.Mode()) == models.QueueRunning {
			return taskqueue.Retryable(&NetworkRetryError{Err: err})
		}
		// The queue status covers us; retry as soon as it runs again
		return taskqueue.Retryable(err)

	case record.IsFullsize:
		if errors.Is(err, transfer.ErrMissingFile) {
			r.logger.Error("Missing attachment file; skipping", "attachment_id", record.AttachmentID)
			r.progress.DidFinish(record.ID)
			return taskqueue.Success()
		}
		r.logger.Error("Unknown upload error; stopping the queue", "attachment_id", record.AttachmentID, "error", err)
		r.stop()
		return taskqueue.Retryable(err)

	default:
		// A failed thumbnail never blocks the fullsize upload
		r.logger.Error("Failed to upload thumbnail; proceeding", "attachment_id", record.AttachmentID, "error", err)
		r.progress.DidFinish(record.ID)
		return taskqueue.Success()
	}
}

func (r *runner) DidSucceed(ctx context.Context, record *models.UploadRecord) error {
	r.logger.Info("Finished backing up attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_fullsize", record.IsFullsize)
	return r.store.MarkUploadDone(ctx, record.ID)
}

func (r *runner) DidFail(ctx context.Context, record *models.UploadRecord, err error, retryable bool) error {
	r.logger.Warn("Failed backing up attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_fullsize", record.IsFullsize,
		"retryable", retryable,
		"error", err)

	if !retryable {
		return nil
	}

	var (
		networkRetry *NetworkRetryError
		rateLimited  *RateLimitedError
	)
	now := r.clock()
	switch {
	case errors.As(err, &networkRetry):
		retries := record.NumRetries + 1
		next := now.Add(backoff.Delay(retries, networkRetryMin, networkRetryMax))
		return r.store.UpdateUploadRetry(ctx, record.ID, next.UnixMilli(), retries)
	case errors.As(err, &rateLimited):
		return r.store.UpdateUploadRetry(ctx, record.ID, now.Add(rateLimited.RetryAfter).UnixMilli(), record.NumRetries)
	}
	return nil
}

func (r *runner) DidCancel(ctx context.Context, record *models.UploadRecord) error {
	r.logger.Warn("Cancelled backing up attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_fullsize", record.IsFullsize)
	return nil
}

func (r *runner) DidDrainQueue(ctx context.Context) error {
	r.logger.Info("Did drain upload queue")
	r.progress.DidEmptyUploadQueue()
	for _, mode := range models.AllModes {
		r.status.DidEmptyQueue(mode)
	}
	if _, err := r.store.DeleteAllDoneUploads(ctx); err != nil {
		return err
	}
	if r.bus != nil {
		r.bus.Publish(events.QueueDrained{Queue: models.QueueUpload})
	}
	return nil
}
