package downloader

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
	"backup-media-sync/internal/listmedia"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/taskqueue"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

const (
	// mediaTierRetryLimit bounds media tier retries after a 404 on a linked device
	mediaTierRetryLimit = 32

	mediaTierRetryMin = 24 * time.Hour
	mediaTierRetryMax = 30 * 24 * time.Hour

	transientRetryMin = 5 * time.Second
	transientRetryMax = time.Hour
)

// runner executes download records for the task queue
type runner struct {
	store        Store
	downloader   Downloader
	status       StatusManager
	progress     ProgressTracker
	listMedia    ListMediaManager
	uploads      UploadScheduler
	bus          *events.Bus
	isPrimary    bool
	remoteConfig models.RemoteConfig
	clock        func() time.Time
	logger       *slog.Logger
	stop         func()
}

func (r *runner) RunTask(ctx context.Context, record *models.DownloadRecord) taskqueue.Result {
	mode := record.Mode()

	r.status.QuickCheckDiskSpace()

	queueStatus, token := r.status.StatusAndToken(mode)
	switch queueStatus {
	case models.QueueRunning, models.QueueEmpty:
	default:
		r.stop()
		return taskqueue.Retryable(&status.GatingError{Queue: models.QueueDownload, Status: queueStatus})
	}

	needsListMedia, err := r.listMedia.NeedsQuery(ctx)
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to read list media flag: %w", err))
	}
	if needsListMedia {
		r.stop()
		return taskqueue.Retryable(listmedia.ErrNeedsQuery)
	}

	att, err := r.store.GetAttachment(ctx, record.AttachmentID)
	if errors.Is(err, database.ErrNotFound) {
		return taskqueue.Cancelled()
	}
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to load attachment: %w", err))
	}

	plan, err := r.store.BackupPlan(ctx)
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to read backup plan: %w", err))
	}

	elig := r.eligibilityFor(att, record.MaxOwnerTimestamp, plan)
	relevant := elig.ThumbnailMediaTier
	if !record.IsThumbnail {
		relevant = elig.FullsizeState()
	}

	switch {
	case relevant == nil:
		// Nothing to download from anymore; count it as finished for progress
		r.finishProgress(record)
		return taskqueue.Cancelled()
	case *relevant == models.StateIneligible:
		r.logger.Info("Marking download ineligible", "attachment_id", att.ID, "is_thumbnail", record.IsThumbnail)
		if err := r.store.MarkDownloadIneligible(ctx, record.ID); err != nil {
			return taskqueue.Retryable(fmt.Errorf("failed to mark download ineligible: %w", err))
		}
		return taskqueue.Retryable(ErrNoLongerEligible)
	case *relevant == models.StateDone:
		if err := r.store.MarkDownloadDone(ctx, record.ID); err != nil {
			return taskqueue.Retryable(fmt.Errorf("failed to mark download done: %w", err))
		}
		r.finishProgress(record)
		return taskqueue.Retryable(ErrNoLongerEligible)
	}

	source := r.chooseSource(record, att, elig)

	sink := transfer.NopSink
	if !record.IsThumbnail {
		sink = r.progress.WillBeginDownloading(record.ID, record.EstimatedByteCount)
	}

	local, err := r.downloader.Download(ctx, att, source, sink)
	if err != nil {
		return r.classifyError(ctx, record, token, elig, source, err)
	}

	r.status.JobDidSucceed(token)

	if record.IsThumbnail {
		err = r.store.MarkThumbnailDownloaded(ctx, att.ID, *local)
	} else {
		err = r.store.MarkFullsizeDownloaded(ctx, att.ID, *local)
	}
	if err != nil {
		return taskqueue.Retryable(fmt.Errorf("failed to record downloaded file: %w", err))
	}

	r.finishProgress(record)
	return taskqueue.Success()
}

func (r *runner) eligibilityFor(att *models.Attachment, ownerTimestamp *int64, plan models.BackupPlan) eligibility.Download {
	return eligibility.ForDownload(att, ownerTimestamp, r.clock(), plan, r.remoteConfig, r.isPrimary)
}

// chooseSource tries the media tier once first, then the transit tier once, then
// falls back to the media tier
func (r *runner) chooseSource(record *models.DownloadRecord, att *models.Attachment, elig eligibility.Download) models.DownloadSource {
	if record.IsThumbnail {
		return models.SourceMediaTierThumbnail
	}
	mediaReady := elig.CanDownloadMediaTierFullsize()
	if mediaReady && record.NumRetries == 0 {
		return models.SourceMediaTierFullsize
	}
	if att.TransitTier != nil && (!mediaReady || record.NumRetries == 1) && elig.CanDownloadTransitTierFullsize() {
		return models.SourceTransitTier
	}
	return models.SourceMediaTierFullsize
}

func (r *runner) classifyError(
	ctx context.Context,
	record *models.DownloadRecord,
	token status.Token,
	elig eligibility.Download,
	source models.DownloadSource,
	err error,
) taskqueue.Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		r.logger.Info("Cancelled, stopping the queue", "record_id", record.ID)
		r.stop()
		return taskqueue.Retryable(ctx.Err())
	}

	switch r.status.JobDidExperienceError(record.Mode(), token, err) {
	case models.QueueRunning, models.QueueEmpty:
	default:
		r.stop()
	}

	now := r.clock()
	notFound := transfer.IsNotFound(err)

	switch {
	case !record.IsThumbnail &&
		record.NumRetries == 0 &&
		elig.CanDownloadTransitTierFullsize() &&
		source == models.SourceMediaTierFullsize:
		// If the media tier would not be retried anyway, forget it so the attachment gets re-uploaded
		return taskqueue.Retryable(&RetryAsTransitTierError{
			WipeMediaTierInfo: notFound && !r.canRetryMediaTier404(ctx, record),
			Err:               err,
		})

	case notFound &&
		!record.IsThumbnail &&
		record.CanDownloadFromMediaTier &&
		record.NumRetries < mediaTierRetryLimit &&
		r.canRetryMediaTier404(ctx, record):
		delay := backoff.Delay(record.NumRetries, mediaTierRetryMin, mediaTierRetryMax)
		return taskqueue.Retryable(&RetryMediaTierError{NextRetryAt: now.Add(delay), Err: err})

	case notFound:
		return taskqueue.Unretryable(&Unretryable404Error{Source: source, Err: err})

	case transfer.IsNetworkOr5xx(err), transfer.StatusCode(err) == http.StatusTooManyRequests:
		delay, ok := transfer.RetryAfter(err)
		if !ok {
			delay = backoff.Delay(record.NumRetries, transientRetryMin, transientRetryMax)
		}
		return taskqueue.Retryable(&RetryTransientError{NextRetryAt: now.Add(delay), Err: err})

	default:
		return taskqueue.Unretryable(err)
	}
}

// canRetryMediaTier404 reports whether a media tier 404 may just mean the primary has not
// uploaded yet. Only linked devices on a paid plan wait, and only for uploads the primary
// has not claimed with a CDN number.
func (r *runner) canRetryMediaTier404(ctx context.Context, record *models.DownloadRecord) bool {
	if r.isPrimary {
		return false
	}
	plan, err := r.store.BackupPlan(ctx)
	if err != nil || !plan.IsPaidFamily() {
		return false
	}
	att, err := r.store.GetAttachment(ctx, record.AttachmentID)
	if err != nil {
		return false
	}
	return att.MediaTier != nil && att.MediaTier.CDNNumber == nil
}

func (r *runner) finishProgress(record *models.DownloadRecord) {
	if !record.IsThumbnail {
		r.progress.DidFinish(record.ID)
	}
}

func (r *runner) DidSucceed(ctx context.Context, record *models.DownloadRecord) error {
	r.logger.Info("Finished restoring attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_thumbnail", record.IsThumbnail)
	return r.store.MarkDownloadDone(ctx, record.ID)
}

func (r *runner) DidFail(ctx context.Context, record *models.DownloadRecord, err error, retryable bool) error {
	r.logger.Warn("Failed restoring attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_thumbnail", record.IsThumbnail,
		"retryable", retryable,
		"error", err)

	var (
		retryMediaTier *RetryMediaTierError
		retryTransient *RetryTransientError
		retryTransit   *RetryAsTransitTierError
		notFound       *Unretryable404Error
	)

	if retryable {
		switch {
		case errors.As(err, &retryMediaTier):
			return r.store.UpdateDownloadRetry(ctx, record.ID, retryMediaTier.NextRetryAt.UnixMilli(), record.NumRetries+1)
		case errors.As(err, &retryTransient):
			return r.store.UpdateDownloadRetry(ctx, record.ID, retryTransient.NextRetryAt.UnixMilli(), record.NumRetries+1)
		case errors.As(err, &retryTransit):
			// Keep the cursor so the transit tier attempt runs right away
			if err := r.store.UpdateDownloadRetry(ctx, record.ID, record.MinRetryTimestamp, record.NumRetries+1); err != nil {
				return err
			}
			if retryTransit.WipeMediaTierInfo {
				return r.forgetMediaTier(ctx, record.AttachmentID, models.ModeFullsize)
			}
		}
		return nil
	}

	if errors.As(err, &notFound) {
		switch notFound.Source {
		case models.SourceMediaTierThumbnail:
			return r.forgetMediaTier(ctx, record.AttachmentID, models.ModeThumbnail)
		case models.SourceMediaTierFullsize:
			return r.forgetMediaTier(ctx, record.AttachmentID, models.ModeFullsize)
		case models.SourceTransitTier:
			if err := r.store.MarkTransitTierExpired(ctx, record.AttachmentID); err != nil && !errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("failed to mark transit tier expired: %w", err)
			}
		}
	}
	return nil
}

// forgetMediaTier clears stale media tier metadata and, if the data is still local,
// schedules it to be uploaded again
func (r *runner) forgetMediaTier(ctx context.Context, attachmentID int64, mode models.QueueMode) error {
	var err error
	if mode == models.ModeThumbnail {
		err = r.store.ClearThumbnailMediaTierInfo(ctx, attachmentID)
	} else {
		err = r.store.ClearMediaTierInfo(ctx, attachmentID)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to clear media tier info: %w", err)
	}

	att, err := r.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load attachment: %w", err)
	}
	if !att.IsStream() || r.uploads == nil {
		return nil
	}
	if err := r.uploads.EnqueueUsingHighestPriorityOwnerIfNeeded(ctx, att, mode); err != nil {
		return fmt.Errorf("failed to re-enqueue upload: %w", err)
	}
	return nil
}

func (r *runner) DidCancel(ctx context.Context, record *models.DownloadRecord) error {
	r.logger.Warn("Cancelled restoring attachment",
		"attachment_id", record.AttachmentID,
		"record_id", record.ID,
		"is_thumbnail", record.IsThumbnail)
	return nil
}

func (r *runner) DidDrainQueue(ctx context.Context) error {
	r.logger.Info("Did drain download queue")
	if err := r.progress.DidEmpty(ctx); err != nil {
		r.logger.Warn("Failed to close download progress", "error", err)
	}
	for _, mode := range models.AllModes {
		r.status.DidEmptyQueue(mode)
	}
	// Done markers only exist for progress accounting
	if _, err := r.store.DeleteAllDoneDownloads(ctx); err != nil {
		return err
	}
	if r.bus != nil {
		r.bus.Publish(events.QueueDrained{Queue: models.QueueDownload})
	}
	return nil
}
