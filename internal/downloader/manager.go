// Package downloader restores backed up attachments from the media and transit tiers
package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"backup-media-sync/internal/eligibility"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/taskqueue"
	"backup-media-sync/pkg/models"
)

// Options configures a Manager
type Options struct {
	Store      Store
	Downloader Downloader
	Status     StatusManager
	Progress   ProgressTracker
	ListMedia  ListMediaManager
	Uploads    UploadScheduler
	Bus        *events.Bus

	IsPrimaryDevice      bool
	RemoteConfig         models.RemoteConfig
	FullsizeConcurrency  int
	ThumbnailConcurrency int
	MaxRetries           int
	Clock                func() time.Time
	Logger               *slog.Logger
}

// Manager schedules backup downloads and drives the download queue
type Manager struct {
	opts   Options
	store  Store
	logger *slog.Logger
	loader *taskqueue.Loader[*models.DownloadRecord]
	kick   chan struct{}

	retryMu    sync.Mutex
	retryTimer *time.Timer
}

// New creates a Manager
func New(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "downloader")

	m := &Manager{
		opts:   opts,
		store:  opts.Store,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}

	r := &runner{
		store:         opts.Store,
		downloader:    opts.Downloader,
		status:        opts.Status,
		progress:      opts.Progress,
		listMedia:     opts.ListMedia,
		uploads:       opts.Uploads,
		isPrimary:     opts.IsPrimaryDevice,
		remoteConfig:  opts.RemoteConfig,
		clock:         opts.Clock,
		bus:           opts.Bus,
		logger:        logger,
		stop:          func() { m.loader.Stop() },
	}

	m.loader = taskqueue.New[*models.DownloadRecord](
		string(models.QueueDownload),
		&taskStore{store: opts.Store, recencyWindow: opts.RemoteConfig.RecencyWindow},
		r,
		taskqueue.Options{
			MaxConcurrentTasks: opts.FullsizeConcurrency + opts.ThumbnailConcurrency,
			ClassLimits: map[string]int{
				string(models.ModeFullsize):  opts.FullsizeConcurrency,
				string(models.ModeThumbnail): opts.ThumbnailConcurrency,
			},
			MaxRetries:       opts.MaxRetries,
			OnRetryScheduled: m.scheduleRetry,
			Clock:            opts.Clock,
			Logger:           opts.Logger,
		},
	)
	return m
}

// EnqueueFromBackupIfNeeded queues the thumbnail and fullsize downloads an attachment
// restored from a backup is eligible for
func (m *Manager) EnqueueFromBackupIfNeeded(
	ctx context.Context,
	att *models.Attachment,
	ref *models.AttachmentReference,
	restoreStart time.Time,
) error {
	plan, err := m.store.BackupPlan(ctx)
	if err != nil {
		return fmt.Errorf("failed to read backup plan: %w", err)
	}

	var ownerTimestamp *int64
	if ref != nil {
		ownerTimestamp = ref.OwnerTimestamp
	}

	existing, err := m.store.DownloadRecordsForAttachment(ctx, att.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing downloads: %w", err)
	}
	wasReady := make(map[bool]bool, len(existing))
	for _, record := range existing {
		wasReady[record.IsThumbnail] = record.State == models.StateReady
		// Queued records keep the latest owner, so eligibility must be judged against it
		ownerTimestamp = models.LaterOwnerTimestamp(ownerTimestamp, record.MaxOwnerTimestamp)
	}

	elig := eligibility.ForDownload(att, ownerTimestamp, restoreStart, plan, m.opts.RemoteConfig, m.opts.IsPrimaryDevice)

	nowMs := restoreStart.UnixMilli()

	if state := elig.ThumbnailMediaTier; state != nil && *state != models.StateDone {
		_, err := m.store.EnqueueDownload(ctx, &models.DownloadRecord{
			AttachmentID:             att.ID,
			IsThumbnail:              true,
			CanDownloadFromMediaTier: true,
			MaxOwnerTimestamp:        ownerTimestamp,
			State:                    *state,
			EstimatedByteCount:       models.EstimatedThumbnailBytes,
		}, nowMs)
		if err != nil {
			return fmt.Errorf("failed to enqueue thumbnail download: %w", err)
		}
	}

	if state := elig.FullsizeState(); state != nil && *state != models.StateDone {
		record, err := m.store.EnqueueDownload(ctx, &models.DownloadRecord{
			AttachmentID:             att.ID,
			IsThumbnail:              false,
			CanDownloadFromMediaTier: elig.CanDownloadMediaTierFullsize(),
			MaxOwnerTimestamp:        ownerTimestamp,
			State:                    *state,
			EstimatedByteCount:       att.EstimatedFullsizeBytes(),
		}, nowMs)
		if err != nil {
			return fmt.Errorf("failed to enqueue fullsize download: %w", err)
		}
		if record.State == models.StateReady && !wasReady[false] {
			if err := m.opts.Progress.DidEnqueue(ctx, record.EstimatedByteCount); err != nil {
				m.logger.Warn("Failed to grow download progress", "attachment_id", att.ID, "error", err)
			}
		}
	}
	return nil
}

// RestoreAttachmentsIfNeeded runs the download queue until it drains or gets gated
func (m *Manager) RestoreAttachmentsIfNeeded(ctx context.Context) error {
	if _, err := m.opts.ListMedia.QueryIfNeeded(ctx); err != nil {
		return fmt.Errorf("failed to reconcile remote media: %w", err)
	}

	fullsize, err := m.opts.Status.BeginObservingIfNecessary(ctx, models.ModeFullsize)
	if err != nil {
		return fmt.Errorf("failed to begin observing queue status: %w", err)
	}
	thumbnail, _ := m.opts.Status.StatusAndToken(models.ModeThumbnail)

	if fullsize != models.QueueRunning && thumbnail != models.QueueRunning {
		status := fullsize
		if status == models.QueueEmpty {
			status = thumbnail
		}
		switch status {
		case models.QueueEmpty:
			m.logger.Debug("Download queue empty")
		case models.QueueSuspended:
			m.logger.Info("Skipping backup attachment downloads while suspended")
		default:
			m.logger.Info("Skipping backup attachment downloads", "status", status)
			m.loader.Stop()
		}
		return nil
	}

	if _, err := m.opts.Progress.BeginObserving(ctx); err != nil {
		m.logger.Error("Unable to observe download progress", "error", err)
	}

	m.logger.Info("Starting backup attachment downloads", "fullsize", fullsize, "thumbnail", thumbnail)
	err = m.loader.LoadAndRunTasks(ctx)

	// Records may have been parked or cancelled without draining; refresh emptiness
	if _, statusErr := m.opts.Status.BeginObservingIfNecessary(context.WithoutCancel(ctx), models.ModeFullsize); statusErr != nil {
		m.logger.Warn("Failed to refresh queue status", "error", statusErr)
	}

	switch {
	case err == nil:
		m.logger.Info("Finished backup attachment downloads")
		return nil
	case errors.Is(err, taskqueue.ErrStopped):
		m.logger.Info("Backup attachment downloads stopped")
		return nil
	default:
		return fmt.Errorf("failed to run download queue: %w", err)
	}
}

// BackupPlanDidChange updates queued downloads for a plan change. Linked devices keep
// downloading whatever was queued when they linked.
func (m *Manager) BackupPlanDidChange(ctx context.Context, oldPlan, newPlan models.BackupPlan) error {
	if !m.opts.IsPrimaryDevice {
		return nil
	}

	oldKind, newKind := oldPlan.Kind, newPlan.Kind
	if oldKind == newKind && !oldPlan.IsPaidFamily() {
		return nil
	}

	m.loader.Stop()
	defer m.Kick()

	m.logger.Info("Backup plan changed", "old", oldPlan, "new", newPlan)

	switch {
	case oldKind == models.PlanDisabling && newKind != models.PlanDisabled,
		oldKind == models.PlanDisabled && newKind == models.PlanDisabling:
		return fmt.Errorf("%w: %s -> %s", ErrUnexpectedPlanTransition, oldPlan, newPlan)

	case oldKind == models.PlanFree && newKind == models.PlanDisabling:
		// Downloads left over from a paid plan were a courtesy; disabling cancels them
		if _, err := m.store.MarkAllReadyDownloadsIneligible(ctx); err != nil {
			return err
		}
		_, err := m.store.DeleteAllDoneDownloads(ctx)
		return err

	case oldPlan.IsPaidFamily() && newKind == models.PlanDisabling:
		if _, err := m.store.DeleteAllDoneDownloads(ctx); err != nil {
			return err
		}
		// Disabling is the user opting in to pull everything down
		if err := m.setSuspended(ctx, false); err != nil {
			return err
		}
		if oldPlan.Optimizing() {
			_, err := m.store.MarkAllIneligibleDownloadsReady(ctx)
			return err
		}
		return nil

	case newKind == models.PlanDisabled:
		if _, err := m.store.DeleteAllDoneDownloads(ctx); err != nil {
			return err
		}
		if _, err := m.store.MarkAllReadyDownloadsIneligible(ctx); err != nil {
			return err
		}
		return m.setSuspended(ctx, true)

	case oldKind == models.PlanDisabled && newKind == models.PlanFree:
		if _, err := m.store.MarkAllIneligibleDownloadsReady(ctx); err != nil {
			return err
		}
		return m.setSuspended(ctx, true)

	case oldKind == models.PlanDisabled && newPlan.IsPaidFamily():
		if _, err := m.store.MarkAllIneligibleDownloadsReady(ctx); err != nil {
			return err
		}
		if err := m.setSuspended(ctx, true); err != nil {
			return err
		}
		if newPlan.Optimizing() {
			return m.didEnableOptimizeStorage(ctx)
		}
		return nil

	case oldPlan.IsPaidFamily() && newKind == models.PlanFree:
		// Keep running downloads while the media tier still holds the data, but
		// optimization is implicitly off now
		if oldPlan.Optimizing() {
			return m.didDisableOptimizeStorage(ctx)
		}
		return nil

	case oldKind == models.PlanFree && newPlan.IsPaidFamily():
		if newPlan.Optimizing() {
			return m.didEnableOptimizeStorage(ctx)
		}
		return nil

	case oldPlan.IsPaidFamily() && newPlan.IsPaidFamily():
		switch {
		case oldPlan.Optimizing() == newPlan.Optimizing():
			return nil
		case newPlan.Optimizing():
			return m.didEnableOptimizeStorage(ctx)
		default:
			return m.didDisableOptimizeStorage(ctx)
		}
	}
	return nil
}

// didEnableOptimizeStorage parks media tier fullsize downloads that would be offloaded
// right after finishing
func (m *Manager) didEnableOptimizeStorage(ctx context.Context) error {
	threshold := m.opts.Clock().Add(-m.opts.RemoteConfig.OffloadingThreshold).UnixMilli()
	parked, err := m.store.MarkMediaTierFullsizeDownloadsIneligible(ctx, threshold)
	if err != nil {
		return err
	}
	m.logger.Info("Optimize storage enabled", "parked_downloads", parked)
	if err := m.setSuspended(ctx, false); err != nil {
		return err
	}
	_, err = m.store.DeleteAllDoneDownloads(ctx)
	return err
}

// didDisableOptimizeStorage makes offloaded media downloadable again but waits for the user
func (m *Manager) didDisableOptimizeStorage(ctx context.Context) error {
	if _, err := m.store.MarkAllIneligibleDownloadsReady(ctx); err != nil {
		return err
	}
	return m.setSuspended(ctx, true)
}

// SetSuspended pauses or resumes the download queue
func (m *Manager) SetSuspended(ctx context.Context, suspended bool) error {
	if err := m.setSuspended(ctx, suspended); err != nil {
		return err
	}
	if suspended {
		m.loader.Stop()
	} else {
		m.Kick()
	}
	return nil
}

func (m *Manager) setSuspended(ctx context.Context, suspended bool) error {
	if err := m.store.SetQueueSuspended(ctx, models.QueueDownload, suspended); err != nil {
		return fmt.Errorf("failed to persist download suspension: %w", err)
	}
	m.opts.Status.SetSuspended(suspended)
	return nil
}

// Kick asks the background loop started by Start to run the queue
func (m *Manager) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Stop stops the current queue run and any pending retry kick
func (m *Manager) Stop() {
	m.retryMu.Lock()
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.retryMu.Unlock()
	m.loader.Stop()
}

// scheduleRetry kicks the queue when the earliest parked retry comes due. A later
// schedule replaces an earlier one.
func (m *Manager) scheduleRetry(next time.Time) {
	delay := next.Sub(m.opts.Clock())
	if delay < 0 {
		delay = 0
	}

	m.retryMu.Lock()
	defer m.retryMu.Unlock()
	if m.retryTimer != nil {
		m.retryTimer.Stop()
	}
	m.retryTimer = time.AfterFunc(delay, m.Kick)
	m.logger.Debug("Scheduled next download retry", "at", next, "in", delay)
}

// IsRunning reports whether the queue is running
func (m *Manager) IsRunning() bool {
	return m.loader.IsRunning()
}

// Start runs the queue whenever the download status turns Running or Kick is called
func (m *Manager) Start(ctx context.Context) {
	var statusEvents <-chan events.Event
	if m.opts.Bus != nil {
		statusEvents = m.opts.Bus.Subscribe(ctx, events.KindStatusChanged)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.kick:
			case e, ok := <-statusEvents:
				if !ok {
					statusEvents = nil
					continue
				}
				changed, isStatus := e.(events.StatusChanged)
				if !isStatus || changed.Queue != models.QueueDownload || changed.Status != models.QueueRunning {
					continue
				}
			}

			if err := m.RestoreAttachmentsIfNeeded(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("Failed to restore attachments", "error", err)
			}
		}
	}()
}
