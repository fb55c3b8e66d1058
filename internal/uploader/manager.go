// Package uploader backs up local attachments to the media tier
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"backup-media-sync/internal/eligibility"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/taskqueue"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

// Options configures a Manager
type Options struct {
	Store     Store
	Uploader  Uploader
	Auth      AuthProvider
	Status    StatusManager
	Progress  ProgressTracker
	ListMedia ListMediaManager
	Bus       *events.Bus

	IsPrimaryDevice      bool
	FullsizeConcurrency  int
	ThumbnailConcurrency int
	MaxRetries           int
	Clock                func() time.Time
	Logger               *slog.Logger
}

// Manager schedules backup uploads and drives the upload queue
type Manager struct {
	opts   Options
	store  Store
	logger *slog.Logger
	loader *taskqueue.Loader[*models.UploadRecord]
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
	logger := opts.Logger.With("component", "uploader")

	m := &Manager{
		opts:   opts,
		store:  opts.Store,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}

	r := &runner{
		store:    opts.Store,
		uploader: opts.Uploader,
		auth:     opts.Auth,
		status:   opts.Status,
		progress: opts.Progress,
		bus:      opts.Bus,
		clock:    opts.Clock,
		logger:   logger,
		stop:     func() { m.loader.Stop() },
	}

	m.loader = taskqueue.New[*models.UploadRecord](
		string(models.QueueUpload),
		&taskStore{store: opts.Store},
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

// EnqueueIfNeeded queues the uploads att needs on behalf of ref. Story owners are never backed up.
func (m *Manager) EnqueueIfNeeded(ctx context.Context, att *models.Attachment, ref *models.AttachmentReference) error {
	need, err := m.uploadNeed(ctx, att)
	if err != nil {
		return err
	}
	if !need.Any() || ref == nil || !ref.OwnerType.IsBackedUp() {
		return nil
	}
	return m.enqueue(ctx, att, ref, need)
}

// EnqueueUsingHighestPriorityOwnerIfNeeded queues the uploads att needs on behalf of its most
// important owner. Message owners outrank thread wallpapers and the newest owner breaks ties.
// modes limits which halves are queued; none means both.
func (m *Manager) EnqueueUsingHighestPriorityOwnerIfNeeded(ctx context.Context, att *models.Attachment, modes ...models.QueueMode) error {
	need, err := m.uploadNeed(ctx, att)
	if err != nil {
		return err
	}
	if len(modes) > 0 {
		need.Fullsize = need.Fullsize && slices.Contains(modes, models.ModeFullsize)
		need.Thumbnail = need.Thumbnail && slices.Contains(modes, models.ModeThumbnail)
	}
	if !need.Any() {
		return nil
	}

	refs, err := m.store.ReferencesForAttachment(ctx, att.ID)
	if err != nil {
		return fmt.Errorf("failed to load attachment references: %w", err)
	}
	best := highestPriorityOwner(refs)
	if best == nil {
		return nil
	}
	return m.enqueue(ctx, att, best, need)
}

// EnqueueAllEligibleAttachments rebuilds the upload queue from every attachment with a media name
func (m *Manager) EnqueueAllEligibleAttachments(ctx context.Context) error {
	plan, err := m.store.BackupPlan(ctx)
	if err != nil {
		return fmt.Errorf("failed to read backup plan: %w", err)
	}
	if plan.Kind != models.PlanPaid {
		return nil
	}

	if _, err := m.store.RemoveAllUploads(ctx); err != nil {
		return err
	}

	attachments, err := m.store.ListAttachmentsWithMediaName(ctx)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}
	for _, att := range attachments {
		if err := m.EnqueueUsingHighestPriorityOwnerIfNeeded(ctx, att); err != nil {
			return fmt.Errorf("failed to enqueue attachment %d: %w", att.ID, err)
		}
	}

	m.logger.Info("Re-enqueued eligible attachments", "attachments", len(attachments))
	m.Kick()
	return nil
}

func (m *Manager) uploadNeed(ctx context.Context, att *models.Attachment) (eligibility.Upload, error) {
	plan, err := m.store.BackupPlan(ctx)
	if err != nil {
		return eligibility.Upload{}, fmt.Errorf("failed to read backup plan: %w", err)
	}
	era, err := m.store.UploadEra(ctx)
	if err != nil {
		return eligibility.Upload{}, fmt.Errorf("failed to read upload era: %w", err)
	}
	return eligibility.ShouldEnqueueUpload(att, era, plan), nil
}

func (m *Manager) enqueue(ctx context.Context, att *models.Attachment, ref *models.AttachmentReference, need eligibility.Upload) error {
	nowMs := m.opts.Clock().UnixMilli()

	if need.Fullsize {
		_, err := m.store.EnqueueUpload(ctx, &models.UploadRecord{
			AttachmentID:       att.ID,
			IsFullsize:         true,
			OwnerType:          ref.OwnerType,
			MaxOwnerTimestamp:  ref.OwnerTimestamp,
			EstimatedByteCount: att.EstimatedFullsizeBytes(),
		}, nowMs)
		if err != nil {
			return fmt.Errorf("failed to enqueue fullsize upload: %w", err)
		}
	}
	if need.Thumbnail {
		_, err := m.store.EnqueueUpload(ctx, &models.UploadRecord{
			AttachmentID:       att.ID,
			IsFullsize:         false,
			OwnerType:          ref.OwnerType,
			MaxOwnerTimestamp:  ref.OwnerTimestamp,
			EstimatedByteCount: models.EstimatedThumbnailBytes,
		}, nowMs)
		if err != nil {
			return fmt.Errorf("failed to enqueue thumbnail upload: %w", err)
		}
	}
	return nil
}

// highestPriorityOwner picks the backed up owner whose uploads should go first
func highestPriorityOwner(refs []*models.AttachmentReference) *models.AttachmentReference {
	var best *models.AttachmentReference
	for _, ref := range refs {
		if !ref.OwnerType.IsBackedUp() {
			continue
		}
		switch {
		case best == nil:
			best = ref
		case ref.OwnerType.Priority() != best.OwnerType.Priority():
			if ref.OwnerType.Priority() > best.OwnerType.Priority() {
				best = ref
			}
		case newerOwner(ref.OwnerTimestamp, best.OwnerTimestamp):
			best = ref
		}
	}
	return best
}

// newerOwner reports whether a is strictly newer than b. A nil timestamp is the newest.
func newerOwner(a, b *int64) bool {
	switch {
	case b == nil:
		return false
	case a == nil:
		return true
	default:
		return *a > *b
	}
}

// BackUpAllAttachments runs the upload queue until it drains or gets gated. Only a primary
// device on a paid plan uploads.
func (m *Manager) BackUpAllAttachments(ctx context.Context) error {
	if !m.opts.IsPrimaryDevice {
		return nil
	}

	plan, err := m.store.BackupPlan(ctx)
	if err != nil {
		return fmt.Errorf("failed to read backup plan: %w", err)
	}
	if !plan.IsPaidFamily() {
		return nil
	}

	// Refresh so each task can use the cached paid credential
	auth, err := m.opts.Auth.FetchServiceAuth(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to fetch backup credential: %w", err)
	}
	if auth.Level != transfer.AuthLevelPaid {
		m.logger.Warn("Backup plan is paid but the credential is free; stopping uploads")
		m.loader.Stop()
		return nil
	}

	if _, err := m.opts.ListMedia.QueryIfNeeded(ctx); err != nil {
		return fmt.Errorf("failed to reconcile remote media: %w", err)
	}

	status, err := m.opts.Status.BeginObservingIfNecessary(ctx, models.ModeFullsize)
	if err != nil {
		return fmt.Errorf("failed to begin observing queue status: %w", err)
	}
	switch status {
	case models.QueueRunning:
	case models.QueueEmpty:
		m.logger.Debug("Upload queue empty")
		return nil
	default:
		m.logger.Info("Skipping backup uploads", "status", status)
		m.loader.Stop()
		return nil
	}

	m.logger.Info("Starting backup uploads")
	err = m.loader.LoadAndRunTasks(ctx)

	if _, statusErr := m.opts.Status.BeginObservingIfNecessary(context.WithoutCancel(ctx), models.ModeFullsize); statusErr != nil {
		m.logger.Warn("Failed to refresh queue status", "error", statusErr)
	}

	switch {
	case err == nil:
		m.logger.Info("Finished backup uploads")
		return nil
	case errors.Is(err, taskqueue.ErrStopped):
		m.logger.Info("Backup uploads stopped")
		return nil
	default:
		return fmt.Errorf("failed to run upload queue: %w", err)
	}
}

// CancelPendingUploads stops the queue and forgets every queued upload
func (m *Manager) CancelPendingUploads(ctx context.Context) error {
	m.loader.Stop()
	removed, err := m.store.RemoveAllUploads(ctx)
	if err != nil {
		return err
	}
	for _, mode := range models.AllModes {
		m.opts.Status.DidEmptyQueue(mode)
	}
	m.logger.Info("Cancelled pending uploads", "removed", removed)
	return nil
}

// SetSuspended pauses or resumes the upload queue
func (m *Manager) SetSuspended(ctx context.Context, suspended bool) error {
	if err := m.store.SetQueueSuspended(ctx, models.QueueUpload, suspended); err != nil {
		return fmt.Errorf("failed to persist upload suspension: %w", err)
	}
	m.opts.Status.SetSuspended(suspended)
	if suspended {
		m.loader.Stop()
	} else {
		m.Kick()
	}
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
	m.logger.Debug("Scheduled next upload retry", "at", next, "in", delay)
}

// IsRunning reports whether the queue is running
func (m *Manager) IsRunning() bool {
	return m.loader.IsRunning()
}

// Start runs the queue whenever the upload status turns Running or Kick is called
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
				if !isStatus || changed.Queue != models.QueueUpload || changed.Status != models.QueueRunning {
					continue
				}
			}

			if err := m.BackUpAllAttachments(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("Failed to back up attachments", "error", err)
			}
		}
	}()
}
