// Package progress reports aggregate byte progress for the transfer queues
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"backup-media-sync/internal/events"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

const publishInterval = 250 * time.Millisecond

// Snapshot is the progress of a queue at a point in time
type Snapshot struct {
	Completed      int64   `json:"completed"`
	Total          int64   `json:"total"`
	BytesPerSecond float64 `json:"bytes_per_second"`
}

// Fraction returns completed over total, or 1 when there is nothing to do
func (s Snapshot) Fraction() float64 {
	if s.Total <= 0 {
		return 1
	}
	f := float64(s.Completed) / float64(s.Total)
	if f > 1 {
		return 1
	}
	return f
}

// DownloadStore provides the persisted sums behind download progress
type DownloadStore interface {
	DownloadByteSums(ctx context.Context, mode models.QueueMode) (remaining, done int64, err error)
	DownloadProgressTotal(ctx context.Context) (int64, error)
	SetDownloadProgressTotal(ctx context.Context, total int64) error
}

// Download tracks fullsize download progress against a cumulative total that only grows
// until the queue drains.
type Download struct {
	store  DownloadStore
	bus    *events.Bus
	logger *slog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	observing bool
	total     int64
	completed int64
	tracker   *tracker
	speed     speedHistory
	publish   rate.Sometimes
	logEvery  rate.Sometimes
}

// NewDownload creates a Download engine
func NewDownload(store DownloadStore, bus *events.Bus, logger *slog.Logger) *Download {
	return &Download{
		store:    store,
		bus:      bus,
		logger:   logger.With("component", "download_progress"),
		clock:    time.Now,
		tracker:  newTracker(),
		publish:  rate.Sometimes{Interval: publishInterval},
		logEvery: rate.Sometimes{Interval: 10 * time.Second},
	}
}

// BeginObserving loads the persisted totals and emits the first snapshot
func (d *Download) BeginObserving(ctx context.Context) (Snapshot, error) {
	remaining, done, err := d.store.DownloadByteSums(ctx, models.ModeFullsize)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read download sums: %w", err)
	}
	persisted, err := d.store.DownloadProgressTotal(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read download progress total: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	total := max(persisted, remaining+done, d.total)
	if err := d.store.SetDownloadProgressTotal(ctx, total); err != nil {
		return Snapshot{}, fmt.Errorf("failed to persist download progress total: %w", err)
	}

	d.total = total
	d.completed = max(total-remaining, d.completed)
	d.observing = true

	snap := d.snapshotLocked()
	d.logger.Info("Observing download progress",
		"completed", humanize.IBytes(uint64(snap.Completed)),
		"total", humanize.IBytes(uint64(snap.Total)))
	d.publishLocked(snap, true)
	return snap, nil
}

// DidEnqueue grows the total by bytes of newly enqueued work
func (d *Download) DidEnqueue(ctx context.Context, bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.observing {
		return nil
	}
	d.total += bytes
	if err := d.store.SetDownloadProgressTotal(ctx, d.total); err != nil {
		return fmt.Errorf("failed to persist download progress total: %w", err)
	}
	d.publishLocked(d.snapshotLocked(), false)
	return nil
}

// WillBeginDownloading registers a record and returns a sink for its byte progress
func (d *Download) WillBeginDownloading(recordID int64, total int64) transfer.Sink {
	d.mu.Lock()
	d.tracker.begin(recordID, total)
	d.mu.Unlock()

	return transfer.SinkFunc(func(completed int64) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.advanceLocked(d.tracker.update(recordID, completed), false)
	})
}

// DidFinish forces a record to complete. Calling it twice has no further effect.
func (d *Download) DidFinish(recordID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked(d.tracker.finish(recordID), true)
}

// DidEmpty closes any remaining gap, emits 100% and resets the cumulative total
func (d *Download) DidEmpty(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.completed = d.total
	d.publishLocked(d.snapshotLocked(), true)
	d.logger.Info("Download queue finished", "total", humanize.IBytes(uint64(d.total)))

	d.observing = false
	d.total = 0
	d.completed = 0
	d.tracker.reset()
	d.speed.reset()

	if err := d.store.SetDownloadProgressTotal(ctx, 0); err != nil {
		return fmt.Errorf("failed to reset download progress total: %w", err)
	}
	return nil
}

// Snapshot returns the current progress
func (d *Download) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Subscribe streams download progress snapshots until ctx is done
func (d *Download) Subscribe(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	if d.bus == nil {
		close(out)
		return out
	}
	in := d.bus.Subscribe(ctx, events.KindProgressUpdated)
	go func() {
		defer close(out)
		for e := range in {
			pu, ok := e.(events.ProgressUpdated)
			if !ok || pu.Queue != models.QueueDownload {
				continue
			}
			select {
			case out <- Snapshot{Completed: pu.Completed, Total: pu.Total}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (d *Download) advanceLocked(delta int64, force bool) {
	if delta <= 0 && !force {
		return
	}
	d.completed = min(d.completed+delta, d.total)
	d.speed.observe(d.clock(), d.completed)
	snap := d.snapshotLocked()
	d.publishLocked(snap, force)
	d.logEvery.Do(func() {
		d.logger.Debug("Download progress",
			"progress", fmt.Sprintf("%.1f%%", snap.Fraction()*100),
			"speed", humanize.IBytes(uint64(snap.BytesPerSecond))+"/s",
			"in_flight", d.tracker.inFlight())
	})
}

func (d *Download) snapshotLocked() Snapshot {
	return Snapshot{
		Completed:      d.completed,
		Total:          d.total,
		BytesPerSecond: d.speed.bytesPerSecond(d.clock(), d.completed),
	}
}

func (d *Download) publishLocked(snap Snapshot, force bool) {
	if d.bus == nil {
		return
	}
	send := func() {
		d.bus.Publish(events.ProgressUpdated{Queue: models.QueueDownload, Completed: snap.Completed, Total: snap.Total})
	}
	if force {
		send()
		return
	}
	d.publish.Do(send)
}
