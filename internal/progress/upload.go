package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"backup-media-sync/internal/transfer"
)

// UploadStore provides the persisted sums behind upload progress
type UploadStore interface {
	UploadByteSums(ctx context.Context) (remaining, done int64, err error)
}

// Observer follows upload progress against the total that existed when it subscribed
type Observer struct {
	id        int
	total     int64
	completed int64
	updates   chan Snapshot
}

// Updates delivers the latest snapshot; older undelivered snapshots are dropped
func (o *Observer) Updates() <-chan Snapshot {
	return o.updates
}

func (o *Observer) notify() {
	snap := Snapshot{Completed: o.completed, Total: o.total}
	select {
	case <-o.updates:
	default:
	}
	select {
	case o.updates <- snap:
	default:
	}
}

// Upload tracks upload progress for any number of observers, each with a fixed denominator
type Upload struct {
	store  UploadStore
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	observers map[int]*Observer
	tracker   *tracker
}

// NewUpload creates an Upload engine
func NewUpload(store UploadStore, logger *slog.Logger) *Upload {
	return &Upload{
		store:     store,
		logger:    logger.With("component", "upload_progress"),
		observers: make(map[int]*Observer),
		tracker:   newTracker(),
	}
}

// AddObserver snapshots the current remaining and done sums as the observer's total
func (u *Upload) AddObserver(ctx context.Context) (*Observer, error) {
	remaining, done, err := u.store.UploadByteSums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload sums: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	o := &Observer{
		id:        u.nextID,
		total:     remaining + done,
		completed: done,
		updates:   make(chan Snapshot, 1),
	}
	u.nextID++
	u.observers[o.id] = o
	o.notify()

	u.logger.Debug("Added upload progress observer", "observer", o.id, "total", o.total, "completed", o.completed)
	return o, nil
}

// RemoveObserver stops updates to o
func (u *Upload) RemoveObserver(o *Observer) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.observers, o.id)
}

// Snapshot returns the latest progress seen by o
func (u *Upload) Snapshot(o *Observer) Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Snapshot{Completed: o.completed, Total: o.total}
}

// WillBeginUploading registers a record and returns a sink for its byte progress
func (u *Upload) WillBeginUploading(recordID int64, total int64) transfer.Sink {
	u.mu.Lock()
	u.tracker.begin(recordID, total)
	u.mu.Unlock()

	return transfer.SinkFunc(func(completed int64) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.advanceLocked(u.tracker.update(recordID, completed))
	})
}

// DidFinish forces a record to complete. Calling it twice has no further effect.
func (u *Upload) DidFinish(recordID int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.advanceLocked(u.tracker.finish(recordID))
}

// DidEmptyUploadQueue closes every observer to 100%
func (u *Upload) DidEmptyUploadQueue() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, o := range u.observers {
		o.completed = o.total
		o.notify()
	}
	u.tracker.reset()
}

func (u *Upload) advanceLocked(delta int64) {
	if delta <= 0 {
		return
	}
	for _, o := range u.observers {
		o.completed = min(o.completed+delta, o.total)
		o.notify()
	}
}
