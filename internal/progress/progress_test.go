package progress

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"backup-media-sync/internal/events"
	"backup-media-sync/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTracker(t *testing.T) {
	tr := newTracker()
	tr.begin(1, 100)

	require.Equal(t, int64(30), tr.update(1, 30))
	require.Equal(t, int64(0), tr.update(1, 20), "never moves backwards")
	require.Equal(t, int64(70), tr.update(1, 500), "clamped to total")
	require.Equal(t, int64(0), tr.finish(1))
	require.Equal(t, int64(0), tr.finish(1), "idempotent")
	require.Equal(t, int64(0), tr.update(1, 100), "late report after finish")

	tr.begin(2, 50)
	tr.update(2, 10)
	require.Equal(t, int64(40), tr.finish(2), "finish closes the gap")

	require.Equal(t, int64(0), tr.finish(99), "unknown record")
	require.Equal(t, 0, tr.inFlight())

	// A retried record can report again
	tr.begin(2, 50)
	require.Equal(t, int64(5), tr.update(2, 5))
}

func TestTracker_RingForgetsOldest(t *testing.T) {
	tr := newTracker()
	for id := int64(1); id <= recentlyFinishedSize+1; id++ {
		tr.finish(id)
	}
	require.False(t, tr.recentlyFinished(1))
	require.True(t, tr.recentlyFinished(2))
	require.True(t, tr.recentlyFinished(recentlyFinishedSize+1))
}

func TestTracker_RetryResumesCompletedBytes(t *testing.T) {
	tr := newTracker()
	tr.begin(1, 100)
	require.Equal(t, int64(40), tr.update(1, 40))

	// The first attempt failed with a retryable error; the second starts over from zero
	tr.begin(1, 100)
	require.Equal(t, int64(0), tr.update(1, 10))
	require.Equal(t, int64(60), tr.update(1, 100))
	require.Equal(t, int64(0), tr.finish(1))
	require.Equal(t, 0, tr.inFlight())
}

func TestDownload_RetryDoesNotDoubleCount(t *testing.T) {
	ctx := context.Background()
	store := &fakeDownloadStore{remaining: 200}
	d := NewDownload(store, nil, discardLogger())

	_, err := d.BeginObserving(ctx)
	require.NoError(t, err)

	sink := d.WillBeginDownloading(3, 200)
	sink.Update(80)
	require.Equal(t, int64(80), d.Snapshot().Completed)

	sink = d.WillBeginDownloading(3, 200)
	sink.Update(200)
	require.Equal(t, int64(200), d.Snapshot().Completed)

	d.DidFinish(3)
	require.Equal(t, int64(200), d.Snapshot().Completed)
	require.Equal(t, int64(200), d.Snapshot().Total)
}

func TestSpeedHistory(t *testing.T) {
	var sh speedHistory
	start := time.Unix(1000, 0)

	require.Equal(t, float64(0), sh.bytesPerSecond(start, 0))

	sh.observe(start, 0)
	sh.observe(start.Add(100*time.Millisecond), 50)
	require.Equal(t, 0, sh.size, "samples shorter than the minimum are skipped")

	sh.observe(start.Add(time.Second), 1000)
	require.Equal(t, 1, sh.size)
	require.InDelta(t, 1000, sh.bytesPerSecond(start.Add(time.Second), 1000), 0.001)

	sh.observe(start.Add(2*time.Second), 4000)
	require.InDelta(t, 2000, sh.bytesPerSecond(start.Add(2*time.Second), 4000), 0.001)

	for i := 3; i < 3+speedHistorySize*2; i++ {
		sh.observe(start.Add(time.Duration(i)*time.Second), int64(4000+(i-2)*10))
	}
	require.Equal(t, speedHistorySize, sh.size)

	sh.reset()
	require.Equal(t, 0, sh.size)
}

func TestSnapshot_Fraction(t *testing.T) {
	require.Equal(t, float64(1), Snapshot{}.Fraction())
	require.Equal(t, 0.25, Snapshot{Completed: 25, Total: 100}.Fraction())
	require.Equal(t, float64(1), Snapshot{Completed: 150, Total: 100}.Fraction())
}

type fakeDownloadStore struct {
	mu        sync.Mutex
	remaining int64
	done      int64
	total     int64
}

func (f *fakeDownloadStore) DownloadByteSums(context.Context, models.QueueMode) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining, f.done, nil
}

func (f *fakeDownloadStore) DownloadProgressTotal(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total, nil
}

func (f *fakeDownloadStore) SetDownloadProgressTotal(_ context.Context, total int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = total
	return nil
}

func TestDownload_CumulativeProgress(t *testing.T) {
	ctx := context.Background()
	store := &fakeDownloadStore{remaining: 300, done: 100}
	d := NewDownload(store, nil, discardLogger())

	snap, err := d.BeginObserving(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(400), snap.Total)
	require.Equal(t, int64(100), snap.Completed)
	require.Equal(t, int64(400), store.total)

	sink := d.WillBeginDownloading(7, 200)
	sink.Update(50)
	sink.Update(40)
	require.Equal(t, int64(150), d.Snapshot().Completed)

	require.NoError(t, d.DidEnqueue(ctx, 100))
	require.Equal(t, int64(500), d.Snapshot().Total)
	require.Equal(t, int64(500), store.total)

	d.DidFinish(7)
	d.DidFinish(7)
	sink.Update(200)
	require.Equal(t, int64(300), d.Snapshot().Completed)

	require.NoError(t, d.DidEmpty(ctx))
	require.Equal(t, int64(0), store.total)
	require.Equal(t, Snapshot{}, d.Snapshot())
}

func TestDownload_TotalOnlyGrows(t *testing.T) {
	ctx := context.Background()
	// Done markers were swept, but the persisted total remembers them
	store := &fakeDownloadStore{remaining: 100, done: 0, total: 1000}
	d := NewDownload(store, nil, discardLogger())

	snap, err := d.BeginObserving(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1000), snap.Total)
	require.Equal(t, int64(900), snap.Completed)
}

func TestDownload_EnqueueBeforeObservingIsIgnored(t *testing.T) {
	store := &fakeDownloadStore{}
	d := NewDownload(store, nil, discardLogger())
	require.NoError(t, d.DidEnqueue(context.Background(), 100))
	require.Equal(t, int64(0), d.Snapshot().Total)
	require.Equal(t, int64(0), store.total)
}

func TestDownload_PublishesToBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := events.NewBus(discardLogger())
	defer bus.Close()

	d := NewDownload(&fakeDownloadStore{remaining: 10}, bus, discardLogger())
	updates := d.Subscribe(ctx)

	_, err := d.BeginObserving(ctx)
	require.NoError(t, err)

	select {
	case snap := <-updates:
		require.Equal(t, Snapshot{Completed: 0, Total: 10}, snap)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress published")
	}

	require.NoError(t, d.DidEmpty(ctx))
	select {
	case snap := <-updates:
		require.Equal(t, Snapshot{Completed: 10, Total: 10}, snap)
	case <-time.After(2 * time.Second):
		t.Fatal("no final progress published")
	}
}

type fakeUploadStore struct {
	remaining int64
	done      int64
}

func (f *fakeUploadStore) UploadByteSums(context.Context) (int64, int64, error) {
	return f.remaining, f.done, nil
}

func TestUpload_IndependentObservers(t *testing.T) {
	ctx := context.Background()
	store := &fakeUploadStore{remaining: 100}
	u := NewUpload(store, discardLogger())

	first, err := u.AddObserver(ctx)
	require.NoError(t, err)

	store.remaining = 150
	second, err := u.AddObserver(ctx)
	require.NoError(t, err)

	sink := u.WillBeginUploading(1, 50)
	sink.Update(20)
	u.DidFinish(1)
	sink.Update(50)

	require.Equal(t, Snapshot{Completed: 50, Total: 100}, u.Snapshot(first))
	require.Equal(t, Snapshot{Completed: 50, Total: 150}, u.Snapshot(second))
	require.Equal(t, 0.5, u.Snapshot(first).Fraction())
	require.InDelta(t, 1.0/3.0, u.Snapshot(second).Fraction(), 0.0001)

	latest := <-first.Updates()
	require.Equal(t, int64(50), latest.Completed)
}

func TestUpload_DenominatorIsFixed(t *testing.T) {
	ctx := context.Background()
	store := &fakeUploadStore{remaining: 40, done: 10}
	u := NewUpload(store, discardLogger())

	o, err := u.AddObserver(ctx)
	require.NoError(t, err)
	require.Equal(t, Snapshot{Completed: 10, Total: 50}, u.Snapshot(o))

	// Work enqueued later never grows this observer's total
	store.remaining = 1000
	u.WillBeginUploading(2, 500).Update(500)
	u.DidFinish(2)
	require.Equal(t, Snapshot{Completed: 50, Total: 50}, u.Snapshot(o))
}

func TestUpload_DrainClosesObservers(t *testing.T) {
	ctx := context.Background()
	u := NewUpload(&fakeUploadStore{remaining: 80}, discardLogger())

	o, err := u.AddObserver(ctx)
	require.NoError(t, err)
	removed, err := u.AddObserver(ctx)
	require.NoError(t, err)
	u.RemoveObserver(removed)

	u.WillBeginUploading(3, 30).Update(10)
	u.DidEmptyUploadQueue()

	require.Equal(t, Snapshot{Completed: 80, Total: 80}, u.Snapshot(o))
	require.Equal(t, Snapshot{Completed: 0, Total: 80}, u.Snapshot(removed))
}
